// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package qgemm

import (
	"math/rand"
)

// testRNG returns a seeded random number generator for reproducible tests.
func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(101))
}

// operandRange returns the lowest value and the span of T.
func operandRange[T Operand]() (int64, int64) {
	switch dtypeOf[T]() {
	case Int8:
		return -128, 255
	case Uint8:
		return 0, 255
	case Int16:
		return -32768, 65535
	default:
		return 0, 65535
	}
}

// randomOperands fills n values uniformly over T's full range.
func randomOperands[T Operand](rng *rand.Rand, n int) []T {
	lo, span := operandRange[T]()
	out := make([]T, n)
	for i := range out {
		out[i] = T(lo + rng.Int63n(span+1))
	}
	return out
}

// naiveGemm computes the product with independent scalar code: one dot
// product per output element with offsets subtracted first.
func naiveGemm[L, R Operand](a []L, lda int, oa Offsets[L], b []R, ldb int, ob Offsets[R], m, n, k int) []int64 {
	out := make([]int64, m*n)
	for i := range m {
		for j := range n {
			var sum int64
			for kk := range k {
				aVal := int64(a[i*lda+kk]) - int64(oa.At(i))
				bVal := int64(b[kk*ldb+j]) - int64(ob.At(j))
				sum += aVal * bVal
			}
			out[i*n+j] = sum
		}
	}
	return out
}

// widen copies the logical m x n region of a strided result into int64.
func widen[O Accumulator](c []O, m, n, ldc int) []int64 {
	out := make([]int64, m*n)
	for i := range m {
		for j := range n {
			out[i*n+j] = int64(c[i*ldc+j])
		}
	}
	return out
}

// randomParams builds a call with padded strides and random offsets.
// perAxis selects per-row/per-column offsets for the left/right operand.
func randomParams[L, R Operand, O Accumulator](rng *rand.Rand, m, n, k int, perAxisLeft, perAxisRight bool) *Params[L, R, O] {
	lda, ldb, ldc := k+rng.Intn(3), n+rng.Intn(3), n+rng.Intn(3)
	p := &Params[L, R, O]{
		M: m, N: n, K: k,
		Left: randomOperands[L](rng, m*lda), LeftStride: lda,
		Right: randomOperands[R](rng, k*ldb), RightStride: ldb,
		Result: make([]O, m*ldc), ResultStride: ldc,
	}
	if perAxisLeft {
		p.LeftOffset = PerAxis(randomOperands[L](rng, m))
	} else {
		p.LeftOffset = Scalar(randomOperands[L](rng, 1)[0])
	}
	if perAxisRight {
		p.RightOffset = PerAxis(randomOperands[R](rng, n))
	} else {
		p.RightOffset = Scalar(randomOperands[R](rng, 1)[0])
	}
	return p
}

// toProblem builds the kernel view of p the same way execute does.
func toProblem[L, R Operand, O Accumulator](p *Params[L, R, O]) *problem[L, R, O] {
	return &problem[L, R, O]{
		m: p.M, n: p.N, k: p.K,
		left: p.Left, lda: p.LeftStride,
		right: p.Right, ldb: p.RightStride,
		result: p.Result, ldc: p.ResultStride,
		zp: resolveZeroPoints(p.LeftOffset, p.RightOffset),
	}
}
