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

// Package qgemm computes integer-quantized matrix products.
//
// Operands are narrow integers (8 or 16 bits, signed or unsigned) with a
// zero-point offset per matrix, per row of the left operand, or per column
// of the right operand. The result is a 32- or 64-bit integer matrix:
//
//	C[i,j] = sum_k( (A[i,k] - oa[i]) * (B[k,j] - ob[j]) )
//
// The work is split into disjoint tiles of C that run on a caller supplied
// workerpool.Executor, and each call picks one execution strategy from the
// CPU capabilities detected by package dispatch. The scalar reference kernel
// is always available and every other strategy produces bit-identical
// results.
//
// # Example Usage
//
//	pool := workerpool.New(0)
//	defer pool.Close()
//
//	out := make([]int32, m*n)
//	err := qgemm.Gemm(pool, &qgemm.Params[uint8, int8, int32]{
//	    M: m, N: n, K: k,
//	    Left: a, LeftStride: k, LeftOffset: qgemm.Scalar[uint8](128),
//	    Right: b, RightStride: n, RightOffset: qgemm.PerAxis(colZeroPoints),
//	    Result: out, ResultStride: n,
//	})
//
// # Forcing the scalar path
//
// Set QGEMM_NO_SIMD=1, or build an Engine with
// WithCapabilities(dispatch.Scalar()).
package qgemm
