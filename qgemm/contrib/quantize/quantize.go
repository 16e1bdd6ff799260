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

// Package quantize converts between float32 tensors and the narrow integer
// operands consumed by qgemm, using an affine mapping per tensor:
//
//	real = Scale * (q - ZeroPoint)
//
// The zero point is the operand offset to pass to qgemm, and the product of
// both operands' scales converts accumulators back to float32:
//
//	pa := quantize.ChooseParams[uint8](aMin, aMax)
//	pb := quantize.ChooseParams[int8](bMin, bMax)
//	quantize.Quantize(pool, a, qa, pa)
//	quantize.Quantize(pool, b, qb, pb)
//	// qgemm.Gemm with LeftOffset: qgemm.Scalar(pa.ZeroPoint), ...
//	quantize.Dequantize(pool, acc, out, pa.Scale*pb.Scale)
//
// Work on large slices is split across a workerpool.Pool; a nil pool runs
// on the calling goroutine.
package quantize

import (
	"math"

	"github.com/ajroetker/go-qgemm/qgemm"
	"github.com/ajroetker/go-qgemm/qgemm/contrib/workerpool"
)

// Integer is the set of quantized element types.
type Integer interface {
	~int8 | ~uint8
}

// Params is the affine mapping for one tensor.
type Params[T Integer] struct {
	Scale     float32
	ZeroPoint T
}

// minChunk is the smallest slice worth handing to the pool.
const minChunk = 4096

func bounds[T Integer]() (float32, float32) {
	var zero T
	if zero-1 < zero {
		return math.MinInt8, math.MaxInt8
	}
	return 0, math.MaxUint8
}

// ChooseParams returns the mapping that covers [lo, hi] with the full range
// of T. The range is widened to include 0 so that real zero is exactly
// representable.
func ChooseParams[T Integer](lo, hi float32) Params[T] {
	lo = min(lo, 0)
	hi = max(hi, 0)
	qmin, qmax := bounds[T]()
	if hi == lo {
		return Params[T]{Scale: 1, ZeroPoint: T(qmin)}
	}
	scale := (hi - lo) / (qmax - qmin)
	zp := float32(math.Round(float64(qmin - lo/scale)))
	zp = min(max(zp, qmin), qmax)
	return Params[T]{Scale: scale, ZeroPoint: T(int32(zp))}
}

// MinMax returns the smallest and largest value of input, ignoring NaNs, or
// (0, 0) when no value remains.
func MinMax(input []float32) (float32, float32) {
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range input {
		if math.IsNaN(float64(v)) {
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// Quantize writes round(input[i]/Scale) + ZeroPoint, saturated to T, into
// output. NaN maps to ZeroPoint. Only min(len(input), len(output)) elements
// are converted.
func Quantize[T Integer](pool *workerpool.Pool, input []float32, output []T, p Params[T]) {
	n := min(len(input), len(output))
	qmin, qmax := bounds[T]()
	inv := 1 / p.Scale
	zp := float32(p.ZeroPoint)
	forChunks(pool, n, func(start, end int) {
		for i := start; i < end; i++ {
			if math.IsNaN(float64(input[i])) {
				output[i] = p.ZeroPoint
				continue
			}
			v := float32(math.RoundToEven(float64(input[i]*inv))) + zp
			output[i] = T(int32(min(max(v, qmin), qmax)))
		}
	})
}

// QuantizeTensor chooses parameters from the range of input, quantizes it
// into output and returns the parameters used.
func QuantizeTensor[T Integer](pool *workerpool.Pool, input []float32, output []T) Params[T] {
	p := ChooseParams[T](MinMax(input))
	Quantize(pool, input, output, p)
	return p
}

// Dequantize writes scale * acc[i] into output, where scale is the product
// of the two operand scales of the GEMM that produced acc.
func Dequantize[O qgemm.Accumulator](pool *workerpool.Pool, acc []O, output []float32, scale float32) {
	n := min(len(acc), len(output))
	forChunks(pool, n, func(start, end int) {
		for i := start; i < end; i++ {
			output[i] = scale * float32(acc[i])
		}
	})
}

// forChunks runs fn over [0, n), in parallel when n is large enough.
func forChunks(pool *workerpool.Pool, n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < minChunk {
		fn(0, n)
		return
	}
	pool.ParallelFor(n, fn)
}
