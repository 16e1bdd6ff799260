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

// validate checks a call's arguments. It runs before any task is submitted.
func validate[L, R Operand, O Accumulator](p *Params[L, R, O]) error {
	if p == nil {
		return invalidArgument("params", "nil parameters")
	}
	if p.M < 0 || p.N < 0 || p.K < 0 {
		return invalidArgument("shape", "negative dimension M=%d N=%d K=%d", p.M, p.N, p.K)
	}
	if p.M == 0 || p.N == 0 {
		return nil
	}

	if err := checkMatrix("left", len(p.Left), p.M, p.K, p.LeftStride); err != nil {
		return err
	}
	if err := checkMatrix("right", len(p.Right), p.K, p.N, p.RightStride); err != nil {
		return err
	}
	if err := checkMatrix("result", len(p.Result), p.M, p.N, p.ResultStride); err != nil {
		return err
	}

	if p.LeftOffset.Kind() == OffsetPerAxis && p.LeftOffset.Len() != p.M {
		return invalidArgument("left offset", "per-row offsets have %d entries, want M=%d", p.LeftOffset.Len(), p.M)
	}
	if p.RightOffset.Kind() == OffsetPerAxis && p.RightOffset.Len() != p.N {
		return invalidArgument("right offset", "per-column offsets have %d entries, want N=%d", p.RightOffset.Len(), p.N)
	}

	combo := ComboOf[L, R, O]()
	maxK := MaxK(combo)
	if maxK == 0 {
		return invalidArgument("types", "operand combination %s is not supported by any strategy", combo)
	}
	if p.K > maxK {
		return invalidArgument("shape", "K=%d exceeds %d, the largest exact reduction for %s", p.K, maxK, combo)
	}
	return nil
}

// checkMatrix validates a row-major view of rows x cols with the given
// stride against the backing slice length.
func checkMatrix(name string, length, rows, cols, stride int) error {
	if stride < 0 {
		return invalidArgument(name, "negative stride %d", stride)
	}
	if rows == 0 || cols == 0 {
		return nil
	}
	if stride < cols {
		return invalidArgument(name, "stride %d is smaller than %d columns", stride, cols)
	}
	// (rows-1)*stride + cols <= length, without multiplying: a huge stride
	// must not wrap around.
	if length < cols || (rows > 1 && stride > (length-cols)/(rows-1)) {
		return invalidArgument(name, "has %d elements, too few for %dx%d with stride %d", length, rows, cols, stride)
	}
	return nil
}
