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

// problem is the validated, call-scoped view every kernel reads.
type problem[L, R Operand, O Accumulator] struct {
	m, n, k int

	left []L
	lda  int

	right []R
	ldb   int

	result []O
	ldc    int

	zp zeroPoints
}

// kernel computes one tile of the result with the full K reduction.
type kernel[L, R Operand, O Accumulator] func(p *problem[L, R, O], t Tile)

// referenceKernel evaluates the subtract-then-multiply form directly,
// accumulating in int64. It is the correctness oracle for every other
// strategy.
func referenceKernel[L, R Operand, O Accumulator](p *problem[L, R, O], t Tile) {
	for i := t.RowStart; i < t.RowEnd; i++ {
		oa := int64(p.zp.row(i))
		aBase := i * p.lda
		cBase := i * p.ldc
		for j := t.ColStart; j < t.ColEnd; j++ {
			ob := int64(p.zp.col(j))
			var sum int64
			for kk := range p.k {
				sum += contribution(int64(p.left[aBase+kk]), oa, int64(p.right[kk*p.ldb+j]), ob)
			}
			p.result[cBase+j] = O(sum)
		}
	}
}
