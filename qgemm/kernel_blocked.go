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

// geometry is the register-blocking shape of a micro-tile: mr rows of the
// result by nr columns, nr being a whole number of int32 vectors for the
// target.
type geometry struct {
	mr int
	nr int
}

// blockedKernel returns a kernel using the expanded zero-point form
//
//	sum((a-oa)(b-ob)) = sum(ab) - ob*sum(a) - oa*sum(b) + K*oa*ob
//
// evaluated in the output type. Intermediate terms may wrap, but every
// operation is exact modulo 2^w and the true result fits in O (K <= MaxK),
// so the result equals the reference kernel's bit for bit.
func blockedKernel[L, R Operand, O Accumulator](g geometry) kernel[L, R, O] {
	return func(p *problem[L, R, O], t Tile) {
		blockedTile(p, t, g)
	}
}

func blockedTile[L, R Operand, O Accumulator](p *problem[L, R, O], t Tile, g geometry) {
	rows := t.RowEnd - t.RowStart
	cols := t.ColEnd - t.ColStart
	k := p.k

	// Row sums of A and column sums of B over the full reduction.
	rowSums := make([]O, rows)
	for r := range rows {
		base := (t.RowStart + r) * p.lda
		var s O
		for kk := range k {
			s += O(p.left[base+kk])
		}
		rowSums[r] = s
	}
	colSums := make([]O, cols)
	for kk := range k {
		bRow := p.right[kk*p.ldb+t.ColStart : kk*p.ldb+t.ColEnd]
		for c, v := range bRow {
			colSums[c] += O(v)
		}
	}
	kTerm := O(k)

	acc := make([]O, g.mr*g.nr)
	for i0 := 0; i0 < rows; i0 += g.mr {
		mr := min(g.mr, rows-i0)
		for j0 := 0; j0 < cols; j0 += g.nr {
			nr := min(g.nr, cols-j0)
			clear(acc)

			// sum(ab) for the micro-tile: one broadcast of a per row, one
			// sequential sweep of b per k.
			for kk := range k {
				bBase := kk*p.ldb + t.ColStart + j0
				bRow := p.right[bBase : bBase+nr]
				for r := range mr {
					av := O(p.left[(t.RowStart+i0+r)*p.lda+kk])
					accRow := acc[r*g.nr : r*g.nr+nr]
					for c, bv := range bRow {
						accRow[c] += av * O(bv)
					}
				}
			}

			for r := range mr {
				i := t.RowStart + i0 + r
				oa := O(p.zp.row(i))
				sa := rowSums[i0+r]
				cBase := i*p.ldc + t.ColStart + j0
				out := p.result[cBase : cBase+nr]
				accRow := acc[r*g.nr : r*g.nr+nr]
				for c := range out {
					j := j0 + c
					ob := O(p.zp.col(t.ColStart + j))
					out[c] = accRow[c] - ob*sa - oa*colSums[j] + kTerm*oa*ob
				}
			}
		}
	}
}
