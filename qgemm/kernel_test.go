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
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// checkStrategies runs every registered kernel over one call and compares
// it with the scalar oracle, whatever CPU the test runs on.
func checkStrategies[L, R Operand, O Accumulator](t *testing.T, p *Params[L, R, O]) {
	t.Helper()
	want := naiveGemm(p.Left, p.LeftStride, p.LeftOffset, p.Right, p.RightStride, p.RightOffset, p.M, p.N, p.K)
	combo := ComboOf[L, R, O]()
	for _, s := range Strategies() {
		if !s.Supports(combo) {
			continue
		}
		t.Run(s.Name, func(t *testing.T) {
			result := make([]O, len(p.Result))
			q := *p
			q.Result = result
			prob := toProblem(&q)
			kernelFor[L, R, O](s)(prob, Tile{RowEnd: p.M, ColEnd: p.N})
			got := widen(result, p.M, p.N, p.ResultStride)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("%s %s mismatch (-want +got):\n%s", s.Name, combo, diff)
			}
		})
	}
}

func TestKernelsMatchOracle(t *testing.T) {
	shapes := []struct{ m, n, k int }{
		{1, 1, 1},
		{2, 3, 4},
		{5, 17, 33},
		{9, 40, 7},
		{16, 64, 64},
		{3, 1, 100},
	}
	for _, sh := range shapes {
		for _, axis := range []struct{ left, right bool }{{false, false}, {true, false}, {false, true}, {true, true}} {
			name := fmt.Sprintf("%dx%dx%d/perRow=%v/perCol=%v", sh.m, sh.n, sh.k, axis.left, axis.right)
			t.Run(name, func(t *testing.T) {
				rng := testRNG()
				t.Run("u8xu8->i32", func(t *testing.T) {
					checkStrategies(t, randomParams[uint8, uint8, int32](rng, sh.m, sh.n, sh.k, axis.left, axis.right))
				})
				t.Run("u8xs8->i32", func(t *testing.T) {
					checkStrategies(t, randomParams[uint8, int8, int32](rng, sh.m, sh.n, sh.k, axis.left, axis.right))
				})
				t.Run("s8xu8->i32", func(t *testing.T) {
					checkStrategies(t, randomParams[int8, uint8, int32](rng, sh.m, sh.n, sh.k, axis.left, axis.right))
				})
				t.Run("s8xs8->i32", func(t *testing.T) {
					checkStrategies(t, randomParams[int8, int8, int32](rng, sh.m, sh.n, sh.k, axis.left, axis.right))
				})
				t.Run("u8xs8->i64", func(t *testing.T) {
					checkStrategies(t, randomParams[uint8, int8, int64](rng, sh.m, sh.n, sh.k, axis.left, axis.right))
				})
				t.Run("s16xu16->i64", func(t *testing.T) {
					checkStrategies(t, randomParams[int16, uint16, int64](rng, sh.m, sh.n, sh.k, axis.left, axis.right))
				})
			})
		}
	}
}

// TestKernelsExactAtMaxK drives every strategy with inputs that reach the
// largest representable magnitude at the largest allowed K, where the
// expanded form's intermediate terms wrap.
func TestKernelsExactAtMaxK(t *testing.T) {
	t.Run("u8xu8->i32/positive", func(t *testing.T) {
		k := MaxK(ComboOf[uint8, uint8, int32]())
		p := constantParams[uint8, uint8, int32](2, 3, k, 255, 0, 255, 0)
		checkStrategies(t, p)
	})
	t.Run("u8xu8->i32/negative", func(t *testing.T) {
		k := MaxK(ComboOf[uint8, uint8, int32]())
		p := constantParams[uint8, uint8, int32](2, 3, k, 255, 0, 0, 255)
		checkStrategies(t, p)
	})
	t.Run("s8xs8->i32", func(t *testing.T) {
		k := MaxK(ComboOf[int8, int8, int32]())
		p := constantParams[int8, int8, int32](3, 2, k, -128, 127, 127, -128)
		checkStrategies(t, p)
	})
	t.Run("u8xs8->i32", func(t *testing.T) {
		k := MaxK(ComboOf[uint8, int8, int32]())
		p := constantParams[uint8, int8, int32](1, 5, k, 0, 255, -128, 127)
		checkStrategies(t, p)
	})
}

// constantParams fills both operands with one value each.
func constantParams[L, R Operand, O Accumulator](m, n, k int, a, oa L, b, ob R) *Params[L, R, O] {
	p := &Params[L, R, O]{
		M: m, N: n, K: k,
		Left: make([]L, m*k), LeftStride: k, LeftOffset: Scalar(oa),
		Right: make([]R, k*n), RightStride: n, RightOffset: Scalar(ob),
		Result: make([]O, m*n), ResultStride: n,
	}
	for i := range p.Left {
		p.Left[i] = a
	}
	for i := range p.Right {
		p.Right[i] = b
	}
	return p
}

func TestKernelsOnSubTile(t *testing.T) {
	rng := testRNG()
	p := randomParams[uint8, int8, int32](rng, 12, 70, 19, true, false)
	want := naiveGemm(p.Left, p.LeftStride, p.LeftOffset, p.Right, p.RightStride, p.RightOffset, p.M, p.N, p.K)
	tile := Tile{RowStart: 3, RowEnd: 10, ColStart: 16, ColEnd: 51}

	for _, s := range Strategies() {
		t.Run(s.Name, func(t *testing.T) {
			const sentinel = int32(-7)
			result := make([]int32, len(p.Result))
			for i := range result {
				result[i] = sentinel
			}
			q := *p
			q.Result = result
			kernelFor[uint8, int8, int32](s)(toProblem(&q), tile)

			for i := range p.M {
				for j := range p.N {
					got := result[i*p.ResultStride+j]
					inside := i >= tile.RowStart && i < tile.RowEnd && j >= tile.ColStart && j < tile.ColEnd
					switch {
					case inside && int64(got) != want[i*p.N+j]:
						t.Errorf("C[%d,%d] = %d, want %d", i, j, got, want[i*p.N+j])
					case !inside && got != sentinel:
						t.Errorf("C[%d,%d] outside tile was written: %d", i, j, got)
					}
				}
			}
		})
	}
}

func TestReferenceKernelZeroK(t *testing.T) {
	p := &problem[int8, int8, int32]{
		m: 2, n: 2, k: 0,
		result: []int32{9, 9, 9, 9}, ldc: 2,
		zp: resolveZeroPoints(Scalar[int8](3), Scalar[int8](-4)),
	}
	for _, s := range Strategies() {
		for i := range p.result {
			p.result[i] = 9
		}
		kernelFor[int8, int8, int32](s)(p, Tile{RowEnd: 2, ColEnd: 2})
		if diff := cmp.Diff([]int32{0, 0, 0, 0}, p.result); diff != "" {
			t.Errorf("%s with K=0 (-want +got):\n%s", s.Name, diff)
		}
	}
}

func BenchmarkKernels(b *testing.B) {
	rng := testRNG()
	const size = 128
	p := randomParams[uint8, int8, int32](rng, size, size, size, false, false)
	for _, s := range Strategies() {
		b.Run(s.Name, func(b *testing.B) {
			prob := toProblem(p)
			kern := kernelFor[uint8, int8, int32](s)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				kern(prob, Tile{RowEnd: size, ColEnd: size})
			}
			b.ReportMetric(float64(2*size*size*size)*float64(b.N)/b.Elapsed().Seconds()/1e9, "GOPS")
		})
	}
}
