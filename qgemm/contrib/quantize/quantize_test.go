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

package quantize

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ajroetker/go-qgemm/qgemm"
	"github.com/ajroetker/go-qgemm/qgemm/contrib/workerpool"
)

func TestChooseParams(t *testing.T) {
	u := ChooseParams[uint8](-51, 204)
	if u.Scale != 1 {
		t.Errorf("uint8 scale = %v, want 1", u.Scale)
	}
	if u.ZeroPoint != 51 {
		t.Errorf("uint8 zero point = %d, want 51", u.ZeroPoint)
	}

	// A strictly positive range is widened to include 0.
	pos := ChooseParams[uint8](2, 10)
	if pos.ZeroPoint != 0 {
		t.Errorf("positive range zero point = %d, want 0", pos.ZeroPoint)
	}

	s := ChooseParams[int8](-4, 4)
	if s.ZeroPoint < -1 || s.ZeroPoint > 0 {
		t.Errorf("symmetric int8 zero point = %d, want -1 or 0", s.ZeroPoint)
	}

	flat := ChooseParams[int8](0, 0)
	if flat.Scale != 1 || flat.ZeroPoint != -128 {
		t.Errorf("empty range params = %+v, want scale 1 zero point -128", flat)
	}
}

func TestQuantizeRepresentsZeroExactly(t *testing.T) {
	p := ChooseParams[uint8](-0.73, 2.9)
	out := make([]uint8, 1)
	Quantize(nil, []float32{0}, out, p)
	if out[0] != p.ZeroPoint {
		t.Errorf("Quantize(0) = %d, want zero point %d", out[0], p.ZeroPoint)
	}
}

func TestQuantizeSaturates(t *testing.T) {
	p := Params[int8]{Scale: 0.5, ZeroPoint: 0}
	out := make([]int8, 3)
	Quantize(nil, []float32{1000, -1000, 1.2}, out, p)
	want := []int8{127, -128, 2}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestQuantizeMapsNaNToZeroPoint(t *testing.T) {
	nan := float32(math.NaN())
	p := Params[uint8]{Scale: 0.25, ZeroPoint: 17}
	out := make([]uint8, 3)
	Quantize(nil, []float32{nan, 1, nan}, out, p)
	want := []uint8{17, 21, 17}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}

	signed := make([]int8, 1)
	Quantize(nil, []float32{nan}, signed, Params[int8]{Scale: 1, ZeroPoint: -5})
	if signed[0] != -5 {
		t.Errorf("Quantize(NaN) = %d, want zero point -5", signed[0])
	}
}

func TestQuantizeRoundTrip(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Close()

	rng := rand.New(rand.NewSource(7))
	input := make([]float32, 3*minChunk+17)
	for i := range input {
		input[i] = rng.Float32()*6 - 2
	}

	q := make([]uint8, len(input))
	p := QuantizeTensor(pool, input, q)

	acc := make([]int32, len(q))
	for i, v := range q {
		acc[i] = int32(v) - int32(p.ZeroPoint)
	}
	back := make([]float32, len(acc))
	Dequantize(pool, acc, back, p.Scale)

	tol := float64(p.Scale) * 0.51
	for i := range input {
		if d := math.Abs(float64(back[i] - input[i])); d > tol {
			t.Fatalf("element %d: %v round-tripped to %v (error %v > %v)", i, input[i], back[i], d, tol)
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Close()

	rng := rand.New(rand.NewSource(11))
	input := make([]float32, 2*minChunk+5)
	for i := range input {
		input[i] = rng.Float32()*2 - 1
	}
	p := ChooseParams[int8](MinMax(input))

	seq := make([]int8, len(input))
	par := make([]int8, len(input))
	Quantize(nil, input, seq, p)
	Quantize(pool, input, par, p)
	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("element %d: sequential %d, parallel %d", i, seq[i], par[i])
		}
	}
}

// TestQuantizedGemm multiplies two quantized matrices and checks the
// dequantized product against float32 arithmetic.
func TestQuantizedGemm(t *testing.T) {
	const m, n, k = 8, 12, 64
	rng := rand.New(rand.NewSource(3))
	a := make([]float32, m*k)
	b := make([]float32, k*n)
	for i := range a {
		a[i] = rng.Float32() * 4
	}
	for i := range b {
		b[i] = rng.Float32()*2 - 1
	}

	qa := make([]uint8, len(a))
	qb := make([]int8, len(b))
	pa := QuantizeTensor(nil, a, qa)
	pb := QuantizeTensor(nil, b, qb)

	acc := make([]int32, m*n)
	err := qgemm.Gemm(nil, &qgemm.Params[uint8, int8, int32]{
		M: m, N: n, K: k,
		Left: qa, LeftStride: k, LeftOffset: qgemm.Scalar(pa.ZeroPoint),
		Right: qb, RightStride: n, RightOffset: qgemm.Scalar(pb.ZeroPoint),
		Result: acc, ResultStride: n,
	})
	if err != nil {
		t.Fatalf("Gemm() error = %v", err)
	}
	got := make([]float32, m*n)
	Dequantize(nil, acc, got, pa.Scale*pb.Scale)

	for i := range m {
		for j := range n {
			var want float32
			for kk := range k {
				want += a[i*k+kk] * b[kk*n+j]
			}
			if d := math.Abs(float64(got[i*n+j] - want)); d > 0.5 {
				t.Errorf("C[%d,%d] = %v, want %v (error %v)", i, j, got[i*n+j], want, d)
			}
		}
	}
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax(nil)
	if lo != 0 || hi != 0 {
		t.Errorf("MinMax(nil) = (%v, %v), want (0, 0)", lo, hi)
	}
	lo, hi = MinMax([]float32{3, -2, 7, 0})
	if lo != -2 || hi != 7 {
		t.Errorf("MinMax = (%v, %v), want (-2, 7)", lo, hi)
	}
	nan := float32(math.NaN())
	lo, hi = MinMax([]float32{nan, 4, nan, -1})
	if lo != -1 || hi != 4 {
		t.Errorf("MinMax with NaNs = (%v, %v), want (-1, 4)", lo, hi)
	}
	lo, hi = MinMax([]float32{nan})
	if lo != 0 || hi != 0 {
		t.Errorf("MinMax(NaN) = (%v, %v), want (0, 0)", lo, hi)
	}
}

func BenchmarkQuantize(b *testing.B) {
	pool := workerpool.New(0)
	defer pool.Close()

	input := make([]float32, 1<<20)
	for i := range input {
		input[i] = float32(i%1000) / 500
	}
	out := make([]uint8, len(input))
	p := ChooseParams[uint8](MinMax(input))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Quantize(pool, input, out, p)
	}
}
