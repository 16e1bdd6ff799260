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

// OffsetKind distinguishes the two forms of zero-point offsets.
type OffsetKind uint8

const (
	// OffsetScalar applies one offset to every element of the matrix.
	OffsetScalar OffsetKind = iota

	// OffsetPerAxis applies one offset per row (left operand) or per column
	// (right operand).
	OffsetPerAxis
)

// String returns "scalar" or "per-axis".
func (k OffsetKind) String() string {
	if k == OffsetPerAxis {
		return "per-axis"
	}
	return "scalar"
}

// Offsets holds the zero point of one operand. The zero value is the scalar
// offset 0.
type Offsets[T Operand] struct {
	kind   OffsetKind
	scalar T
	vector []T
}

// Scalar returns a per-matrix offset.
func Scalar[T Operand](v T) Offsets[T] {
	return Offsets[T]{kind: OffsetScalar, scalar: v}
}

// PerAxis returns per-row offsets for the left operand (len M) or
// per-column offsets for the right operand (len N). The slice is borrowed
// for the duration of the call.
func PerAxis[T Operand](v []T) Offsets[T] {
	return Offsets[T]{kind: OffsetPerAxis, vector: v}
}

// Kind reports which form is active.
func (o Offsets[T]) Kind() OffsetKind {
	return o.kind
}

// Len returns 1 for scalar offsets and the vector length otherwise.
func (o Offsets[T]) Len() int {
	if o.kind == OffsetPerAxis {
		return len(o.vector)
	}
	return 1
}

// At returns the offset that applies at index i along the operand's axis.
func (o Offsets[T]) At(i int) T {
	if o.kind == OffsetPerAxis {
		return o.vector[i]
	}
	return o.scalar
}

// zeroPoints is the resolved form of both operands' offsets. A scalar
// offset is stored as a one-element slice with step 0, so kernels read
// row(i) and col(j) the same way for both forms.
type zeroPoints struct {
	left      []int32
	right     []int32
	leftStep  int
	rightStep int
}

func resolveZeroPoints[L, R Operand](lo Offsets[L], ro Offsets[R]) zeroPoints {
	var z zeroPoints
	z.left, z.leftStep = widenOffsets(lo)
	z.right, z.rightStep = widenOffsets(ro)
	return z
}

func widenOffsets[T Operand](o Offsets[T]) ([]int32, int) {
	if o.kind != OffsetPerAxis {
		return []int32{int32(o.scalar)}, 0
	}
	out := make([]int32, len(o.vector))
	for i, v := range o.vector {
		out[i] = int32(v)
	}
	return out, 1
}

func (z *zeroPoints) row(i int) int32 {
	return z.left[i*z.leftStep]
}

func (z *zeroPoints) col(j int) int32 {
	return z.right[j*z.rightStep]
}

// Contribution returns one reduction step, (a - oa) * (b - ob), evaluated
// exactly. Every strategy must agree with the sum of these terms.
func Contribution[L, R Operand](a, oa L, b, ob R) int64 {
	return contribution(int64(a), int64(oa), int64(b), int64(ob))
}

func contribution(a, oa, b, ob int64) int64 {
	return (a - oa) * (b - ob)
}
