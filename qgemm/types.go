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
	"math"
	"unsafe"
)

// Operand is a constraint for the narrow integer types GEMM inputs may use.
type Operand interface {
	~int8 | ~uint8 | ~int16 | ~uint16
}

// Accumulator is a constraint for result element types.
type Accumulator interface {
	~int32 | ~int64
}

// DType identifies an element type in an operand combination.
type DType int

const (
	InvalidDType DType = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Int64
)

// String returns the short name used in combo strings ("u8", "s8", ...).
func (d DType) String() string {
	switch d {
	case Int8:
		return "s8"
	case Uint8:
		return "u8"
	case Int16:
		return "s16"
	case Uint16:
		return "u16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	default:
		return "invalid"
	}
}

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32:
		return 4
	case Int64:
		return 8
	default:
		return 0
	}
}

// span is the width of an operand's value range, which bounds |x - offset|.
func (d DType) span() int64 {
	switch d {
	case Int8, Uint8:
		return math.MaxUint8
	case Int16, Uint16:
		return math.MaxUint16
	default:
		return 0
	}
}

// maxValue is the largest value an accumulator type holds.
func (d DType) maxValue() int64 {
	switch d {
	case Int32:
		return math.MaxInt32
	case Int64:
		return math.MaxInt64
	default:
		return 0
	}
}

// ParseDType parses the names produced by DType.String.
func ParseDType(s string) (DType, bool) {
	for d := Int8; d <= Int64; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return InvalidDType, false
}

// dtypeOf maps a type parameter to its DType. It relies on size and
// signedness only, so named types (type Q uint8) resolve too.
func dtypeOf[T Operand | Accumulator]() DType {
	var zero T
	minusOne := zero - 1
	signed := minusOne < zero
	switch unsafe.Sizeof(zero) {
	case 1:
		if signed {
			return Int8
		}
		return Uint8
	case 2:
		if signed {
			return Int16
		}
		return Uint16
	case 4:
		return Int32
	case 8:
		return Int64
	}
	return InvalidDType
}

// Combo is the operand type combination of a GEMM call.
type Combo struct {
	Left  DType
	Right DType
	Out   DType
}

// ComboOf returns the Combo for the given type parameters.
func ComboOf[L, R Operand, O Accumulator]() Combo {
	return Combo{Left: dtypeOf[L](), Right: dtypeOf[R](), Out: dtypeOf[O]()}
}

// String formats the combo as "u8xs8->i32".
func (c Combo) String() string {
	return c.Left.String() + "x" + c.Right.String() + "->" + c.Out.String()
}

// MaxK returns the largest reduction length for which the exact result of
// any representable input fits in the output type. Zero means no K >= 1 is
// safe and the combo is unsupported.
func MaxK(c Combo) int {
	prod := c.Left.span() * c.Right.span()
	if prod == 0 {
		return 0
	}
	return int(min(c.Out.maxValue()/prod, int64(math.MaxInt)))
}
