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
	"github.com/ajroetker/go-qgemm/qgemm/dispatch"
)

// StrategyID names one member of the closed set of execution strategies.
type StrategyID int

const (
	StrategyReference StrategyID = iota
	StrategyAVX2
	StrategyAVX512VNNI
	StrategyNEON
	StrategyNEONDot
)

// Strategy describes a kernel implementation and the CPU features it
// requires. Strategy values are immutable.
type Strategy struct {
	ID   StrategyID
	Name string

	// Level is the dispatch level the kernel is tuned for.
	Level dispatch.Level

	requires func(dispatch.Capabilities) bool
	supports func(Combo) bool
	geometry geometry
}

// String returns the strategy name.
func (s Strategy) String() string {
	return s.Name
}

// Available reports whether the snapshot has every feature the strategy
// needs.
func (s Strategy) Available(c dispatch.Capabilities) bool {
	return s.requires(c)
}

// Supports reports whether the strategy can compute the operand combo.
func (s Strategy) Supports(c Combo) bool {
	return s.supports(c)
}

func always(dispatch.Capabilities) bool { return true }

// referenceSupports accepts every combo with a usable reduction length.
func referenceSupports(c Combo) bool {
	return MaxK(c) >= 1
}

// eightBitSupports accepts {u8,s8} x {u8,s8} into int32 or int64.
func eightBitSupports(c Combo) bool {
	is8 := func(d DType) bool { return d == Int8 || d == Uint8 }
	return is8(c.Left) && is8(c.Right) && (c.Out == Int32 || c.Out == Int64)
}

// registry lists every strategy in order of preference. The reference
// strategy is last and accepts anything the others reject.
var registry = []Strategy{
	{
		ID:    StrategyAVX512VNNI,
		Name:  "avx512vnni",
		Level: dispatch.LevelAVX512,
		requires: func(c dispatch.Capabilities) bool {
			return c.HasAVX512F && c.HasAVX512BW && c.HasAVX512VNNI
		},
		supports: eightBitSupports,
		geometry: geometry{mr: 4, nr: 32}, // 2 vectors x 16 int32 lanes
	},
	{
		ID:    StrategyAVX2,
		Name:  "avx2",
		Level: dispatch.LevelAVX2,
		requires: func(c dispatch.Capabilities) bool {
			return c.HasAVX2
		},
		supports: eightBitSupports,
		geometry: geometry{mr: 4, nr: 16}, // 2 vectors x 8 int32 lanes
	},
	{
		ID:    StrategyNEONDot,
		Name:  "neondot",
		Level: dispatch.LevelNEON,
		requires: func(c dispatch.Capabilities) bool {
			return c.HasASIMD && c.HasASIMDDP
		},
		supports: eightBitSupports,
		geometry: geometry{mr: 8, nr: 8},
	},
	{
		ID:    StrategyNEON,
		Name:  "neon",
		Level: dispatch.LevelNEON,
		requires: func(c dispatch.Capabilities) bool {
			return c.HasASIMD
		},
		supports: eightBitSupports,
		geometry: geometry{mr: 4, nr: 8}, // 2 vectors x 4 int32 lanes
	},
	{
		ID:       StrategyReference,
		Name:     "reference",
		Level:    dispatch.LevelScalar,
		requires: always,
		supports: referenceSupports,
	},
}

// Strategies returns every registered strategy in order of preference.
func Strategies() []Strategy {
	return append([]Strategy(nil), registry...)
}

// StrategyByName looks a strategy up by its Name.
func StrategyByName(name string) (Strategy, bool) {
	for _, s := range registry {
		if s.Name == name {
			return s, true
		}
	}
	return Strategy{}, false
}

// kernelFor resolves a strategy to its kernel for one type combination.
func kernelFor[L, R Operand, O Accumulator](s Strategy) kernel[L, R, O] {
	switch s.ID {
	case StrategyAVX2, StrategyAVX512VNNI, StrategyNEON, StrategyNEONDot:
		return blockedKernel[L, R, O](s.geometry)
	default:
		return referenceKernel[L, R, O]
	}
}
