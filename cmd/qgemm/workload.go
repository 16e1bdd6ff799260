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

package main

import (
	"fmt"
	"math/rand"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/go-qgemm/qgemm"
	"github.com/ajroetker/go-qgemm/qgemm/contrib/workerpool"
)

// shape is a problem size.
type shape struct {
	M, N, K int
}

func (s shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.M, s.N, s.K)
}

// ops is the number of integer operations (multiply and add) per call.
func (s shape) ops() float64 {
	return 2 * float64(s.M) * float64(s.N) * float64(s.K)
}

// parseShape accepts "MxNxK" or a single dimension for a cube.
func parseShape(text string) (shape, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(text)), "x")
	if len(parts) == 1 {
		parts = []string{parts[0], parts[0], parts[0]}
	}
	if len(parts) != 3 {
		return shape{}, fmt.Errorf("shape %q: want MxNxK", text)
	}
	dims := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return shape{}, fmt.Errorf("shape %q: bad dimension %q", text, p)
		}
		dims[i] = v
	}
	return shape{M: dims[0], N: dims[1], K: dims[2]}, nil
}

func parseShapes(texts []string) ([]shape, error) {
	shapes := make([]shape, 0, len(texts))
	for _, t := range texts {
		s, err := parseShape(t)
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

// workload is one generated GEMM call of a fixed operand combination.
type workload interface {
	Combo() qgemm.Combo
	Shape() shape
	Run(e *qgemm.Engine, pool workerpool.Executor) error
	Checksum() uint64
	Clear()
}

type typedWorkload[L, R qgemm.Operand, O qgemm.Accumulator] struct {
	shape  shape
	params qgemm.Params[L, R, O]
}

// newWorkload generates random operands with a scalar left offset and
// per-column right offsets, the usual layout of activations times weights.
func newWorkload[L, R qgemm.Operand, O qgemm.Accumulator](rng *rand.Rand, s shape) workload {
	return &typedWorkload[L, R, O]{
		shape: s,
		params: qgemm.Params[L, R, O]{
			M: s.M, N: s.N, K: s.K,
			Left:         randomSlice[L](rng, s.M*s.K),
			LeftStride:   s.K,
			LeftOffset:   qgemm.Scalar(randomSlice[L](rng, 1)[0]),
			Right:        randomSlice[R](rng, s.K*s.N),
			RightStride:  s.N,
			RightOffset:  qgemm.PerAxis(randomSlice[R](rng, s.N)),
			Result:       make([]O, s.M*s.N),
			ResultStride: s.N,
		},
	}
}

// randomSlice fills n values over the whole range of T.
func randomSlice[T qgemm.Operand](rng *rand.Rand, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(rng.Uint32())
	}
	return out
}

func (w *typedWorkload[L, R, O]) Combo() qgemm.Combo { return qgemm.ComboOf[L, R, O]() }
func (w *typedWorkload[L, R, O]) Shape() shape       { return w.shape }

func (w *typedWorkload[L, R, O]) Run(e *qgemm.Engine, pool workerpool.Executor) error {
	return qgemm.Run(e, pool, &w.params)
}

func (w *typedWorkload[L, R, O]) Checksum() uint64 {
	p := &w.params
	return qgemm.Checksum(p.Result, p.M, p.N, p.ResultStride)
}

func (w *typedWorkload[L, R, O]) Clear() {
	clear(w.params.Result)
}

// workloads maps combo names to generators.
var workloads = map[string]func(*rand.Rand, shape) workload{
	"u8xu8->i32":   newWorkload[uint8, uint8, int32],
	"u8xs8->i32":   newWorkload[uint8, int8, int32],
	"s8xu8->i32":   newWorkload[int8, uint8, int32],
	"s8xs8->i32":   newWorkload[int8, int8, int32],
	"u8xu8->i64":   newWorkload[uint8, uint8, int64],
	"u8xs8->i64":   newWorkload[uint8, int8, int64],
	"s8xs8->i64":   newWorkload[int8, int8, int64],
	"u16xu16->i64": newWorkload[uint16, uint16, int64],
	"s16xs16->i64": newWorkload[int16, int16, int64],
	"u16xs16->i64": newWorkload[uint16, int16, int64],
	"u16xu8->i32":  newWorkload[uint16, uint8, int32],
}

var defaultCombos = []string{"u8xs8->i32", "u8xu8->i32", "s8xs8->i32", "s8xu8->i32"}

// knownCombos lists every combo the CLI can generate, sorted.
func knownCombos() []string {
	names := lo.Keys(workloads)
	slices.Sort(names)
	return names
}

// parseCombos validates combo names and keeps the first occurrence of each.
func parseCombos(names []string) ([]string, error) {
	names = lo.Uniq(lo.Map(names, func(n string, _ int) string {
		return strings.ToLower(strings.TrimSpace(n))
	}))
	for _, n := range names {
		if _, ok := workloads[n]; !ok {
			return nil, fmt.Errorf("unknown combo %q (known: %s)", n, strings.Join(knownCombos(), ", "))
		}
	}
	return names, nil
}

// comboOf returns the typed Combo for a known combo name.
func comboOf(name string) qgemm.Combo {
	return workloads[name](rand.New(rand.NewSource(0)), shape{}).Combo()
}

// newPool returns the executor for a --workers value. The caller must call
// the returned release function.
func newPool(workers int64) (workerpool.Executor, func()) {
	if workers == 1 {
		return workerpool.Sequential{}, func() {}
	}
	pool := workerpool.New(int(workers))
	return pool, pool.Close
}
