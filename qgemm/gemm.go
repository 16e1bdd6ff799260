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
	"unsafe"

	"github.com/ajroetker/go-qgemm/qgemm/contrib/workerpool"
)

// Params describes one quantized GEMM call. All matrices are row-major
// views borrowed for the duration of the call:
//
//   - Left is M x K with LeftStride >= K
//   - Right is K x N with RightStride >= N
//   - Result is M x N with ResultStride >= N
//
// Only the M x N region of Result is written; padding between rows is left
// untouched.
type Params[L, R Operand, O Accumulator] struct {
	M, N, K int

	Left       []L
	LeftStride int
	LeftOffset Offsets[L]

	Right       []R
	RightStride int
	RightOffset Offsets[R]

	Result       []O
	ResultStride int
}

// Gemm computes Result = (Left - LeftOffset) * (Right - RightOffset) with the
// default Engine. See Run.
func Gemm[L, R Operand, O Accumulator](pool workerpool.Executor, p *Params[L, R, O]) error {
	return Run(DefaultEngine(), pool, p)
}

// Run computes the product described by p on pool using e's configuration.
//
// Arguments are validated before anything runs; failures wrap
// ErrInvalidArgument. M == 0 or N == 0 returns immediately without touching
// Result. K == 0 writes zeros. A nil pool, a closed workerpool.Pool or any
// single-worker executor computes the same result sequentially on the
// calling goroutine.
func Run[L, R Operand, O Accumulator](e *Engine, pool workerpool.Executor, p *Params[L, R, O]) error {
	if e == nil {
		e = DefaultEngine()
	}
	if err := validate(p); err != nil {
		return err
	}
	if p.M == 0 || p.N == 0 {
		return nil
	}

	combo := ComboOf[L, R, O]()
	s, err := e.StrategyFor(combo)
	if err != nil {
		return err
	}
	return execute(e, pool, s, combo, p)
}

// execute partitions the result and runs s over every tile on pool.
func execute[L, R Operand, O Accumulator](e *Engine, pool workerpool.Executor, s Strategy, combo Combo, p *Params[L, R, O]) error {
	prob := &problem[L, R, O]{
		m: p.M, n: p.N, k: p.K,
		left: p.Left, lda: p.LeftStride,
		right: p.Right, ldb: p.RightStride,
		result: p.Result, ldc: p.ResultStride,
		zp: resolveZeroPoints(p.LeftOffset, p.RightOffset),
	}

	var zero O
	tiles := Partition(p.M, p.N, p.K, workerpool.Parallelism(pool), e.tiling, int(unsafe.Sizeof(zero)))
	kern := kernelFor[L, R, O](s)

	e.log.Debug("qgemm dispatch",
		"strategy", s.Name,
		"combo", combo.String(),
		"m", p.M, "n", p.N, "k", p.K,
		"tiles", len(tiles),
		"left_offset", p.LeftOffset.Kind().String(),
		"right_offset", p.RightOffset.Kind().String(),
	)

	tasks := make([]workerpool.Task, len(tiles))
	for i, t := range tiles {
		tasks[i] = func() error {
			if !s.Supports(combo) {
				return fmt.Errorf("%w: %s cannot compute %s", ErrStrategyUnavailable, s.Name, combo)
			}
			kern(prob, t)
			return nil
		}
	}

	if err := workerpool.SubmitAndWait(pool, tasks); err != nil {
		return fmt.Errorf("qgemm %s: %w", s.Name, err)
	}
	return nil
}
