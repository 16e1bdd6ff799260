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
	"sync"

	"github.com/ajroetker/go-qgemm/logger"
	"github.com/ajroetker/go-qgemm/qgemm/dispatch"
)

// Engine carries the configuration shared by many GEMM calls: the strategy
// selector, partitioner tuning and logger. An Engine is safe for concurrent
// use.
type Engine struct {
	log      logger.Logger
	selector *Selector
	tiling   Tiling
	forced   string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for dispatch decisions. The default
// discards everything.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCapabilities replaces the detected capability snapshot, e.g. with
// dispatch.Scalar() to force the reference kernel.
func WithCapabilities(c dispatch.Capabilities) Option {
	return func(e *Engine) {
		e.selector = NewSelector(c)
	}
}

// WithTiling sets the partitioner tuning.
func WithTiling(t Tiling) Option {
	return func(e *Engine) {
		e.tiling = t
	}
}

// WithStrategy pins every call to the named strategy. Calls fail with
// ErrInvalidArgument if it is not usable for their operand combo.
func WithStrategy(name string) Option {
	return func(e *Engine) {
		e.forced = name
	}
}

// NewEngine returns an Engine using the process-wide capability snapshot
// unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:    logger.Discard(),
		tiling: DefaultTiling(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.selector == nil {
		e.selector = NewSelector(dispatch.Detect())
	}
	return e
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return NewEngine()
})

// DefaultEngine returns the Engine used by Gemm.
func DefaultEngine() *Engine {
	return defaultEngine()
}

// Selector returns the engine's strategy selector.
func (e *Engine) Selector() *Selector {
	return e.selector
}

// Tiling returns the engine's partitioner tuning.
func (e *Engine) Tiling() Tiling {
	return e.tiling
}

// StrategyFor returns the strategy a call with combo c would run.
func (e *Engine) StrategyFor(c Combo) (Strategy, error) {
	if e.forced != "" {
		return e.selector.Force(e.forced, c)
	}
	return e.selector.Select(c)
}
