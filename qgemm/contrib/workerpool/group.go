// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Group is an Executor that spawns goroutines per batch through an
// errgroup, bounded by a concurrency limit. It suits callers that do not
// keep a persistent Pool around.
type Group struct {
	limit int
}

// NewGroup returns a Group running at most limit tasks at once.
// If limit <= 0, uses GOMAXPROCS.
func NewGroup(limit int) *Group {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &Group{limit: limit}
}

// NumWorkers returns the concurrency limit.
func (g *Group) NumWorkers() int {
	if g == nil {
		return 1
	}
	return g.limit
}

// SubmitAndWait runs the tasks with at most NumWorkers in flight and returns
// the first error once all of them have returned.
func (g *Group) SubmitAndWait(tasks []Task) error {
	var eg errgroup.Group
	eg.SetLimit(g.NumWorkers())
	for _, task := range tasks {
		eg.Go(task)
	}
	return eg.Wait()
}
