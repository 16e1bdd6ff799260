// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides the executors quantized GEMM submits tile
// tasks to. An Executor runs a batch of independent tasks and blocks until
// every one of them has finished (fork-join).
//
// A Pool is created once and reused across many GEMM calls, eliminating
// per-call goroutine spawning:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	for _, layer := range layers {
//	    if err := qgemm.Gemm(pool, layer.params); err != nil {
//	        return err
//	    }
//	}
//
// A nil Executor, a closed Pool, or an executor with a single worker runs
// the batch inline on the calling goroutine.
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Task is one independent unit of work.
type Task func() error

// Executor runs a batch of tasks and waits for all of them.
type Executor interface {
	// NumWorkers is the degree of parallelism available to a batch.
	NumWorkers() int

	// SubmitAndWait runs every task, blocks until all have completed and
	// returns the first error encountered, if any. A failing task does not
	// stop the others.
	SubmitAndWait(tasks []Task) error
}

// SubmitAndWait runs tasks on e, degrading to sequential execution when e
// is nil or reports fewer than two workers.
func SubmitAndWait(e Executor, tasks []Task) error {
	if e == nil || e.NumWorkers() <= 1 {
		return Sequential{}.SubmitAndWait(tasks)
	}
	return e.SubmitAndWait(tasks)
}

// Parallelism returns the number of workers e offers, at least 1.
func Parallelism(e Executor) int {
	if e == nil {
		return 1
	}
	return max(e.NumWorkers(), 1)
}

// firstError keeps the first non-nil error recorded.
type firstError struct {
	once sync.Once
	err  error
}

func (f *firstError) record(err error) {
	if err == nil {
		return
	}
	f.once.Do(func() {
		f.err = err
	})
}

// Sequential runs every task on the calling goroutine.
type Sequential struct{}

// NumWorkers always returns 1.
func (Sequential) NumWorkers() int { return 1 }

// SubmitAndWait runs the tasks in order. All tasks run even after a failure.
func (Sequential) SubmitAndWait(tasks []Task) error {
	var first firstError
	for _, task := range tasks {
		first.record(task())
	}
	return first.err
}

// Pool is a persistent worker pool that can be reused across many parallel
// operations. Workers are spawned once at creation and reused.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

// workItem represents a single unit submitted to a worker.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// Workers are spawned immediately and persist until Close is called.
// If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		// Buffer enough for all workers to have pending work
		workC: make(chan workItem, numWorkers*2),
	}

	for range numWorkers {
		go p.worker()
	}

	return p
}

// worker is the main loop for each persistent worker goroutine.
func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool. A nil or closed
// pool reports 1.
func (p *Pool) NumWorkers() int {
	if p == nil || p.closed.Load() {
		return 1
	}
	return p.numWorkers
}

// Close shuts down the worker pool. All pending work will complete.
// Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// SubmitAndWait queues one work item per task and blocks until every task
// has run. Must not be called from inside a task running on the same pool.
func (p *Pool) SubmitAndWait(tasks []Task) error {
	if p.NumWorkers() <= 1 || len(tasks) <= 1 {
		return Sequential{}.SubmitAndWait(tasks)
	}

	var (
		wg    sync.WaitGroup
		first firstError
	)
	wg.Add(len(tasks))
	for _, task := range tasks {
		p.workC <- workItem{
			fn: func() {
				first.record(task())
			},
			barrier: &wg,
		}
	}
	wg.Wait()

	return first.err
}

// ParallelFor executes fn for each index in [0, n) using the worker pool.
// Each worker processes a contiguous range of indices.
// Blocks until all work completes.
//
// fn receives (start, end) indices where work should process [start, end).
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	workers := min(p.NumWorkers(), n)
	if workers == 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := range workers {
		start := i * chunkSize
		end := min(start+chunkSize, n)
		if start >= n {
			// No work for this worker
			wg.Done()
			continue
		}

		p.workC <- workItem{
			fn: func() {
				fn(start, end)
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}
