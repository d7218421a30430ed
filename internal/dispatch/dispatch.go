// Package dispatch runs heavy boundary calls on a bounded worker pool so
// materialization never stalls the host scheduler's callers beyond their
// context deadline.
package dispatch

import (
	"context"
	"runtime"
	"sync"

	"github.com/vireodata/vireo/pkg/errors"
)

type task struct {
	fn     func() (any, error)
	result chan outcome
}

type outcome struct {
	value any
	err   error
}

// Pool is a fixed-size worker pool with a bounded queue.
type Pool struct {
	queue   chan task
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	workers int
}

// NewPool starts workers goroutines draining a queue of queueSize pending
// tasks. Non-positive arguments fall back to GOMAXPROCS and twice the
// worker count.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if queueSize <= 0 {
		queueSize = workers * 2
	}
	p := &Pool{
		queue:   make(chan task, queueSize),
		workers: workers,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.queue {
		value, err := t.fn()
		t.result <- outcome{value: value, err: err}
	}
}

// releaser matches engine values that hold counted buffer references.
type releaser interface{ Release() }

// Submit queues fn and waits for its result. If ctx expires before a worker
// picks the task up or while it runs, Submit returns the context error; a
// running task is not interrupted. A discarded result that holds buffer
// references is released when the task eventually finishes.
func (p *Pool) Submit(ctx context.Context, fn func() (any, error)) (any, error) {
	t := task{fn: fn, result: make(chan outcome, 1)}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, errors.New(errors.ErrorTypeInternal, "dispatch pool is closed")
	}
	select {
	case p.queue <- t:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeInternal, "call abandoned before dispatch")
	}

	select {
	case out := <-t.result:
		return out.value, out.err
	case <-ctx.Done():
		go func() {
			if out := <-t.result; out.value != nil {
				if r, ok := out.value.(releaser); ok {
					r.Release()
				}
			}
		}()
		return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeInternal, "call abandoned while running")
	}
}

// Workers returns the pool's worker count.
func (p *Pool) Workers() int { return p.workers }

// Close stops accepting work and waits for queued tasks to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}
