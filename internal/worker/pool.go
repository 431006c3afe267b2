// Package worker provides the small pool that runs detached generation tasks
// off the request/response cycle.
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Task is one detached unit of work. Tasks own their error handling; a task
// that can fail must record that failure itself before returning.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed set of goroutines.
type Pool struct {
	wg     sync.WaitGroup
	tasks  chan Task
	quit   chan struct{}
	n      int
	logger zerolog.Logger
}

// ErrQueueFull is returned when the pool cannot accept more work.
var ErrQueueFull = errors.New("worker queue full")

// NewPool sizes the pool; workers <= 0 falls back to the CPU count.
func NewPool(workers int, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		tasks:  make(chan Task, workers*4),
		quit:   make(chan struct{}),
		n:      workers,
		logger: logger,
	}
}

// Start launches the worker goroutines. The provided context is handed to
// every task and cancels the pool when done.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.tasks:
					if task != nil {
						task(ctx)
					}
				}
			}
		}()
	}
	p.logger.Debug().Int("workers", p.n).Msg("worker pool started")
}

// Stop drains the pool and waits for in-flight tasks.
func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

// Submit enqueues a task without blocking. A saturated queue is reported to
// the caller so it can record the rejection instead of stranding work.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}
