// Package parallel provides the worker pool used to fan compilation
// jobs out across CPU cores with bounded concurrency and backpressure:
// submission blocks when every worker is busy and the task buffer is
// full.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// ErrPoolShutdown is returned when submitting to a pool that has been
// shut down.
var ErrPoolShutdown = errors.New("parallel: pool has been shut down")

// Pool runs submitted tasks on a fixed set of goroutines. Each
// compilation job owns its solver state, so tasks never share mutable
// data; the pool only bounds how many run at once.
type Pool struct {
	workers  int
	tasks    chan func()
	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// NewPool creates a pool with the given number of workers. A
// non-positive count defaults to the number of CPU cores.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		workers:  workers,
		tasks:    make(chan func(), workers*2),
		shutdown: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Workers returns the pool's concurrency.
func (p *Pool) Workers() int { return p.workers }

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			if task != nil {
				task()
			}
		case <-p.shutdown:
			return
		}
	}
}

// Submit queues task for execution, blocking when the buffer is full
// until a worker frees up, the context expires, or the pool shuts down.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case <-p.shutdown:
		return ErrPoolShutdown
	default:
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.shutdown:
		return ErrPoolShutdown
	}
}

// Shutdown stops the workers after their current tasks finish. Queued
// but unstarted tasks are dropped.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.shutdown)
		p.wg.Wait()
	})
}
