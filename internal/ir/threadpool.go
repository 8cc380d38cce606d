package ir

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ThreadPool bounds the concurrency of parallel drivers built on top of the
// IR core (the core itself never schedules work). The pool does not own
// goroutines; it hands out bounded task groups.
type ThreadPool struct {
	maxConcurrency int
}

func newThreadPool() *ThreadPool {
	return &ThreadPool{maxConcurrency: runtime.NumCPU()}
}

// NewThreadPool creates a pool with an explicit concurrency bound, for
// adoption via Context.SetThreadPool. A bound below 1 is clamped to 1.
func NewThreadPool(maxConcurrency int) *ThreadPool {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &ThreadPool{maxConcurrency: maxConcurrency}
}

// MaxConcurrency returns the pool's concurrency bound.
func (p *ThreadPool) MaxConcurrency() int {
	return p.maxConcurrency
}

// TaskGroup returns an errgroup bounded by the pool's concurrency, for
// running one batch of parallel work.
func (p *ThreadPool) TaskGroup(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrency)
	return g, gctx
}
