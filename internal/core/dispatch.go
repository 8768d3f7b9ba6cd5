package core

import (
	"context"
	"sync"
	"time"
)

// GoDispatcher runs each invocation on its own goroutine, detached from the
// request that accepted it.
type GoDispatcher struct {
	runner  *Runner
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewGoDispatcher bounds every job by timeout; zero means no bound.
func NewGoDispatcher(r *Runner, timeout time.Duration) *GoDispatcher {
	return &GoDispatcher{runner: r, timeout: timeout}
}

// Dispatch never blocks and never fails; errors are logged by the Runner.
func (d *GoDispatcher) Dispatch(ctx context.Context, inv Invocation) error {
	jobCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		runCtx := jobCtx
		if d.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(jobCtx, d.timeout)
			defer cancel()
		}
		_ = d.runner.Run(runCtx, inv)
	}()
	return nil
}

// Wait blocks until every dispatched job has finished or ctx is done.
func (d *GoDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
