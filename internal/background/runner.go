// Package background runs fire-and-forget work that must outlive the HTTP
// request that scheduled it.
package background

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/lead-intake/pkg/logging"
)

// ErrClosed is returned by Go once the runner has started draining.
var ErrClosed = errors.New("background: runner closed")

// Task is a unit of detached work.
type Task func(ctx context.Context) error

// Observer is notified when a task finishes. err is nil on success.
type Observer func(name string, err error, elapsed time.Duration)

// Runner starts tasks on their own goroutines with a context detached from
// the caller's cancellation, and tracks them so shutdown can wait.
type Runner struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	closed  bool
	timeout time.Duration
	logger  *logging.Logger
	observe Observer
}

// NewRunner creates a runner whose tasks are bounded by timeout.
func NewRunner(timeout time.Duration, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{timeout: timeout, logger: logger}
}

// OnDone registers an observer for finished tasks.
func (r *Runner) OnDone(fn Observer) *Runner {
	r.observe = fn
	return r
}

// Go schedules task. The task sees ctx's values but not its deadline or
// cancellation, so flushing the response does not abort it.
func (r *Runner) Go(ctx context.Context, name string, task Task) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.wg.Add(1)
	r.mu.Unlock()

	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	go func() {
		defer r.wg.Done()
		defer cancel()
		start := time.Now()

		err := r.run(taskCtx, name, task)
		if err != nil {
			r.logger.Warn("background task failed", "task", name, "error", err)
		} else {
			r.logger.Debug("background task completed", "task", name)
		}
		if r.observe != nil {
			r.observe(name, err, time.Since(start))
		}
	}()
	return nil
}

func (r *Runner) run(ctx context.Context, name string, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("background task panicked", "task", name, "panic", rec)
			err = errors.New("background: task panicked")
		}
	}()
	return task(ctx)
}

// Wait blocks until every scheduled task finishes or ctx ends.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks and waits for in-flight ones.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.Wait(ctx)
}
