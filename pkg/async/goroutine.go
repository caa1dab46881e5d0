package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrPanic wraps a recovered panic
var ErrPanic = errors.New("panic recovered")

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Optional timeout enforcement (zero means none)
// - Error logging
//
// Use this instead of bare `go func()` for long-running background tasks.
//
// Example:
//
//	SafeGo(ctx, 0, log, "descriptor watcher", func(ctx context.Context) error {
//	    return watcher.Run(ctx)
//	})
func SafeGo(parentCtx context.Context, timeout time.Duration, log *logrus.Logger, taskName string, fn func(context.Context) error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	go func() {
		ctx, cancel := parentCtx, context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(parentCtx, timeout)
		}
		defer cancel()

		if err := Recover(func() error { return fn(ctx) }); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).WithField("task", taskName).Error("Background task failed")
		}
	}()
}

// Recover runs fn and converts a panic into an error wrapping ErrPanic
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
		}
	}()
	return fn()
}

// Group runs tasks with bounded concurrency. A panicking task is reported as
// an error instead of crashing the process. Unlike errgroup.WithContext, a
// failing task does not cancel the others.
type Group struct {
	g errgroup.Group
}

// NewGroup creates a group running at most limit tasks at once. A limit
// below 1 means unbounded.
func NewGroup(limit int) *Group {
	g := &Group{}
	if limit > 0 {
		g.g.SetLimit(limit)
	}
	return g
}

// Go starts fn, blocking while the group is at its limit
func (g *Group) Go(fn func() error) {
	g.g.Go(func() error { return Recover(fn) })
}

// Wait blocks until every task returned and reports the first error
func (g *Group) Wait() error {
	return g.g.Wait()
}

// Each calls fn for every index of n items using a group of the given limit.
// The returned slice holds the error of each call, nil on success.
func Each(n, limit int, fn func(i int) error) []error {
	errs := make([]error, n)
	if limit <= 1 || n < 2 {
		for i := 0; i < n; i++ {
			errs[i] = Recover(func() error { return fn(i) })
		}
		return errs
	}

	g := NewGroup(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			errs[i] = Recover(func() error { return fn(i) })
			return errs[i]
		})
	}
	_ = g.Wait()
	return errs
}
