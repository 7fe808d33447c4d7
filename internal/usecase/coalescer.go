package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Coalescer collapses concurrent calls with the same key into one execution.
//
// The shared call runs on a context detached from the first caller's cancellation
// and bounded by timeout, so one impatient caller cannot fail everybody else.
// A caller whose own context ends stops waiting without cancelling the shared call.
// The key is released when the call returns, so a later call runs fresh.
type Coalescer[T any] struct {
	group   singleflight.Group
	timeout time.Duration
}

// NewCoalescer creates a Coalescer whose shared calls are bounded by timeout.
func NewCoalescer[T any](timeout time.Duration) *Coalescer[T] {
	return &Coalescer[T]{timeout: timeout}
}

// Do runs fn once per in-flight key. shared reports whether the result was
// delivered to more than one caller.
func (c *Coalescer[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (result T, shared bool, err error) {
	ch := c.group.DoChan(key, func() (v interface{}, err error) {
		callCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, c.timeout)
			defer cancel()
		}
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("coalesced call panic: %v", r)
			}
		}()
		return fn(callCtx)
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Shared, res.Err
		}
		v, _ := res.Val.(T)
		return v, res.Shared, nil
	}
}
