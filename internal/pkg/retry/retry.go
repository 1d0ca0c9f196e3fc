// Package retry runs fallible calls a bounded number of times with linear backoff.
package retry

import (
	"context"
	"errors"
	"time"
)

type Policy struct {
	Attempts int
	Backoff  time.Duration
	// PerAttempt bounds each call; zero leaves the parent deadline in charge.
	PerAttempt time.Duration
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, attempts run out or ctx ends.
// The last error is returned unwrapped from Permanent.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		zero T
		err  error
	)
	for i := 1; i <= attempts; i++ {
		var v T
		v, err = call(ctx, p.PerAttempt, fn)
		if err == nil {
			return v, nil
		}
		var perm permanent
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		if i == attempts {
			break
		}

		wait := p.Backoff * time.Duration(i)
		select {
		case <-ctx.Done():
			return zero, errors.Join(err, ctx.Err())
		case <-time.After(wait):
		}
	}
	return zero, err
}

func call[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(cctx)
}
