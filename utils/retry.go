package utils

import (
	"context"
	"time"
)

// RetryPolicy retries an operation a fixed number of times with a fixed
// delay between attempts. Errors matched by Exclude are returned
// immediately without further attempts (validation errors, not-found).
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	Exclude  func(error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Delay:    500 * time.Millisecond,
	}
}

// Do runs fn until it succeeds, the attempts are exhausted, or ctx is
// cancelled. The last error is returned when all attempts fail.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Exclude != nil && p.Exclude(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return lastErr
}
