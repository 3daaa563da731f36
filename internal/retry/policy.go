// Package retry provides a small fixed-delay retry policy for external
// call sites. Keeping the policy an explicit value makes retry behavior
// testable independent of the call being wrapped.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default policy values, matching the external-provider retry settings.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 2 * time.Second
)

// Policy is a bounded fixed-delay retry policy.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Default returns the standard external-call policy.
func Default() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do returns it immediately instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do invokes fn up to MaxAttempts times, sleeping Delay between attempts.
// It returns nil on the first success. Exhaustion returns the last error;
// context cancellation and Permanent errors abort immediately.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
