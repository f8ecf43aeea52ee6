// README: Bounded retry combinator shared by the client turn loop and the model fallback loop.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds a retried operation.
// Retryable reports whether another attempt should follow err; nil means always.
type Policy struct {
	MaxAttempts int
	BackOff     func() backoff.BackOff
	Retryable   func(err error) bool
}

// ErrNoAttempts is returned when a policy allows zero attempts.
var ErrNoAttempts = errors.New("retry: no attempts allowed")

// Do runs fn until it succeeds, the policy is exhausted, Retryable rejects the error
// or ctx is done. attempt is 1-based. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts <= 0 {
		return zero, ErrNoAttempts
	}
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if p.BackOff != nil {
		b = p.BackOff()
	}
	b.Reset()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}
		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}
		if p.Retryable != nil && !p.Retryable(err) {
			break
		}
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		if wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return zero, lastErr
			case <-t.C:
			}
		}
	}
	return zero, lastErr
}

// Exponential doubles the wait from initial on every attempt with up to jitter
// of randomization. The policy's MaxAttempts bounds the loop.
func Exponential(initial time.Duration, jitter float64) func() backoff.BackOff {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.Multiplier = 2
		b.RandomizationFactor = jitter
		b.MaxInterval = 30 * time.Second
		b.MaxElapsedTime = 0
		return b
	}
}

// None moves to the next attempt immediately.
func None() func() backoff.BackOff {
	return func() backoff.BackOff { return &backoff.ZeroBackOff{} }
}
