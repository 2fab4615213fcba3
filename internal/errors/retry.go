package errors

import (
	"context"
	"errors"
	"math"
	"time"
)

// Backoff controls retry pacing for transient failures (database pings,
// pub/sub resubscribes). Zero values fall back to DefaultBackoff.
type Backoff struct {
	MaxRetries int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoff is used when no explicit policy is supplied.
var DefaultBackoff = Backoff{
	MaxRetries: 3,
	Initial:    100 * time.Millisecond,
	Max:        5 * time.Second,
	Multiplier: 2.0,
}

// WithRetry invokes fn, retrying retryable errors per the default backoff policy.
func WithRetry(ctx context.Context, fn func() error) error {
	return WithRetryPolicy(ctx, DefaultBackoff, fn)
}

// WithRetryPolicy invokes fn with the provided backoff. Non-retryable errors
// and context cancellation stop the loop immediately.
func WithRetryPolicy(ctx context.Context, policy Backoff, fn func() error) error {
	if fn == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	policy = policy.orDefault()

	var err error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err = fn()
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return err
		}

		if attempt == policy.MaxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.delay(attempt + 1)):
		}
	}

	return err
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Retryable
	}

	return false
}

func (b Backoff) orDefault() Backoff {
	if b.MaxRetries <= 0 {
		b.MaxRetries = DefaultBackoff.MaxRetries
	}
	if b.Initial <= 0 {
		b.Initial = DefaultBackoff.Initial
	}
	if b.Max <= 0 {
		b.Max = DefaultBackoff.Max
	}
	if b.Multiplier <= 1 {
		b.Multiplier = DefaultBackoff.Multiplier
	}

	return b
}

func (b Backoff) delay(attempt int) time.Duration {
	d := time.Duration(float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt)))
	if d > b.Max {
		return b.Max
	}

	return d
}
