// Package ratelimit throttles brute-forceable operations, currently login
// attempts keyed by client address. A Redis sliding window is the primary
// backend with an in-memory fallback when Redis is unreachable.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Result is the outcome of one limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter evaluates whether another attempt under key fits inside the window.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// ErrLimitExceeded reports that the key has used up its window.
var ErrLimitExceeded = errors.New("rate limit exceeded")
