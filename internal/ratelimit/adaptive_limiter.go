package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartbudget_ratelimit_checks_total",
		Help: "Rate limit checks by backend and outcome.",
	}, []string{"backend", "outcome"})

	rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartbudget_ratelimit_rejected_total",
		Help: "Login attempts rejected by the limiter, per backend.",
	}, []string{"backend"})

	primaryErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartbudget_ratelimit_primary_errors_total",
		Help: "Errors from the primary limiter backend.",
	})
)

// AdaptiveLimiter checks the primary (Redis) backend first and, when it
// errors, re-checks against the in-memory fallback at half the configured
// limit. Halving keeps a Redis outage from doubling the effective budget
// across both backends.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

var _ Limiter = (*AdaptiveLimiter)(nil)

// NewAdaptiveLimiter combines a primary and a fallback limiter.
func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) Limiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Check evaluates key against the primary backend, degrading to the fallback
// on error. A rejected attempt returns ErrLimitExceeded alongside the result.
func (a *AdaptiveLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := a.primary.Check(ctx, key, limit, window)
	if err == nil {
		return record("redis", result)
	}

	primaryErrorsTotal.Inc()
	a.log.Warn("primary limiter unavailable, using in-memory fallback",
		slog.String("key", key),
		slog.Any("error", err),
	)

	fallbackLimit := limit / 2
	if fallbackLimit < 1 {
		fallbackLimit = 1
	}

	result, err = a.fallback.Check(ctx, key, fallbackLimit, window)
	if err != nil {
		return result, err
	}

	return record("memory", result)
}

func record(backend string, result *Result) (*Result, error) {
	if !result.Allowed {
		checksTotal.WithLabelValues(backend, "rejected").Inc()
		rejectedTotal.WithLabelValues(backend).Inc()
		return result, ErrLimitExceeded
	}

	checksTotal.WithLabelValues(backend, "allowed").Inc()
	return result, nil
}
