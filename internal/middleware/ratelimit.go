package middleware

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/smartbudget/smartbudget-server/internal/ratelimit"
)

// RateLimitMiddleware guards brute-forceable endpoints, currently just the
// credential check.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// GuardLogin enforces the login rate limit per client address. Limiter
// failures fail open so an unavailable Redis never blocks sign-in entirely.
func (m *RateLimitMiddleware) GuardLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil || m.rules == nil {
			next.ServeHTTP(w, r)
			return
		}

		limit, window := m.rules.LoginLimit()
		if limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		key := ratelimit.LoginKey(clientAddr(r))
		result, err := m.limiter.Check(r.Context(), key, limit, window)
		if err != nil {
			if errors.Is(err, ratelimit.ErrLimitExceeded) {
				m.log.Warn("login rate limit exceeded", slog.String("key", key))
				http.Error(w, "Too many login attempts. Please wait a moment.", http.StatusTooManyRequests)
				return
			}

			m.log.Error("rate limit check failed", slog.String("key", key), slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		if result != nil && !result.Allowed {
			http.Error(w, "Too many login attempts. Please wait a moment.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
