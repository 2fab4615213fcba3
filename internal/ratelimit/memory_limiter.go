package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryLimiter is the process-local fallback used while Redis is
// unreachable. Windows reset on restart, which is acceptable for a
// degraded mode that already runs at half the configured limit.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	log     *slog.Logger
	now     func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an in-memory sliding-window limiter.
func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		windows: make(map[string][]time.Time),
		log:     log,
		now:     time.Now,
	}
}

// Check enforces the sliding window for key. Unlike the Redis limiter a
// rejected attempt is not recorded, so the memory window drains on its own.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := m.now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	attempts := dropExpired(m.windows[key], windowStart)

	allowed := len(attempts) < limit
	if allowed {
		attempts = append(attempts, now)
	}
	m.windows[key] = attempts

	remaining := limit - len(attempts)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// Cleanup drops keys whose latest attempt is older than maxAge. Called
// periodically so abandoned client addresses do not accumulate.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}

	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, attempts := range m.windows {
		if len(attempts) == 0 || attempts[len(attempts)-1].Before(cutoff) {
			delete(m.windows, key)
		}
	}
}

func dropExpired(attempts []time.Time, windowStart time.Time) []time.Time {
	first := 0
	for first < len(attempts) && attempts[first].Before(windowStart) {
		first++
	}

	if first == 0 {
		return attempts
	}
	if first >= len(attempts) {
		return attempts[:0]
	}

	copy(attempts, attempts[first:])
	return attempts[:len(attempts)-first]
}
