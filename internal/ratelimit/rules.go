package ratelimit

import (
	"fmt"
	"time"

	"github.com/smartbudget/smartbudget-server/pkg/config"
)

const defaultLoginWindow = time.Minute

// Rules resolves the configured limits for guarded operations.
type Rules struct {
	config config.RateLimitConfig
}

func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

// LoginLimit returns the limit and window guarding credential checks.
// A zero limit disables the guard.
func (r *Rules) LoginLimit() (int, time.Duration) {
	window := r.config.Login.Window
	if window <= 0 {
		window = defaultLoginWindow
	}

	return r.config.Login.Limit, window
}

// LoginKey builds the limiter key for a login attempt. Attempts are bucketed
// per client address so one misbehaving client cannot lock everyone out.
func LoginKey(remoteAddr string) string {
	return fmt.Sprintf("login:%s", remoteAddr)
}
