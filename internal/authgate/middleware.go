package authgate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/smartbudget/smartbudget-server/pkg/metrics"
)

// Store is the read-only session view consumed by the middleware.
type Store interface {
	Authenticated() bool
	WaitReady(ctx context.Context) error
}

// Middleware wraps protected view handlers. It first waits out the store's
// initial restore so a stale "logged out" state never produces a premature
// redirect, then applies the pure gate policy to the current request path.
// Redirect decisions are routine navigation and emit no notification.
func Middleware(store Store, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := store.WaitReady(r.Context()); err != nil {
				log.Warn("session restore not finished before navigation", slog.Any("error", err))
				http.Error(w, "session restore in progress", http.StatusServiceUnavailable)
				return
			}

			decision := Decide(store.Authenticated(), r.URL.Path)
			metrics.RecordGateDecision(r.URL.Path, decision.String())

			if decision == RedirectToLogin {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
