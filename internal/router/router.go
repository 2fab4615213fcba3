// Package router maps the application's navigation surface and JSON API onto
// a gorilla/mux router. Views mirror the SPA pages: each view path returns a
// view descriptor the shell renders, and protected paths are wrapped with the
// auth gate so anonymous navigation redirects to the login view.
package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/smartbudget/smartbudget-server/internal/advisor"
	"github.com/smartbudget/smartbudget-server/internal/authgate"
	"github.com/smartbudget/smartbudget-server/internal/events"
	"github.com/smartbudget/smartbudget-server/internal/expense"
	"github.com/smartbudget/smartbudget-server/internal/group"
	"github.com/smartbudget/smartbudget-server/internal/health"
	"github.com/smartbudget/smartbudget-server/internal/lifecycle"
	"github.com/smartbudget/smartbudget-server/internal/market"
	mw "github.com/smartbudget/smartbudget-server/internal/middleware"
	"github.com/smartbudget/smartbudget-server/internal/notify"
	"github.com/smartbudget/smartbudget-server/internal/session"
	"github.com/smartbudget/smartbudget-server/pkg/logger"
	"github.com/smartbudget/smartbudget-server/pkg/metrics"
)

// Deps carries everything the routes need. Optional fields may be nil; the
// corresponding routes degrade or are skipped.
type Deps struct {
	Store     *session.Store
	Emitter   *notify.Emitter
	Expenses  *expense.Service
	Groups    *group.Service
	Advisor   *advisor.Engine
	Quotes    *market.QuoteService
	News      *market.NewsService
	Bus       *events.Bus
	Health    *health.Checker
	Probes    *lifecycle.Probes
	RateLimit *mw.RateLimitMiddleware
	Log       *slog.Logger
}

// probeHandler adapts a lifecycle probe to an HTTP endpoint: 200 "ok" when
// the probe passes, 503 with the failure reason when it does not.
func probeHandler(probe func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := probe(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// New builds the full route table.
func New(deps Deps) *mux.Router {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	h := &handlers{
		store:    deps.Store,
		emitter:  deps.Emitter,
		expenses: deps.Expenses,
		groups:   deps.Groups,
		advisor:  deps.Advisor,
		quotes:   deps.Quotes,
		news:     deps.News,
		bus:      deps.Bus,
		log:      log,
	}

	r := mux.NewRouter()
	r.Use(logger.Middleware)
	r.Use(mw.Logging(log))
	r.Use(mw.Metrics)

	// Public views.
	r.HandleFunc("/", h.landingView).Methods(http.MethodGet)
	r.HandleFunc("/login", h.loginView).Methods(http.MethodGet)
	r.HandleFunc("/register", h.registerView).Methods(http.MethodGet)

	// Legacy path: the cards page merged into expenses.
	r.Handle("/cards", http.RedirectHandler("/expenses", http.StatusMovedPermanently)).Methods(http.MethodGet)

	// Protected views behind the auth gate. /dashboard stays in the gate's
	// protected set but renders a preview while anonymous.
	gate := authgate.Middleware(deps.Store, log)
	for path, view := range map[string]string{
		authgate.PreviewPath: "dashboard",
		"/expenses":          "expenses",
		"/groups":            "groups",
		"/advisor":           "advisor",
		"/settings":          "settings",
	} {
		r.Handle(path, gate(h.protectedView(view))).Methods(http.MethodGet)
	}

	// JSON API.
	api := r.PathPrefix("/api").Subrouter()

	login := http.HandlerFunc(h.login)
	if deps.RateLimit != nil {
		api.Handle("/auth/login", deps.RateLimit.GuardLogin(login)).Methods(http.MethodPost)
	} else {
		api.Handle("/auth/login", login).Methods(http.MethodPost)
	}
	api.HandleFunc("/auth/signup", h.signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/session", h.currentSession).Methods(http.MethodGet)

	api.HandleFunc("/preferences", h.updatePreferences).Methods(http.MethodPut)

	api.HandleFunc("/expenses", h.listExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", h.createExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/export", h.exportExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id}", h.deleteExpense).Methods(http.MethodDelete)

	api.HandleFunc("/groups", h.listGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups", h.createGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}", h.getGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}", h.updateGroup).Methods(http.MethodPut)

	api.HandleFunc("/advisor/chat", h.advisorChat).Methods(http.MethodPost)

	api.HandleFunc("/market/stocks", h.listStocks).Methods(http.MethodGet)
	api.HandleFunc("/market/news", h.listNews).Methods(http.MethodGet)
	api.HandleFunc("/market/convert", h.convertCurrency).Methods(http.MethodGet)

	api.HandleFunc("/notifications", h.activeNotifications).Methods(http.MethodGet)
	api.HandleFunc("/events", h.streamEvents).Methods(http.MethodGet)

	// Operational endpoints.
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	if deps.Health != nil {
		r.Handle("/healthz", deps.Health.Handler()).Methods(http.MethodGet)
	}
	if deps.Probes != nil {
		r.HandleFunc("/livez", probeHandler(deps.Probes.Liveness)).Methods(http.MethodGet)
		r.HandleFunc("/readyz", probeHandler(deps.Probes.Readiness)).Methods(http.MethodGet)
	}

	// Unknown paths render the not-found view rather than a bare 404.
	r.NotFoundHandler = logger.Middleware(mw.Logging(log)(http.HandlerFunc(h.notFoundView)))

	return r
}
