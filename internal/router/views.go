package router

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/smartbudget/smartbudget-server/internal/advisor"
	"github.com/smartbudget/smartbudget-server/internal/authgate"
	"github.com/smartbudget/smartbudget-server/internal/events"
	"github.com/smartbudget/smartbudget-server/internal/expense"
	"github.com/smartbudget/smartbudget-server/internal/group"
	"github.com/smartbudget/smartbudget-server/internal/market"
	"github.com/smartbudget/smartbudget-server/internal/notify"
	"github.com/smartbudget/smartbudget-server/internal/session"
)

type handlers struct {
	store    *session.Store
	emitter  *notify.Emitter
	expenses *expense.Service
	groups   *group.Service
	advisor  *advisor.Engine
	quotes   *market.QuoteService
	news     *market.NewsService
	bus      *events.Bus
	log      *slog.Logger
}

// viewDescriptor tells the shell which page to paint and with what session
// context. Anonymous dashboard visits carry preview=true so the shell can
// show the teaser variant.
type viewDescriptor struct {
	View          string `json:"view"`
	Authenticated bool   `json:"authenticated"`
	Preview       bool   `json:"preview,omitempty"`
}

func (h *handlers) renderView(w http.ResponseWriter, view string, preview bool) {
	writeJSON(w, http.StatusOK, viewDescriptor{
		View:          view,
		Authenticated: h.store.Authenticated(),
		Preview:       preview,
	})
}

func (h *handlers) landingView(w http.ResponseWriter, r *http.Request) {
	h.renderView(w, "landing", false)
}

func (h *handlers) loginView(w http.ResponseWriter, r *http.Request) {
	h.renderView(w, "login", false)
}

func (h *handlers) registerView(w http.ResponseWriter, r *http.Request) {
	h.renderView(w, "register", false)
}

// protectedView renders a gated page. By the time it runs the gate has
// already decided Render, so the only remaining distinction is the dashboard
// preview for anonymous visitors.
func (h *handlers) protectedView(view string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		preview := r.URL.Path == authgate.PreviewPath && !h.store.Authenticated()
		h.renderView(w, view, preview)
	})
}

func (h *handlers) notFoundView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, viewDescriptor{
		View:          "not-found",
		Authenticated: h.store != nil && h.store.Authenticated(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	return dec.Decode(v)
}
