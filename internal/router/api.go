package router

import (
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/smartbudget/smartbudget-server/internal/domain"
	"github.com/smartbudget/smartbudget-server/internal/export"
	"github.com/smartbudget/smartbudget-server/internal/idempotency"
	"github.com/smartbudget/smartbudget-server/internal/market"
	"github.com/smartbudget/smartbudget-server/internal/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	sess, err := h.store.Login(r.Context(), req.Email, req.Secret)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid email or password"})
			return
		}

		h.log.Error("login failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Something went wrong. Please try again later."})
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var input domain.SignupInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	sess, err := h.store.Signup(r.Context(), input)
	if err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid signup details"})
			return
		}
		if errors.Is(err, session.ErrSignupFailed) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "could not create the account"})
			return
		}

		h.log.Error("signup failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Something went wrong. Please try again later."})
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		h.log.Error("logout failed", slog.Any("error", err))
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) currentSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.WaitReady(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "session restore in progress"})
		return
	}

	sess := h.store.Current()
	if sess == nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "session": sess})
}

func (h *handlers) updatePreferences(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w)
	if sess == nil {
		return
	}

	var prefs domain.Preferences
	if err := decodeJSON(r, &prefs); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	if err := h.store.UpdatePreferences(r.Context(), prefs); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid preferences"})
			return
		}

		h.log.Error("preferences update failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Something went wrong. Please try again later."})
		return
	}

	writeJSON(w, http.StatusOK, h.store.Current())
}

func (h *handlers) listExpenses(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w)
	if sess == nil {
		return
	}

	expenses, err := h.expenses.List(r.Context(), sess.ID, r.URL.Query().Get("category"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load expenses"})
		return
	}

	if expenses == nil {
		expenses = []domain.Expense{}
	}

	writeJSON(w, http.StatusOK, expenses)
}

func (h *handlers) createExpense(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w)
	if sess == nil {
		return
	}

	var input domain.ExpenseInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	created, err := h.expenses.Create(r.Context(), sess.ID, input, r.Header.Get("Idempotency-Key"))
	if err != nil {
		if errors.Is(err, idempotency.ErrRequestInProgress) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "an identical request is already in progress"})
			return
		}

		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid expense details"})
			return
		}

		h.log.Error("expense create failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not record the expense"})
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) deleteExpense(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w)
	if sess == nil {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.expenses.Delete(r.Context(), id, sess.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "expense not found"})
			return
		}

		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not delete the expense"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) exportExpenses(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w)
	if sess == nil {
		return
	}

	expenses, err := h.expenses.List(r.Context(), sess.ID, r.URL.Query().Get("category"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load expenses"})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)

	if err := export.WriteExpensesCSV(w, expenses); err != nil {
		h.log.Error("expense export failed", slog.Any("error", err))
	}
}

func (h *handlers) listGroups(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w)
	if sess == nil {
		return
	}

	groups, err := h.groups.List(r.Context(), sess.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load groups"})
		return
	}

	if groups == nil {
		groups = []domain.Group{}
	}

	writeJSON(w, http.StatusOK, groups)
}

func (h *handlers) createGroup(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w)
	if sess == nil {
		return
	}

	var input domain.GroupInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	created, err := h.groups.Create(r.Context(), sess.ID, input)
	if err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group details"})
			return
		}

		h.log.Error("group create failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not create the group"})
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) getGroup(w http.ResponseWriter, r *http.Request) {
	if h.requireSession(w) == nil {
		return
	}

	group, err := h.groups.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "group not found"})
			return
		}

		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load the group"})
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *handlers) updateGroup(w http.ResponseWriter, r *http.Request) {
	if h.requireSession(w) == nil {
		return
	}

	var update domain.GroupUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	updated, err := h.groups.Update(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "group not found"})
			return
		}

		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid group update"})
			return
		}

		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not update the group"})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

type advisorChatRequest struct {
	Message string `json:"message"`
}

func (h *handlers) advisorChat(w http.ResponseWriter, r *http.Request) {
	if h.requireSession(w) == nil {
		return
	}

	var req advisorChatRequest
	if err := decodeJSON(r, &req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	reply, err := h.advisor.Ask(r.Context(), req.Message)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "the advisor is unavailable right now"})
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *handlers) listStocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.quotes.Quotes(r.Context()))
}

func (h *handlers) listNews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.news.Latest(r.Context()))
}

type conversionResponse struct {
	USD       float64 `json:"usd"`
	INR       float64 `json:"inr"`
	Formatted string  `json:"formatted"`
}

func (h *handlers) convertCurrency(w http.ResponseWriter, r *http.Request) {
	usd, err := strconv.ParseFloat(r.URL.Query().Get("usd"), 64)
	if err != nil || math.IsNaN(usd) || math.IsInf(usd, 0) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "usd must be a number"})
		return
	}

	inr := market.USDToINR(usd)
	writeJSON(w, http.StatusOK, conversionResponse{
		USD:       usd,
		INR:       inr,
		Formatted: market.FormatINR(int64(math.Round(inr * 100))),
	})
}

func (h *handlers) activeNotifications(w http.ResponseWriter, r *http.Request) {
	active := h.emitter.Active()
	if active == nil {
		active = []domain.Notification{}
	}

	writeJSON(w, http.StatusOK, active)
}

// requireSession resolves the active session, writing a 401 when anonymous.
func (h *handlers) requireSession(w http.ResponseWriter) *domain.Session {
	sess := h.store.Current()
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "sign in to continue"})
		return nil
	}

	return sess
}
