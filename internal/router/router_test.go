package router

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbudget/smartbudget-server/internal/advisor"
	"github.com/smartbudget/smartbudget-server/internal/domain"
	apperrors "github.com/smartbudget/smartbudget-server/internal/errors"
	"github.com/smartbudget/smartbudget-server/internal/expense"
	"github.com/smartbudget/smartbudget-server/internal/group"
	"github.com/smartbudget/smartbudget-server/internal/lifecycle"
	"github.com/smartbudget/smartbudget-server/internal/market"
	"github.com/smartbudget/smartbudget-server/internal/notify"
	"github.com/smartbudget/smartbudget-server/internal/session"
)

type fakeIdentity struct {
	sessions map[string]*domain.Session
	secret   string
}

func (f *fakeIdentity) ValidateCredentials(_ context.Context, email, secret string) (*domain.Session, error) {
	sess, ok := f.sessions[email]
	if !ok || secret != f.secret {
		return nil, session.ErrInvalidCredentials
	}
	return sess.Clone(), nil
}

func (f *fakeIdentity) CreateAccount(_ context.Context, input domain.SignupInput) (*domain.Session, error) {
	if _, exists := f.sessions[input.Email]; exists {
		return nil, session.ErrSignupFailed
	}

	sess := &domain.Session{
		ID:          "new-" + input.Email,
		Name:        input.Name,
		Email:       input.Email,
		UserType:    input.UserType,
		CreditScore: 70,
		Preferences: domain.DefaultPreferences(),
		CreatedAt:   time.Now().UTC(),
	}
	f.sessions[input.Email] = sess

	return sess.Clone(), nil
}

func (f *fakeIdentity) SavePreferences(_ context.Context, _, email string, prefs domain.Preferences) error {
	sess, ok := f.sessions[email]
	if !ok {
		return sql.ErrNoRows
	}

	sess.Preferences = prefs
	return nil
}

type fakeExpenseRepo struct {
	expenses []domain.Expense
}

func (f *fakeExpenseRepo) ListByUser(_ context.Context, userID, category string) ([]domain.Expense, error) {
	var out []domain.Expense
	for _, e := range f.expenses {
		if e.UserID == userID && (category == "" || e.Category == category) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpenseRepo) Create(_ context.Context, e *domain.Expense) error {
	f.expenses = append(f.expenses, *e)
	return nil
}

func (f *fakeExpenseRepo) Delete(_ context.Context, id, userID string) error {
	for i, e := range f.expenses {
		if e.ID == id && e.UserID == userID {
			f.expenses = append(f.expenses[:i], f.expenses[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeGroupRepo struct{}

func (fakeGroupRepo) ListByMember(context.Context, string) ([]domain.Group, error) { return nil, nil }
func (fakeGroupRepo) FindByID(context.Context, string) (*domain.Group, error) {
	return nil, sql.ErrNoRows
}
func (fakeGroupRepo) Create(context.Context, *domain.Group) error { return nil }
func (fakeGroupRepo) Update(context.Context, *domain.Group) error { return sql.ErrNoRows }

type fakeAccountRepo struct{}

func (fakeAccountRepo) FindByEmail(context.Context, string) (*domain.Account, error) {
	return nil, sql.ErrNoRows
}
func (fakeAccountRepo) FindByID(context.Context, string) (*domain.Account, error) {
	return nil, sql.ErrNoRows
}
func (fakeAccountRepo) Create(context.Context, *domain.Account) error { return nil }
func (fakeAccountRepo) UpdatePreferences(context.Context, string, domain.Preferences) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	log := testLogger()
	storage := session.NewFileStorage(filepath.Join(t.TempDir(), "session.json"), log)
	identity := &fakeIdentity{
		sessions: map[string]*domain.Session{
			"testuser@example.com": {
				ID:          "edfed8d5-4638-42ba-b94b-46db64e6e6c0",
				Name:        "Test User",
				Email:       "testuser@example.com",
				UserType:    domain.UserTypeRegular,
				CreditScore: 700,
				Preferences: domain.DefaultPreferences(),
			},
		},
		secret: "password123",
	}

	emitter := notify.NewEmitter(log, time.Minute, 8)
	store := session.NewStore(storage, identity, emitter, apperrors.NewHandler(log, false), nil, log)
	store.Start(context.Background())
	require.NoError(t, store.WaitReady(context.Background()))

	return New(Deps{
		Store:    store,
		Emitter:  emitter,
		Expenses: expense.NewService(&fakeExpenseRepo{}, nil, nil, log),
		Groups:   group.NewService(fakeGroupRepo{}, fakeAccountRepo{}, nil, log),
		Advisor:  advisor.NewEngine(0, log),
		Quotes:   market.NewQuoteService(log),
		News:     market.NewNewsService(),
		Probes:   lifecycle.NewProbes(nil, log),
		Log:      log,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func loginDemo(t *testing.T, h http.Handler) {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", loginRequest{
		Email:  "testuser@example.com",
		Secret: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewDescriptor {
	t.Helper()

	var view viewDescriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestPublicViewsRenderAnonymously(t *testing.T) {
	h := newTestRouter(t)

	for path, want := range map[string]string{
		"/":         "landing",
		"/login":    "login",
		"/register": "register",
	} {
		rec := doJSON(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, want, decodeView(t, rec).View, path)
	}
}

func TestProtectedViewsRedirectAnonymous(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/expenses", "/groups", "/advisor", "/settings"} {
		rec := doJSON(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestDashboardPreviewForAnonymous(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeView(t, rec)
	assert.Equal(t, "dashboard", view.View)
	assert.True(t, view.Preview)
	assert.False(t, view.Authenticated)
}

func TestCardsRedirectsPermanentlyToExpenses(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/cards", nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/expenses", rec.Header().Get("Location"))
}

func TestUnknownPathRendersNotFoundView(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/no-such-page", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not-found", decodeView(t, rec).View)
}

func TestLoginFlowUnlocksProtectedViews(t *testing.T) {
	h := newTestRouter(t)
	loginDemo(t, h)

	rec := doJSON(t, h, http.MethodGet, "/expenses", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeView(t, rec)
	assert.Equal(t, "expenses", view.View)
	assert.True(t, view.Authenticated)

	// The dashboard is no longer a preview.
	rec = doJSON(t, h, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeView(t, rec).Preview)
}

func TestLoginRejectsWrongCredentials(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", loginRequest{
		Email:  "someone@else.com",
		Secret: "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Still anonymous.
	rec = doJSON(t, h, http.MethodGet, "/api/auth/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, false, payload["authenticated"])
}

func TestLoginReturnsDemoSession(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", loginRequest{
		Email:  "testuser@example.com",
		Secret: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sess domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "Test User", sess.Name)
	assert.Equal(t, 700, sess.CreditScore)
}

func TestLogoutReturnsToAnonymous(t *testing.T) {
	h := newTestRouter(t)
	loginDemo(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/expenses", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	// Logging out twice is fine.
	rec = doJSON(t, h, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExpenseAPIRequiresSession(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/api/expenses", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/expenses", domain.ExpenseInput{
		Title: "Groceries", AmountMinor: 100, Category: "food", PaymentMethod: "upi",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpenseLifecycleOverAPI(t *testing.T) {
	h := newTestRouter(t)
	loginDemo(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/expenses", domain.ExpenseInput{
		Title:         "Groceries",
		AmountMinor:   123450,
		Category:      "food",
		PaymentMethod: "upi",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Expense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, h, http.MethodGet, "/api/expenses", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []domain.Expense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	rec = doJSON(t, h, http.MethodGet, "/api/expenses/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Groceries")

	rec = doJSON(t, h, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdvisorChatOverAPI(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/advisor/chat", advisorChatRequest{Message: "savings"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	loginDemo(t, h)

	rec = doJSON(t, h, http.MethodPost, "/api/advisor/chat", advisorChatRequest{Message: "how do I budget?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply advisor.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Contains(t, reply.Text, "50/30/20")
}

func TestMarketEndpointsArePublic(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/api/market/stocks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quotes []domain.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quotes))
	assert.Len(t, quotes, 6)

	rec = doJSON(t, h, http.MethodGet, "/api/market/news", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMarketConversionOverAPI(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/api/market/convert?usd=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		USD       float64 `json:"usd"`
		INR       float64 `json:"inr"`
		Formatted string  `json:"formatted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 5.0, payload.USD)
	assert.Equal(t, 415.0, payload.INR)
	assert.Equal(t, "₹415.00", payload.Formatted)

	rec = doJSON(t, h, http.MethodGet, "/api/market/convert?usd=not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProbeEndpoints(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/livez", "/readyz"} {
		rec := doJSON(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "ok", rec.Body.String(), path)
	}
}

func TestPreferencesUpdateOverAPI(t *testing.T) {
	h := newTestRouter(t)
	loginDemo(t, h)

	rec := doJSON(t, h, http.MethodPut, "/api/preferences", domain.Preferences{
		Language: "hi", Currency: "USD", Theme: "dark",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sess domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "dark", sess.Preferences.Theme)
}
