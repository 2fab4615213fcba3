package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	validator "github.com/go-playground/validator/v10"

	"github.com/smartbudget/smartbudget-server/internal/domain"
	apperrors "github.com/smartbudget/smartbudget-server/internal/errors"
	"github.com/smartbudget/smartbudget-server/internal/i18n"
	"github.com/smartbudget/smartbudget-server/internal/notify"
	"github.com/smartbudget/smartbudget-server/pkg/metrics"
)

// ErrInvalidCredentials is returned by Login when the identity source rejects
// the email/secret pair. The caller may retry with different input.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrSignupFailed is returned by Signup when the identity source rejects
// account creation, e.g. a duplicate email.
var ErrSignupFailed = errors.New("signup failed")

// Identity is the external identity source consumed by the store.
type Identity interface {
	// ValidateCredentials checks the email/secret pair and returns the
	// session for the matching account, or ErrInvalidCredentials.
	ValidateCredentials(ctx context.Context, email, secret string) (*domain.Session, error)
	// CreateAccount provisions a new account and returns its session,
	// or ErrSignupFailed when creation is rejected.
	CreateAccount(ctx context.Context, input domain.SignupInput) (*domain.Session, error)
	// SavePreferences persists the account's preferences so they survive
	// logout and re-login.
	SavePreferences(ctx context.Context, accountID, email string, prefs domain.Preferences) error
}

// Store is the single source of truth for "who is logged in" in this process.
// It owns the active session; consumers only ever receive copies. At most one
// session is active at a time; state-changing operations serialize on the
// store mutex, so of two concurrent logins the last to finish wins, matching
// the last-writer-wins semantics of the durable slot.
type Store struct {
	mu      sync.Mutex
	current *domain.Session
	loading bool
	// dirty marks that a login, signup, or logout committed state while the
	// initial restore was still in flight; the restored record is then stale
	// and must not overwrite it.
	dirty    bool
	ready    chan struct{}
	storage  Storage
	identity Identity
	emitter  *notify.Emitter
	errs     *apperrors.Handler
	i18n     *i18n.Manager
	validate *validator.Validate
	log      *slog.Logger
}

// NewStore constructs a Store. The store reports Loading until Start has
// finished restoring the saved session.
func NewStore(
	storage Storage,
	identity Identity,
	emitter *notify.Emitter,
	errs *apperrors.Handler,
	translations *i18n.Manager,
	log *slog.Logger,
) *Store {
	if log == nil {
		log = slog.Default()
	}

	return &Store{
		loading:  true,
		ready:    make(chan struct{}),
		storage:  storage,
		identity: identity,
		emitter:  emitter,
		errs:     errs,
		i18n:     translations,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Start launches the asynchronous restore. It returns immediately; consumers
// must gate on Loading or WaitReady before trusting session presence.
func (s *Store) Start(ctx context.Context) {
	go s.restore(ctx)
}

// Loading reports whether the initial restore is still in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// WaitReady blocks until the initial restore resolves or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		return nil
	}
}

// Current returns a copy of the active session, or nil when anonymous.
func (s *Store) Current() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Authenticated reports whether a session is active.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// restore reads the durable slot. A missing record means anonymous; a
// malformed record is cleared and treated as anonymous without surfacing an
// error to the user; an unavailable slot degrades to anonymous memory-only.
func (s *Store) restore(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		close(s.ready)
	}()

	sess, err := s.storage.Load(ctx)
	switch {
	case err == nil:
		s.mu.Lock()
		superseded := s.dirty
		if !superseded {
			s.current = sess
		}
		s.mu.Unlock()

		if superseded {
			metrics.RecordSessionOperation("restore", "superseded")
			s.log.Info("restored session discarded, state changed during restore")
			return
		}

		metrics.RecordSessionOperation("restore", "ok")
		metrics.SetSessionActive(true)
		s.log.Info("session restored", slog.String("session_id", sess.ID))

	case errors.Is(err, ErrNoSession):
		metrics.RecordSessionOperation("restore", "empty")

	case errors.Is(err, ErrMalformedRecord):
		// Silent by policy: discard the record and run anonymous.
		_, _ = s.errs.Handle(ctx, apperrors.NewMalformedSessionError(err))
		if clearErr := s.storage.Clear(ctx); clearErr != nil {
			s.log.Warn("failed to clear malformed session record", slog.Any("error", clearErr))
		}
		metrics.RecordSessionOperation("restore", "malformed")

	default:
		_, _ = s.errs.Handle(ctx, apperrors.NewStorageUnavailableError(err))
		metrics.RecordSessionOperation("restore", "storage_error")
	}
}

// Login validates credentials and activates the returned session. On success
// both the durable slot and memory are updated; on identity failure neither
// changes. An unavailable durable slot degrades to memory-only for this
// process lifetime. Emits exactly one user notification either way.
func (s *Store) Login(ctx context.Context, email, secret string) (*domain.Session, error) {
	handle := s.emitter.Loading(s.translate("auth.login.loading"))

	sess, err := s.identity.ValidateCredentials(ctx, email, secret)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			appErr := apperrors.NewInvalidCredentialsError(email)
			msg, _ := s.errs.Handle(ctx, appErr)
			s.emitter.Resolve(handle, domain.NotificationError, msg)
			metrics.RecordSessionOperation("login", "invalid_credentials")
			metrics.RecordError(appErr.Code, string(appErr.Severity))
			return nil, ErrInvalidCredentials
		}

		msg, _ := s.errs.Handle(ctx, apperrors.NewExternalAPIError("identity", err))
		s.emitter.Resolve(handle, domain.NotificationError, msg)
		metrics.RecordSessionOperation("login", "error")
		return nil, err
	}

	s.activate(ctx, sess)

	s.emitter.Resolve(handle, domain.NotificationSuccess, s.translate("auth.login.success"))
	metrics.RecordSessionOperation("login", "ok")
	s.log.Info("login succeeded", slog.String("session_id", sess.ID))

	return sess.Clone(), nil
}

// Signup provisions a new account with default preferences and activates its
// session. The profile is validated at the boundary before it reaches the
// identity source.
func (s *Store) Signup(ctx context.Context, input domain.SignupInput) (*domain.Session, error) {
	if err := s.validate.Struct(input); err != nil {
		appErr := apperrors.NewValidationError(err.Error())
		msg, _ := s.errs.Handle(ctx, appErr)
		s.emitter.Notify(domain.NotificationError, msg)
		metrics.RecordSessionOperation("signup", "invalid_input")
		return nil, appErr
	}

	handle := s.emitter.Loading(s.translate("auth.signup.loading"))

	sess, err := s.identity.CreateAccount(ctx, input)
	if err != nil {
		if errors.Is(err, ErrSignupFailed) {
			appErr := apperrors.NewSignupFailedError(err)
			msg, _ := s.errs.Handle(ctx, appErr)
			s.emitter.Resolve(handle, domain.NotificationError, msg)
			metrics.RecordSessionOperation("signup", "rejected")
			metrics.RecordError(appErr.Code, string(appErr.Severity))
			return nil, ErrSignupFailed
		}

		msg, _ := s.errs.Handle(ctx, apperrors.NewExternalAPIError("identity", err))
		s.emitter.Resolve(handle, domain.NotificationError, msg)
		metrics.RecordSessionOperation("signup", "error")
		return nil, err
	}

	s.activate(ctx, sess)

	s.emitter.Resolve(handle, domain.NotificationSuccess, s.translate("auth.signup.success"))
	metrics.RecordSessionOperation("signup", "ok")
	s.log.Info("signup succeeded", slog.String("session_id", sess.ID))

	return sess.Clone(), nil
}

// Logout clears the active session and the durable copy. Calling it while
// already logged out is a no-op, not an error.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasActive := s.current != nil
	s.current = nil
	s.dirty = true
	s.mu.Unlock()

	if err := s.storage.Clear(ctx); err != nil {
		_, _ = s.errs.Handle(ctx, apperrors.NewStorageUnavailableError(err))
	}

	metrics.SetSessionActive(false)
	if wasActive {
		metrics.RecordSessionOperation("logout", "ok")
	} else {
		metrics.RecordSessionOperation("logout", "noop")
	}

	s.emitter.Notify(domain.NotificationSuccess, s.translate("auth.logout.success"))
	return nil
}

// UpdatePreferences mutates the active session's preferences and persists the
// result. Returns ErrNoSession while anonymous.
func (s *Store) UpdatePreferences(ctx context.Context, prefs domain.Preferences) error {
	if err := s.validate.Struct(prefs); err != nil {
		appErr := apperrors.NewValidationError(err.Error())
		msg, _ := s.errs.Handle(ctx, appErr)
		s.emitter.Notify(domain.NotificationError, msg)
		return appErr
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return ErrNoSession
	}
	accountID, email := s.current.ID, s.current.Email
	s.mu.Unlock()

	// Account row first: if the durable update fails, neither memory nor
	// the slot changes, so a re-login cannot surface silently reverted
	// settings.
	if err := s.identity.SavePreferences(ctx, accountID, email, prefs); err != nil {
		msg, _ := s.errs.Handle(ctx, apperrors.NewExternalAPIError("identity", err))
		s.emitter.Notify(domain.NotificationError, msg)
		return err
	}

	s.mu.Lock()
	if s.current == nil || s.current.ID != accountID {
		s.mu.Unlock()
		return ErrNoSession
	}
	s.current.Preferences = prefs
	updated := s.current.Clone()
	s.mu.Unlock()

	if err := s.storage.Save(ctx, updated); err != nil {
		msg, _ := s.errs.Handle(ctx, apperrors.NewStorageUnavailableError(err))
		if msg != "" {
			s.emitter.Notify(domain.NotificationError, msg)
		}
		return nil
	}

	s.emitter.Notify(domain.NotificationSuccess, s.translate("settings.saved"))
	return nil
}

// activate commits a new session: durable slot first, then memory. A durable
// write failure degrades to memory-only per the StorageUnavailable policy.
func (s *Store) activate(ctx context.Context, sess *domain.Session) {
	if err := s.storage.Save(ctx, sess); err != nil {
		_, _ = s.errs.Handle(ctx, apperrors.NewStorageUnavailableError(err))
	}

	s.mu.Lock()
	s.current = sess.Clone()
	s.dirty = true
	s.mu.Unlock()

	metrics.SetSessionActive(true)
}

func (s *Store) translate(key string) string {
	if s.i18n == nil {
		return key
	}

	lang := ""
	s.mu.Lock()
	if s.current != nil {
		lang = s.current.Preferences.Language
	}
	s.mu.Unlock()

	return s.i18n.Translator(lang).T(key)
}
