package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbudget/smartbudget-server/internal/domain"
	apperrors "github.com/smartbudget/smartbudget-server/internal/errors"
	"github.com/smartbudget/smartbudget-server/internal/notify"
)

type fakeIdentity struct {
	sessions map[string]*domain.Session // email -> session
	secret   string
	created  []domain.SignupInput
	saved    []domain.Preferences
}

func (f *fakeIdentity) ValidateCredentials(_ context.Context, email, secret string) (*domain.Session, error) {
	sess, ok := f.sessions[email]
	if !ok || secret != f.secret {
		return nil, ErrInvalidCredentials
	}

	return sess.Clone(), nil
}

func (f *fakeIdentity) CreateAccount(_ context.Context, input domain.SignupInput) (*domain.Session, error) {
	if _, exists := f.sessions[input.Email]; exists {
		return nil, ErrSignupFailed
	}

	f.created = append(f.created, input)
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
		return errors.New("no such account")
	}

	sess.Preferences = prefs
	f.saved = append(f.saved, prefs)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func demoSession() *domain.Session {
	return &domain.Session{
		ID:          "edfed8d5-4638-42ba-b94b-46db64e6e6c0",
		Name:        "Test User",
		Email:       "testuser@example.com",
		UserType:    domain.UserTypeRegular,
		CreditScore: 700,
		Preferences: domain.DefaultPreferences(),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func newTestStore(t *testing.T) (*Store, Storage, *fakeIdentity) {
	t.Helper()

	log := testLogger()
	storage := NewFileStorage(filepath.Join(t.TempDir(), "session.json"), log)
	identity := &fakeIdentity{
		sessions: map[string]*domain.Session{"testuser@example.com": demoSession()},
		secret:   "password123",
	}

	emitter := notify.NewEmitter(log, time.Minute, 4)
	store := NewStore(storage, identity, emitter, apperrors.NewHandler(log, false), nil, log)
	store.Start(context.Background())
	require.NoError(t, store.WaitReady(context.Background()))

	return store, storage, identity
}

func TestLoginActivatesAndPersistsSession(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Login(ctx, "testuser@example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "Test User", sess.Name)
	assert.Equal(t, 700, sess.CreditScore)

	assert.True(t, store.Authenticated())

	// The durable slot can rebuild the same session.
	saved, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, saved.ID)
	assert.Equal(t, sess.Email, saved.Email)
}

func TestLoginWrongCredentialsLeavesStateUnchanged(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		email  string
		secret string
	}{
		{name: "wrong email", email: "someone@else.com", secret: "password123"},
		{name: "wrong secret", email: "testuser@example.com", secret: "nope"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sess, err := store.Login(ctx, tc.email, tc.secret)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Nil(t, sess)
			assert.False(t, store.Authenticated())
			assert.Nil(t, store.Current())

			_, loadErr := storage.Load(ctx)
			assert.ErrorIs(t, loadErr, ErrNoSession)
		})
	}
}

func TestLoginSurvivesRestart(t *testing.T) {
	log := testLogger()
	path := filepath.Join(t.TempDir(), "session.json")
	identity := &fakeIdentity{
		sessions: map[string]*domain.Session{"testuser@example.com": demoSession()},
		secret:   "password123",
	}
	emitter := notify.NewEmitter(log, time.Minute, 4)
	errs := apperrors.NewHandler(log, false)
	ctx := context.Background()

	first := NewStore(NewFileStorage(path, log), identity, emitter, errs, nil, log)
	first.Start(ctx)
	require.NoError(t, first.WaitReady(ctx))

	_, err := first.Login(ctx, "testuser@example.com", "password123")
	require.NoError(t, err)

	// A fresh store over the same slot restores the session.
	second := NewStore(NewFileStorage(path, log), identity, emitter, errs, nil, log)
	second.Start(ctx)
	require.NoError(t, second.WaitReady(ctx))

	assert.True(t, second.Authenticated())
	restored := second.Current()
	require.NotNil(t, restored)
	assert.Equal(t, "testuser@example.com", restored.Email)
}

func TestRestoreMalformedRecordRunsAnonymous(t *testing.T) {
	log := testLogger()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewStore(
		NewFileStorage(path, log),
		&fakeIdentity{sessions: map[string]*domain.Session{}},
		notify.NewEmitter(log, time.Minute, 4),
		apperrors.NewHandler(log, false),
		nil,
		log,
	)
	store.Start(context.Background())
	require.NoError(t, store.WaitReady(context.Background()))

	assert.False(t, store.Authenticated())

	// The poisoned record was discarded, not kept around.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadingResolvesAfterStart(t *testing.T) {
	log := testLogger()
	store := NewStore(
		NewFileStorage(filepath.Join(t.TempDir(), "session.json"), log),
		&fakeIdentity{sessions: map[string]*domain.Session{}},
		notify.NewEmitter(log, time.Minute, 4),
		apperrors.NewHandler(log, false),
		nil,
		log,
	)

	assert.True(t, store.Loading())

	store.Start(context.Background())
	require.NoError(t, store.WaitReady(context.Background()))
	assert.False(t, store.Loading())
}

func TestLogoutIsIdempotent(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Login(ctx, "testuser@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, store.Logout(ctx))
	assert.False(t, store.Authenticated())

	_, loadErr := storage.Load(ctx)
	assert.ErrorIs(t, loadErr, ErrNoSession)

	// A second logout while anonymous is still a success.
	require.NoError(t, store.Logout(ctx))
	assert.False(t, store.Authenticated())
}

func TestSignupActivatesNewAccount(t *testing.T) {
	store, storage, identity := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Signup(ctx, domain.SignupInput{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "s3cret-pass",
		UserType: domain.UserTypeRegular,
	})
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "Asha Rao", sess.Name)
	assert.Equal(t, domain.DefaultPreferences(), sess.Preferences)
	assert.Len(t, identity.created, 1)

	saved, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, saved.ID)
}

func TestSignupRejectsInvalidInput(t *testing.T) {
	store, storage, identity := newTestStore(t)
	ctx := context.Background()

	_, err := store.Signup(ctx, domain.SignupInput{
		Name:     "",
		Email:    "not-an-email",
		Password: "short",
		UserType: "alien",
	})
	require.Error(t, err)
	assert.Empty(t, identity.created)
	assert.False(t, store.Authenticated())

	_, loadErr := storage.Load(ctx)
	assert.ErrorIs(t, loadErr, ErrNoSession)
}

func TestSignupDuplicateEmailFails(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Signup(ctx, domain.SignupInput{
		Name:     "Imposter",
		Email:    "testuser@example.com",
		Password: "password123",
		UserType: domain.UserTypeRegular,
	})
	assert.ErrorIs(t, err, ErrSignupFailed)
	assert.False(t, store.Authenticated())
}

// gatedStorage holds Load until released, standing in for a slow durable
// slot while the rest of the store keeps working.
type gatedStorage struct {
	Storage
	release chan struct{}
	stale   *domain.Session
}

func (g *gatedStorage) Load(ctx context.Context) (*domain.Session, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
	}

	if g.stale == nil {
		return nil, ErrNoSession
	}
	return g.stale, nil
}

func newGatedStore(t *testing.T, stale *domain.Session) (*Store, *gatedStorage) {
	t.Helper()

	log := testLogger()
	gate := &gatedStorage{
		Storage: NewFileStorage(filepath.Join(t.TempDir(), "session.json"), log),
		release: make(chan struct{}),
		stale:   stale,
	}
	identity := &fakeIdentity{
		sessions: map[string]*domain.Session{"testuser@example.com": demoSession()},
		secret:   "password123",
	}

	store := NewStore(gate, identity, notify.NewEmitter(log, time.Minute, 4), apperrors.NewHandler(log, false), nil, log)
	store.Start(context.Background())

	return store, gate
}

func TestLoginDuringRestoreIsNotOverwritten(t *testing.T) {
	stale := demoSession()
	stale.ID = "previous-run-session"
	store, gate := newGatedStore(t, stale)
	ctx := context.Background()

	// Login completes while the restore is still reading the slot.
	sess, err := store.Login(ctx, "testuser@example.com", "password123")
	require.NoError(t, err)

	close(gate.release)
	require.NoError(t, store.WaitReady(ctx))

	current := store.Current()
	require.NotNil(t, current)
	assert.Equal(t, sess.ID, current.ID)
}

func TestLogoutDuringRestoreStaysAnonymous(t *testing.T) {
	stale := demoSession()
	stale.ID = "previous-run-session"
	store, gate := newGatedStore(t, stale)
	ctx := context.Background()

	require.NoError(t, store.Logout(ctx))

	close(gate.release)
	require.NoError(t, store.WaitReady(ctx))

	assert.False(t, store.Authenticated())
	assert.Nil(t, store.Current())
}

func TestUpdatePreferencesPersists(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Login(ctx, "testuser@example.com", "password123")
	require.NoError(t, err)

	prefs := domain.Preferences{Language: "hi", Currency: "USD", Theme: "dark"}
	require.NoError(t, store.UpdatePreferences(ctx, prefs))

	assert.Equal(t, prefs, store.Current().Preferences)

	saved, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs, saved.Preferences)
}

func TestUpdatePreferencesSurvivesRelogin(t *testing.T) {
	store, _, identity := newTestStore(t)
	ctx := context.Background()

	_, err := store.Login(ctx, "testuser@example.com", "password123")
	require.NoError(t, err)

	prefs := domain.Preferences{Language: "hi", Currency: "USD", Theme: "dark"}
	require.NoError(t, store.UpdatePreferences(ctx, prefs))
	require.Len(t, identity.saved, 1)

	require.NoError(t, store.Logout(ctx))

	// The account row kept the new settings, so a fresh login sees them.
	sess, err := store.Login(ctx, "testuser@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, prefs, sess.Preferences)
	assert.Equal(t, prefs, store.Current().Preferences)
}

func TestUpdatePreferencesIdentityFailureLeavesStateUnchanged(t *testing.T) {
	store, storage, identity := newTestStore(t)
	ctx := context.Background()

	_, err := store.Login(ctx, "testuser@example.com", "password123")
	require.NoError(t, err)
	before := store.Current().Preferences

	// Drop the account so the durable preference write fails.
	delete(identity.sessions, "testuser@example.com")

	err = store.UpdatePreferences(ctx, domain.Preferences{Language: "hi", Currency: "USD", Theme: "dark"})
	require.Error(t, err)

	assert.Equal(t, before, store.Current().Preferences)

	saved, loadErr := storage.Load(ctx)
	require.NoError(t, loadErr)
	assert.Equal(t, before, saved.Preferences)
}

func TestUpdatePreferencesWhileAnonymous(t *testing.T) {
	store, _, _ := newTestStore(t)

	err := store.UpdatePreferences(context.Background(), domain.Preferences{Theme: "dark"})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentReturnsIndependentCopy(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Login(ctx, "testuser@example.com", "password123")
	require.NoError(t, err)

	first := store.Current()
	first.Name = "Mutated"

	assert.Equal(t, "Test User", store.Current().Name)
}
