// Package identity is the external identity source consumed by the session
// store: credential validation and account creation over the accounts
// repository.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartbudget/smartbudget-server/internal/domain"
	"github.com/smartbudget/smartbudget-server/internal/repository"
	"github.com/smartbudget/smartbudget-server/internal/session"
)

const defaultCreditScore = 70

// Service validates credentials and provisions accounts.
type Service struct {
	repo  repository.AccountRepository
	cache *Cache
	log   *slog.Logger
}

// NewService constructs a Service. The cache is optional.
func NewService(repo repository.AccountRepository, cache *Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{repo: repo, cache: cache, log: log}
}

// ValidateCredentials checks the email/secret pair against the stored bcrypt
// hash. A missing account and a wrong secret are indistinguishable to the
// caller: both return session.ErrInvalidCredentials.
func (s *Service) ValidateCredentials(ctx context.Context, email, secret string) (*domain.Session, error) {
	account, err := s.lookup(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrInvalidCredentials
		}

		s.log.Error("credential lookup failed", slog.String("email", email), slog.Any("error", err))
		return nil, fmt.Errorf("find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.SecretHash), []byte(secret)); err != nil {
		return nil, session.ErrInvalidCredentials
	}

	return account.Session(), nil
}

// CreateAccount provisions a new account with a fresh identifier and default
// preferences, then returns its session. A duplicate email maps to
// session.ErrSignupFailed.
func (s *Service) CreateAccount(ctx context.Context, input domain.SignupInput) (*domain.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	account := &domain.Account{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Email:       input.Email,
		SecretHash:  string(hash),
		UserType:    input.UserType,
		Avatar:      input.Avatar,
		CreditScore: defaultCreditScore,
		Preferences: domain.DefaultPreferences(),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%w: %w", session.ErrSignupFailed, err)
		}

		s.log.Error("account creation failed", slog.String("email", input.Email), slog.Any("error", err))
		return nil, fmt.Errorf("create account: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, account, cacheTTL); err != nil {
			s.log.Warn("failed to cache new account", slog.Any("error", err))
		}
	}

	return account.Session(), nil
}

// SavePreferences writes the preference columns for the account and drops
// the cached record so the next lookup sees the new values.
func (s *Service) SavePreferences(ctx context.Context, accountID, email string, prefs domain.Preferences) error {
	if err := s.repo.UpdatePreferences(ctx, accountID, prefs); err != nil {
		s.log.Error("preference update failed", slog.String("account_id", accountID), slog.Any("error", err))
		return fmt.Errorf("save preferences: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, email); err != nil {
			s.log.Warn("account cache invalidation failed", slog.Any("error", err))
		}
	}

	return nil
}

func (s *Service) lookup(ctx context.Context, email string) (*domain.Account, error) {
	if s.cache != nil {
		account, err := s.cache.Get(ctx, email)
		if err != nil {
			s.log.Warn("account cache read failed", slog.Any("error", err))
		} else if account != nil {
			return account, nil
		}
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, account, cacheTTL); err != nil {
			s.log.Warn("account cache write failed", slog.Any("error", err))
		}
	}

	return account, nil
}
