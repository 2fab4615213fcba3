package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/smartbudget/smartbudget-server/internal/domain"
	"github.com/smartbudget/smartbudget-server/internal/repository"
)

const (
	demoAccountID    = "edfed8d5-4638-42ba-b94b-46db64e6e6c0"
	demoAccountName  = "Test User"
	demoAccountEmail = "testuser@example.com"
	demoCreditScore  = 700
)

// SeedDemoAccount provisions the demo account used by the anonymous preview
// flow. Existing accounts are left untouched, so the call is idempotent.
func SeedDemoAccount(ctx context.Context, repo repository.AccountRepository, password string, log *slog.Logger) error {
	if password == "" {
		return errors.New("demo password must not be empty")
	}

	if _, err := repo.FindByEmail(ctx, demoAccountEmail); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check demo account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	account := &domain.Account{
		ID:          demoAccountID,
		Name:        demoAccountName,
		Email:       demoAccountEmail,
		SecretHash:  string(hash),
		UserType:    domain.UserTypeRegular,
		CreditScore: demoCreditScore,
		Preferences: domain.DefaultPreferences(),
		CreatedAt:   time.Now().UTC(),
	}

	if err := repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// another process seeded it first
			return nil
		}
		return fmt.Errorf("seed demo account: %w", err)
	}

	if log != nil {
		log.Info("demo account seeded", slog.String("email", demoAccountEmail))
	}

	return nil
}
