// Package repository contains SQL-backed persistence for accounts, expenses,
// and shared-expense groups.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

// ErrDuplicateEmail indicates an account already exists for the email.
var ErrDuplicateEmail = errors.New("email already registered")

const pgUniqueViolation = "23505"

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	UpdatePreferences(ctx context.Context, id string, prefs domain.Preferences) error
}

type accountRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewAccountRepository creates a new SQL-backed account repository.
func NewAccountRepository(db *sql.DB, log *slog.Logger) AccountRepository {
	return &accountRepository{
		db:  db,
		log: log,
	}
}

const accountColumns = `
	id, name, email, secret_hash, user_type, avatar, credit_score,
	pref_language, pref_currency, pref_theme, created_at
`

// FindByEmail retrieves an account by its unique email.
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE email = $1`, accountColumns)

	return r.scanAccount(r.db.QueryRowContext(ctx, query, email), "email")
}

// FindByID retrieves an account by identifier.
func (r *accountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1`, accountColumns)

	return r.scanAccount(r.db.QueryRowContext(ctx, query, id), "id")
}

// Create persists a new account record. A unique-constraint violation on the
// email column maps to ErrDuplicateEmail.
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
		INSERT INTO accounts (
			id, name, email, secret_hash, user_type, avatar, credit_score,
			pref_language, pref_currency, pref_theme, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Name,
		account.Email,
		account.SecretHash,
		account.UserType,
		account.Avatar,
		account.CreditScore,
		account.Preferences.Language,
		account.Preferences.Currency,
		account.Preferences.Theme,
		account.CreatedAt,
	); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return ErrDuplicateEmail
		}

		if r.log != nil {
			r.log.Error("failed to create account", slog.String("email", account.Email), slog.Any("error", err))
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// UpdatePreferences saves the preference columns for the account.
func (r *accountRepository) UpdatePreferences(ctx context.Context, id string, prefs domain.Preferences) error {
	const query = `
		UPDATE accounts
		SET pref_language = $2, pref_currency = $3, pref_theme = $4
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id, prefs.Language, prefs.Currency, prefs.Theme); err != nil {
		if r.log != nil {
			r.log.Error("failed to update preferences", slog.String("account_id", id), slog.Any("error", err))
		}
		return fmt.Errorf("update preferences: %w", err)
	}

	return nil
}

func (r *accountRepository) scanAccount(row *sql.Row, by string) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.SecretHash,
		&account.UserType,
		&account.Avatar,
		&account.CreditScore,
		&account.Preferences.Language,
		&account.Preferences.Currency,
		&account.Preferences.Theme,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		if r.log != nil {
			r.log.Error("failed to fetch account", slog.String("by", by), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select account by %s: %w", by, err)
	}

	return &account, nil
}
