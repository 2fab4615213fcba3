package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

// ExpenseRepository defines persistence operations for expenses.
type ExpenseRepository interface {
	ListByUser(ctx context.Context, userID, category string) ([]domain.Expense, error)
	Create(ctx context.Context, expense *domain.Expense) error
	Delete(ctx context.Context, id, userID string) error
}

type expenseRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewExpenseRepository creates a new SQL-backed expense repository.
func NewExpenseRepository(db *sql.DB, log *slog.Logger) ExpenseRepository {
	return &expenseRepository{
		db:  db,
		log: log,
	}
}

// ListByUser returns the user's expenses newest first, optionally filtered by category.
func (r *expenseRepository) ListByUser(ctx context.Context, userID, category string) ([]domain.Expense, error) {
	query := `
		SELECT id, user_id, title, amount_minor, category, payment_method, created_at
		FROM expenses
		WHERE user_id = $1
	`
	args := []any{userID}

	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list expenses", slog.String("user_id", userID), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Title,
			&e.AmountMinor,
			&e.Category,
			&e.PaymentMethod,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return expenses, nil
}

// Create persists a new expense record.
func (r *expenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	const query = `
		INSERT INTO expenses (id, user_id, title, amount_minor, category, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		expense.ID,
		expense.UserID,
		expense.Title,
		expense.AmountMinor,
		expense.Category,
		expense.PaymentMethod,
		expense.CreatedAt,
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to create expense", slog.String("user_id", expense.UserID), slog.Any("error", err))
		}
		return fmt.Errorf("insert expense: %w", err)
	}

	return nil
}

// Delete removes an expense owned by the user.
func (r *expenseRepository) Delete(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM expenses WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to delete expense", slog.String("expense_id", id), slog.Any("error", err))
		}
		return fmt.Errorf("delete expense: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
