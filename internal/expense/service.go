// Package expense implements expense recording and listing for the dashboard
// and expenses views.
package expense

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/smartbudget/smartbudget-server/internal/domain"
	"github.com/smartbudget/smartbudget-server/internal/events"
	"github.com/smartbudget/smartbudget-server/internal/idempotency"
	"github.com/smartbudget/smartbudget-server/internal/repository"
)

const idempotencyTTL = 24 * time.Hour

// Service provides business operations over expenses.
type Service struct {
	repo     repository.ExpenseRepository
	idem     idempotency.Manager
	bus      *events.Bus
	validate *validator.Validate
	log      *slog.Logger
}

// NewService constructs a Service instance. The idempotency manager and event
// bus are optional; creation degrades gracefully without them.
func NewService(repo repository.ExpenseRepository, idem idempotency.Manager, bus *events.Bus, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		repo:     repo,
		idem:     idem,
		bus:      bus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// List returns the user's expenses newest first, optionally filtered by category.
func (s *Service) List(ctx context.Context, userID, category string) ([]domain.Expense, error) {
	expenses, err := s.repo.ListByUser(ctx, userID, category)
	if err != nil {
		s.log.Error("expense listing failed", slog.String("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	return expenses, nil
}

// Create validates and records a new expense, publishes a row-insert event,
// and deduplicates retries through the idempotency key. An empty key is
// derived from the payload so rapid double-submits collapse to one row.
func (s *Service) Create(ctx context.Context, userID string, input domain.ExpenseInput, idemKey string) (*domain.Expense, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate expense: %w", err)
	}

	if s.idem == nil {
		return s.insert(ctx, userID, input)
	}

	if idemKey == "" {
		idemKey = idempotency.GenerateKey("expense", userID, input.Title, input.AmountMinor, input.Category, input.PaymentMethod)
	}

	result, err := s.idem.Execute(ctx, idemKey, idempotencyTTL, func(ctx context.Context) (interface{}, error) {
		return s.insert(ctx, userID, input)
	})
	if err != nil {
		return nil, err
	}

	if result.FromCache {
		s.log.Info("expense create served from idempotency cache", slog.String("user_id", userID))
	}

	return decodeExpense(result.Response)
}

// Delete removes one of the user's expenses.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		s.log.Error("expense delete failed", slog.String("expense_id", id), slog.Any("error", err))
		return err
	}

	return nil
}

func (s *Service) insert(ctx context.Context, userID string, input domain.ExpenseInput) (*domain.Expense, error) {
	expense := &domain.Expense{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         input.Title,
		AmountMinor:   input.AmountMinor,
		Category:      input.Category,
		PaymentMethod: input.PaymentMethod,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.TopicExpenses, expense)
	}

	return expense, nil
}

// decodeExpense recovers the typed expense from the idempotency layer, which
// round-trips responses through JSON.
func decodeExpense(response interface{}) (*domain.Expense, error) {
	if expense, ok := response.(*domain.Expense); ok {
		return expense, nil
	}

	data, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("re-encode cached expense: %w", err)
	}

	var expense domain.Expense
	if err := json.Unmarshal(data, &expense); err != nil {
		return nil, fmt.Errorf("decode cached expense: %w", err)
	}

	return &expense, nil
}
