// Package group implements shared expense groups for the groups view.
package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/smartbudget/smartbudget-server/internal/domain"
	"github.com/smartbudget/smartbudget-server/internal/events"
	"github.com/smartbudget/smartbudget-server/internal/repository"
)

// Service provides business operations over groups.
type Service struct {
	groups   repository.GroupRepository
	accounts repository.AccountRepository
	bus      *events.Bus
	validate *validator.Validate
	log      *slog.Logger
}

// NewService constructs a Service. The account repository is used to resolve
// member display names; the event bus is optional.
func NewService(groups repository.GroupRepository, accounts repository.AccountRepository, bus *events.Bus, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		groups:   groups,
		accounts: accounts,
		bus:      bus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// List returns the groups the user belongs to.
func (s *Service) List(ctx context.Context, userID string) ([]domain.Group, error) {
	groups, err := s.groups.ListByMember(ctx, userID)
	if err != nil {
		s.log.Error("group listing failed", slog.String("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	return groups, nil
}

// Get returns a single group by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Group, error) {
	return s.groups.FindByID(ctx, id)
}

// Create validates and records a new group. The creator is always the first
// member regardless of the submitted member list; everyone starts at zero
// balance.
func (s *Service) Create(ctx context.Context, creatorID string, input domain.GroupInput) (*domain.Group, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate group: %w", err)
	}

	memberIDs := []string{creatorID}
	for _, id := range input.Members {
		if id == creatorID {
			continue
		}
		memberIDs = append(memberIDs, id)
	}

	members, err := s.resolveMembers(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	group := &domain.Group{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Members:   members,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.TopicGroups, group)
	}

	return group, nil
}

// Update applies a partial update to a group and returns the new state.
func (s *Service) Update(ctx context.Context, id string, update domain.GroupUpdate) (*domain.Group, error) {
	if err := s.validate.Struct(update); err != nil {
		return nil, fmt.Errorf("validate group update: %w", err)
	}

	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		group.Name = *update.Name
	}
	if update.TotalMinor != nil {
		group.TotalMinor = *update.TotalMinor
	}

	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.TopicGroups, group)
	}

	return group, nil
}

// resolveMembers builds the member list with display names from the accounts
// table. Unknown IDs are rejected rather than silently dropped.
func (s *Service) resolveMembers(ctx context.Context, ids []string) ([]domain.GroupMember, error) {
	members := make([]domain.GroupMember, 0, len(ids))
	for _, id := range ids {
		account, err := s.accounts.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("unknown group member %s", id)
			}
			return nil, err
		}

		members = append(members, domain.GroupMember{
			UserID: account.ID,
			Name:   account.Name,
		})
	}

	return members, nil
}
