package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

// GroupRepository defines persistence operations for shared-expense groups.
// Members are stored as a JSONB document alongside the group row.
type GroupRepository interface {
	ListByMember(ctx context.Context, userID string) ([]domain.Group, error)
	FindByID(ctx context.Context, id string) (*domain.Group, error)
	Create(ctx context.Context, group *domain.Group) error
	Update(ctx context.Context, group *domain.Group) error
}

type groupRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewGroupRepository creates a new SQL-backed group repository.
func NewGroupRepository(db *sql.DB, log *slog.Logger) GroupRepository {
	return &groupRepository{
		db:  db,
		log: log,
	}
}

// ListByMember returns groups the user belongs to, newest first.
func (r *groupRepository) ListByMember(ctx context.Context, userID string) ([]domain.Group, error) {
	const query = `
		SELECT id, name, total_minor, members, created_at
		FROM groups
		WHERE members @> $1
		ORDER BY created_at DESC
	`

	memberMatch, err := json.Marshal([]map[string]string{{"user_id": userID}})
	if err != nil {
		return nil, fmt.Errorf("encode member filter: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, memberMatch)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list groups", slog.String("user_id", userID), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}

// FindByID retrieves one group.
func (r *groupRepository) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	const query = `
		SELECT id, name, total_minor, members, created_at
		FROM groups
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		if r.log != nil {
			r.log.Error("failed to fetch group", slog.String("group_id", id), slog.Any("error", err))
		}
		return nil, err
	}

	return group, nil
}

// Create persists a new group.
func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	const query = `
		INSERT INTO groups (id, name, total_minor, members, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	members, err := json.Marshal(group.Members)
	if err != nil {
		return fmt.Errorf("encode group members: %w", err)
	}

	if _, err := r.db.ExecContext(
		ctx,
		query,
		group.ID,
		group.Name,
		group.TotalMinor,
		members,
		group.CreatedAt,
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to create group", slog.String("group_id", group.ID), slog.Any("error", err))
		}
		return fmt.Errorf("insert group: %w", err)
	}

	return nil
}

// Update replaces the mutable columns of an existing group.
func (r *groupRepository) Update(ctx context.Context, group *domain.Group) error {
	const query = `
		UPDATE groups
		SET name = $2, total_minor = $3, members = $4
		WHERE id = $1
	`

	members, err := json.Marshal(group.Members)
	if err != nil {
		return fmt.Errorf("encode group members: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, group.ID, group.Name, group.TotalMinor, members)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to update group", slog.String("group_id", group.ID), slog.Any("error", err))
		}
		return fmt.Errorf("update group: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	var (
		group   domain.Group
		members []byte
	)

	if err := row.Scan(&group.ID, &group.Name, &group.TotalMinor, &members, &group.CreatedAt); err != nil {
		return nil, err
	}

	if len(members) > 0 {
		if err := json.Unmarshal(members, &group.Members); err != nil {
			return nil, fmt.Errorf("decode group members: %w", err)
		}
	}

	return &group, nil
}
