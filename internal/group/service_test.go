package group

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

type fakeGroupRepo struct {
	groups map[string]*domain.Group
}

func (f *fakeGroupRepo) ListByMember(_ context.Context, userID string) ([]domain.Group, error) {
	var out []domain.Group
	for _, g := range f.groups {
		for _, m := range g.Members {
			if m.UserID == userID {
				out = append(out, *g)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) FindByID(_ context.Context, id string) (*domain.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGroupRepo) Create(_ context.Context, group *domain.Group) error {
	f.groups[group.ID] = group
	return nil
}

func (f *fakeGroupRepo) Update(_ context.Context, group *domain.Group) error {
	if _, ok := f.groups[group.ID]; !ok {
		return sql.ErrNoRows
	}
	f.groups[group.ID] = group
	return nil
}

type fakeAccounts struct {
	byID map[string]*domain.Account
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, a := range f.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAccounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (f *fakeAccounts) Create(_ context.Context, account *domain.Account) error {
	f.byID[account.ID] = account
	return nil
}

func (f *fakeAccounts) UpdatePreferences(_ context.Context, id string, prefs domain.Preferences) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	creatorID = "0b9fbe74-92c6-4b39-8a2e-1f6a5b1a0001"
	friendID  = "0b9fbe74-92c6-4b39-8a2e-1f6a5b1a0002"
)

func newTestService() (*Service, *fakeGroupRepo) {
	repo := &fakeGroupRepo{groups: map[string]*domain.Group{}}
	accounts := &fakeAccounts{byID: map[string]*domain.Account{
		creatorID: {ID: creatorID, Name: "Test User", Email: "testuser@example.com"},
		friendID:  {ID: friendID, Name: "Asha Rao", Email: "asha@example.com"},
	}}

	return NewService(repo, accounts, nil, testLogger()), repo
}

func TestCreatePutsCreatorFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	group, err := svc.Create(ctx, creatorID, domain.GroupInput{
		Name:    "Goa Trip",
		Members: []string{friendID, creatorID},
	})
	require.NoError(t, err)

	require.Len(t, group.Members, 2)
	assert.Equal(t, creatorID, group.Members[0].UserID)
	assert.Equal(t, "Test User", group.Members[0].Name)
	assert.Equal(t, "Asha Rao", group.Members[1].Name)
	assert.Zero(t, group.Members[0].BalanceMinor)
}

func TestCreateRejectsUnknownMember(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), creatorID, domain.GroupInput{
		Name:    "Ghost Group",
		Members: []string{"0b9fbe74-92c6-4b39-8a2e-1f6a5b1a9999"},
	})
	assert.Error(t, err)
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, creatorID, domain.GroupInput{Name: "", Members: []string{friendID}})
	assert.Error(t, err)

	_, err = svc.Create(ctx, creatorID, domain.GroupInput{Name: "No Members", Members: nil})
	assert.Error(t, err)

	_, err = svc.Create(ctx, creatorID, domain.GroupInput{Name: "Bad ID", Members: []string{"not-a-uuid"}})
	assert.Error(t, err)
}

func TestListReturnsMemberships(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, creatorID, domain.GroupInput{Name: "Goa Trip", Members: []string{friendID}})
	require.NoError(t, err)

	mine, err := svc.List(ctx, creatorID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.List(ctx, friendID)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	nobody, err := svc.List(ctx, "0b9fbe74-92c6-4b39-8a2e-1f6a5b1a9999")
	require.NoError(t, err)
	assert.Empty(t, nobody)
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	group, err := svc.Create(ctx, creatorID, domain.GroupInput{Name: "Goa Trip", Members: []string{friendID}})
	require.NoError(t, err)

	newName := "Goa Trip 2025"
	total := int64(250000)
	updated, err := svc.Update(ctx, group.ID, domain.GroupUpdate{Name: &newName, TotalMinor: &total})
	require.NoError(t, err)
	assert.Equal(t, "Goa Trip 2025", updated.Name)
	assert.Equal(t, int64(250000), updated.TotalMinor)
	assert.Len(t, updated.Members, 2)

	// Name-only update leaves the total alone.
	another := "Final Name"
	updated, err = svc.Update(ctx, group.ID, domain.GroupUpdate{Name: &another})
	require.NoError(t, err)
	assert.Equal(t, int64(250000), updated.TotalMinor)
}

func TestUpdateMissingGroup(t *testing.T) {
	svc, _ := newTestService()

	name := "Whatever"
	_, err := svc.Update(context.Background(), "missing", domain.GroupUpdate{Name: &name})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
