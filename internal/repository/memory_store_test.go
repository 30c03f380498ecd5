package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technotes-api/internal/model"
)

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	users := store.Users()

	require.NoError(t, users.Create(ctx, model.User{ID: "u1", Username: "Dave", Roles: []string{model.RoleEmployee}, Active: true}))
	assert.ErrorIs(t, users.Create(ctx, model.User{ID: "u2", Username: "dave"}), model.ErrDuplicate)

	got, err := users.FindByUsername(ctx, "Dave")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = users.FindByUsername(ctx, "dave")
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	exists, err := users.ExistsByUsername(ctx, "DAVE", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = users.ExistsByUsername(ctx, "DAVE", "u1")
	require.NoError(t, err)
	assert.False(t, exists)

	got.Roles[0] = model.RoleAdmin
	again, err := users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleEmployee}, again.Roles)

	assert.ErrorIs(t, users.Update(ctx, model.User{ID: "missing"}), model.ErrUserNotFound)
	require.NoError(t, users.Delete(ctx, "u1"))
	assert.ErrorIs(t, users.Delete(ctx, "u1"), model.ErrUserNotFound)
}

func TestMemoryStore_NotesTicketsAndOwners(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Users().Create(ctx, model.User{ID: "u1", Username: "dave"}))
	require.NoError(t, store.Users().Create(ctx, model.User{ID: "u2", Username: "anna"}))

	first := &model.Note{ID: "n1", User: "u1", Title: "Printer", Text: "jammed"}
	second := &model.Note{ID: "n2", User: "u2", Title: "Laptop", Text: "slow"}
	require.NoError(t, store.Notes().Create(ctx, first))
	require.NoError(t, store.Notes().Create(ctx, second))
	assert.Equal(t, int64(model.FirstTicket), first.Ticket)
	assert.Equal(t, int64(model.FirstTicket+1), second.Ticket)

	assert.ErrorIs(t, store.Notes().Create(ctx, &model.Note{ID: "n3", Title: "printer"}), model.ErrDuplicate)

	all, err := store.Notes().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "dave", all[0].Username)

	mine, err := store.Notes().List(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Laptop", mine[0].Title)

	count, err := store.Notes().CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	first.Completed = true
	require.NoError(t, store.Notes().Update(ctx, *first))
	updated, err := store.Notes().FindByID(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, int64(model.FirstTicket), updated.Ticket)
}

func TestMemoryStore_Tokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	tokens := store.RefreshTokens()
	require.NoError(t, tokens.Store(ctx, model.RefreshTokenRecord{TokenID: "t1", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, tokens.Store(ctx, model.RefreshTokenRecord{TokenID: "t2", UserID: "u1", ExpiresAt: now.Add(-time.Second)}))

	owner, err := tokens.Validate(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	_, err = tokens.Validate(ctx, "t2")
	assert.ErrorIs(t, err, model.ErrTokenNotFound)

	removed, err := tokens.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, tokens.Store(ctx, model.RefreshTokenRecord{TokenID: "t3", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, tokens.Revoke(ctx, "t3"))
	assert.ErrorIs(t, tokens.Revoke(ctx, "t3"), model.ErrTokenNotFound)

	require.NoError(t, tokens.RevokeAllForUser(ctx, "u1"))
	_, err = tokens.Validate(ctx, "t1")
	assert.ErrorIs(t, err, model.ErrTokenNotFound)
}
