package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technotes-api/internal/model"
	"technotes-api/internal/repository"
)

func newNoteFixture(t *testing.T) (*NoteService, model.Credential, model.Credential, model.Credential) {
	t.Helper()

	store := repository.NewMemoryStore()
	seedUser(t, store, "e1", "erin", "pw", true)
	seedUser(t, store, "e2", "eli", "pw", true)
	seedUser(t, store, "m1", "mona", "pw", true, model.RoleManager)

	svc := NewNoteService(store.Notes(), store.Users(), nil)
	erin := model.Credential{UserID: "e1", Username: "erin", Roles: []string{model.RoleEmployee}}
	eli := model.Credential{UserID: "e2", Username: "eli", Roles: []string{model.RoleEmployee}}
	mona := model.Credential{UserID: "m1", Username: "mona", Roles: []string{model.RoleManager}}
	return svc, erin, eli, mona
}

func TestNoteService_VisibilityAndTickets(t *testing.T) {
	ctx := context.Background()
	svc, erin, eli, mona := newNoteFixture(t)

	empty, err := svc.List(ctx, erin)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := svc.Create(ctx, erin, model.CreateNoteRequest{Title: "Printer", Text: "jammed"})
	require.NoError(t, err)
	assert.Equal(t, "e1", first.User)
	assert.Equal(t, int64(model.FirstTicket), first.Ticket)

	second, err := svc.Create(ctx, mona, model.CreateNoteRequest{User: "e2", Title: "Laptop", Text: "slow"})
	require.NoError(t, err)
	assert.Equal(t, int64(model.FirstTicket+1), second.Ticket)

	mine, err := svc.List(ctx, eli)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "eli", mine[0].Username)

	all, err := svc.List(ctx, mona)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNoteService_Authorization(t *testing.T) {
	ctx := context.Background()
	svc, erin, eli, mona := newNoteFixture(t)
	done := true

	note, err := svc.Create(ctx, erin, model.CreateNoteRequest{Title: "Printer", Text: "jammed"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, erin, model.CreateNoteRequest{User: "e2", Title: "Other", Text: "x"})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Update(ctx, eli, model.UpdateNoteRequest{ID: note.ID, User: "e2", Title: "Mine now", Text: "x", Completed: &done})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Delete(ctx, eli, note.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	updated, err := svc.Update(ctx, mona, model.UpdateNoteRequest{ID: note.ID, User: "e2", Title: "Printer", Text: "fixed", Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "e2", updated.User)
	assert.Equal(t, note.Ticket, updated.Ticket)

	deleted, err := svc.Delete(ctx, eli, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ID, deleted.ID)

	_, err = svc.Delete(ctx, mona, note.ID)
	assert.ErrorIs(t, err, model.ErrNoteNotFound)
}

func TestNoteService_Validation(t *testing.T) {
	ctx := context.Background()
	svc, erin, _, mona := newNoteFixture(t)

	_, err := svc.Create(ctx, erin, model.CreateNoteRequest{Title: "No text"})
	requireAPIStatus(t, err, http.StatusBadRequest)

	_, err = svc.Create(ctx, mona, model.CreateNoteRequest{User: "ghost", Title: "Orphan", Text: "x"})
	requireAPIStatus(t, err, http.StatusBadRequest)

	_, err = svc.Create(ctx, erin, model.CreateNoteRequest{Title: "Printer", Text: "jammed"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, mona, model.CreateNoteRequest{Title: "printer", Text: "again"})
	requireAPIStatus(t, err, http.StatusConflict)

	_, err = svc.Update(ctx, erin, model.UpdateNoteRequest{ID: "n1", User: "e1", Title: "t", Text: "x"})
	requireAPIStatus(t, err, http.StatusBadRequest)

	_, err = svc.Delete(ctx, erin, "")
	requireAPIStatus(t, err, http.StatusBadRequest)
}
