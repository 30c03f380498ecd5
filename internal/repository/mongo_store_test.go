package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"technotes-api/internal/model"
)

func TestTicketFromSeq(t *testing.T) {
	assert.Equal(t, int64(model.FirstTicket), ticketFromSeq(1))
	assert.Equal(t, int64(model.FirstTicket+41), ticketFromSeq(42))
}

func TestOwnerIDsAndNoteViews(t *testing.T) {
	notes := []model.Note{
		{ID: "n1", User: "u1", Title: "Printer"},
		{ID: "n2", User: "u2", Title: "Laptop"},
		{ID: "n3", User: "u1", Title: "Monitor"},
		{ID: "n4", User: "gone", Title: "Badge"},
	}

	assert.Equal(t, []string{"u1", "u2", "gone"}, ownerIDs(notes))
	assert.Empty(t, ownerIDs(nil))

	views := noteViews(notes, map[string]string{"u1": "dave", "u2": "anna"})
	require.Len(t, views, 4)
	assert.Equal(t, "dave", views[0].Username)
	assert.Equal(t, "anna", views[1].Username)
	assert.Equal(t, "dave", views[2].Username)
	assert.Empty(t, views[3].Username)
	assert.Equal(t, "Badge", views[3].Title)

	assert.NotNil(t, noteViews(nil, nil))
}

func TestMongoWriteError(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
	assert.ErrorIs(t, mongoWriteError("create user", dup), model.ErrDuplicate)

	other := errors.New("connection reset")
	err := mongoWriteError("create note", other)
	assert.ErrorIs(t, err, other)
	assert.EqualError(t, err, "create note: connection reset")

	assert.NoError(t, mongoWriteError("update user", nil))
}

// The filters and indexes address these field names directly.
func TestDocumentFieldNames(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name string
		doc  any
		keys []string
	}{
		{
			name: "user",
			doc:  model.User{ID: "u1", Username: "dave", PasswordHash: "hash", Roles: []string{model.RoleEmployee}, Active: true, CreatedAt: now, UpdatedAt: now},
			keys: []string{"_id", "username", "passwordHash", "roles", "active", "createdAt", "updatedAt"},
		},
		{
			name: "note",
			doc:  model.Note{ID: "n1", User: "u1", Title: "Printer", Text: "jammed", Ticket: 500, CreatedAt: now, UpdatedAt: now},
			keys: []string{"_id", "user", "title", "text", "completed", "ticket", "createdAt", "updatedAt"},
		},
		{
			name: "refresh token",
			doc:  model.RefreshTokenRecord{TokenID: "t1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
			keys: []string{"_id", "userId", "createdAt", "expiresAt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(tt.doc)
			require.NoError(t, err)

			var decoded bson.M
			require.NoError(t, bson.Unmarshal(raw, &decoded))
			for _, key := range tt.keys {
				assert.Contains(t, decoded, key)
			}
			assert.Len(t, decoded, len(tt.keys))
		})
	}
}
