package repository

import (
	"context"

	"technotes-api/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	// FindByUsername is an exact, case-sensitive lookup used for login.
	FindByUsername(ctx context.Context, username string) (model.User, error)
	// ExistsByUsername compares case-insensitively and ignores the record with excludeID.
	ExistsByUsername(ctx context.Context, username string, excludeID string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, u model.User) error
	Update(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type NoteRepository interface {
	FindByID(ctx context.Context, id string) (model.Note, error)
	ExistsByTitle(ctx context.Context, title string, excludeID string) (bool, error)
	// List returns all notes when ownerID is empty.
	List(ctx context.Context, ownerID string) ([]model.NoteView, error)
	// Create assigns the next ticket number to n.
	Create(ctx context.Context, n *model.Note) error
	Update(ctx context.Context, n model.Note) error
	Delete(ctx context.Context, id string) error
	CountByUser(ctx context.Context, userID string) (int, error)
}

type TokenRepository interface {
	Store(ctx context.Context, record model.RefreshTokenRecord) error
	// Validate returns the owner of an unexpired token.
	Validate(ctx context.Context, tokenID string) (string, error)
	// Revoke returns model.ErrTokenNotFound when no record was deleted, so at
	// most one caller can revoke a given token.
	Revoke(ctx context.Context, tokenID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	CleanExpired(ctx context.Context) (int64, error)
}

// Store bundles the repositories of one storage backend.
type Store interface {
	Users() UserRepository
	Notes() NoteRepository
	RefreshTokens() TokenRepository
	Health(ctx context.Context) error
	Close(ctx context.Context) error
}
