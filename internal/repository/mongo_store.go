package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"technotes-api/internal/database"
	"technotes-api/internal/model"
)

var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// mongoWriteError maps unique index violations to model.ErrDuplicate.
func mongoWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

type MongoStore struct {
	db     *database.MongoDB
	users  *MongoUserRepository
	notes  *MongoNoteRepository
	tokens *MongoTokenRepository
}

func NewMongoStore(db *database.MongoDB) *MongoStore {
	return &MongoStore{
		db:     db,
		users:  NewMongoUserRepository(db),
		notes:  NewMongoNoteRepository(db),
		tokens: NewMongoTokenRepository(db),
	}
}

func (s *MongoStore) Users() UserRepository          { return s.users }
func (s *MongoStore) Notes() NoteRepository          { return s.notes }
func (s *MongoStore) RefreshTokens() TokenRepository { return s.tokens }

func (s *MongoStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}
