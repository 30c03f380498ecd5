package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"technotes-api/internal/database"
)

const uniqueViolation = "23505"

// querier is the subset of *pgxpool.Pool the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db     *database.DB
	users  *PostgresUserRepository
	notes  *PostgresNoteRepository
	tokens *PostgresTokenRepository
}

func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		users:  NewPostgresUserRepository(db.Pool),
		notes:  NewPostgresNoteRepository(db.Pool),
		tokens: NewPostgresTokenRepository(db.Pool),
	}
}

func (s *PostgresStore) Users() UserRepository          { return s.users }
func (s *PostgresStore) Notes() NoteRepository          { return s.notes }
func (s *PostgresStore) RefreshTokens() TokenRepository { return s.tokens }

func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	s.db.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
