package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"technotes-api/internal/model"
)

type PostgresNoteRepository struct {
	pool querier
}

func NewPostgresNoteRepository(pool querier) *PostgresNoteRepository {
	return &PostgresNoteRepository{pool: pool}
}

func (r *PostgresNoteRepository) FindByID(ctx context.Context, id string) (model.Note, error) {
	var n model.Note
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, title, text, completed, ticket, created_at, updated_at
		 FROM notes WHERE id = $1`, id).
		Scan(&n.ID, &n.User, &n.Title, &n.Text, &n.Completed, &n.Ticket, &n.CreatedAt, &n.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Note{}, model.ErrNoteNotFound
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("find note by id: %w", err)
	}
	return n, nil
}

func (r *PostgresNoteRepository) ExistsByTitle(ctx context.Context, title string, excludeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM notes WHERE lower(title) = lower($1) AND id <> $2)`,
		title, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check note title exists: %w", err)
	}
	return exists, nil
}

func (r *PostgresNoteRepository) List(ctx context.Context, ownerID string) ([]model.NoteView, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT n.id, n.user_id, n.title, n.text, n.completed, n.ticket, n.created_at, n.updated_at,
		        COALESCE(u.username, '')
		 FROM notes n LEFT JOIN users u ON u.id = n.user_id
		 WHERE $1 = '' OR n.user_id = $1
		 ORDER BY n.ticket`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.NoteView, 0)
	for rows.Next() {
		var v model.NoteView
		if err := rows.Scan(&v.ID, &v.User, &v.Title, &v.Text, &v.Completed, &v.Ticket,
			&v.CreatedAt, &v.UpdatedAt, &v.Username); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, v)
	}
	return notes, rows.Err()
}

func (r *PostgresNoteRepository) Create(ctx context.Context, n *model.Note) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notes (id, user_id, title, text, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING ticket`,
		n.ID, n.User, n.Title, n.Text, n.Completed, n.CreatedAt, n.UpdatedAt).Scan(&n.Ticket)
	if isUniqueViolation(err) {
		return model.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (r *PostgresNoteRepository) Update(ctx context.Context, n model.Note) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notes SET user_id = $2, title = $3, text = $4, completed = $5, updated_at = $6
		 WHERE id = $1`,
		n.ID, n.User, n.Title, n.Text, n.Completed, n.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

func (r *PostgresNoteRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

func (r *PostgresNoteRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notes WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count notes by user: %w", err)
	}
	return count, nil
}
