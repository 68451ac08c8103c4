// Package snippets provides the PostgreSQL-backed repository for per-user
// snippet persistence and ordered listings.
package snippets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okutsen/snipkeep/internal/common"
	"github.com/okutsen/snipkeep/internal/dbx"
	"github.com/okutsen/snipkeep/internal/server/models"
)

// PostgresRepository implements snippet storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert stores a new snippet at the end of the owner's collection. The
// caller assigns the ID; Ord and the timestamps are filled in from the
// inserted row.
func (r *PostgresRepository) Insert(ctx context.Context, snippet *models.Snippet) error {
	query := `
		INSERT INTO snippets (id, user_id, title, message, ord)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(ord) + 1, 0) FROM snippets WHERE user_id = $2))
		RETURNING ord, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		snippet.ID, snippet.UserID, snippet.Title, snippet.Message).
		Scan(&snippet.Ord, &snippet.CreatedAt, &snippet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update applies a partial edit to the snippet owned by userID. Nil fields
// are left unchanged. A missing row yields common.ErrNotFound.
func (r *PostgresRepository) Update(ctx context.Context, id, userID string, title, message *string) (*models.Snippet, error) {
	query := `
		UPDATE snippets
		SET title = COALESCE($3, title),
			message = COALESCE($4, message),
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, message, ord, created_at, updated_at
	`
	item := &models.Snippet{}
	err := r.db.QueryRowContext(ctx, query, id, userID, title, message).Scan(
		&item.ID, &item.UserID, &item.Title, &item.Message, &item.Ord,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// Delete removes the snippet owned by userID. A missing row yields
// common.ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM snippets WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// SelectOrdered returns all snippets of userID sorted by position.
func (r *PostgresRepository) SelectOrdered(ctx context.Context, userID string) ([]*models.Snippet, error) {
	query := `
		SELECT id, user_id, title, message, ord, created_at, updated_at FROM snippets
		WHERE user_id = $1
		ORDER BY ord, created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select snippets: %w", err)
	}
	defer rows.Close()

	var result []*models.Snippet
	for rows.Next() {
		var item models.Snippet
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Message, &item.Ord,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateOrd moves the snippet owned by userID to the given position. A
// missing row yields common.ErrNotFound.
func (r *PostgresRepository) UpdateOrd(ctx context.Context, id, userID string, ord int) error {
	query := `UPDATE snippets SET ord = $3 WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID, ord)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
