package snippets

import (
	"context"

	"github.com/okutsen/snipkeep/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, snippet *models.Snippet) error
	Update(ctx context.Context, id, userID string, title, message *string) (*models.Snippet, error)
	Delete(ctx context.Context, id, userID string) error
	SelectOrdered(ctx context.Context, userID string) ([]*models.Snippet, error)
	UpdateOrd(ctx context.Context, id, userID string, ord int) error
}
