package users

import (
	"context"

	"github.com/okutsen/snipkeep/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleSub(ctx context.Context, sub string) (*models.User, error)
}
