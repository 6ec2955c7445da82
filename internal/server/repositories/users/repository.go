package users

import (
	"context"

	"github.com/artstore/artstore/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.AuthUser) (*models.AuthUser, error)
	GetByEmail(ctx context.Context, email string) (*models.AuthUser, error)
	GetByID(ctx context.Context, id string) (*models.AuthUser, error)
	ConfirmEmail(ctx context.Context, id string) error
}
