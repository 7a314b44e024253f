package files

import (
	"context"

	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error)
	Delete(ctx context.Context, id string) error
}
