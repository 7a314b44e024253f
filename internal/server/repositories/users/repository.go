package users

import (
	"context"

	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// Repository provides read access to accounts. Account lifecycle
// (registration, passwords, MFA) is managed by the identity service; this
// server only resolves ids for authorization and display.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
