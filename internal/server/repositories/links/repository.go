package links

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// Repository persists share links. Lookups are exact-match only: by the
// bearer token, or by the (file, guest) pair for guest-bound links.
type Repository interface {
	Create(ctx context.Context, link *models.ShareLink) (*models.ShareLink, error)
	GetByToken(ctx context.Context, token string) (*models.ShareLink, error)
	GetGuestBinding(ctx context.Context, fileID, guestUserID string) (*models.ShareLink, error)
	ListByFile(ctx context.Context, fileID string) ([]*models.ShareLink, error)

	// RecordAccess bumps the audit fields of one link. The increment of
	// access_count must not lose updates under concurrent calls.
	RecordAccess(ctx context.Context, linkID string, accessorID *string, now time.Time) error
}
