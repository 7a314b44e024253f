package httpapi

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// CreateShareRequest is the request body for creating a share link.
// ExpiresIn is in hours; when omitted the configured default TTL applies,
// and an explicit zero yields a link that is already expired. A non-empty
// GuestUserID switches the link to guest-bound mode.
type CreateShareRequest struct {
	Permissions string `json:"permissions"`
	ExpiresIn   *int   `json:"expiresIn"`
	GuestUserID string `json:"guestUserId,omitempty"`
}

func (r CreateShareRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Permissions, validation.Required,
			validation.In(string(models.PermissionView), string(models.PermissionDownload))),
		validation.Field(&r.ExpiresIn, validation.Min(0)),
	)
}

// FileResponse is file metadata as returned to the owner.
type FileResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toFileResponse(f *models.File) FileResponse {
	return FileResponse{
		ID:         f.ID,
		Filename:   f.Filename,
		Size:       f.Size,
		MimeType:   f.MimeType,
		UploadedAt: f.UploadedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// ShareCreatedResponse is returned after a successful share creation.
// Token is null for guest-bound links.
type ShareCreatedResponse struct {
	Token       *string   `json:"token"`
	Permissions string    `json:"permissions"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	GuestUserID *string   `json:"guest_user_id"`
}

// ShareListItem describes one live capability to the file owner, audit
// fields included.
type ShareListItem struct {
	ID             string     `json:"id"`
	Token          *string    `json:"token"`
	GuestUserID    *string    `json:"guest_user_id"`
	Permissions    string     `json:"permissions"`
	ExpiresAt      time.Time  `json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
	AccessCount    int64      `json:"access_count"`
	AccessedBy     *string    `json:"accessed_by"`
}

func toShareListItem(l *models.ShareLink) ShareListItem {
	return ShareListItem{
		ID:             l.ID,
		Token:          l.Token,
		GuestUserID:    l.GuestUserID,
		Permissions:    string(l.Permission),
		ExpiresAt:      l.ExpiresAt,
		CreatedAt:      l.CreatedAt,
		LastAccessedAt: l.LastAccessedAt,
		AccessCount:    l.AccessCount,
		AccessedBy:     l.AccessedBy,
	}
}

// PresignResponse carries a time-limited direct URL to the ciphertext
// object.
type PresignResponse struct {
	URL string `json:"url"`
}

// TokenResponse carries a freshly minted access token.
type TokenResponse struct {
	Access string `json:"access"`
}

// SharedFileResponse is the metadata payload for a granted resolve. The
// field names are part of the public contract with the web client.
type SharedFileResponse struct {
	Filename    string    `json:"filename"`
	FileID      string    `json:"fileId"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	SharedBy    string    `json:"shared_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Permissions string    `json:"permissions"`
}
