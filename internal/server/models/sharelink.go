package models

import "time"

// Permission is the ceiling of operations a share link grants.
type Permission string

const (
	// PermissionView exposes file metadata only.
	PermissionView Permission = "view"
	// PermissionDownload additionally authorizes byte retrieval and
	// delivery of the file's encrypted key.
	PermissionDownload Permission = "download"
)

// Valid reports whether p is a known permission value.
func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionDownload
}

// AllowsDownload reports whether p covers byte retrieval.
func (p Permission) AllowsDownload() bool {
	return p == PermissionDownload
}

// ShareLink grants scoped, time-bounded access to one file. It is valid in
// exactly one of two modes: anonymous-token mode (Token set, GuestUserID
// nil) or guest-bound mode (Token nil, GuestUserID set). Creation rejects
// every other combination.
type ShareLink struct {
	ID     string
	FileID string

	// Token is the bearer secret for anonymous-token links. nil for
	// guest-bound links, which are addressed by (FileID, GuestUserID).
	Token *string
	// GuestUserID is the single account permitted to use a guest-bound
	// link. nil for anonymous-token links.
	GuestUserID *string

	Permission Permission
	ExpiresAt  time.Time
	CreatedAt  time.Time
	CreatedBy  string

	// Audit fields, mutated only on successful access.
	LastAccessedAt *time.Time
	AccessCount    int64
	AccessedBy     *string
}

// IsExpired reports whether the link is unusable at instant now.
// A link expires exactly at ExpiresAt, with no tolerance window.
func (l *ShareLink) IsExpired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// IsGuestBound reports whether the link is in guest-bound mode.
func (l *ShareLink) IsGuestBound() bool {
	return l.GuestUserID != nil
}
