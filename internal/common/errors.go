// Package common defines shared constants and sentinel errors used across
// the server layers of Sharekeeper. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound             = errors.New("not found")
	ErrorDuplicateCapability  = errors.New("duplicate capability")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Share-link creation errors.
	ErrorInvalidSharingMode = errors.New("invalid sharing mode")
	ErrorNotGuestAccount    = errors.New("referenced account is not a guest")

	// Share-link access errors. ErrorLinkExpired is deliberately distinct
	// from ErrorNotFound: the transport layer tells the caller "expired"
	// vs "invalid" and nothing more.
	ErrorLinkExpired            = errors.New("link expired")
	ErrorAuthenticationRequired = errors.New("authentication required")
	ErrorNotAuthorized          = errors.New("link not shared with this account")
	ErrorInsufficientPermission = errors.New("insufficient permission")

	// Upload validation errors.
	ErrorUnsupportedFileType = errors.New("unsupported file type")
	ErrorFileTooLarge        = errors.New("file too large")

	// Storage-integrity error: the file row exists but the blob is gone.
	ErrorBlobMissing = errors.New("blob missing")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
