package models

import "time"

// File describes server-side metadata for an uploaded ciphertext blob.
// The blob itself lives in object storage under StorageKey; the server
// never sees the plaintext.
type File struct {
	ID       string
	Filename string
	// OwnerID is the account that uploaded the file.
	OwnerID string
	// Size is the ciphertext size in bytes.
	Size int64
	// MimeType is the declared type of the original (plaintext) content.
	MimeType string
	// EncryptionKey is the client-side encrypted key, opaque to the
	// server. It is handed back verbatim (base64-normalized) on download.
	EncryptionKey string
	// StorageKey is the object-storage key of the ciphertext blob.
	StorageKey string

	UploadedAt time.Time
	UpdatedAt  time.Time
}
