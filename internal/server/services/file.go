package services

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/logging"
	"github.com/dmitrijs2005/sharekeeper/internal/server/blob"
	"github.com/dmitrijs2005/sharekeeper/internal/server/config"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/repomanager"
)

// supportedMimeTypes is the upload allow-list: text, image, PDF, video and
// audio types the web client knows how to decrypt and preview.
var supportedMimeTypes = map[string]struct{}{
	"text/plain":       {},
	"text/csv":         {},
	"application/json": {},
	"image/png":        {},
	"image/jpeg":       {},
	"image/gif":        {},
	"application/pdf":  {},
	"video/mp4":        {},
	"video/x-msvideo":  {},
	"audio/mpeg":       {},
	"audio/wav":        {},
}

// UploadInput describes one ciphertext upload. Size is the ciphertext
// length in bytes; EncryptionKey is the client-side encrypted key, stored
// opaque.
type UploadInput struct {
	OwnerID       string
	Filename      string
	MimeType      string
	Size          int64
	EncryptionKey string
	Body          io.Reader
}

// FileService implements the file plumbing around the share subsystem:
// upload, listing, owner download and deletion.
type FileService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	blobs         blob.Store
	codec         *KeyDeliveryCodec
	logger        logging.Logger
	maxUploadSize int64

	now func() time.Time
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store,
	logger logging.Logger, cfg *config.Config) *FileService {
	return &FileService{
		db:            db,
		repomanager:   m,
		blobs:         blobs,
		codec:         NewKeyDeliveryCodec(),
		logger:        logger.With("module", "file_service"),
		maxUploadSize: cfg.MaxUploadSize,
		now:           time.Now,
	}
}

// Upload stores the ciphertext blob and inserts the metadata row. The blob
// is written first so a crash leaves at worst an orphaned object, never a
// metadata row without bytes.
func (s *FileService) Upload(ctx context.Context, in UploadInput) (*models.File, error) {
	if _, ok := supportedMimeTypes[in.MimeType]; !ok {
		return nil, common.ErrorUnsupportedFileType
	}
	if in.Size > s.maxUploadSize {
		return nil, common.ErrorFileTooLarge
	}

	storageKey := blob.GetRandomStorageKey()
	if err := s.blobs.Put(ctx, storageKey, in.Body, in.Size, "application/octet-stream"); err != nil {
		return nil, err
	}

	file := &models.File{
		Filename:      in.Filename,
		OwnerID:       in.OwnerID,
		Size:          in.Size,
		MimeType:      in.MimeType,
		EncryptionKey: in.EncryptionKey,
		StorageKey:    storageKey,
	}

	created, err := s.repomanager.Files(s.db).Create(ctx, file)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "file uploaded", "file_id", created.ID, "size", created.Size)
	return created, nil
}

// Get returns a file's metadata to its owner. Non-owners get not-found, so
// file ids do not leak existence.
func (s *FileService) Get(ctx context.Context, fileID, ownerID string) (*models.File, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return file, nil
}

// List returns all files of one owner, newest first.
func (s *FileService) List(ctx context.Context, ownerID string) ([]*models.File, error) {
	return s.repomanager.Files(s.db).ListByOwner(ctx, ownerID)
}

// OpenDownload streams a file back to its owner with the transport-encoded
// key, bypassing the share subsystem.
func (s *FileService) OpenDownload(ctx context.Context, fileID, ownerID string) (*DownloadPayload, error) {
	file, err := s.Get(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}

	body, err := s.blobs.Open(ctx, file.StorageKey)
	if err != nil {
		return nil, err
	}

	return &DownloadPayload{
		File: file,
		Body: body,
		Key:  s.codec.EncodeForTransport(file.EncryptionKey),
	}, nil
}

// PresignDownload returns a time-limited URL for fetching the ciphertext
// object straight from the blob store, for clients that prefer not to
// stream through the API. The encryption key is not part of the URL; it
// still travels only through the download endpoints.
func (s *FileService) PresignDownload(ctx context.Context, fileID, ownerID string) (string, error) {
	file, err := s.Get(ctx, fileID, ownerID)
	if err != nil {
		return "", err
	}
	return s.blobs.PresignGet(ctx, file.StorageKey)
}

// Delete removes the metadata row and then the blob. A blob-delete failure
// after the row is gone only orphans storage; it is logged, not surfaced.
func (s *FileService) Delete(ctx context.Context, fileID, ownerID string) error {
	file, err := s.Get(ctx, fileID, ownerID)
	if err != nil {
		return err
	}

	if err := s.repomanager.Files(s.db).Delete(ctx, fileID); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
		s.logger.Warn(ctx, "blob delete failed after metadata delete",
			"file_id", fileID, "storage_key", file.StorageKey, "error", err.Error())
	}

	return nil
}
