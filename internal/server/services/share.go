// Package services contains the server-side business logic: share-link
// issuance and resolution, access decisions, file plumbing, and the
// encryption-key transport codec.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/logging"
	"github.com/dmitrijs2005/sharekeeper/internal/server/blob"
	"github.com/dmitrijs2005/sharekeeper/internal/server/config"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/repomanager"
)

// CapabilityRef addresses a share link by exactly one of its two schemes:
// the bearer token of an anonymous link, or the file id of a guest-bound
// link (the guest identity comes from the authenticated requester). Using
// one type for both keeps a single resolution path in the transport layer.
type CapabilityRef struct {
	Token  string
	FileID string
}

// TokenRef addresses an anonymous-token link.
func TokenRef(token string) CapabilityRef {
	return CapabilityRef{Token: token}
}

// GuestRef addresses a guest-bound link by its file.
func GuestRef(fileID string) CapabilityRef {
	return CapabilityRef{FileID: fileID}
}

// CreateLinkInput describes a share-link creation request. GuestUserID nil
// means anonymous-token mode.
type CreateLinkInput struct {
	FileID      string
	OwnerID     string
	Permission  models.Permission
	TTL         time.Duration
	GuestUserID *string
}

// SharedFileInfo is the metadata payload returned on a granted resolve.
type SharedFileInfo struct {
	Filename   string
	FileID     string
	MimeType   string
	Size       int64
	SharedBy   string
	UploadedAt time.Time
	Permission models.Permission
}

// DownloadPayload carries the ciphertext stream plus the transport-encoded
// encryption key. The caller owns Body and must close it.
type DownloadPayload struct {
	File *models.File
	Body io.ReadCloser
	Key  string
}

// ShareService implements the shareable-link capability subsystem: link
// issuance with the mode-exclusivity invariant, resolution over both
// addressing schemes, expiry and permission enforcement, access auditing,
// and encryption-key hand-off.
type ShareService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	issuer      TokenIssuer
	guard       *AccessGuard
	codec       *KeyDeliveryCodec
	logger      logging.Logger
	maxLinkTTL  time.Duration

	// now is a seam for tests; production uses time.Now.
	now func() time.Time
}

func NewShareService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store,
	issuer TokenIssuer, logger logging.Logger, cfg *config.Config) *ShareService {
	return &ShareService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		issuer:      issuer,
		guard:       NewAccessGuard(),
		codec:       NewKeyDeliveryCodec(),
		logger:      logger.With("module", "share_service"),
		maxLinkTTL:  cfg.MaxLinkTTL,
		now:         time.Now,
	}
}

// validateSharingMode rejects links that are in neither or both addressing
// modes. The schema CHECK constraint repeats this, but correctness must not
// depend on the storage layer catching it.
func validateSharingMode(link *models.ShareLink) error {
	hasToken := link.Token != nil && *link.Token != ""
	hasGuest := link.GuestUserID != nil && *link.GuestUserID != ""
	if hasToken == hasGuest {
		return common.ErrorInvalidSharingMode
	}
	return nil
}

// CreateLink issues a new share link for a file the caller owns.
//
// Guest-bound links require the referenced account to exist and hold the
// guest role. TTL is taken as given; a non-positive TTL yields a link that
// is already expired, and TTLs above the configured maximum are clamped.
// A token collision (unique violation) is retried once with a fresh token.
func (s *ShareService) CreateLink(ctx context.Context, in CreateLinkInput) (*models.ShareLink, error) {
	if !in.Permission.Valid() {
		return nil, common.ErrorInvalidSharingMode
	}

	fileRepo := s.repomanager.Files(s.db)
	file, err := fileRepo.GetByID(ctx, in.FileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != in.OwnerID {
		return nil, common.ErrorUnauthorized
	}

	if in.GuestUserID != nil {
		userRepo := s.repomanager.Users(s.db)
		guest, err := userRepo.GetByID(ctx, *in.GuestUserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrorNotGuestAccount
			}
			return nil, err
		}
		if !guest.IsGuest() {
			return nil, common.ErrorNotGuestAccount
		}
	}

	ttl := in.TTL
	if ttl < 0 {
		ttl = 0
	}
	if s.maxLinkTTL > 0 && ttl > s.maxLinkTTL {
		ttl = s.maxLinkTTL
	}

	link, err := s.createWithFreshToken(ctx, in, ttl)
	if errors.Is(err, common.ErrorDuplicateCapability) && in.GuestUserID == nil {
		// Astronomically unlikely token collision; one retry is enough.
		link, err = s.createWithFreshToken(ctx, in, ttl)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "share link created",
		"file_id", in.FileID, "permission", string(in.Permission), "guest_bound", in.GuestUserID != nil)

	return link, nil
}

func (s *ShareService) createWithFreshToken(ctx context.Context, in CreateLinkInput, ttl time.Duration) (*models.ShareLink, error) {
	link := &models.ShareLink{
		FileID:      in.FileID,
		GuestUserID: in.GuestUserID,
		Permission:  in.Permission,
		ExpiresAt:   s.now().Add(ttl),
		CreatedBy:   in.OwnerID,
	}

	if in.GuestUserID == nil {
		token, err := s.issuer.Issue()
		if err != nil {
			return nil, fmt.Errorf("issue token: %w", err)
		}
		link.Token = &token
	}

	if err := validateSharingMode(link); err != nil {
		return nil, err
	}

	return s.repomanager.Links(s.db).Create(ctx, link)
}

// resolveLink loads a link by either addressing scheme. Guest-mode lookups
// need an authenticated requester even to locate the link.
func (s *ShareService) resolveLink(ctx context.Context, tx dbx.DBTX, ref CapabilityRef, requesterID *string) (*models.ShareLink, error) {
	linkRepo := s.repomanager.Links(tx)

	if ref.Token != "" {
		return linkRepo.GetByToken(ctx, ref.Token)
	}

	if requesterID == nil {
		return nil, common.ErrorAuthenticationRequired
	}
	return linkRepo.GetGuestBinding(ctx, ref.FileID, *requesterID)
}

// evaluate resolves and guards a link. Only a granted decision reaches the
// caller with a nil error; every denial is computed without side effects.
func (s *ShareService) evaluate(ctx context.Context, tx dbx.DBTX, ref CapabilityRef, requesterID *string) (*models.ShareLink, Decision, error) {
	link, err := s.resolveLink(ctx, tx, ref, requesterID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			d := s.guard.Evaluate(nil, requesterID, s.now())
			return nil, d, d.Err()
		}
		return nil, Decision{Outcome: OutcomeDeniedNotFound}, err
	}

	d := s.guard.Evaluate(link, requesterID, s.now())
	if !d.Granted() {
		return nil, d, d.Err()
	}
	return link, d, nil
}

// Resolve validates a capability and returns the shared file's metadata.
// A granted resolve counts as one access. The evaluation and the audit
// write run in one transaction, so the recorded access refers to the same
// row the decision was made on.
func (s *ShareService) Resolve(ctx context.Context, ref CapabilityRef, requesterID *string) (*SharedFileInfo, error) {
	var info *SharedFileInfo

	err := s.repomanager.InTransaction(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		link, d, err := s.evaluate(ctx, tx, ref, requesterID)
		if err != nil {
			return err
		}

		file, err := s.repomanager.Files(tx).GetByID(ctx, link.FileID)
		if err != nil {
			return err
		}

		owner, err := s.repomanager.Users(tx).GetByID(ctx, file.OwnerID)
		if err != nil {
			return err
		}

		if err := s.recordAccess(ctx, tx, link.ID, requesterID); err != nil {
			return err
		}

		info = &SharedFileInfo{
			Filename:   file.Filename,
			FileID:     file.ID,
			MimeType:   file.MimeType,
			Size:       file.Size,
			SharedBy:   owner.Email,
			UploadedAt: file.UploadedAt,
			Permission: d.Tier,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return info, nil
}

// OpenDownload validates a capability for byte retrieval and returns the
// ciphertext stream plus the transport-encoded key. View-tier links are
// rejected with ErrorInsufficientPermission. A granted download counts as
// one access; denials mutate nothing. Like Resolve, the evaluation and the
// audit write share one transaction.
func (s *ShareService) OpenDownload(ctx context.Context, ref CapabilityRef, requesterID *string) (*DownloadPayload, error) {
	var payload *DownloadPayload

	err := s.repomanager.InTransaction(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		link, d, err := s.evaluate(ctx, tx, ref, requesterID)
		if err != nil {
			return err
		}

		if !d.Tier.AllowsDownload() {
			return common.ErrorInsufficientPermission
		}

		file, err := s.repomanager.Files(tx).GetByID(ctx, link.FileID)
		if err != nil {
			return err
		}

		body, err := s.blobs.Open(ctx, file.StorageKey)
		if err != nil {
			if errors.Is(err, common.ErrorBlobMissing) {
				// Metadata row without a blob is a server-side integrity
				// fault, not a capability problem.
				s.logger.Error(ctx, "blob missing for existing file record",
					"file_id", file.ID, "storage_key", file.StorageKey)
			}
			return err
		}

		if err := s.recordAccess(ctx, tx, link.ID, requesterID); err != nil {
			_ = body.Close()
			return err
		}

		payload = &DownloadPayload{
			File: file,
			Body: body,
			Key:  s.codec.EncodeForTransport(file.EncryptionKey),
		}
		return nil
	})
	if err != nil {
		if payload != nil {
			_ = payload.Body.Close()
		}
		return nil, err
	}

	return payload, nil
}

// ListLinks returns all share links of one file to its owner.
func (s *ShareService) ListLinks(ctx context.Context, fileID, ownerID string) ([]*models.ShareLink, error) {
	fileRepo := s.repomanager.Files(s.db)
	file, err := fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, common.ErrorUnauthorized
	}

	return s.repomanager.Links(s.db).ListByFile(ctx, fileID)
}

func (s *ShareService) recordAccess(ctx context.Context, tx dbx.DBTX, linkID string, accessorID *string) error {
	if err := s.repomanager.Links(tx).RecordAccess(ctx, linkID, accessorID, s.now()); err != nil {
		return fmt.Errorf("record access: %w", err)
	}
	return nil
}
