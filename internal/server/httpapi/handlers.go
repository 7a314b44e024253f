// Package httpapi implements the public REST surface over chi: owner file
// management plus the shared-link endpoints the web client consumes.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/logging"
	"github.com/dmitrijs2005/sharekeeper/internal/server/auth"
	"github.com/dmitrijs2005/sharekeeper/internal/server/config"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
	"github.com/dmitrijs2005/sharekeeper/internal/server/services"
)

// Handler holds the API route handlers.
type Handler struct {
	files  *services.FileService
	shares *services.ShareService
	logger logging.Logger

	maxUploadSize  int64
	defaultLinkTTL time.Duration
	secret         []byte
	tokenValidity  time.Duration
}

func NewHandler(files *services.FileService, shares *services.ShareService,
	logger logging.Logger, cfg *config.Config) *Handler {
	return &Handler{
		files:          files,
		shares:         shares,
		logger:         logger.With("module", "httpapi"),
		maxUploadSize:  cfg.MaxUploadSize,
		defaultLinkTTL: cfg.DefaultLinkTTL,
		secret:         []byte(cfg.SecretKey),
		tokenValidity:  cfg.AccessTokenValidityDuration,
	}
}

// ownerError maps service errors from the owner-facing endpoints.
func (h *Handler) ownerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
	case errors.Is(err, common.ErrorUnsupportedFileType):
		writeJSON(w, http.StatusBadRequest, errorBody("Unsupported file type. Please upload only: "+
			"Text Files (TXT, CSV, JSON), Image Files (PNG, JPEG, GIF), PDF Files, "+
			"Video Files (MP4, AVI), or Audio Files (MP3, WAV)"))
	case errors.Is(err, common.ErrorFileTooLarge):
		writeJSON(w, http.StatusBadRequest, errorBody("File size cannot exceed 5MB"))
	case errors.Is(err, common.ErrorInvalidSharingMode):
		writeJSON(w, http.StatusBadRequest, errorBody("exactly one of token or guest mode must be set"))
	case errors.Is(err, common.ErrorNotGuestAccount):
		writeJSON(w, http.StatusBadRequest, errorBody("guestUserId must reference an existing guest account"))
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// capabilityError maps service errors from the shared-link endpoints. The
// message wording is part of the public contract with the web client.
func (h *Handler) capabilityError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorLinkExpired):
		writeJSON(w, http.StatusForbidden, accessDenied("This link has expired"))
	case errors.Is(err, common.ErrorAuthenticationRequired):
		writeJSON(w, http.StatusUnauthorized, accessDenied("Authentication required for this link"))
	case errors.Is(err, common.ErrorNotAuthorized):
		writeJSON(w, http.StatusForbidden, accessDenied("This link is not shared with you"))
	case errors.Is(err, common.ErrorInsufficientPermission):
		writeJSON(w, http.StatusForbidden, accessDenied("This link does not allow downloading"))
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, accessDenied("This link is invalid"))
	case errors.Is(err, common.ErrorBlobMissing):
		writeJSON(w, http.StatusNotFound, errResponse{Error: "File Not Found", Message: "The file no longer exists"})
	default:
		h.logger.Error(r.Context(), "shared access failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// UploadFile handles POST /api/files. The multipart form carries the
// ciphertext under "file" and the client-side encrypted key under
// "encryption_key".
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file is required"))
		return
	}
	defer part.Close()

	encryptionKey := r.FormValue("encryption_key")
	if encryptionKey == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("encryption_key is required"))
		return
	}

	file, err := h.files.Upload(r.Context(), services.UploadInput{
		OwnerID:       uid,
		Filename:      header.Filename,
		MimeType:      header.Header.Get("Content-Type"),
		Size:          header.Size,
		EncryptionKey: encryptionKey,
		Body:          part,
	})
	if err != nil {
		h.ownerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(file))
}

// ListFiles handles GET /api/files.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFrom(r.Context())

	files, err := h.files.List(r.Context(), uid)
	if err != nil {
		h.ownerError(w, r, err)
		return
	}

	result := make([]FileResponse, 0, len(files))
	for _, f := range files {
		result = append(result, toFileResponse(f))
	}
	writeJSON(w, http.StatusOK, result)
}

// GetFile handles GET /api/files/{id}.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFrom(r.Context())

	file, err := h.files.Get(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		h.ownerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(file))
}

// DownloadFile handles GET /api/files/{id}/download, the owner path that
// bypasses the share subsystem.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFrom(r.Context())

	payload, err := h.files.OpenDownload(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		h.ownerError(w, r, err)
		return
	}
	h.streamPayload(w, r, payload)
}

// PresignFile handles GET /api/files/{id}/presign: the owner gets a
// time-limited URL for fetching the ciphertext straight from storage.
func (h *Handler) PresignFile(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFrom(r.Context())

	url, err := h.files.PresignDownload(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		h.ownerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PresignResponse{URL: url})
}

// RefreshToken handles POST /api/auth/refresh: an authenticated caller
// exchanges a still-valid access token for a fresh one.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFrom(r.Context())

	token, err := auth.GenerateToken(uid, h.secret, h.tokenValidity)
	if err != nil {
		h.logger.Error(r.Context(), "token mint failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Access: token})
}

// DeleteFile handles DELETE /api/files/{id}.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFrom(r.Context())

	if err := h.files.Delete(r.Context(), chi.URLParam(r, "id"), uid); err != nil {
		h.ownerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateShare handles POST /api/files/{id}/share.
func (h *Handler) CreateShare(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFrom(r.Context())

	var req CreateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	var guest *string
	if req.GuestUserID != "" {
		guest = &req.GuestUserID
	}

	ttl := h.defaultLinkTTL
	if req.ExpiresIn != nil {
		ttl = time.Duration(*req.ExpiresIn) * time.Hour
	}

	link, err := h.shares.CreateLink(r.Context(), services.CreateLinkInput{
		FileID:      chi.URLParam(r, "id"),
		OwnerID:     uid,
		Permission:  models.Permission(req.Permissions),
		TTL:         ttl,
		GuestUserID: guest,
	})
	if err != nil {
		h.ownerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ShareCreatedResponse{
		Token:       link.Token,
		Permissions: string(link.Permission),
		ExpiresAt:   link.ExpiresAt,
		CreatedAt:   link.CreatedAt,
		GuestUserID: link.GuestUserID,
	})
}

// ListShares handles GET /api/files/{id}/shares.
func (h *Handler) ListShares(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFrom(r.Context())

	links, err := h.shares.ListLinks(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		h.ownerError(w, r, err)
		return
	}

	result := make([]ShareListItem, 0, len(links))
	for _, l := range links {
		result = append(result, toShareListItem(l))
	}
	writeJSON(w, http.StatusOK, result)
}

// SharedFile handles GET /api/shared-file?token=...
func (h *Handler) SharedFile(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, accessDenied("No token provided"))
		return
	}
	h.resolveShared(w, r, services.TokenRef(token))
}

// SharedFileDownload handles GET /api/shared-file/download?token=...
func (h *Handler) SharedFileDownload(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, accessDenied("No token provided"))
		return
	}
	h.downloadShared(w, r, services.TokenRef(token))
}

// GuestSharedFile handles GET /api/files/{id}/shared, the guest-bound
// counterpart of SharedFile. The capability is located by file id plus the
// authenticated requester.
func (h *Handler) GuestSharedFile(w http.ResponseWriter, r *http.Request) {
	h.resolveShared(w, r, services.GuestRef(chi.URLParam(r, "id")))
}

// GuestSharedDownload handles GET /api/files/{id}/shared/download.
func (h *Handler) GuestSharedDownload(w http.ResponseWriter, r *http.Request) {
	h.downloadShared(w, r, services.GuestRef(chi.URLParam(r, "id")))
}

func (h *Handler) resolveShared(w http.ResponseWriter, r *http.Request, ref services.CapabilityRef) {
	info, err := h.shares.Resolve(r.Context(), ref, requesterID(r))
	if err != nil {
		h.capabilityError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SharedFileResponse{
		Filename:    info.Filename,
		FileID:      info.FileID,
		MimeType:    info.MimeType,
		Size:        info.Size,
		SharedBy:    info.SharedBy,
		UploadedAt:  info.UploadedAt,
		Permissions: string(info.Permission),
	})
}

func (h *Handler) downloadShared(w http.ResponseWriter, r *http.Request, ref services.CapabilityRef) {
	payload, err := h.shares.OpenDownload(r.Context(), ref, requesterID(r))
	if err != nil {
		h.capabilityError(w, r, err)
		return
	}
	h.streamPayload(w, r, payload)
}

// streamPayload writes the ciphertext stream with the transport-encoded
// key in the x-encryption-key header, exposed to browsers via CORS.
func (h *Handler) streamPayload(w http.ResponseWriter, r *http.Request, payload *services.DownloadPayload) {
	defer payload.Body.Close()

	contentType := payload.File.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set(common.EncryptionKeyHeaderName, payload.Key)
	w.Header().Set(common.ExposeHeadersHeaderName, common.EncryptionKeyHeaderName)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", payload.File.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(payload.File.Size, 10))

	if _, err := io.Copy(w, payload.Body); err != nil {
		// Status is already committed; nothing to send but the log line.
		h.logger.Error(r.Context(), "download stream interrupted",
			"file_id", payload.File.ID, "error", err)
	}
}
