package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/links"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/users"
)

// In-memory repositories, enough to drive the real services end to end
// through the router.

type memUserRepo struct {
	byID map[string]*models.User
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type memFileRepo struct {
	mu   sync.Mutex
	byID map[string]*models.File
	seq  int
}

func (r *memFileRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	file.ID = fmt.Sprintf("f%d", r.seq)
	file.UploadedAt = time.Now()
	file.UpdatedAt = file.UploadedAt
	r.byID[file.ID] = file
	return file, nil
}

func (r *memFileRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *memFileRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.File
	for _, f := range r.byID {
		if f.OwnerID == ownerID {
			result = append(result, f)
		}
	}
	return result, nil
}

func (r *memFileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

type memLinkRepo struct {
	mu   sync.Mutex
	byID map[string]*models.ShareLink
	seq  int
}

func (r *memLinkRepo) Create(ctx context.Context, link *models.ShareLink) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if link.Token != nil && existing.Token != nil && *existing.Token == *link.Token {
			return nil, common.ErrorDuplicateCapability
		}
		if link.GuestUserID != nil && existing.GuestUserID != nil &&
			existing.FileID == link.FileID && *existing.GuestUserID == *link.GuestUserID {
			return nil, common.ErrorDuplicateCapability
		}
	}
	r.seq++
	link.ID = fmt.Sprintf("l%d", r.seq)
	link.CreatedAt = time.Now()
	r.byID[link.ID] = link
	return link, nil
}

func (r *memLinkRepo) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if l.Token != nil && *l.Token == token {
			return l, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memLinkRepo) GetGuestBinding(ctx context.Context, fileID, guestUserID string) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if l.GuestUserID != nil && l.FileID == fileID && *l.GuestUserID == guestUserID {
			return l, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memLinkRepo) ListByFile(ctx context.Context, fileID string) ([]*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.ShareLink
	for _, l := range r.byID {
		if l.FileID == fileID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (r *memLinkRepo) RecordAccess(ctx context.Context, linkID string, accessorID *string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[linkID]
	if !ok {
		return common.ErrorNotFound
	}
	l.AccessCount++
	l.LastAccessedAt = &now
	if accessorID != nil {
		l.AccessedBy = accessorID
	}
	return nil
}

type memManager struct {
	users *memUserRepo
	files *memFileRepo
	links *memLinkRepo
}

func newMemManager() *memManager {
	return &memManager{
		users: &memUserRepo{byID: map[string]*models.User{}},
		files: &memFileRepo{byID: map[string]*models.File{}},
		links: &memLinkRepo{byID: map[string]*models.ShareLink{}},
	}
}

func (m *memManager) Users(db dbx.DBTX) users.Repository { return m.users }
func (m *memManager) Files(db dbx.DBTX) files.Repository { return m.files }
func (m *memManager) Links(db dbx.DBTX) links.Repository { return m.links }

func (m *memManager) InTransaction(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, db)
}

func (m *memManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: map[string][]byte{}}
}

func (s *memBlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, common.ErrorBlobMissing
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memBlobStore) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://blobs.example/" + key, nil
}
