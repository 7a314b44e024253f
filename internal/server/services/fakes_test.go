package services

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

// In-memory repositories backing service tests. The links fake serializes
// RecordAccess with a mutex, mirroring the atomic UPDATE of the Postgres
// implementation.

type fakeUserRepo struct {
	byID map[string]*models.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeFileRepo struct {
	mu   sync.Mutex
	byID map[string]*models.File
	seq  int
}

func (r *fakeFileRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	file.ID = fmt.Sprintf("f%d", r.seq)
	file.UploadedAt = time.Now()
	file.UpdatedAt = file.UploadedAt
	r.byID[file.ID] = file
	return file, nil
}

func (r *fakeFileRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *fakeFileRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
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

func (r *fakeFileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

type fakeLinkRepo struct {
	mu   sync.Mutex
	byID map[string]*models.ShareLink
	seq  int
}

func (r *fakeLinkRepo) Create(ctx context.Context, link *models.ShareLink) (*models.ShareLink, error) {
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

func (r *fakeLinkRepo) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if l.Token != nil && *l.Token == token {
			return l, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeLinkRepo) GetGuestBinding(ctx context.Context, fileID, guestUserID string) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if l.FileID == fileID && l.GuestUserID != nil && *l.GuestUserID == guestUserID {
			return l, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeLinkRepo) ListByFile(ctx context.Context, fileID string) ([]*models.ShareLink, error) {
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

func (r *fakeLinkRepo) RecordAccess(ctx context.Context, linkID string, accessorID *string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[linkID]
	if !ok {
		return fmt.Errorf("wrong rows affected count: 0")
	}
	l.AccessCount++
	l.LastAccessedAt = &now
	if accessorID != nil {
		l.AccessedBy = accessorID
	}
	return nil
}

type fakeManager struct {
	mu      sync.Mutex
	txCount int

	users *fakeUserRepo
	files *fakeFileRepo
	links *fakeLinkRepo
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		users: &fakeUserRepo{byID: map[string]*models.User{}},
		files: &fakeFileRepo{byID: map[string]*models.File{}},
		links: &fakeLinkRepo{byID: map[string]*models.ShareLink{}},
	}
}

func (m *fakeManager) Users(db dbx.DBTX) users.Repository { return m.users }
func (m *fakeManager) Files(db dbx.DBTX) files.Repository { return m.files }
func (m *fakeManager) Links(db dbx.DBTX) links.Repository { return m.links }

func (m *fakeManager) InTransaction(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.mu.Lock()
	m.txCount++
	m.mu.Unlock()
	return fn(ctx, db)
}

func (m *fakeManager) transactions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txCount
}

func (m *fakeManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (s *fakeBlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, common.ErrorBlobMissing
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeBlobStore) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://blobs.example/" + key, nil
}

// fakeIssuer replays a fixed token sequence.
type fakeIssuer struct {
	mu     sync.Mutex
	tokens []string
}

func (i *fakeIssuer) Issue() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.tokens) == 0 {
		return "", fmt.Errorf("issuer exhausted")
	}
	tok := i.tokens[0]
	i.tokens = i.tokens[1:]
	return tok, nil
}
