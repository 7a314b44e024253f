package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// PostgresRepository implements file-metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx). The ciphertext blob itself lives in object storage.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query :=
		`INSERT INTO files (filename, owner_id, size, mime_type, encryption_key, storage_key)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, uploaded_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.Filename, file.OwnerID, file.Size, file.MimeType, file.EncryptionKey, file.StorageKey).
		Scan(&file.ID, &file.UploadedAt, &file.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query :=
		`SELECT id, filename, owner_id, size, mime_type, encryption_key, storage_key, uploaded_at, updated_at
		 FROM files
		 WHERE id = $1
		 `

	file := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.Filename, &file.OwnerID, &file.Size, &file.MimeType,
		&file.EncryptionKey, &file.StorageKey, &file.UploadedAt, &file.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	query :=
		`SELECT id, filename, owner_id, size, mime_type, encryption_key, storage_key, uploaded_at, updated_at
		 FROM files
		 WHERE owner_id = $1
		 ORDER BY uploaded_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(
			&item.ID, &item.Filename, &item.OwnerID, &item.Size, &item.MimeType,
			&item.EncryptionKey, &item.StorageKey, &item.UploadedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the metadata row. Exactly one row must be affected;
// zero rows means the file does not exist.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM files WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}
