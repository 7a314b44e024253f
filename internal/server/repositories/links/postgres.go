package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// Postgres unique_violation.
const pgUniqueViolation = "23505"

// PostgresRepository implements share-link storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const linkColumns = `id, file_id, token, guest_user_id, permission, expires_at,
		 created_at, created_by, last_accessed_at, access_count, accessed_by`

func scanLink(row interface{ Scan(...any) error }, link *models.ShareLink) error {
	return row.Scan(
		&link.ID, &link.FileID, &link.Token, &link.GuestUserID, &link.Permission,
		&link.ExpiresAt, &link.CreatedAt, &link.CreatedBy,
		&link.LastAccessedAt, &link.AccessCount, &link.AccessedBy)
}

// Create inserts a new link. The sharing-mode invariant is validated by the
// service before this call; the schema CHECK constraint and the partial
// unique index on (file_id, guest_user_id) are defense in depth. A unique
// violation (token collision, or a second binding for the same file+guest
// pair) is returned as ErrorDuplicateCapability.
func (r *PostgresRepository) Create(ctx context.Context, link *models.ShareLink) (*models.ShareLink, error) {
	query :=
		`INSERT INTO shareable_links (file_id, token, guest_user_id, permission, expires_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		link.FileID, link.Token, link.GuestUserID, link.Permission, link.ExpiresAt, link.CreatedBy).
		Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorDuplicateCapability
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return link, nil
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	query := `SELECT ` + linkColumns + `
		 FROM shareable_links
		 WHERE token = $1
		 `

	link := &models.ShareLink{}
	if err := scanLink(r.db.QueryRowContext(ctx, query, token), link); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return link, nil
}

func (r *PostgresRepository) GetGuestBinding(ctx context.Context, fileID, guestUserID string) (*models.ShareLink, error) {
	query := `SELECT ` + linkColumns + `
		 FROM shareable_links
		 WHERE file_id = $1 AND guest_user_id = $2
		 `

	link := &models.ShareLink{}
	if err := scanLink(r.db.QueryRowContext(ctx, query, fileID, guestUserID), link); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return link, nil
}

func (r *PostgresRepository) ListByFile(ctx context.Context, fileID string) ([]*models.ShareLink, error) {
	query := `SELECT ` + linkColumns + `
		 FROM shareable_links
		 WHERE file_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ShareLink
	for rows.Next() {
		var item models.ShareLink
		if err := scanLink(rows, &item); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RecordAccess increments access_count in the database rather than
// read-modify-write in the application, so concurrent accesses to the same
// link never lose updates. accessed_by keeps its previous value for
// anonymous accessors.
func (r *PostgresRepository) RecordAccess(ctx context.Context, linkID string, accessorID *string, now time.Time) error {
	query :=
		`UPDATE shareable_links
		 SET access_count = access_count + 1,
		     last_accessed_at = $2,
		     accessed_by = COALESCE($3, accessed_by)
		 WHERE id = $1
		 `

	result, err := r.db.ExecContext(ctx, query, linkID, now, accessorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}
