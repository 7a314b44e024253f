// Package repomanager hands out repositories bound to a DBTX, so services
// can use the same repository code inside and outside of transactions.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sharekeeper/internal/dbx"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/links"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	Links(db dbx.DBTX) links.Repository

	// InTransaction runs fn with a transactional handle, committing on
	// success and rolling back on error.
	InTransaction(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error

	RunMigrations(ctx context.Context, db *sql.DB) error
}
