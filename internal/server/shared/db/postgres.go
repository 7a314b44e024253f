// Package db opens the server's database connection and applies migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/repomanager"
)

// Open connects to Postgres using the pgx stdlib driver and runs the
// embedded goose migrations before returning the pool.
func Open(ctx context.Context, dsn string, m repomanager.RepositoryManager) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := m.RunMigrations(ctx, conn); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return conn, nil
}
