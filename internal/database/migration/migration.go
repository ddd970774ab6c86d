// Package migration applies the embedded schema with goose.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var migrations embed.FS

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "sql")
}

// EnsureMigrated brings the schema up to date. goose tracks applied versions,
// so repeated calls are no-ops once the schema is current.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	start := time.Now()
	log := logger.With("component", "database", "db_host", dbHost)

	log.InfoContext(ctx, "db_migration_start", "event", "db_migration_start", "status", "in_progress")

	if err := gooseUp(ctx, db); err != nil {
		log.ErrorContext(ctx, "db_migration_failed",
			"event", "db_migration_failed",
			"status", "error",
			"error_message", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("migrate: %w", err)
	}

	log.InfoContext(ctx, "db_migration_success",
		"event", "db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
