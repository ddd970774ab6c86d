package migration

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdash/internal/config"
	"docdash/internal/logging"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "sql/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"sql/00001_create_users.sql", "sql/00002_create_documents.sql"}, files)

	for _, f := range files {
		b, err := migrations.ReadFile(f)
		require.NoError(t, err)
		assert.Contains(t, string(b), "-- +goose Up", f)
		assert.Contains(t, string(b), "-- +goose Down", f)
	}
}

func TestEnsureMigrated(t *testing.T) {
	orig := gooseUp
	defer func() { gooseUp = orig }()

	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.New(&buf, config.LogConfig{Level: "info"}, time.UTC)
		called := false
		gooseUp = func(ctx context.Context, db *sql.DB) error {
			called = true
			return nil
		}

		err := EnsureMigrated(context.Background(), nil, logger, "db.local")

		assert.NoError(t, err)
		assert.True(t, called)
		assert.Contains(t, buf.String(), `"event":"db_migration_success"`)
		assert.Contains(t, buf.String(), `"db_host":"db.local"`)
	})

	t.Run("failure", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.New(&buf, config.LogConfig{Level: "info"}, time.UTC)
		gooseUp = func(ctx context.Context, db *sql.DB) error {
			return errors.New("relation exists")
		}

		err := EnsureMigrated(context.Background(), nil, logger, "db.local")

		assert.ErrorContains(t, err, "migrate: relation exists")
		assert.Contains(t, buf.String(), `"level":"error"`)
		assert.Contains(t, buf.String(), `"status":"error"`)
	})
}
