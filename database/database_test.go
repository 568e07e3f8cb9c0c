package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers

func newTestConfig(tableName string) database.Config {
	return database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: dirtar.Tables{Archives: tableName},
	}
}

func setupTestDB(t *testing.T, tableName string) database.Database {
	t.Helper()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig(tableName))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// Tests for Connect routing logic

func TestConnect_SQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "test_archives")

	err := db.Ping(ctx)
	assert.NoError(t, err)
}

func TestConnect_InvalidType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := database.Config{
		Type:   "invalid",
		DSN:    "whatever",
		Tables: dirtar.Tables{Archives: "test_archives"},
	}

	_, err := database.Connect(ctx, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestConnect_EmptyType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := database.Config{
		Type:   "",
		DSN:    ":memory:",
		Tables: dirtar.Tables{Archives: "test_archives"},
	}

	_, err := database.Connect(ctx, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestConnect_InvalidTableName(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig("bad-name;drop")

	_, err := database.Connect(context.Background(), cfg)
	assert.Error(t, err)
}

// Tests for Database interface methods

func TestDatabase_Migrate_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "migrate_idem_test")

	require.NoError(t, db.Migrate(ctx))
	assert.NoError(t, db.Migrate(ctx), "migrate should be idempotent")
}

func TestDatabase_Validate_BeforeMigration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, "validate_before_test")

	err := db.Validate(ctx)
	assert.Error(t, err, "validate should fail without tables")
}

func TestDatabase_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig("close_test"))
	require.NoError(t, err)

	require.NoError(t, db.Close())

	err = db.Ping(ctx)
	assert.Error(t, err, "ping should fail after close")
}

func TestOpen_ReadyRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Open(ctx, newTestConfig("open_test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.NoError(t, db.Validate(ctx))

	repo := db.GetRepo()
	rec := dirtar.ArchiveRecord{
		ID:          uuid.New(),
		Dir:         "docs",
		ScratchPath: "/tmp/docs.tar",
		SizeBytes:   10,
		Entries:     1,
		CreatedAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Create(ctx, rec))

	result, err := repo.ListPendingCleanup(ctx, dirtar.PendingQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, rec.ID, result.Items[0].ID)
}

func TestOpen_UnsupportedType(t *testing.T) {
	t.Parallel()

	_, err := database.Open(context.Background(), database.Config{Type: "mysql", DSN: "x", Tables: dirtar.Tables{Archives: "a"}})
	assert.ErrorContains(t, err, "unsupported database type")
}
