package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabase_MigrateAndValidate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tableName := "archives_" + getRandomString(t)
	tables := dirtar.Tables{Archives: tableName}
	t.Cleanup(func() { _ = dropTable(ctx, pool, tableName) })

	db, err := postgres.Connect(ctx, getDSN(pool), tables)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Ping(ctx))

	err = db.Validate(ctx)
	require.Error(t, err, "validate should fail before migrate")
	assert.Contains(t, err.Error(), "does not exist")

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrate is idempotent")
	assert.NoError(t, db.Validate(ctx))
}

func TestValidateSchema_MismatchedColumns(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tableName := "archives_" + getRandomString(t)
	t.Cleanup(func() { _ = dropTable(ctx, pool, tableName) })

	_, err := pool.Exec(ctx, fmt.Sprintf(
		"CREATE TABLE %s (id UUID PRIMARY KEY, dir INTEGER)",
		pgx.Identifier{tableName}.Sanitize(),
	))
	require.NoError(t, err)

	err = postgres.ValidateSchema(ctx, pool, dirtar.Tables{Archives: tableName})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
	assert.Contains(t, err.Error(), "dir: expected text, got integer")
}

func TestDropTables(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tables := dirtar.Tables{Archives: "archives_" + getRandomString(t)}

	require.NoError(t, postgres.Migrate(ctx, pool, tables))
	require.NoError(t, postgres.ValidateSchema(ctx, pool, tables))

	require.NoError(t, postgres.DropTables(ctx, pool, tables))
	assert.Error(t, postgres.ValidateSchema(ctx, pool, tables))
}

func TestConnect_InvalidDSN(t *testing.T) {
	_, err := postgres.Connect(context.Background(), "postgres://%zz", dirtar.Tables{Archives: "archives"})
	assert.Error(t, err)
}
