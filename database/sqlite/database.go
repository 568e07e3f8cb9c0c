// Package sqlite implements the scratch registry on SQLite (modernc.org/sqlite).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sagarc03/dirtar"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables dirtar.Tables
}

// Connect opens the SQLite database at dsn, creating the parent directory of
// a plain file path if needed. Tables should be validated before calling
// Connect.
func Connect(ctx context.Context, dsn string, tables dirtar.Tables) (*database, error) {
	if err := ensureDir(dsn); err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// A single connection serialises writers and keeps :memory: databases
	// shared across the pool.
	db.SetMaxOpenConns(1)

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

func ensureDir(dsn string) error {
	file := FilePath(dsn)
	if file == "" {
		return nil
	}
	dir := filepath.Dir(file)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o750)
}

// FilePath returns the database file named by dsn, which is either a plain
// path or a "file:" URI. In-memory databases return "".
func FilePath(dsn string) string {
	if dsn == "" || dsn == ":memory:" {
		return ""
	}

	rest, isURI := strings.CutPrefix(dsn, "file:")
	if !isURI {
		return dsn
	}

	file, query, _ := strings.Cut(rest, "?")
	if file == "" || file == ":memory:" || strings.Contains(query, "mode=memory") {
		return ""
	}
	return file
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the ArchiveRepo for database operations.
func (d *database) GetRepo() dirtar.ArchiveRepo {
	return &repo{db: d.db, tableName: d.tables.Archives}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
