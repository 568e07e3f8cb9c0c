package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/database/internal"
)

func validateTableSchema(ctx context.Context, db *sql.DB, tableName string, expected map[string]internal.Column) error {
	if !dirtar.IsValidTableName(tableName) {
		return fmt.Errorf("validate table schema: invalid table name: %s", tableName)
	}

	exists, err := tableExists(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("validate table schema: %w", err)
	}
	if !exists {
		return fmt.Errorf("validate table schema: table %s does not exist", tableName)
	}

	actual, err := tableColumns(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("validate table schema: %w", err)
	}

	return internal.CompareColumns(tableName, expected, actual)
}

// tableColumns reads column types and nullability with PRAGMA table_info.
func tableColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]internal.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(tableName)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]internal.Column)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = internal.Column{Type: dataType, Nullable: notNull == 0}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return columns, nil
}

func tableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, tableName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return true, nil
}

var archivesColumns = map[string]internal.Column{
	"id":            {Type: "text"},
	"dir":           {Type: "text"},
	"scratch_path":  {Type: "text"},
	"size_bytes":    {Type: "integer"},
	"entries":       {Type: "integer"},
	"created_at":    {Type: "text"},
	"cleaned_up_at": {Type: "text", Nullable: true},
}

// ValidateSchema checks that every registry table exists with the expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables dirtar.Tables) error {
	if err := validateTableSchema(ctx, db, tables.Archives, archivesColumns); err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Archives, err)
	}
	return nil
}
