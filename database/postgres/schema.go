package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/database/internal"
)

func validateTableSchema(ctx context.Context, pool *pgxpool.Pool, tableName string, expected map[string]internal.Column) error {
	if !dirtar.IsValidTableName(tableName) {
		return fmt.Errorf("validate table schema: invalid table name: %s", tableName)
	}

	exists, err := tableExists(ctx, pool, tableName)
	if err != nil {
		return fmt.Errorf("validate table schema: %w", err)
	}
	if !exists {
		return fmt.Errorf("validate table schema: table %s does not exist", tableName)
	}

	actual, err := tableColumns(ctx, pool, tableName)
	if err != nil {
		return fmt.Errorf("validate table schema: %w", err)
	}

	return internal.CompareColumns(tableName, expected, actual)
}

// tableColumns reads column types and nullability from information_schema.
func tableColumns(ctx context.Context, pool *pgxpool.Pool, tableName string) (map[string]internal.Column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1`, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	columns := make(map[string]internal.Column)
	var name, dataType, nullable string
	_, err = pgx.ForEachRow(rows, []any{&name, &dataType, &nullable}, func() error {
		columns[name] = internal.Column{Type: dataType, Nullable: nullable == "YES"}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return columns, nil
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, tableName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return exists, nil
}

var archivesColumns = map[string]internal.Column{
	"id":            {Type: "uuid"},
	"dir":           {Type: "text"},
	"scratch_path":  {Type: "text"},
	"size_bytes":    {Type: "bigint"},
	"entries":       {Type: "integer"},
	"created_at":    {Type: "timestamp with time zone"},
	"cleaned_up_at": {Type: "timestamp with time zone", Nullable: true},
}

// ValidateSchema checks that every registry table exists with the expected columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables dirtar.Tables) error {
	if err := validateTableSchema(ctx, pool, tables.Archives, archivesColumns); err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Archives, err)
	}
	return nil
}
