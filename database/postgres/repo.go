package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/database/internal"
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *repo) Create(ctx context.Context, rec dirtar.ArchiveRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, dir, scratch_path, size_bytes, entries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.table())

	_, err := r.pool.Exec(ctx, query, rec.ID, rec.Dir, rec.ScratchPath, rec.SizeBytes, rec.Entries, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	return nil
}

func (r *repo) MarkCleanedUp(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET cleaned_up_at = NOW()
		WHERE id = $1 AND cleaned_up_at IS NULL
	`, r.table())

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark cleaned up: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mark cleaned up: %w", dirtar.ErrNotFound)
	}

	return nil
}

func (r *repo) ListPendingCleanup(ctx context.Context, q dirtar.PendingQuery) (dirtar.PendingResult, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return dirtar.PendingResult{}, fmt.Errorf("list pending cleanup: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	before := q.Before
	if before.IsZero() {
		before = time.Now()
	}

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT id, dir, scratch_path, size_bytes, entries, created_at
			FROM %s
			WHERE cleaned_up_at IS NULL AND created_at < $1
			ORDER BY created_at, id
			LIMIT $2
		`, r.table())
		args = []any{before.UTC(), limit + 1}
	} else {
		cursorID, parseErr := uuid.Parse(cursor.ID)
		if parseErr != nil {
			return dirtar.PendingResult{}, fmt.Errorf("list pending cleanup: invalid cursor id: %w", parseErr)
		}
		query = fmt.Sprintf(`
			SELECT id, dir, scratch_path, size_bytes, entries, created_at
			FROM %s
			WHERE cleaned_up_at IS NULL AND created_at < $1 AND (created_at, id) > ($2, $3)
			ORDER BY created_at, id
			LIMIT $4
		`, r.table())
		args = []any{before.UTC(), cursor.CreatedAt.UTC(), cursorID, limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return dirtar.PendingResult{}, fmt.Errorf("list pending cleanup: %w", err)
	}
	defer rows.Close()

	items := make([]dirtar.ArchiveRecord, 0, limit)
	for rows.Next() {
		var rec dirtar.ArchiveRecord
		if scanErr := rows.Scan(&rec.ID, &rec.Dir, &rec.ScratchPath, &rec.SizeBytes, &rec.Entries, &rec.CreatedAt); scanErr != nil {
			return dirtar.PendingResult{}, fmt.Errorf("list pending cleanup: scan: %w", scanErr)
		}
		items = append(items, rec)
	}

	if err := rows.Err(); err != nil {
		return dirtar.PendingResult{}, fmt.Errorf("list pending cleanup: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		// Cursor points to the last item of the current page
		lastItem := items[limit-1]
		nextCursor = internal.EncodeCursor(lastItem.CreatedAt, lastItem.ID.String())
		items = items[:limit]
	}

	return dirtar.PendingResult{Items: items, NextCursor: nextCursor}, nil
}
