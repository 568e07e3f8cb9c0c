package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/database/internal"
)

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Create(ctx context.Context, rec dirtar.ArchiveRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, dir, scratch_path, size_bytes, entries, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName))

	_, err := r.db.ExecContext(ctx, query,
		rec.ID.String(), rec.Dir, rec.ScratchPath, rec.SizeBytes, rec.Entries, internal.FormatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	return nil
}

func (r *repo) MarkCleanedUp(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET cleaned_up_at = ?
		WHERE id = ? AND cleaned_up_at IS NULL`, quoteIdentifier(r.tableName))

	result, err := r.db.ExecContext(ctx, query, internal.FormatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("mark cleaned up: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark cleaned up: rows affected: %w", err)
	}

	if rowsAffected == 0 {
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
			WHERE cleaned_up_at IS NULL AND created_at < ?
			ORDER BY created_at, id
			LIMIT ?
		`, quoteIdentifier(r.tableName))
		args = []any{internal.FormatTime(before), limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, dir, scratch_path, size_bytes, entries, created_at
			FROM %s
			WHERE cleaned_up_at IS NULL AND created_at < ? AND (created_at, id) > (?, ?)
			ORDER BY created_at, id
			LIMIT ?
		`, quoteIdentifier(r.tableName))
		args = []any{internal.FormatTime(before), internal.FormatTime(cursor.CreatedAt), cursor.ID, limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return dirtar.PendingResult{}, fmt.Errorf("list pending cleanup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]dirtar.ArchiveRecord, 0, limit)
	for rows.Next() {
		var rec dirtar.ArchiveRecord
		var idStr, createdAt string

		if scanErr := rows.Scan(&idStr, &rec.Dir, &rec.ScratchPath, &rec.SizeBytes, &rec.Entries, &createdAt); scanErr != nil {
			return dirtar.PendingResult{}, fmt.Errorf("list pending cleanup: scan: %w", scanErr)
		}

		var parseErr error
		rec.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return dirtar.PendingResult{}, fmt.Errorf("list pending cleanup: parse uuid: %w", parseErr)
		}

		rec.CreatedAt, parseErr = internal.ParseTime(createdAt)
		if parseErr != nil {
			return dirtar.PendingResult{}, fmt.Errorf("list pending cleanup: parse created_at: %w", parseErr)
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
