package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/metrics"
	"golang.org/x/sync/semaphore"
)

const scratchExt = ".tar"

// Options configures a Builder.
type Options struct {
	ScratchDir    string // Directory for scratch archives, created if missing
	MaxConcurrent int    // Concurrent builds (default: 4)
}

// Builder builds archives into scratch files.
type Builder struct {
	scratchDir string
	sem        *semaphore.Weighted
}

// NewBuilder creates a Builder and its scratch directory.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.ScratchDir == "" {
		return nil, errors.New("new builder: scratch dir is required")
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	if err := os.MkdirAll(opts.ScratchDir, 0o750); err != nil {
		return nil, fmt.Errorf("new builder: create scratch dir: %w", err)
	}

	return &Builder{
		scratchDir: opts.ScratchDir,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

// ScratchDir returns the directory scratch archives are written to.
func (b *Builder) ScratchDir() string {
	return b.scratchDir
}

// Build writes an archive of dir in fsys to a new scratch file named
// <base>-<uuid>.tar. Waiting for a build slot respects ctx. On failure the
// partial scratch file is removed.
func (b *Builder) Build(ctx context.Context, fsys fs.FS, dir, base string) (dirtar.Archive, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return dirtar.Archive{}, fmt.Errorf("build archive: %w", err)
	}
	defer b.sem.Release(1)

	metrics.IncArchiveInflight()
	defer metrics.DecArchiveInflight()

	start := time.Now()
	a, err := b.build(ctx, fsys, dir, base)
	metrics.ObserveArchiveBuild(buildResult(err), a.Size, time.Since(start))

	return a, err
}

func (b *Builder) build(ctx context.Context, fsys fs.FS, dir, base string) (dirtar.Archive, error) {
	id := uuid.New()
	scratchPath := filepath.Join(b.scratchDir, scratchName(base, id))

	f, err := os.OpenFile(scratchPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return dirtar.Archive{}, fmt.Errorf("build archive: could not create scratch file: %w", err)
	}

	success := false
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close scratch file", "path", scratchPath, "err", closeErr)
		}
		if !success {
			if rmErr := os.Remove(scratchPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				slog.Warn("failed to remove scratch file", "path", scratchPath, "err", rmErr)
			}
		}
	}()

	entries, err := Write(ctx, f, fsys, dir)
	if err != nil {
		return dirtar.Archive{}, fmt.Errorf("build archive: %w", err)
	}

	if err := f.Sync(); err != nil {
		return dirtar.Archive{}, fmt.Errorf("build archive: could not sync scratch file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return dirtar.Archive{}, fmt.Errorf("build archive: could not stat scratch file: %w", err)
	}

	success = true

	return dirtar.Archive{
		ID:        id,
		Name:      base + scratchExt,
		Path:      scratchPath,
		Size:      info.Size(),
		Entries:   entries,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Open opens a built archive for reading.
func (b *Builder) Open(a dirtar.Archive) (io.ReadCloser, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open archive: %w", dirtar.ErrNotFound)
		}
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return f, nil
}

// Remove deletes the scratch file of a. A missing file is not an error.
func (b *Builder) Remove(a dirtar.Archive) error {
	if a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove archive: %w", err)
	}
	return nil
}

// Sweep removes scratch files last modified before the given time.
// Only files following the scratch naming pattern are touched.
//
// Returns the number of files removed.
func (b *Builder) Sweep(ctx context.Context, before time.Time) (int, error) {
	entries, err := os.ReadDir(b.scratchDir)
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, fmt.Errorf("sweep: %w", err)
		}

		if !e.Type().IsRegular() || !isScratchName(e.Name()) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(before) {
			continue
		}

		if err := os.Remove(filepath.Join(b.scratchDir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("sweep: %w", err)
		}
		removed++
	}

	return removed, nil
}

func scratchName(base string, id uuid.UUID) string {
	return fmt.Sprintf("%s-%s%s", base, id, scratchExt)
}

// isScratchName reports whether name looks like <base>-<uuid>.tar.
func isScratchName(name string) bool {
	const idLen = 36
	if !strings.HasSuffix(name, scratchExt) {
		return false
	}
	stem := strings.TrimSuffix(name, scratchExt)
	if len(stem) < idLen+2 || stem[len(stem)-idLen-1] != '-' {
		return false
	}
	_, err := uuid.Parse(stem[len(stem)-idLen:])
	return err == nil
}

func buildResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCancelled
	default:
		return metrics.ResultError
	}
}
