package dirtar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ArchiveRepo defines the interface for the scratch registry: every archive
// written to scratch storage is recorded so leftovers from crashed or
// interrupted requests can be removed later.
//
// Implementations must handle concurrent access safely.
type ArchiveRepo interface {
	// Create records a freshly built archive.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - rec: The archive record; ID must be unique
	//
	// Returns:
	//   - error: Any database or validation error
	Create(ctx context.Context, rec ArchiveRecord) error

	// MarkCleanedUp marks an archive as removed from scratch storage.
	//
	// Returns:
	//   - error: ErrNotFound if the record doesn't exist or is already cleaned up
	MarkCleanedUp(ctx context.Context, id uuid.UUID) error

	// ListPendingCleanup returns records that are not cleaned up yet and were
	// created before q.Before, oldest first, paginated with an opaque cursor.
	ListPendingCleanup(ctx context.Context, q PendingQuery) (PendingResult, error)
}

// FileStorage defines sandboxed, read-only access to the served directory tree.
// Every path is slash separated and relative to the root ("" is the root).
// Implementations must refuse to leave the root, including through symlinks.
type FileStorage interface {
	// Name returns the name of the root directory.
	Name() string

	// Stat returns file info, following symlinks that stay inside the root.
	// Returns ErrNotFound if the path does not exist or cannot be reached.
	Stat(ctx context.Context, rel string) (fs.FileInfo, error)

	// ReadDir lists the immediate children of a directory sorted by name.
	ReadDir(ctx context.Context, rel string) ([]Entry, error)

	// Open opens a regular file for reading. The caller must close it.
	Open(ctx context.Context, rel string) (fs.FileInfo, io.ReadCloser, error)

	// FS exposes the root as an fs.FS for tree walks.
	FS() fs.FS
}

// Archiver builds tar archives into scratch storage.
type Archiver interface {
	// Build packs every regular file below dir (slash separated, "." for the
	// root of fsys) into a new scratch file named after base.
	Build(ctx context.Context, fsys fs.FS, dir, base string) (Archive, error)

	// Open opens a built archive for reading.
	Open(a Archive) (io.ReadCloser, error)

	// Remove deletes the scratch file of an archive. Missing files are not an error.
	Remove(a Archive) error
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	CleanupTimeout time.Duration // Timeout for releasing scratch archives (default: 30s)
}

type Service struct {
	storage        FileStorage
	archiver       Archiver
	repo           ArchiveRepo
	cleanupTimeout time.Duration
}

func NewService(storage FileStorage, archiver Archiver, repo ArchiveRepo, cfg ServiceConfig) (*Service, error) {
	if storage == nil {
		return nil, errors.New("new service: storage is required")
	}
	if archiver == nil {
		return nil, errors.New("new service: archiver is required")
	}
	if repo == nil {
		return nil, errors.New("new service: archive repo is required")
	}
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	return &Service{
		storage:        storage,
		archiver:       archiver,
		repo:           repo,
		cleanupTimeout: cleanupTimeout,
	}, nil
}

// Resolve classifies a request URL.
//
// Archive requests are recognised from the URL alone (see ParseTarget) and
// then checked to name a directory. Other requests are classified by a stat
// of the target: directories are listings and everything else is a file.
//
// Error types returned:
//   - ErrInvalidInput: the path tries to leave the root
//   - ErrNotFound: the path does not exist
//   - ErrNotDirectory: an archive was requested for a file
func (s *Service) Resolve(ctx context.Context, u *url.URL) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, fmt.Errorf("resolve: %w", err)
	}

	target, err := ParseTarget(u)
	if err != nil {
		return Request{}, fmt.Errorf("resolve: %w", err)
	}

	info, err := s.storage.Stat(ctx, target.Rel)
	if err != nil {
		return Request{}, fmt.Errorf("resolve %q: %w", target.Rel, err)
	}

	path := ResolvedPath{Rel: target.Rel, Web: WebPath(target.Rel, info.IsDir())}

	switch {
	case target.Archive && !info.IsDir():
		return Request{}, fmt.Errorf("resolve %q: %w", target.Rel, ErrNotDirectory)
	case target.Archive:
		return Request{Kind: KindArchive, Path: path}, nil
	case info.IsDir():
		return Request{Kind: KindDirectory, Path: path}, nil
	default:
		return Request{Kind: KindFile, Path: path}, nil
	}
}

// List returns the immediate children of a directory.
func (s *Service) List(ctx context.Context, p ResolvedPath) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, fmt.Errorf("list %q: %w", p.Rel, err)
	}

	entries, err := s.storage.ReadDir(ctx, p.Rel)
	if err != nil {
		return Listing{}, fmt.Errorf("list %q: %w", p.Rel, err)
	}

	return Listing{Path: p, Entries: entries}, nil
}

// Open opens a regular file. The caller is responsible for closing the reader.
func (s *Service) Open(ctx context.Context, p ResolvedPath) (FileInfo, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, nil, fmt.Errorf("open %q: %w", p.Rel, err)
	}

	info, content, err := s.storage.Open(ctx, p.Rel)
	if err != nil {
		return FileInfo{}, nil, fmt.Errorf("open %q: %w", p.Rel, err)
	}

	return NewFileInfo(info), content, nil
}

// BuildArchive packs the directory p into a request-scoped scratch file,
// records it in the registry, and opens it for reading.
//
// Closing the returned reader removes the scratch file and marks the record
// as cleaned up. Cleanup uses a background context bounded by the configured
// cleanup timeout so it completes even if ctx was cancelled mid-stream.
//
// If the registry write fails the scratch file is removed before returning.
func (s *Service) BuildArchive(ctx context.Context, p ResolvedPath) (Archive, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return Archive{}, nil, fmt.Errorf("build archive %q: %w", p.Rel, err)
	}

	base := ArchiveBaseName(p.Rel, s.storage.Name())

	a, err := s.archiver.Build(ctx, s.storage.FS(), p.FSPath(), base)
	if err != nil {
		return Archive{}, nil, fmt.Errorf("build archive %q: %w", p.Rel, err)
	}
	a.Dir = p.Rel

	if err := s.repo.Create(ctx, RecordFromArchive(a)); err != nil {
		if rmErr := s.archiver.Remove(a); rmErr != nil {
			return Archive{}, nil, fmt.Errorf("build archive %q: record failed (%w) and cleanup failed: %w", p.Rel, err, rmErr)
		}
		return Archive{}, nil, fmt.Errorf("build archive %q: record failed: %w", p.Rel, err)
	}

	content, err := s.archiver.Open(a)
	if err != nil {
		s.release(a)
		return Archive{}, nil, fmt.Errorf("build archive %q: %w", p.Rel, err)
	}

	return a, &scratchReader{ReadCloser: content, release: func() { s.release(a) }}, nil
}

// release removes the scratch file and marks its record cleaned up.
// Failures are logged; the next Cleanup pass picks the record up again.
func (s *Service) release(a Archive) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
	defer cancel()

	if err := s.archiver.Remove(a); err != nil {
		slog.Warn("failed to remove scratch archive", "id", a.ID, "path", a.Path, "err", err)
		return
	}

	if err := s.repo.MarkCleanedUp(ctx, a.ID); err != nil {
		slog.Warn("failed to mark scratch archive cleaned up", "id", a.ID, "err", err)
	}
}

// Cleanup removes scratch archives created before the given time that were
// never released, and marks them as cleaned up. It paginates until no pending
// records remain.
//
// A scratch file that is already gone still gets marked, which handles a
// previous release that deleted the file but failed to update the registry.
//
// Returns the number of records cleaned up.
func (s *Service) Cleanup(ctx context.Context, before time.Time, limit int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}

	if limit <= 0 {
		limit = 100
	}

	totalCleaned := 0
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return totalCleaned, fmt.Errorf("cleanup: %w", err)
		}

		result, listErr := s.repo.ListPendingCleanup(ctx, PendingQuery{Before: before, Limit: limit, Cursor: cursor})
		if listErr != nil {
			return totalCleaned, fmt.Errorf("cleanup: %w", listErr)
		}

		if len(result.Items) == 0 {
			break
		}

		for _, rec := range result.Items {
			if err := s.archiver.Remove(Archive{ID: rec.ID, Path: rec.ScratchPath}); err != nil {
				return totalCleaned, fmt.Errorf("cleanup '%s': %w", rec.ScratchPath, err)
			}

			if err := s.repo.MarkCleanedUp(ctx, rec.ID); err != nil && !errors.Is(err, ErrNotFound) {
				return totalCleaned, fmt.Errorf("cleanup '%s': %w", rec.ScratchPath, err)
			}

			totalCleaned++
		}

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return totalCleaned, nil
}

// scratchReader releases its scratch archive exactly once on Close.
type scratchReader struct {
	io.ReadCloser
	release func()
	once    sync.Once
}

func (r *scratchReader) Close() error {
	err := r.ReadCloser.Close()
	r.once.Do(r.release)
	return err
}
