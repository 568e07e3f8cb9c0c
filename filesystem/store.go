// Package filesystem provides the read-only storage backend for dirtar.
// All access goes through an os.Root, so paths and symlinks that would leave
// the served directory are refused by the operating system layer.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"syscall"

	"github.com/sagarc03/dirtar"
)

// Store provides sandboxed file system access to the served directory.
type Store struct {
	root   *os.Root
	hidden hiddenSet
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
//
// hidden names slash paths relative to the root (such as a scratch directory
// that lives inside it) that are reported as missing by every method and
// left out of listings and FS walks.
func NewFileStorage(root *os.Root, hidden ...string) *Store {
	return &Store{root: root, hidden: newHiddenSet(root, hidden)}
}

// Name returns the name of the served directory as passed to os.OpenRoot.
func (s *Store) Name() string {
	return s.root.Name()
}

// FS returns the root as an fs.FS without the hidden paths.
func (s *Store) FS() fs.FS {
	if s.hidden.empty() {
		return s.root.FS()
	}
	return &hidingFS{fsys: s.root.FS(), hidden: s.hidden}
}

// Stat returns file info for rel, following symlinks that stay inside the root.
// Missing and hidden paths and attempts to escape the root are reported as
// dirtar.ErrNotFound; other I/O failures are returned wrapped.
func (s *Store) Stat(ctx context.Context, rel string) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.hidden.contains(rel) {
		return nil, dirtar.ErrNotFound
	}

	info, err := s.root.Stat(osPath(rel))
	if err != nil {
		return nil, classifyErr("stat", rel, err)
	}

	return info, nil
}

// classifyErr maps an os.Root error to dirtar.ErrNotFound when the path is
// missing or unreachable. Errors that carry an errno, such as EACCES or EIO,
// are real I/O failures and are returned wrapped.
func classifyErr(op, rel string, err error) error {
	var errno syscall.Errno
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.ELOOP):
		return dirtar.ErrNotFound
	case errors.As(err, &errno):
		return fmt.Errorf("%s %q: %w", op, rel, err)
	default:
		// os.Root reports paths escaping the root without an errno.
		slog.Debug("path rejected by root", "op", op, "path", rel, "err", err)
		return dirtar.ErrNotFound
	}
}

// ReadDir lists the immediate children of rel sorted by name.
// Symlinks are reported with the type of their target when the target is
// reachable inside the root, and as the link itself otherwise.
func (s *Store) ReadDir(ctx context.Context, rel string) ([]dirtar.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.hidden.contains(rel) {
		return nil, dirtar.ErrNotFound
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), fsPath(rel))
	if err != nil {
		return nil, classifyErr("read dir", rel, err)
	}

	entries := make([]dirtar.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if s.hidden.contains(path.Join(rel, de.Name())) {
			continue
		}

		info, err := s.entryInfo(rel, de)
		if err != nil {
			slog.Debug("skipping unreadable entry", "dir", rel, "name", de.Name(), "err", err)
			continue
		}

		entries = append(entries, dirtar.Entry{
			Name:    de.Name(),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return entries, nil
}

func (s *Store) entryInfo(dir string, de fs.DirEntry) (fs.FileInfo, error) {
	info, err := de.Info()
	if err != nil {
		return nil, err
	}

	if de.Type()&fs.ModeSymlink == 0 {
		return info, nil
	}

	target, err := s.root.Stat(osPath(path.Join(dir, de.Name())))
	if err != nil {
		return info, nil
	}
	return target, nil
}

// Open opens a regular file for reading. Reads fail once ctx is cancelled.
// Returns dirtar.ErrNotFound if the file does not exist. Directories are
// rejected with dirtar.ErrInvalidInput.
func (s *Store) Open(ctx context.Context, rel string) (fs.FileInfo, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if s.hidden.contains(rel) {
		return nil, nil, dirtar.ErrNotFound
	}

	f, err := s.root.Open(osPath(rel))
	if err != nil {
		return nil, nil, classifyErr("open", rel, err)
	}

	info, err := f.Stat()
	if err != nil {
		closeFile(f, rel)
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.IsDir() {
		closeFile(f, rel)
		return nil, nil, fmt.Errorf("open %q: %w", rel, dirtar.ErrInvalidInput)
	}

	return info, &fileReader{ctxReader: ctxReader{ctx: ctx, r: f}, f: f}, nil
}

func closeFile(f *os.File, rel string) {
	if err := f.Close(); err != nil {
		slog.Warn("failed to close file", "path", rel, "err", err)
	}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

type fileReader struct {
	ctxReader
	f *os.File
}

func (r *fileReader) Close() error {
	return r.f.Close()
}

func osPath(rel string) string {
	if rel == "" {
		return "."
	}
	return filepath.FromSlash(rel)
}

func fsPath(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}
