package clientcli

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Extract unpacks a tar stream into dest and returns the number of files
// written. Only regular files and directories are created. Entries with
// absolute names or ".." segments are rejected with ErrUnsafePath, and all
// writes go through an os.Root so links already present in dest cannot
// redirect them.
func Extract(ctx context.Context, r io.Reader, dest string) (int, error) {
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	root, err := os.OpenRoot(dest)
	if err != nil {
		return 0, fmt.Errorf("open destination: %w", err)
	}
	defer func() { _ = root.Close() }()

	tr := tar.NewReader(r)
	files := 0

	for {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("read archive: %w", err)
		}

		name, err := safeEntryName(hdr.Name)
		if err != nil {
			return files, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if name == "." {
				continue
			}
			if err := mkdirAll(root, name); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := extractFile(root, name, tr, hdr.Mode); err != nil {
				return files, err
			}
			files++
		default:
			// links, devices and the like are never produced by the server
			continue
		}
	}
}

func safeEntryName(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) || strings.Contains(name, `\`) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	if path.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
		}
	}
	return path.Clean(name), nil
}

func mkdirAll(root *os.Root, name string) error {
	cur := ""
	for _, seg := range strings.Split(name, "/") {
		cur = path.Join(cur, seg)
		err := root.Mkdir(filepath.FromSlash(cur), 0o750)
		if err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create directory %s: %w", cur, err)
		}
	}
	return nil
}

func extractFile(root *os.Root, name string, r io.Reader, mode int64) error {
	if dir := path.Dir(name); dir != "." {
		if err := mkdirAll(root, dir); err != nil {
			return err
		}
	}

	perm := os.FileMode(mode).Perm() & 0o755 //nolint:gosec // G115: tar mode bits
	if perm == 0 {
		perm = 0o644
	}

	f, err := root.OpenFile(filepath.FromSlash(name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil { //nolint:gosec // G110: size bounded by the archive the user asked for
		_ = f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}

	return f.Close()
}
