package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"
)

// Write packs every regular file below dir into a tar stream on w and
// returns the number of entries written. dir is a slash path in fsys, "."
// for its root. Any read error or cancellation of ctx aborts the stream.
func Write(ctx context.Context, w io.Writer, fsys fs.FS, dir string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	dir = path.Clean(dir)
	tw := tar.NewWriter(w)
	entries := 0

	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			slog.Debug("skipping non-regular file", "path", p, "type", d.Type().String())
			return nil
		}

		name := entryName(dir, p)
		if err := writeFile(ctx, tw, fsys, p, name); err != nil {
			if errors.Is(err, errVanished) {
				slog.Debug("skipping file removed during walk", "path", p)
				return nil
			}
			return err
		}
		entries++
		return nil
	})
	if err != nil {
		return entries, fmt.Errorf("write archive %q: %w", dir, err)
	}

	if err := tw.Close(); err != nil {
		return entries, fmt.Errorf("write archive %q: %w", dir, err)
	}

	return entries, nil
}

func writeFile(ctx context.Context, tw *tar.Writer, fsys fs.FS, p, name string) error {
	f, err := fsys.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errVanished
		}
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", p, "err", closeErr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", p, errNotRegular)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""
	hdr.AccessTime, hdr.ChangeTime = time.Time{}, time.Time{}

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	if _, err := io.CopyN(tw, &ctxReader{ctx: ctx, r: f}, hdr.Size); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}

	return nil
}

var (
	errNotRegular = errors.New("not a regular file")
	// errVanished marks a file listed by the walk that was gone by the time
	// it was opened. Nothing has been written for it yet.
	errVanished = errors.New("file vanished")
)

func entryName(dir, p string) string {
	if dir == "." {
		return p
	}
	return strings.TrimPrefix(p, dir+"/")
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
