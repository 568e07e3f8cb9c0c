package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// hiddenSet holds paths under the root that must not be served.
// Directories are also matched through symlinks that alias them.
type hiddenSet struct {
	root  *os.Root
	paths []string
	infos []fs.FileInfo
}

func newHiddenSet(root *os.Root, hidden []string) hiddenSet {
	set := hiddenSet{root: root}
	for _, h := range hidden {
		p := path.Clean(filepath.ToSlash(h))
		if p == "." || p == ".." || strings.HasPrefix(p, "../") || path.IsAbs(p) {
			continue
		}
		set.paths = append(set.paths, p)
		if info, err := root.Stat(osPath(p)); err == nil {
			set.infos = append(set.infos, info)
		}
	}
	return set
}

func (h hiddenSet) empty() bool {
	return len(h.paths) == 0
}

// contains reports whether rel is a hidden path, lies below one, or reaches
// one through a symlink.
func (h hiddenSet) contains(rel string) bool {
	if h.empty() {
		return false
	}

	rel = path.Clean(fsPath(rel))
	if rel == "." {
		return false
	}
	if h.matchLexical(rel) {
		return true
	}
	if len(h.infos) == 0 {
		return false
	}

	prefix := ""
	for _, part := range strings.Split(rel, "/") {
		prefix = path.Join(prefix, part)
		info, err := h.root.Stat(osPath(prefix))
		if err != nil {
			return false
		}
		for _, hi := range h.infos {
			if os.SameFile(info, hi) {
				return true
			}
		}
	}
	return false
}

func (h hiddenSet) matchLexical(rel string) bool {
	for _, p := range h.paths {
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

// hidingFS is an fs.FS that reports hidden paths as missing and leaves them
// out of directory listings, so fs.WalkDir never descends into them.
type hidingFS struct {
	fsys   fs.FS
	hidden hiddenSet
}

func (f *hidingFS) Open(name string) (fs.File, error) {
	if f.hidden.matchLexical(path.Clean(name)) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return f.fsys.Open(name)
}

func (f *hidingFS) Stat(name string) (fs.FileInfo, error) {
	if f.hidden.matchLexical(path.Clean(name)) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return fs.Stat(f.fsys, name)
}

func (f *hidingFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if f.hidden.matchLexical(path.Clean(name)) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}

	entries, err := fs.ReadDir(f.fsys, name)
	if err != nil {
		return nil, err
	}

	kept := entries[:0]
	for _, e := range entries {
		if !f.hidden.matchLexical(path.Join(name, e.Name())) {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// Within reports where target lies relative to root. Both are resolved to
// absolute paths with symlinks evaluated as far as they exist. When target
// is root itself or below it, rel is its slash path relative to root ("."
// for root) and inside is true.
func Within(root, target string) (rel string, inside bool, err error) {
	rootAbs, err := resolvePath(root)
	if err != nil {
		return "", false, fmt.Errorf("resolve %s: %w", root, err)
	}
	targetAbs, err := resolvePath(target)
	if err != nil {
		return "", false, fmt.Errorf("resolve %s: %w", target, err)
	}

	r, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return "", false, nil //nolint:nilerr // different volumes cannot nest
	}
	r = filepath.ToSlash(r)
	if r == ".." || strings.HasPrefix(r, "../") {
		return "", false, nil
	}
	return r, true, nil
}

// resolvePath returns the absolute form of p with symlinks evaluated on the
// longest existing prefix, so paths that do not exist yet still resolve.
func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	var missing []string
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		missing = append([]string{filepath.Base(cur)}, missing...)
		cur = parent
	}
}
