package dirtar

import (
	"fmt"
	"path"
	"strings"
)

// CleanRelPath turns a request path like "/docs//sub/" into a clean,
// slash separated path relative to the root ("" means the root). It rejects:
//   - ".." segments (path traversal)
//   - null bytes
//   - backslashes, which some platforms treat as separators
//
// Errors wrap ErrInvalidInput.
func CleanRelPath(p string) (string, error) {
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("clean path: %w: null byte", ErrInvalidInput)
	}

	if strings.Contains(p, `\`) {
		return "", fmt.Errorf("clean path: %w: backslash", ErrInvalidInput)
	}

	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("clean path: %w: parent segment", ErrInvalidInput)
		}
	}

	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/"), nil
}

// WebPath returns the canonical web path for a relative path.
// Directories always carry a trailing slash.
func WebPath(rel string, dir bool) string {
	if rel == "" {
		return "/"
	}
	if dir {
		return "/" + rel + "/"
	}
	return "/" + rel
}

// ParentWebPath returns the web path of the directory containing rel.
// The root has no parent and yields "".
func ParentWebPath(rel string) string {
	if rel == "" {
		return ""
	}
	parent := path.Dir(rel)
	if parent == "." {
		return "/"
	}
	return WebPath(parent, true)
}

// ArchiveBaseName returns the base name used for an archive of rel.
// rootName names the root directory itself; it falls back to "root".
func ArchiveBaseName(rel, rootName string) string {
	if rel != "" {
		return path.Base(rel)
	}
	base := path.Base(strings.ReplaceAll(rootName, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		return "root"
	}
	return base
}
