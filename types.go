package dirtar

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// RequestKind classifies a resolved request.
type RequestKind string

const (
	KindArchive   RequestKind = "archive"
	KindDirectory RequestKind = "directory"
	KindFile      RequestKind = "file"
)

func (k RequestKind) IsValid() bool {
	switch k {
	case KindArchive, KindDirectory, KindFile:
		return true
	default:
		return false
	}
}

// ResolvedPath locates one request target under the server root.
// Rel is slash separated and relative to the root; "" is the root itself.
// Web is the canonical web path: it always starts with "/" and directories
// always end with "/".
type ResolvedPath struct {
	Rel string
	Web string
}

// Local returns the OS path of the target relative to the root.
func (p ResolvedPath) Local() string {
	if p.Rel == "" {
		return "."
	}
	return filepath.FromSlash(p.Rel)
}

// FSPath returns the target as an io/fs path ("." for the root).
func (p ResolvedPath) FSPath() string {
	if p.Rel == "" {
		return "."
	}
	return p.Rel
}

// IsRoot reports whether the path is the configured root.
func (p ResolvedPath) IsRoot() bool {
	return p.Rel == ""
}

// Request is the outcome of resolving a request URL.
type Request struct {
	Kind RequestKind
	Path ResolvedPath
}

// Entry is one immediate child of a directory.
type Entry struct {
	Name    string    `json:"name"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Listing is the content of one directory, sorted by name.
type Listing struct {
	Path    ResolvedPath
	Entries []Entry
}

// FileInfo describes a regular file about to be served.
type FileInfo struct {
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string // empty when the extension is not in the media table
}

// NewFileInfo builds a FileInfo from file system metadata.
func NewFileInfo(info fs.FileInfo) FileInfo {
	return FileInfo{
		Name:        info.Name(),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: MediaType(info.Name()),
	}
}

// Archive is a tar archive built into a request-scoped scratch file.
type Archive struct {
	ID        uuid.UUID
	Dir       string // relative directory that was packed
	Name      string // download file name, "<base>.tar"
	Path      string // scratch file on local disk
	Size      int64
	Entries   int
	CreatedAt time.Time
}

// ArchiveRecord is the persisted form of an Archive in the scratch registry.
type ArchiveRecord struct {
	ID          uuid.UUID `json:"id"`
	Dir         string    `json:"dir"`
	ScratchPath string    `json:"scratch_path"`
	SizeBytes   int64     `json:"size_bytes"`
	Entries     int       `json:"entries"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordFromArchive converts a built archive into its registry record.
func RecordFromArchive(a Archive) ArchiveRecord {
	return ArchiveRecord{
		ID:          a.ID,
		Dir:         a.Dir,
		ScratchPath: a.Path,
		SizeBytes:   a.Size,
		Entries:     a.Entries,
		CreatedAt:   a.CreatedAt,
	}
}

type PendingQuery struct {
	Before time.Time
	Limit  int
	Cursor string
}

type PendingResult struct {
	Items      []ArchiveRecord `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// Tables holds configurable table names for the scratch registry.
type Tables struct {
	Archives string `mapstructure:"archives"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Archives == "" {
		return errors.New("validate tables: archives table name cannot be empty")
	}

	if !IsValidTableName(t.Archives) {
		return fmt.Errorf("validate tables: invalid archives table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Archives)
	}

	return nil
}
