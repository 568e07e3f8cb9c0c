package clientcli

import "time"

// ListOptions configures a list operation.
type ListOptions struct {
	Path string // remote directory; empty is the root
}

// ListResult is the listing of one remote directory.
type ListResult struct {
	Path    string      `json:"path"`
	Parent  string      `json:"parent,omitempty"`
	Entries []EntryInfo `json:"entries"`
}

// EntryInfo describes one child of a remote directory.
type EntryInfo struct {
	Name    string    `json:"name"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// ProgressFunc is called as archive bytes arrive. total is -1 when the server
// did not announce a length.
type ProgressFunc func(done, total int64)

// GetOptions configures an archive download.
type GetOptions struct {
	RemotePath string
	LocalPath  string // empty = <name>.tar in the working directory, "-" = stdout
	ExtractTo  string // when set, unpack into this directory instead of saving the tar
	Progress   ProgressFunc
}

// GetResult describes a finished archive download.
type GetResult struct {
	RemotePath string `json:"remote_path"`
	LocalPath  string `json:"local_path,omitempty"`
	ExtractTo  string `json:"extracted_to,omitempty"`
	Name       string `json:"name"`
	Size       int64  `json:"size_bytes"`
	Files      int    `json:"files,omitempty"`
}

// TotalSize returns the combined size of all files in the listing.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, e := range r.Entries {
		if !e.IsDir {
			total += e.Size
		}
	}
	return total
}
