package dirtar

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// ArchiveRoutePrefix is the dedicated route for archive downloads.
	ArchiveRoutePrefix = "/-/archive/"
	// ArchiveSuffix marks an archive download when combined with DownloadParam.
	ArchiveSuffix = ".tar"
	// DownloadParam is the query key that turns "<dir>.tar" into an archive request.
	DownloadParam = "download"
)

// Target is a request URL parsed without touching the file system.
type Target struct {
	Rel     string
	Archive bool
}

// ParseTarget parses a request URL into a relative path and reports whether
// it asks for an archive. Archive requests are recognised by query key or route
// prefix, never by sniffing the raw URL, so a real file named "x.tar" is still
// served as a file unless "?download" is present.
func ParseTarget(u *url.URL) (Target, error) {
	p := u.Path
	archive := false

	switch {
	case p+"/" == ArchiveRoutePrefix || strings.HasPrefix(p, ArchiveRoutePrefix):
		p = strings.TrimPrefix(p, strings.TrimSuffix(ArchiveRoutePrefix, "/"))
		archive = true
	case u.Query().Has(DownloadParam) && strings.HasSuffix(p, ArchiveSuffix):
		p = strings.TrimSuffix(p, ArchiveSuffix)
		archive = true
	}

	rel, err := CleanRelPath(p)
	if err != nil {
		return Target{}, fmt.Errorf("parse target %q: %w", u.Path, err)
	}

	return Target{Rel: rel, Archive: archive}, nil
}
