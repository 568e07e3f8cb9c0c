package http

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/sagarc03/dirtar"
)

// serveArchive builds the archive of a directory and streams it as an
// attachment. The scratch file is released when the body reader is closed,
// whether or not the copy completed.
func (h *Handler) serveArchive(w http.ResponseWriter, r *http.Request, p dirtar.ResolvedPath) {
	a, content, err := h.service.BuildArchive(r.Context(), p)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	defer func() {
		if closeErr := content.Close(); closeErr != nil {
			slog.Warn("failed to close archive", "id", a.ID, "err", closeErr)
		}
	}()

	w.Header().Set("Content-Type", "application/x-tar")
	w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
	w.Header().Set("Content-Disposition", contentDisposition(a.Name))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, content)
	if err != nil {
		slog.Warn("archive stream interrupted", "id", a.ID, "dir", a.Dir, "sent", n, "size", a.Size, "err", err)
		return
	}

	slog.Debug("archive sent", "id", a.ID, "dir", a.Dir, "entries", a.Entries, "size", a.Size)
}

// contentDisposition returns an attachment header for name, quoting plain
// ASCII names directly and falling back to RFC 2231 encoding otherwise.
func contentDisposition(name string) string {
	for _, c := range name {
		if c < 0x20 || c > 0x7e || c == '"' || c == '\\' {
			return mime.FormatMediaType("attachment", map[string]string{"filename": name})
		}
	}
	return fmt.Sprintf(`attachment; filename="%s"`, name)
}
