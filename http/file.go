package http

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sagarc03/dirtar"
)

// serveFile streams a regular file. Content-Type comes from the fixed media
// table only; for unknown extensions the header is left out and net/http is
// kept from sniffing one.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, p dirtar.ResolvedPath) {
	info, content, err := h.service.Open(r.Context(), p)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	defer func() {
		if closeErr := content.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", p.Rel, "err", closeErr)
		}
	}()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	} else {
		w.Header()["Content-Type"] = nil
	}
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		slog.Debug("file stream interrupted", "path", p.Rel, "err", err)
	}
}
