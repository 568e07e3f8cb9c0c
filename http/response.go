package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sagarc03/dirtar"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the error response for err. Lookup failures are client
// errors (400); anything else is an internal error (500) whose cause is only
// logged. Browsers asking for text/html get an HTML error page instead of JSON.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code, errCode, message := classifyError(err)

	if code == http.StatusInternalServerError {
		slog.Error("request error", "error", err, "path", r.URL.Path)
	} else {
		slog.Debug("request rejected", "error", err, "path", r.URL.Path)
	}

	if wantsHTML(r) {
		writeErrorPage(w, code, message)
		return
	}

	WriteError(w, code, errCode, message)
}

func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, dirtar.ErrNotFound):
		return http.StatusBadRequest, "not_found", "Path not found"
	case errors.Is(err, dirtar.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_path", "Invalid path"
	case errors.Is(err, dirtar.ErrNotDirectory):
		return http.StatusBadRequest, "not_a_directory", "Archives can only be built from directories"
	default:
		return http.StatusInternalServerError, "internal_error", "Internal server error"
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
