package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/dirtar/metrics"
)

// Request classes recorded for requests that never reach the resolver.
const (
	classRejected = "rejected"
	classInvalid  = "invalid"
	classInternal = "internal"
)

const methodNotSupported = "Only GET requests are supported"

type classKey struct{}

// classHolder is shared between the observing middlewares and the handler
// that learns the request class.
type classHolder struct {
	class string
}

func withClassHolder(r *http.Request) (*http.Request, *classHolder) {
	if h, ok := r.Context().Value(classKey{}).(*classHolder); ok {
		return r, h
	}
	h := &classHolder{}
	return r.WithContext(context.WithValue(r.Context(), classKey{}, h)), h
}

func setRequestClass(ctx context.Context, class string) {
	if h, ok := ctx.Value(classKey{}).(*classHolder); ok {
		h.class = class
	}
}

// RequireGET rejects every method other than GET with a plain text 400
// before any handler runs.
func RequireGET(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			setRequestClass(r.Context(), classRejected)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, methodNotSupported)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request with its class, status, size and
// duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, holder := withClassHolder(r)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"class", holder.class,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Metrics counts requests by class and status code.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, holder := withClassHolder(r)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveRequest(holder.class, status)
	})
}
