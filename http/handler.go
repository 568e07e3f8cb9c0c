package http

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/metrics"
)

type Service interface {
	Resolve(ctx context.Context, u *url.URL) (dirtar.Request, error)
	List(ctx context.Context, p dirtar.ResolvedPath) (dirtar.Listing, error)
	Open(ctx context.Context, p dirtar.ResolvedPath) (dirtar.FileInfo, io.ReadCloser, error)
	BuildArchive(ctx context.Context, p dirtar.ResolvedPath) (dirtar.Archive, io.ReadCloser, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	IndexHTML string // Listing shell; the embedded index.html when empty
	CORS      CORSConfig
	Metrics   bool // Serve /-/metrics
}

// Handler serves directory listings, files and directory archives.
type Handler struct {
	config    HandlerConfig
	service   Service
	indexHTML string
	assets    http.Handler
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	indexHTML := config.IndexHTML
	if indexHTML == "" {
		indexHTML = DefaultIndexHTML()
	}
	return &Handler{
		config:    *config,
		service:   service,
		indexHTML: indexHTML,
		assets:    assetsHandler(),
	}
}

// Router returns an http.Handler with all routes configured.
//
// Routes under /-/ are reserved for the server itself; every other path is
// resolved against the served directory. Archives are requested with either
// /<dir>.tar?download or /-/archive/<dir>.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	if h.config.Metrics {
		r.Use(Metrics)
	}
	r.Use(RequireGET)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/-/healthz", h.handleHealth)
	r.Get(AssetsPrefix+"*", h.handleAssets)
	if h.config.Metrics {
		r.Get("/-/metrics", h.handleMetrics)
	}
	r.Get("/*", h.handleGet)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	setRequestClass(r.Context(), classInternal)
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAssets(w http.ResponseWriter, r *http.Request) {
	setRequestClass(r.Context(), classInternal)
	h.assets.ServeHTTP(w, r)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	setRequestClass(r.Context(), classInternal)
	metrics.Handler().ServeHTTP(w, r)
}

// handleGet classifies the request and hands it to the matching responder.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.Resolve(r.Context(), r.URL)
	if err != nil {
		setRequestClass(r.Context(), classInvalid)
		HandleError(w, r, err)
		return
	}

	setRequestClass(r.Context(), string(req.Kind))

	switch req.Kind {
	case dirtar.KindArchive:
		h.serveArchive(w, r, req.Path)
	case dirtar.KindDirectory:
		h.serveListing(w, r, req.Path)
	default:
		h.serveFile(w, r, req.Path)
	}
}
