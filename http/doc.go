// Package http provides the HTTP front end of dirtar.
//
// A single GET route resolves every path against the served directory and
// answers with one of three responses:
//
//   - Directory: an HTML listing spliced into the index shell, or JSON when
//     the client asks for it with ?format=json or Accept: application/json
//   - File: the raw bytes with Content-Length and a Content-Type taken from a
//     fixed extension table (no sniffing)
//   - Archive: a tar of the directory, built to a scratch file first so
//     Content-Length is exact, sent as an attachment
//
// Archives are requested with /<dir>.tar?download or /-/archive/<dir>.
// Every other method is rejected with 400 before the filesystem is touched.
//
// # Errors
//
// Lookup failures (missing path, traversal attempts, archive of a file) are
// 400 responses. Anything else is a 500 whose cause is logged but not sent.
// Bodies are JSON {"error","message"}, or a small HTML page when the client
// accepts text/html.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    CORS:    http.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
//	    Metrics: true,
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	http.ListenAndServe(":8080", handler.Router())
//
// Paths under /-/ are reserved: /-/healthz, /-/assets/ (embedded JS and CSS
// used by the listing page), /-/metrics and /-/archive/.
package http
