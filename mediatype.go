package dirtar

import (
	"path/filepath"
	"strings"
)

// mediaTypes is the fixed extension table used for Content-Type. Extensions
// outside the table get no Content-Type at all.
var mediaTypes = map[string]string{
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
	".json": "application/json",
	".map":  "application/json",
	".txt":  "text/plain",
	".ts":   "text/typescript",
	".tsx":  "text/tsx",
	".js":   "application/javascript",
	".jsx":  "text/jsx",
	".gz":   "application/gzip",
	".css":  "text/css",
	".wasm": "application/wasm",
	".mjs":  "application/javascript",
}

// MediaType returns the media type for name based on its extension,
// or "" when the extension is unknown.
func MediaType(name string) string {
	return mediaTypes[strings.ToLower(filepath.Ext(name))]
}

// MediaTypes returns a copy of the extension table.
func MediaTypes() map[string]string {
	out := make(map[string]string, len(mediaTypes))
	for ext, mt := range mediaTypes {
		out[ext] = mt
	}
	return out
}
