package dirtar_test

import (
	"testing"

	"github.com/sagarc03/dirtar"
	"github.com/stretchr/testify/assert"
)

func TestMediaType(t *testing.T) {
	for ext, want := range dirtar.MediaTypes() {
		t.Run(ext, func(t *testing.T) {
			assert.Equal(t, want, dirtar.MediaType("file"+ext))
		})
	}
}

func TestMediaType_Table(t *testing.T) {
	tests := map[string]string{
		"README.md":   "text/markdown",
		"index.html":  "text/html",
		"old.htm":     "text/html",
		"data.json":   "application/json",
		"app.js.map":  "application/json",
		"notes.txt":   "text/plain",
		"app.js":      "application/javascript",
		"mod.mjs":     "application/javascript",
		"style.css":   "text/css",
		"dump.gz":     "application/gzip",
		"main.wasm":   "application/wasm",
		"UPPER.TXT":   "text/plain",
		"photo.jpeg":  "",
		"archive.tar": "",
		"Makefile":    "",
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, dirtar.MediaType(name))
		})
	}
}

func TestMediaTypes_ReturnsCopy(t *testing.T) {
	table := dirtar.MediaTypes()
	table[".txt"] = "changed"

	assert.Equal(t, "text/plain", dirtar.MediaType("a.txt"))
}
