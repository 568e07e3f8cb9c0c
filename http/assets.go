package http

import (
	"embed"
	"io/fs"
	"net/http"
)

// AssetsPrefix is the route under which the embedded JS and CSS are served.
const AssetsPrefix = "/-/assets/"

//go:embed assets/index.html assets/download.js assets/style.css
var embeddedAssets embed.FS

// DefaultIndexHTML returns the embedded listing shell.
func DefaultIndexHTML() string {
	b, err := fs.ReadFile(embeddedAssets, "assets/index.html")
	if err != nil {
		panic("embedded index.html missing: " + err.Error())
	}
	return string(b)
}

func assetsHandler() http.Handler {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		panic("embedded assets missing: " + err.Error())
	}
	return http.StripPrefix(AssetsPrefix, http.FileServerFS(sub))
}
