package http

import (
	"html/template"
	"log/slog"
	"net/http"
)

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Code}} {{.Status}}</title></head>
<body>
<center><h1>{{.Code}} {{.Status}}</h1></center>
<center><p>{{.Message}}</p></center>
<hr><center>dirtar</center>
</body>
</html>
`))

func writeErrorPage(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	err := errorPage.Execute(w, struct {
		Code    int
		Status  string
		Message string
	}{code, http.StatusText(code), message})
	if err != nil {
		slog.Error("failed to render error page", "error", err)
	}
}
