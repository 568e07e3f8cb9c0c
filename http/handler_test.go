package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/dirtar"
	dirtarhttp "github.com/sagarc03/dirtar/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// trackingCloser records whether Close was called
type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Resolve(ctx context.Context, u *url.URL) (dirtar.Request, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(dirtar.Request), args.Error(1)
}

func (m *MockService) List(ctx context.Context, p dirtar.ResolvedPath) (dirtar.Listing, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(dirtar.Listing), args.Error(1)
}

func (m *MockService) Open(ctx context.Context, p dirtar.ResolvedPath) (dirtar.FileInfo, io.ReadCloser, error) {
	args := m.Called(ctx, p)
	if args.Get(1) == nil {
		return args.Get(0).(dirtar.FileInfo), nil, args.Error(2)
	}
	return args.Get(0).(dirtar.FileInfo), args.Get(1).(io.ReadCloser), args.Error(2)
}

func (m *MockService) BuildArchive(ctx context.Context, p dirtar.ResolvedPath) (dirtar.Archive, io.ReadCloser, error) {
	args := m.Called(ctx, p)
	if args.Get(1) == nil {
		return args.Get(0).(dirtar.Archive), nil, args.Error(2)
	}
	return args.Get(0).(dirtar.Archive), args.Get(1).(io.ReadCloser), args.Error(2)
}

func pathIs(p string) any {
	return mock.MatchedBy(func(u *url.URL) bool { return u.Path == p })
}

func newHandler(cfg dirtarhttp.HandlerConfig) (*dirtarhttp.Handler, *MockService) {
	service := new(MockService)
	return dirtarhttp.NewHandler(&cfg, service), service
}

var docsPath = dirtar.ResolvedPath{Rel: "docs", Web: "/docs/"}

func TestHandler_NonGET_Rejected(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})

	for _, method := range []string{"POST", "PUT", "DELETE", "PATCH", "OPTIONS"} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/docs", strings.NewReader("body"))
			rec := httptest.NewRecorder()

			handler.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Only GET requests are supported", rec.Body.String())
		})
	}

	service.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestHandler_File(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})
	p := dirtar.ResolvedPath{Rel: "docs/a.txt", Web: "/docs/a.txt"}
	content := &trackingCloser{Reader: strings.NewReader("hello")}

	service.On("Resolve", mock.Anything, pathIs("/docs/a.txt")).
		Return(dirtar.Request{Kind: dirtar.KindFile, Path: p}, nil)
	service.On("Open", mock.Anything, p).
		Return(dirtar.FileInfo{Name: "a.txt", Size: 5, ContentType: "text/plain"}, content, nil)

	req := httptest.NewRequest("GET", "/docs/a.txt", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "5", rec.Header().Get("Content-Length"))
	assert.Equal(t, "hello", rec.Body.String())
	assert.Empty(t, rec.Header().Get(dirtarhttp.ListingHeader))
	assert.True(t, content.closed)
	service.AssertExpectations(t)
}

func TestHandler_File_UnknownTypeNotSniffed(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})
	p := dirtar.ResolvedPath{Rel: "page.xyz", Web: "/page.xyz"}
	body := "<html><body>looks like html</body></html>"

	service.On("Resolve", mock.Anything, pathIs("/page.xyz")).
		Return(dirtar.Request{Kind: dirtar.KindFile, Path: p}, nil)
	service.On("Open", mock.Anything, p).
		Return(dirtar.FileInfo{Name: "page.xyz", Size: int64(len(body))}, io.NopCloser(strings.NewReader(body)), nil)

	req := httptest.NewRequest("GET", "/page.xyz", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Type"))
	assert.Equal(t, body, rec.Body.String())
}

func TestHandler_File_OpenError(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})
	p := dirtar.ResolvedPath{Rel: "locked.txt", Web: "/locked.txt"}

	service.On("Resolve", mock.Anything, pathIs("/locked.txt")).
		Return(dirtar.Request{Kind: dirtar.KindFile, Path: p}, nil)
	service.On("Open", mock.Anything, p).
		Return(dirtar.FileInfo{}, nil, errors.New("permission denied"))

	req := httptest.NewRequest("GET", "/locked.txt", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestHandler_NotFound(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})

	service.On("Resolve", mock.Anything, pathIs("/missing")).
		Return(dirtar.Request{}, dirtar.ErrNotFound)

	req := httptest.NewRequest("GET", "/missing", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestHandler_InvalidPath(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})

	service.On("Resolve", mock.Anything, mock.Anything).
		Return(dirtar.Request{}, dirtar.ErrInvalidInput)

	req := httptest.NewRequest("GET", "/a/..%2f..%2fetc", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_path")
}

func TestHandler_Listing_HTML(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})

	service.On("Resolve", mock.Anything, pathIs("/docs")).
		Return(dirtar.Request{Kind: dirtar.KindDirectory, Path: docsPath}, nil)
	service.On("List", mock.Anything, docsPath).Return(dirtar.Listing{
		Path: docsPath,
		Entries: []dirtar.Entry{
			{Name: "a.txt", Size: 2048},
			{Name: "sub", IsDir: true},
		},
	}, nil)

	req := httptest.NewRequest("GET", "/docs", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "<li>"), "parent link plus one item per child")
	assert.Contains(t, body, `<a href="/">../</a>`)
	assert.Contains(t, body, `<a href="/docs/a.txt">a.txt</a>`)
	assert.Contains(t, body, `<a href="/docs/sub/">sub/</a>`)
	assert.Equal(t, 1, strings.Count(body, "<button"), "only directories get a download button")
	assert.Contains(t, body, "download(")
	assert.Contains(t, body, "2.0 kB")
	assert.Contains(t, body, "/-/assets/download.js")

	ulEnd := strings.Index(body, "</ul>")
	bodyEnd := strings.LastIndex(body, "</body>")
	assert.True(t, ulEnd >= 0 && ulEnd < bodyEnd, "listing sits inside the body")
}

func TestHandler_Listing_RootHasNoParent(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})
	root := dirtar.ResolvedPath{Rel: "", Web: "/"}

	service.On("Resolve", mock.Anything, pathIs("/")).
		Return(dirtar.Request{Kind: dirtar.KindDirectory, Path: root}, nil)
	service.On("List", mock.Anything, root).Return(dirtar.Listing{
		Path:    root,
		Entries: []dirtar.Entry{{Name: "docs", IsDir: true}},
	}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "<li>"))
	assert.NotContains(t, body, "../")
	assert.Contains(t, body, `<a href="/docs/">docs/</a>`)
}

func TestHandler_Listing_EscapesNames(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})
	root := dirtar.ResolvedPath{Rel: "", Web: "/"}

	service.On("Resolve", mock.Anything, pathIs("/")).
		Return(dirtar.Request{Kind: dirtar.KindDirectory, Path: root}, nil)
	service.On("List", mock.Anything, root).Return(dirtar.Listing{
		Path: root,
		Entries: []dirtar.Entry{
			{Name: "<b>x</b>.txt"},
			{Name: "my docs", IsDir: true},
		},
	}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.NotContains(t, body, "<b>x</b>")
	assert.Contains(t, body, "&lt;b&gt;x&lt;/b&gt;.txt")
	assert.Contains(t, body, `href="/my%20docs/"`)
}

func TestHandler_Listing_CustomShell(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{IndexHTML: "<html><body><h1>files</h1>"})
	root := dirtar.ResolvedPath{Rel: "", Web: "/"}

	service.On("Resolve", mock.Anything, pathIs("/")).
		Return(dirtar.Request{Kind: dirtar.KindDirectory, Path: root}, nil)
	service.On("List", mock.Anything, root).Return(dirtar.Listing{Path: root}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, "<html><body><h1>files</h1><ul></ul></body></html>", rec.Body.String())
}

func TestHandler_Listing_JSON(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})
	mod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	service.On("Resolve", mock.Anything, pathIs("/docs/")).
		Return(dirtar.Request{Kind: dirtar.KindDirectory, Path: docsPath}, nil)
	service.On("List", mock.Anything, docsPath).Return(dirtar.Listing{
		Path:    docsPath,
		Entries: []dirtar.Entry{{Name: "a.txt", Size: 5, ModTime: mod}},
	}, nil)

	req := httptest.NewRequest("GET", "/docs/?format=json", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get(dirtarhttp.ListingHeader))

	var resp dirtarhttp.ListingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "/docs/", resp.Path)
	assert.Equal(t, "/", resp.Parent)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "a.txt", resp.Entries[0].Name)
	assert.True(t, mod.Equal(resp.Entries[0].ModTime))
}

func TestHandler_Listing_JSONAcceptHeader(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})
	root := dirtar.ResolvedPath{Rel: "", Web: "/"}

	service.On("Resolve", mock.Anything, pathIs("/")).
		Return(dirtar.Request{Kind: dirtar.KindDirectory, Path: root}, nil)
	service.On("List", mock.Anything, root).Return(dirtar.Listing{Path: root}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.JSONEq(t, `{"path":"/","entries":[]}`, rec.Body.String())
}

func TestHandler_Archive(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})
	content := &trackingCloser{Reader: strings.NewReader("tarbytes")}
	a := dirtar.Archive{ID: uuid.New(), Dir: "docs", Name: "docs.tar", Size: 8, Entries: 2}

	service.On("Resolve", mock.Anything, pathIs("/docs.tar")).
		Return(dirtar.Request{Kind: dirtar.KindArchive, Path: docsPath}, nil)
	service.On("BuildArchive", mock.Anything, docsPath).Return(a, content, nil)

	req := httptest.NewRequest("GET", "/docs.tar?download", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-tar", rec.Header().Get("Content-Type"))
	assert.Equal(t, "8", rec.Header().Get("Content-Length"))
	assert.Equal(t, `attachment; filename="docs.tar"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "tarbytes", rec.Body.String())
	assert.True(t, content.closed, "archive reader must be closed to release scratch file")
}

func TestHandler_Archive_NonASCIIName(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})
	p := dirtar.ResolvedPath{Rel: "résumé", Web: "/résumé/"}
	a := dirtar.Archive{ID: uuid.New(), Name: "résumé.tar", Size: 0}

	service.On("Resolve", mock.Anything, mock.Anything).
		Return(dirtar.Request{Kind: dirtar.KindArchive, Path: p}, nil)
	service.On("BuildArchive", mock.Anything, p).Return(a, io.NopCloser(strings.NewReader("")), nil)

	req := httptest.NewRequest("GET", "/-/archive/r%C3%A9sum%C3%A9", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename*=utf-8''r%C3%A9sum%C3%A9.tar", rec.Header().Get("Content-Disposition"))
}

func TestHandler_Archive_BuildError(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})

	service.On("Resolve", mock.Anything, pathIs("/-/archive/docs")).
		Return(dirtar.Request{Kind: dirtar.KindArchive, Path: docsPath}, nil)
	service.On("BuildArchive", mock.Anything, docsPath).
		Return(dirtar.Archive{}, nil, errors.New("read /srv/docs/a.txt: permission denied"))

	req := httptest.NewRequest("GET", "/-/archive/docs", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "permission denied")
}

func TestHandler_Archive_NotDirectory(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})

	service.On("Resolve", mock.Anything, pathIs("/a.txt.tar")).
		Return(dirtar.Request{}, dirtar.ErrNotDirectory)

	req := httptest.NewRequest("GET", "/a.txt.tar?download", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "BuildArchive", mock.Anything, mock.Anything)
}

func TestHandler_Health(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})

	req := httptest.NewRequest("GET", "/-/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	service.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestHandler_Assets(t *testing.T) {
	handler, _ := newHandler(dirtarhttp.HandlerConfig{})

	req := httptest.NewRequest("GET", "/-/assets/download.js", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "function download(path)")
}

func TestHandler_Metrics(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		handler, _ := newHandler(dirtarhttp.HandlerConfig{Metrics: true})

		req := httptest.NewRequest("GET", "/-/metrics", nil)
		rec := httptest.NewRecorder()

		handler.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "dirtar_")
	})

	t.Run("disabled falls through to resolver", func(t *testing.T) {
		handler, service := newHandler(dirtarhttp.HandlerConfig{})

		service.On("Resolve", mock.Anything, pathIs("/-/metrics")).
			Return(dirtar.Request{}, dirtar.ErrNotFound)

		req := httptest.NewRequest("GET", "/-/metrics", nil)
		rec := httptest.NewRecorder()

		handler.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_CORS_Disabled(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{})
	root := dirtar.ResolvedPath{Rel: "", Web: "/"}

	service.On("Resolve", mock.Anything, mock.Anything).
		Return(dirtar.Request{Kind: dirtar.KindDirectory, Path: root}, nil)
	service.On("List", mock.Anything, root).Return(dirtar.Listing{Path: root}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_CORS_Enabled(t *testing.T) {
	handler, service := newHandler(dirtarhttp.HandlerConfig{
		CORS: dirtarhttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET"},
		},
	})
	root := dirtar.ResolvedPath{Rel: "", Web: "/"}

	service.On("Resolve", mock.Anything, mock.Anything).
		Return(dirtar.Request{Kind: dirtar.KindDirectory, Path: root}, nil)
	service.On("List", mock.Anything, root).Return(dirtar.Listing{Path: root}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
