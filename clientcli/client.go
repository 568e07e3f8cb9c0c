package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds how long the client waits for response headers.
// Archive bodies can stream for much longer and are not bounded by default.
const DefaultTimeout = 30 * time.Second

// Client talks to a dirtar server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets an overall HTTP client timeout, including body reads.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = DefaultTimeout

	c := &Client{
		config:     &Config{Server: strings.TrimSuffix(cfg.Server, "/")},
		httpClient: &http.Client{Transport: transport},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Server returns the normalized server URL.
func (c *Client) Server() string {
	return c.config.Server
}

// listingHeader is set by the server on JSON directory listings.
const listingHeader = "X-Dirtar-Listing"

// List fetches the JSON listing of a remote directory.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Server+dirURLPath(opts.Path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return nil, parseServerError(resp.StatusCode, body)
	}

	// A file answers the same URL; only listings carry the marker header.
	mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mt != "application/json" || resp.Header.Get(listingHeader) == "" {
		return nil, fmt.Errorf("list %s: %w", normalizePath(opts.Path), ErrNotListing)
	}

	var result ListResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &result, nil
}

// Get downloads the tar archive of a remote directory.
//
// If opts.LocalPath is "-", the archive is returned via the io.ReadCloser and
// must be closed by the caller. Otherwise the archive is written to
// opts.LocalPath, or unpacked into opts.ExtractTo, and the reader is nil.
func (c *Client) Get(ctx context.Context, opts GetOptions) (*GetResult, io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Server+archiveURLPath(opts.RemotePath), http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &GetResult{
		RemotePath: normalizePath(opts.RemotePath),
		Name:       archiveName(resp.Header.Get("Content-Disposition"), opts.RemotePath),
		Size:       resp.ContentLength,
	}

	body := io.Reader(resp.Body)
	if opts.Progress != nil {
		body = &progressReader{r: resp.Body, total: resp.ContentLength, fn: opts.Progress}
	}

	if opts.LocalPath == "-" && opts.ExtractTo == "" {
		result.LocalPath = "-"
		return result, readCloser{Reader: body, Closer: resp.Body}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if opts.ExtractTo != "" {
		counter := &countingReader{r: body}
		files, extractErr := Extract(ctx, counter, opts.ExtractTo)
		if extractErr != nil {
			return nil, nil, fmt.Errorf("extract: %w", extractErr)
		}
		result.ExtractTo = opts.ExtractTo
		result.Files = files
		result.Size = counter.n
		return result, nil, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = result.Name
	}
	result.LocalPath = localPath

	written, err := writeFile(localPath, body)
	if err != nil {
		return nil, nil, err
	}

	result.Size = written
	return result, nil, nil
}

func writeFile(localPath string, r io.Reader) (int64, error) {
	if dir := filepath.Dir(localPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return 0, fmt.Errorf("create directory: %w", err)
		}
	}

	file, err := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(file, r)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(localPath)
		return 0, fmt.Errorf("write file: %w", err)
	}

	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("close file: %w", err)
	}

	return written, nil
}

// dirURLPath returns the escaped URL path of a remote directory, with a
// trailing slash.
func dirURLPath(p string) string {
	p = strings.Trim(normalizePath(p), "/")
	if p == "" {
		return "/"
	}
	return "/" + escapeSegments(p) + "/"
}

// archiveURLPath returns the escaped archive URL of a remote directory.
func archiveURLPath(p string) string {
	p = strings.Trim(normalizePath(p), "/")
	return "/" + escapeSegments(p) + ".tar?download"
}

func escapeSegments(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// normalizePath ensures path has a leading slash and no trailing slash.
func normalizePath(p string) string {
	p = path.Clean("/" + filepath.ToSlash(p))
	return p
}

// archiveName picks the local file name for an archive: the server's
// Content-Disposition filename when usable, otherwise <last segment>.tar.
func archiveName(disposition, remotePath string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := filepath.Base(filepath.Clean(params["filename"])); name != "." && name != "/" && name != "" {
			return name
		}
	}

	base := path.Base(normalizePath(remotePath))
	if base == "/" {
		base = "root"
	}
	return base + ".tar"
}

type readCloser struct {
	io.Reader
	io.Closer
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type progressReader struct {
	r     io.Reader
	done  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.done += int64(n)
		p.fn(p.done, p.total)
	}
	return n, err
}

// parseServerError extracts the error message from a server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Code = payload.Error
		apiErr.Message = payload.Message
	}

	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string // machine readable code, e.g. "not_found"
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + strings.TrimSpace(e.Body)
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode and, when the
// target sets one, the same Code.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	if t.StatusCode != e.StatusCode {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrBadRequest matches every client error the server reports (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrNotFound is returned when the remote path does not exist.
	ErrNotFound = &APIError{StatusCode: http.StatusBadRequest, Code: "not_found"}

	// ErrNotDirectory is returned when an archive is requested for a file.
	ErrNotDirectory = &APIError{StatusCode: http.StatusBadRequest, Code: "not_a_directory"}

	// ErrServer is returned when the server failed to handle the request (500).
	ErrServer = &APIError{StatusCode: http.StatusInternalServerError}
)
