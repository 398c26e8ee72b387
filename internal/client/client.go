package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"httplab/internal/shared"
)

// Client talks to an httplab server over plain HTTP/1.1. Every call opens
// a fresh connection; the server closes it after one response anyway.
type Client struct {
	ServerURL   string
	DownloadDir string
	HTTP        *http.Client
}

func New(cfg *shared.ClientConfig) *Client {
	return &Client{
		ServerURL:   strings.TrimRight(cfg.ServerURL, "/"),
		DownloadDir: cfg.DownloadDir,
		HTTP: &http.Client{
			Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
			Transport: &http.Transport{DisableKeepAlives: true},
		},
	}
}

// Request describes one call. Path is sent as given, so dot segments and
// escapes reach the server untouched.
type Request struct {
	Method          string
	Path            string
	Body            []byte
	ContentType     string
	IfModifiedSince string
}

// Result is the server's answer. Non-2xx statuses are results, not errors.
type Result struct {
	Status int
	Header http.Header
	Body   []byte
}

func (c *Client) Do(ctx context.Context, r Request) (*Result, error) {
	p := r.Path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(r.Method), c.ServerURL+p, body)
	if err != nil {
		return nil, err
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if r.IfModifiedSince != "" {
		req.Header.Set("If-Modified-Since", r.IfModifiedSince)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Result{Status: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

func (c *Client) Get(ctx context.Context, p string) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: p})
}

func (c *Client) Head(ctx context.Context, p string) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodHead, Path: p})
}

func (c *Client) Put(ctx context.Context, p string, body []byte, contentType string) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: p, Body: body, ContentType: contentType})
}

func (c *Client) Post(ctx context.Context, p string, body []byte, contentType string) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: p, Body: body, ContentType: contentType})
}

func (c *Client) Delete(ctx context.Context, p string) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: p})
}

// SaveBody writes the body to dst, creating parent directories.
func (r *Result) SaveBody(dst string) error {
	if dir := filepath.Dir(dst); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(dst, r.Body, 0644)
}

// DownloadPath is where a download of p lands inside DownloadDir.
func (c *Client) DownloadPath(p string) string {
	name := path.Base("/" + strings.TrimLeft(p, "/"))
	if name == "/" || name == "." {
		name = "index"
	}
	return filepath.Join(c.DownloadDir, name)
}
