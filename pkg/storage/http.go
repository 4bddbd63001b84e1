package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// HTTP is a read-only FileStore serving files from a base URL, the way the
// browser build fetched its model resources.
type HTTP struct {
	base   *url.URL
	client *http.Client
}

// NewHTTP creates an HTTP store rooted at base. A nil client uses
// http.DefaultClient.
func NewHTTP(base string, client *http.Client) (*HTTP, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("storage: parse %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("storage: %q is not an http(s) URL", base)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{base: u, client: client}, nil
}

func (h *HTTP) url(path string) string {
	return h.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")}).String()
}

func (h *HTTP) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.url(path), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: %s %s: %w", method, path, err)
	}
	return resp, nil
}

// Read fetches the named file with GET.
func (h *HTTP) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := h.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("storage: read %s: %w", path, os.ErrNotExist)
	case resp.StatusCode/100 != 2:
		resp.Body.Close()
		return nil, fmt.Errorf("storage: read %s: %s", path, resp.Status)
	}
	return resp.Body, nil
}

// Exists checks the named file with HEAD.
func (h *HTTP) Exists(ctx context.Context, path string) (bool, error) {
	resp, err := h.do(ctx, http.MethodHead, path)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode/100 != 2:
		return false, fmt.Errorf("storage: head %s: %s", path, resp.Status)
	}
	return true, nil
}

// Write always fails with ErrReadOnly.
func (h *HTTP) Write(context.Context, string) (io.WriteCloser, error) {
	return nil, ErrReadOnly
}

// Delete always fails with ErrReadOnly.
func (h *HTTP) Delete(context.Context, string) error {
	return ErrReadOnly
}

var _ FileStore = (*HTTP)(nil)
