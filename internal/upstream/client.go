// Package upstream is the HTTP client for the trips/cart/profile backend.
// Every call takes a context so a page controller can cancel its in-flight
// requests when it is unmounted. No call is ever retried here; retries are
// always user-initiated.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// maxErrorBody caps how much of a failed response body is kept in StatusError.
const maxErrorBody = 512

// StatusError is returned for non-2xx responses that do not map onto a
// domain sentinel (404 and 401/403 do).
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the backend REST API rooted at a base URL such as
// "http://localhost:3000/api".
type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

// New constructs a Client. timeout bounds each request end to end.
// Returns an error if baseURL is not an absolute http(s) URL.
func New(baseURL string, timeout time.Duration, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("upstream.New: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("upstream.New: base URL %q must be absolute http(s)", baseURL)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}, nil
}

// do sends one request and decodes a 2xx JSON response into out (if non-nil).
// token, when non-empty, is attached as a bearer credential.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "upstream request failed",
			"method", method, "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "upstream request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// escape path-escapes a single identifier segment.
func escape(id string) string { return url.PathEscape(id) }
