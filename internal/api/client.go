// Package api is the KnowledgeVault HTTP client. It translates each backend
// operation into exactly one HTTP request under a fixed base path, with a
// default per-request timeout and an extended one for AI summaries.
//
// The client is a pure transport shim: it never retries a request and never
// interprets HTTP statuses beyond success/failure. Any non-2xx response or
// transport failure is returned as an error ([*StatusError] for the former).
// [Client.WaitHealthy] is the one retrying helper and only probes /health.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// DefaultBasePath is the path prefix every endpoint lives under.
	DefaultBasePath = "/api"

	// DefaultTimeout bounds every request except AI summaries.
	DefaultTimeout = 30 * time.Second

	// DefaultAITimeout bounds the AI summary request, which is expected to be slow.
	DefaultAITimeout = 120 * time.Second
)

// HTTPClient is the subset of [http.Client] used by [Client]. Defining it as an
// interface allows transport stubs in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a [Client]. Zero fields fall back to the package defaults.
type Options struct {
	// BasePath is appended to the server URL, e.g. "/api".
	BasePath string
	// Timeout is the default per-request timeout.
	Timeout time.Duration
	// AITimeout is the timeout for [Client.AISummary].
	AITimeout time.Duration
	// HTTPClient overrides the transport. Defaults to a plain [http.Client].
	HTTPClient HTTPClient
}

// Client issues requests to a KnowledgeVault backend. Create one with
// [NewClient]. A Client is safe for concurrent use.
type Client struct {
	baseURL   string
	hc        HTTPClient
	timeout   time.Duration
	aiTimeout time.Duration
	log       *slog.Logger
}

// NewClient creates a Client for the backend at serverURL
// (e.g. "http://127.0.0.1:8000").
func NewClient(serverURL string, opts Options, logger *slog.Logger) (*Client, error) {
	u, err := url.ParseRequestURI(serverURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("server URL %q must be a valid http or https URL", serverURL)
	}

	base := opts.BasePath
	if base == "" {
		base = DefaultBasePath
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}

	c := &Client{
		baseURL:   strings.TrimRight(serverURL, "/") + strings.TrimRight(base, "/"),
		hc:        opts.HTTPClient,
		timeout:   opts.Timeout,
		aiTimeout: opts.AITimeout,
		log:       logger,
	}
	if c.hc == nil {
		c.hc = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.aiTimeout <= 0 {
		c.aiTimeout = DefaultAITimeout
	}
	return c, nil
}

// BaseURL returns the absolute URL every endpoint path is appended to.
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout returns the default per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// AITimeout returns the timeout applied to AI summary requests.
func (c *Client) AITimeout() time.Duration { return c.aiTimeout }

// request describes one outbound call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	timeout     time.Duration
}

// jsonBody marshals v into a request body.
func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(b), nil
}

// do executes r and decodes a successful response body into out (when non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	timeout := r.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("api request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(r.method, r.path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

// get is shorthand for a GET request decoding into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

// sendJSON issues a request with a JSON body (nil v sends no body).
func (c *Client) sendJSON(ctx context.Context, method, path string, v, out any) error {
	r := request{method: method, path: path}
	if v != nil {
		body, err := jsonBody(v)
		if err != nil {
			return err
		}
		r.body = body
		r.contentType = "application/json"
	}
	return c.do(ctx, r, out)
}

func itemPath(id int64, suffix ...string) string {
	p := fmt.Sprintf("/items/%d", id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
