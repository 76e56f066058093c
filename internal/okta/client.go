package okta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mcp-okta-support/internal/config"
	"mcp-okta-support/pkg/logging"
)

// apiBasePath is prepended to every endpoint path.
const apiBasePath = "/api/v1"

// defaultRetryAfterSeconds is the retry hint used when a 429 response has no
// Retry-After header.
const defaultRetryAfterSeconds = 60

// Client is the authenticated Okta API dispatcher. It owns the HTTP
// transport, injects credentials, runs every call through the rate limiter
// and classifies failure responses into typed errors. The client is stateless
// between calls apart from the shared rate limiter and the held transport; it
// is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
	creds      CredentialsProvider
	userAgent  string
	timeout    time.Duration

	closeOnce sync.Once

	// Domain managers, stateless facades over the dispatcher.
	Users        *UserManager
	Applications *ApplicationManager
	Logs         *LogManager
}

// NewClient constructs a client from validated settings. Construction fails
// on malformed configuration; nothing is dialed until the first request.
func NewClient(cfg *config.Settings) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Okta configuration: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	version := cfg.ServerVersion
	if version == "" {
		version = "dev"
	}

	c := &Client{
		baseURL:    cfg.OrgURL + apiBasePath,
		limiter:    NewRateLimiter(cfg.RateLimit),
		creds:      newCredentialsProvider(cfg),
		userAgent:  fmt.Sprintf("mcp-okta-support/%s", version),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}

	c.Users = &UserManager{client: c}
	c.Applications = &ApplicationManager{client: c}
	c.Logs = &LogManager{client: c}

	logging.Info("Okta", "client initialized: org=%s auth=%s rate_limit=%d/min timeout=%s",
		cfg.OrgURL, cfg.AuthMethod(), cfg.RateLimit, timeout)

	return c, nil
}

// newClientWithTransport is the test seam: it wires a client against an
// arbitrary base URL and credentials provider without config validation.
func newClientWithTransport(baseURL string, creds CredentialsProvider, limiter *RateLimiter, timeout time.Duration) *Client {
	c := &Client{
		baseURL:    baseURL + apiBasePath,
		limiter:    limiter,
		creds:      creds,
		userAgent:  "mcp-okta-support/test",
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
	c.Users = &UserManager{client: c}
	c.Applications = &ApplicationManager{client: c}
	c.Logs = &LogManager{client: c}
	return c
}

// RateLimit returns a snapshot of the rate limiter state.
func (c *Client) RateLimit() RateLimitSnapshot {
	return c.limiter.Snapshot()
}

// Request issues an authenticated API call and returns the parsed JSON body,
// or an empty JSON object for responses without content. params become query
// parameters, body is JSON-encoded when non-nil, and headers override the
// client defaults for this call only. Failures are returned as *Error values
// classified at this boundary.
func (c *Client) Request(ctx context.Context, method, path string, params map[string]string, body interface{}, headers map[string]string) (json.RawMessage, error) {
	raw, _, err := c.do(ctx, method, path, params, body, headers)
	return raw, err
}

// RequestPaged is Request plus the pagination links from the response Link
// header. Links are surfaced as raw URLs and never followed by the client.
func (c *Client) RequestPaged(ctx context.Context, method, path string, params map[string]string, body interface{}, headers map[string]string) (json.RawMessage, PageLinks, error) {
	raw, respHeaders, err := c.do(ctx, method, path, params, body, headers)
	if err != nil {
		return nil, nil, err
	}
	// Okta sends one Link header per relation.
	return raw, ParseLinkHeader(strings.Join(respHeaders.Values("Link"), ", ")), nil
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body interface{}, headers map[string]string) (json.RawMessage, http.Header, error) {
	// The limiter is consulted before every network call, retries included.
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}

	requestID := uuid.NewString()[:8]
	logging.Debug("Okta", "request %s: %s %s (params=%d body=%t)",
		requestID, method, path, len(params), body != nil)

	req, err := c.buildRequest(ctx, method, path, params, body, headers)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, c.classifyTransportError(ctx, requestID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &Error{
			Kind:    KindAPI,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Err:     err,
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.UpdateFromResponse(resp.Header)
		e := Classify(resp.StatusCode, parseErrorBody(data))
		if e.Message == "Unknown error" {
			e.Message = "Rate limit exceeded"
		}
		e.RetryAfter = parseRetryAfter(resp.Header)
		logging.Warn("Okta", "request %s: rate limited, retry after %ds", requestID, e.RetryAfter)
		// Retry policy is the caller's responsibility; the dispatcher
		// never retries a 429.
		return nil, nil, e
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := Classify(resp.StatusCode, parseErrorBody(data))
		logging.Debug("Okta", "request %s: failed with %s", requestID, e)
		return nil, nil, e
	}

	c.limiter.UpdateFromResponse(resp.Header)
	logging.Debug("Okta", "request %s: %d (%d bytes)", requestID, resp.StatusCode, len(data))

	if len(data) == 0 {
		return json.RawMessage("{}"), resp.Header, nil
	}
	return json.RawMessage(data), resp.Header, nil
}

// buildRequest assembles the outbound request: URL, query, JSON body, default
// headers, per-call overrides and the Authorization header from the
// credentials provider (unless the caller overrides it explicitly).
func (c *Client) buildRequest(ctx context.Context, method, path string, params map[string]string, body interface{}, headers map[string]string) (*http.Request, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{
				Kind:    KindAPI,
				Message: fmt.Sprintf("failed to encode request body: %v", err),
				Err:     err,
			}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &Error{
			Kind:    KindAPI,
			Message: fmt.Sprintf("failed to build request: %v", err),
			Err:     err,
		}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if req.Header.Get("Authorization") == "" {
		auth, err := c.creds.Authorization(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", auth)
	}

	return req, nil
}

// classifyTransportError maps network-level failures: cancellation passes
// through untouched, a timeout becomes an API error with status 408 naming
// the configured timeout, anything else a generic API error.
func (c *Client) classifyTransportError(ctx context.Context, requestID string, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return ctx.Err()
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() || errors.Is(err, context.DeadlineExceeded) {
		logging.Warn("Okta", "request %s: timed out after %s", requestID, c.timeout)
		return &Error{
			Kind:    KindAPI,
			Status:  http.StatusRequestTimeout,
			Message: fmt.Sprintf("request timeout after %d seconds", int(c.timeout.Seconds())),
			Err:     err,
		}
	}

	logging.Error("Okta", err, "request %s: network error", requestID)
	return &Error{
		Kind:    KindAPI,
		Message: fmt.Sprintf("network error: %v", err),
		Err:     err,
	}
}

// parseErrorBody decodes an error response body. Non-JSON bodies are wrapped
// in a synthetic errorSummary so classification always has something to work
// with.
func parseErrorBody(data []byte) map[string]interface{} {
	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err == nil && body != nil {
		return body
	}
	text := string(bytes.TrimSpace(data))
	if text == "" {
		text = "Unknown error"
	}
	return map[string]interface{}{"errorSummary": text}
}

// parseRetryAfter reads the Retry-After header of a 429 response, falling
// back to the default hint when absent or malformed.
func parseRetryAfter(headers http.Header) int {
	v := headers.Get("Retry-After")
	if v == "" {
		return defaultRetryAfterSeconds
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultRetryAfterSeconds
	}
	return n
}

// Close releases the HTTP transport. It is idempotent and safe to call on
// all exit paths; requests issued after Close fail with transport errors.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.httpClient.CloseIdleConnections()
		logging.Info("Okta", "client closed")
	})
}
