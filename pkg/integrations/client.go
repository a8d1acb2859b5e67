package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/simplysf/simply-package/pkg/cache"
	"github.com/simplysf/simply-package/pkg/httputil"
	"github.com/simplysf/simply-package/pkg/observability"
)

// Client provides shared HTTP functionality for platform API clients.
// It handles caching, retry logic, and common request headers.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	namespace string
	ttl       time.Duration
	headers   map[string]string
}

// NewClient creates a Client with the given cache and default headers.
// Cache keys are prefixed with namespace. Headers are applied to all
// requests made through this client; pass nil if none are needed.
func NewClient(backend cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Client{
		http:      NewHTTPClient(),
		cache:     cache.Namespace(backend, namespace),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
	}
}

// SetHTTPClient replaces the underlying transport client.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		if ok, _ := cache.GetJSON(ctx, c.cache, key, v); ok {
			observability.Cache().OnCacheHit(ctx, c.namespace)
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, c.namespace)
	}
	if err := fetch(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if c.cache.Set(ctx, key, data, c.ttl) == nil {
		observability.Cache().OnCacheSet(ctx, c.namespace, len(data))
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	return c.Do(ctx, http.MethodGet, rawURL, nil, v)
}

// Post sends body as JSON and decodes the response into v.
// POST requests are never retried.
func (c *Client) Post(ctx context.Context, rawURL string, body, v any) error {
	return c.Do(ctx, http.MethodPost, rawURL, body, v)
}

// Patch sends body as JSON. Platform PATCH endpoints reply 204 No Content,
// so v may be nil.
func (c *Client) Patch(ctx context.Context, rawURL string, body, v any) error {
	return c.Do(ctx, http.MethodPatch, rawURL, body, v)
}

// Do performs a request with an optional JSON body and decodes a JSON
// response into v when v is non-nil and the response has content.
// Idempotent methods are retried on transient failures.
func (c *Client) Do(ctx context.Context, method, rawURL string, body, v any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	call := func() error {
		resp, err := c.doRequest(ctx, method, rawURL, payload)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if v == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	if !idempotent(method) {
		return call()
	}
	return httputil.RetryWithBackoff(ctx, call)
}

func (c *Client) doRequest(ctx context.Context, method, rawURL string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// checkResponse maps non-2xx responses to errors, decoding the platform's
// error array when the body carries one.
func checkResponse(resp *http.Response) error {
	err := checkStatus(resp.StatusCode)
	if err == nil || resp.Body == nil {
		return err
	}

	var items []apiErrorItem
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if json.Unmarshal(data, &items) != nil || len(items) == 0 {
		return withRetryAfter(err, resp)
	}

	code, msg := joinAPIErrors(items)
	apiErr := &APIError{StatusCode: resp.StatusCode, ErrorCode: code, Message: msg, kind: err}
	if httputil.IsRetryable(err) {
		apiErr.kind = errors.Unwrap(err)
		return withRetryAfter(&httputil.RetryableError{Err: apiErr}, resp)
	}
	return apiErr
}

func withRetryAfter(err error, resp *http.Response) error {
	var re *httputil.RetryableError
	if errors.As(err, &re) {
		re.After = httputil.ParseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return err
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrNotFound, code)
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, code)
	case code >= 500 || code == http.StatusTooManyRequests:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func hostPath(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}
