package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/statviz/dashkit/resilience"
)

// Client is the request client: it owns the base address, default timeout,
// retry policy, default headers, and the ordered interceptor chains. Every
// verb method delegates to Do. A Client is created once and lives for the
// session; construction performs no I/O and cannot fail.
//
// Concurrent Do calls are independent. Interceptor registration happens at
// setup time and must not race with in-flight requests.
type Client struct {
	httpClient *http.Client
	config     Config
	breaker    *resilience.Breaker

	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// New creates a request client, merging the given configuration over the
// built-in defaults.
func New(cfg Config) *Client {
	cfg.ApplyDefaults()

	c := &Client{
		// No client-level timeout: each attempt arms its own deadline.
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		config: cfg,
	}
	if cfg.CircuitBreaker != nil {
		c.breaker = resilience.NewBreaker(*cfg.CircuitBreaker)
	}
	return c
}

// Config returns the client's effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// Do executes a request: it merges headers, runs the request interceptor
// chain in order, resolves the target URL, and drives the attempt loop with
// per-attempt timeouts and exponential backoff. The result is exactly one
// of a *Response (body parsed and passed through the response interceptor
// chain) or a structured *Error — never a raw transport error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	r := &req
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	r.Headers = mergeHeaders(c.config.Headers, r.Headers)

	var err error
	for _, interceptor := range c.requestInterceptors {
		if r, err = interceptor(ctx, r); err != nil {
			return nil, asStructured(err)
		}
	}

	url := JoinURL(c.config.BaseURL, r.Path)

	payload, err := encodeBody(r.Method, r.Body)
	if err != nil {
		return nil, &Error{
			Message:   fmt.Sprintf("encode body: %v", err),
			Status:    StatusNoResponse,
			Timestamp: time.Now(),
			Err:       err,
			canceled:  true, // encoding cannot succeed on retry
		}
	}

	timeout := c.config.Timeout
	if r.Timeout > 0 {
		timeout = r.Timeout
	}
	retries := c.config.Retries
	if r.Retries != nil {
		retries = max(*r.Retries, 0)
	}
	delay := c.config.RetryDelay
	if r.RetryDelay > 0 {
		delay = r.RetryDelay
	}

	resp, err := resilience.Retry(ctx, resilience.RetryConfig{
		MaxAttempts:  retries + 1,
		InitialDelay: delay,
		MaxDelay:     maxBackoff,
		Factor:       2,
		RetryIf:      IsRetryable,
	}, func() (*Response, error) {
		return c.attempt(ctx, r, url, payload, timeout)
	})
	if err != nil {
		return nil, asStructured(err)
	}

	body := resp.Body
	for _, interceptor := range c.responseInterceptors {
		if body, err = interceptor(ctx, resp, body); err != nil {
			return nil, asStructured(err)
		}
	}
	resp.Body = body

	return resp, nil
}

// Get performs a GET request. A body supplied via options is discarded:
// GET requests never carry one.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.verb(ctx, http.MethodGet, path, nil, opts)
}

// Post performs a POST request with the given body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.verb(ctx, http.MethodPost, path, body, opts)
}

// Put performs a PUT request with the given body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.verb(ctx, http.MethodPut, path, body, opts)
}

// Patch performs a PATCH request with the given body.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.verb(ctx, http.MethodPatch, path, body, opts)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.verb(ctx, http.MethodDelete, path, nil, opts)
}

func (c *Client) verb(ctx context.Context, method, path string, body any, opts []RequestOption) (*Response, error) {
	r := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&r)
	}
	return c.Do(ctx, r)
}

// attempt performs one network attempt under its own timeout. The deadline
// is cleared as soon as the attempt's outcome is known, before the next
// attempt arms a fresh one.
func (c *Client) attempt(ctx context.Context, r *Request, url string, payload []byte, timeout time.Duration) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.breaker != nil {
		var resp *Response
		err := c.breaker.Execute(func() error {
			var execErr error
			resp, execErr = c.execute(attemptCtx, ctx, r, url, payload)
			return execErr
		})
		if errors.Is(err, resilience.ErrBreakerOpen) {
			return nil, NewNetworkError(err)
		}
		return resp, err
	}

	return c.execute(attemptCtx, ctx, r, url, payload)
}

// execute builds and sends the HTTP request for one attempt and classifies
// the outcome. parent is the caller's context, used to tell an expired
// per-attempt deadline apart from external cancellation.
func (c *Client) execute(attemptCtx, parent context.Context, r *Request, url string, payload []byte) (*Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, r.Method, url, bodyReader)
	if err != nil {
		return nil, asStructured(err)
	}

	if len(r.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range r.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	for k, v := range r.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(attemptCtx, parent, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(attemptCtx, parent, err)
	}

	parsed := parseBody(resp.Header.Get("Content-Type"), raw)
	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Raw:        raw,
		Body:       parsed,
	}

	if !result.IsSuccess() {
		return nil, NewStatusError(resp.StatusCode, parsed)
	}
	return result, nil
}

// classifyTransportError maps a transport failure onto the taxonomy: the
// attempt's own deadline firing is a timeout, the parent context going away
// is a cancellation, anything else is a network error.
func classifyTransportError(attemptCtx, parent context.Context, err error) *Error {
	if parent.Err() != nil {
		return NewCanceledError(err)
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	return NewNetworkError(err)
}

// asStructured guarantees the taxonomy type on every failure path. Raw
// context errors escaping the retry loop (cancellation during backoff)
// become canceled errors; anything else unexpected becomes a network error.
func asStructured(err error) *Error {
	if e, ok := AsError(err); ok {
		return e
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCanceledError(err)
	}
	return NewNetworkError(err)
}

// encodeBody serializes a request body to bytes. Text passes through
// unchanged; GET requests never carry a body.
func encodeBody(method string, body any) ([]byte, error) {
	if body == nil || method == http.MethodGet {
		return nil, nil
	}
	switch v := body.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

// parseBody parses a response body by its declared content type: JSON is
// decoded into structured data, everything else is returned as text. An
// empty body parses to nil.
func parseBody(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	if strings.Contains(contentType, "application/json") {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return string(raw)
}

// mergeHeaders shallow-merges per-call headers over the client defaults.
func mergeHeaders(defaults, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
