package httpclient

import (
	"encoding/json"
	"strings"
	"time"
)

// Request describes one outbound request. A descriptor is built per call
// and discarded; nothing is cached or pooled.
type Request struct {
	// Method is the HTTP method. Defaults to GET.
	Method string
	// Path is appended to the client's BaseURL. Can be a full URL.
	Path string
	// Headers are request-specific headers, merged over the client
	// defaults (per-call wins on conflict).
	Headers map[string]string
	// Query are URL query parameters, forwarded verbatim to the transport.
	Query map[string]string
	// Body is the request body. Accepts []byte, string, or any value that
	// will be JSON-encoded. Never attached when Method is GET.
	Body any
	// Timeout overrides the client's per-attempt timeout when positive.
	Timeout time.Duration
	// Retries overrides the client's retry count when non-nil. A pointer
	// so an explicit zero (no retries) is distinguishable from unset.
	Retries *int
	// RetryDelay overrides the client's backoff seed when positive.
	RetryDelay time.Duration
}

// Response is the result of a successful request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers, flattened to single values.
	Headers map[string]string
	// Raw is the unparsed response body.
	Raw []byte
	// Body is the parsed body: decoded JSON when the content type declares
	// it, otherwise the body as a string. Response interceptors may have
	// replaced it.
	Body any
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the response body into v. It prefers the interceptor
// output in Body when it differs from the raw bytes.
func (r *Response) Decode(v any) error {
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, v)
	}
	if len(r.Raw) == 0 {
		return nil
	}
	return json.Unmarshal(r.Raw, v)
}

// RequestOption configures a single request.
type RequestOption func(*Request)

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithQueryParam adds a query parameter to the request.
func WithQueryParam(key, value string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(map[string]string)
		}
		r.Query[key] = value
	}
}

// WithBody sets the request body.
func WithBody(body any) RequestOption {
	return func(r *Request) {
		r.Body = body
	}
}

// WithTimeout overrides the per-attempt timeout for this request.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) {
		r.Timeout = d
	}
}

// WithRetries overrides the retry count for this request. Zero disables
// retries entirely.
func WithRetries(n int) RequestOption {
	return func(r *Request) {
		r.Retries = &n
	}
}

// WithRetryDelay overrides the backoff seed for this request.
func WithRetryDelay(d time.Duration) RequestOption {
	return func(r *Request) {
		r.RetryDelay = d
	}
}

// JoinURL joins a base URL and a path, stripping exactly one trailing
// slash from the base and one leading slash from the path. Absolute
// http(s) paths pass through untouched.
func JoinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
