package httpclient

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// RequestInterceptor transforms an outgoing request descriptor. Interceptors
// run in registration order; each receives the previous one's output. An
// interceptor may return a new descriptor or mutate and return its input.
// Returning an error aborts the request before any network attempt.
type RequestInterceptor func(ctx context.Context, req *Request) (*Request, error)

// ResponseInterceptor transforms the parsed body of a successful response.
// Interceptors run in registration order; each receives the previous one's
// output as body and returns the (possibly replaced) body.
type ResponseInterceptor func(ctx context.Context, resp *Response, body any) (any, error)

// AddRequestInterceptor appends a request interceptor. Interceptors apply
// to all subsequent calls, never retroactively to in-flight ones.
// Registration is not safe concurrently with in-flight requests.
func (c *Client) AddRequestInterceptor(fn RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, fn)
}

// AddResponseInterceptor appends a response interceptor.
func (c *Client) AddResponseInterceptor(fn ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, fn)
}

// RequestIDInterceptor stamps every request with a unique X-Request-Id
// header, preserving one supplied by the caller.
func RequestIDInterceptor() RequestInterceptor {
	return func(_ context.Context, req *Request) (*Request, error) {
		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}
		if req.Headers["X-Request-Id"] == "" {
			req.Headers["X-Request-Id"] = uuid.New().String()
		}
		return req, nil
	}
}

// BearerTokenInterceptor sets the Authorization header on every request.
// The token is resolved per call so rotated credentials take effect without
// re-registering.
func BearerTokenInterceptor(token func() string) RequestInterceptor {
	return func(_ context.Context, req *Request) (*Request, error) {
		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}
		req.Headers["Authorization"] = "Bearer " + token()
		return req, nil
	}
}

// TracePropagationInterceptor injects the active trace context into the
// outgoing headers using the global OpenTelemetry propagator.
func TracePropagationInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) (*Request, error) {
		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}
		otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(req.Headers))
		return req, nil
	}
}
