package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// StatusNoResponse is the sentinel status meaning no HTTP response was
// obtained (connection failure, DNS failure, or timeout).
const StatusNoResponse = 0

// Error is the single structured error type for all request failures.
// Network, client, server, and timeout failures are all carried by this
// shape and distinguished by the derived classification methods, never by
// subtype.
type Error struct {
	// Message describes the failure.
	Message string `json:"message"`
	// Status is the HTTP status code, or StatusNoResponse when no response
	// was received.
	Status int `json:"status"`
	// Data is the parsed response body, or nil when no body was obtained.
	Data any `json:"data,omitempty"`
	// Timestamp records when the error was created. Marshals as RFC 3339.
	Timestamp time.Time `json:"timestamp"`
	// Err is the underlying transport error, if any.
	Err error `json:"-"`

	canceled bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != StatusNoResponse {
		return fmt.Sprintf("httpclient: HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("httpclient: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether no HTTP response was received.
// Timeouts count as network errors.
func (e *Error) IsNetworkError() bool {
	return e.Status == StatusNoResponse
}

// IsClientError reports whether the server rejected the request (4xx).
func (e *Error) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// IsServerError reports whether the server failed internally (5xx).
func (e *Error) IsServerError() bool {
	return e.Status >= 500
}

// Retryable reports whether the request may succeed if attempted again
// unchanged. Network and server errors are retryable; client errors are
// not, since a malformed or unauthorized request cannot succeed without
// changing its content. A canceled request is never retryable.
func (e *Error) Retryable() bool {
	if e.canceled {
		return false
	}
	return e.IsNetworkError() || e.IsServerError()
}

// NewTimeoutError creates the error raised when a per-attempt deadline
// fires. The message is fixed so callers can distinguish timeouts from
// other connectivity failures.
func NewTimeoutError(cause error) *Error {
	return &Error{
		Message:   "Request timeout",
		Status:    StatusNoResponse,
		Timestamp: time.Now(),
		Err:       cause,
	}
}

// NewNetworkError creates an error for a transport failure where no
// response was received.
func NewNetworkError(cause error) *Error {
	msg := "Network error"
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return &Error{
		Message:   msg,
		Status:    StatusNoResponse,
		Timestamp: time.Now(),
		Err:       cause,
	}
}

// NewCanceledError creates the error surfaced when the caller's context is
// canceled while a request is in flight or waiting to retry.
func NewCanceledError(cause error) *Error {
	return &Error{
		Message:   "Request canceled",
		Status:    StatusNoResponse,
		Timestamp: time.Now(),
		Err:       cause,
		canceled:  true,
	}
}

// NewStatusError creates an error for a non-2xx response. The message is
// taken from the parsed body's "message" or "error" field when present,
// falling back to "HTTP {status}: {status text}".
func NewStatusError(status int, data any) *Error {
	return &Error{
		Message:   statusMessage(status, data),
		Status:    status,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// statusMessage extracts a human-readable message from a parsed error body.
func statusMessage(status int, data any) string {
	if m, ok := data.(map[string]any); ok {
		for _, key := range []string{"message", "error"} {
			if v, ok := m[key].(string); ok && v != "" {
				return v
			}
		}
	}
	text := http.StatusText(status)
	if text == "" {
		text = "Unknown Status"
	}
	return fmt.Sprintf("HTTP %d: %s", status, text)
}

// AsError extracts a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// IsRetryable checks if an error is a retryable structured error.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable()
}

// IsTimeout checks if an error is a per-attempt timeout.
func IsTimeout(err error) bool {
	e, ok := AsError(err)
	return ok && e.Message == "Request timeout"
}
