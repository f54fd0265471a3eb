package httpclient

import (
	"time"

	"github.com/statviz/dashkit/resilience"
)

const (
	defaultBaseURL    = "http://localhost:8080/api"
	defaultTimeout    = 30 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 1000 * time.Millisecond

	// maxBackoff caps the exponential backoff between attempts.
	maxBackoff = 30 * time.Second
)

// Config configures the request client. The zero value is usable; missing
// fields are filled by ApplyDefaults at construction.
type Config struct {
	// BaseURL is prepended to all request paths. A trailing slash is
	// normalized away at use.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout is the per-attempt deadline, not an overall request budget.
	// Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Retries is the number of additional attempts after the first.
	// Defaults to 3. Use WithRetries(0) on a call to disable retries for
	// that call.
	Retries int `yaml:"retries" mapstructure:"retries"`

	// RetryDelay seeds the exponential backoff between attempts.
	// Defaults to 1s.
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`

	// Headers are default headers applied to every request. Per-call
	// headers override them key by key.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// CircuitBreaker optionally guards each attempt. Nil disables it.
	CircuitBreaker *resilience.BreakerConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills zero-value fields with the built-in defaults.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Retries <= 0 {
		c.Retries = defaultRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.Headers == nil {
		c.Headers = map[string]string{"Content-Type": "application/json"}
	}
}
