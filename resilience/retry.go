// Package resilience provides the failure-handling primitives used by the
// dashkit request client: retry with exponential backoff and a circuit
// breaker.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures a retry loop.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int
	// InitialDelay seeds the exponential backoff.
	InitialDelay time.Duration
	// MaxDelay caps the backoff between attempts.
	MaxDelay time.Duration
	// Factor is the backoff multiplier per attempt.
	Factor float64
	// Jitter adds randomness to the backoff (0.0 to 1.0, 0 disables).
	Jitter float64
	// RetryIf decides whether an error is worth another attempt. Nil
	// retries everything except context errors.
	RetryIf func(error) bool
	// OnRetry is called before each backoff sleep with the zero-based
	// index of the attempt that just failed and the delay to come.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// applyDefaults fills zero-value fields so a partially specified config
// still behaves.
func (c *RetryConfig) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Factor <= 0 {
		c.Factor = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
	}
}

// Retry runs fn up to cfg.MaxAttempts times. Attempts are strictly
// sequential: attempt N+1 never begins until attempt N's failure and its
// backoff sleep have both completed. The delay after attempt index i
// (zero-based) is min(InitialDelay·Factor^i, MaxDelay).
//
// Retry returns fn's result on the first success, the error immediately
// when RetryIf rejects it, and the last error once attempts are exhausted.
// Cancellation of ctx during an attempt or a backoff sleep returns
// ctx.Err().
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	cfg.applyDefaults()

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !cfg.RetryIf(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := backoffDelay(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// RetryFunc runs a function that returns only an error.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// backoffDelay computes the sleep after the given zero-based attempt index.
func backoffDelay(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Factor, float64(attempt))

	if cfg.Jitter > 0 {
		spread := delay * cfg.Jitter
		delay += (rand.Float64()*2 - 1) * spread
	}

	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if delay < 0 {
		delay = float64(cfg.InitialDelay)
	}
	return time.Duration(delay)
}
