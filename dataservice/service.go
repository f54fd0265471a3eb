// Package dataservice is the data-access layer of the dashboard: typed
// reads of metrics, alerts, and summary figures over the request client,
// with an injected fallback policy for serving synthesized data when the
// backend is unreachable.
package dataservice

import (
	"context"
	"fmt"

	"github.com/statviz/dashkit/httpclient"
	"github.com/statviz/dashkit/logger"
)

// Service fetches dashboard resources through a request client. The
// client is constructed by the composition root and injected; there is no
// package-level default instance.
type Service struct {
	client   *httpclient.Client
	fallback FallbackProvider
	log      *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFallback injects the fallback policy consulted when a fetch fails.
func WithFallback(p FallbackProvider) Option {
	return func(s *Service) { s.fallback = p }
}

// WithLogger injects a logger. Defaults to a no-op logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log.WithComponent("dataservice") }
}

// New creates a data service over the given client.
func New(client *httpclient.Client, opts ...Option) *Service {
	s := &Service{client: client, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics fetches the named metric series over the given window
// (e.g. "24h").
func (s *Service) Metrics(ctx context.Context, name, window string) (*Series, error) {
	resource := "metrics:" + name

	resp, err := s.client.Get(ctx, "/metrics/"+name,
		httpclient.WithQueryParam("window", window))
	if err != nil {
		if value, ok := s.recover(ctx, resource, err); ok {
			if series, ok := value.(*Series); ok {
				return series, nil
			}
		}
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}

	var series Series
	if err := resp.Decode(&series); err != nil {
		return nil, fmt.Errorf("decode %s: %w", resource, err)
	}
	s.log.Debug("Fetched series", logger.Fields(
		logger.FieldResource, resource,
		"points", len(series.Points),
	))
	return &series, nil
}

// Alerts fetches the current alert list.
func (s *Service) Alerts(ctx context.Context) ([]Alert, error) {
	resp, err := s.client.Get(ctx, "/alerts")
	if err != nil {
		if value, ok := s.recover(ctx, "alerts", err); ok {
			if alerts, ok := value.([]Alert); ok {
				return alerts, nil
			}
		}
		return nil, fmt.Errorf("fetch alerts: %w", err)
	}

	var alerts []Alert
	if err := resp.Decode(&alerts); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	return alerts, nil
}

// Acknowledge marks an alert as acknowledged.
func (s *Service) Acknowledge(ctx context.Context, alertID string) error {
	_, err := s.client.Post(ctx, "/alerts/"+alertID+"/ack", nil)
	if err != nil {
		return fmt.Errorf("acknowledge alert %s: %w", alertID, err)
	}
	return nil
}

// Summary fetches the dashboard headline figures.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	resp, err := s.client.Get(ctx, "/summary")
	if err != nil {
		if value, ok := s.recover(ctx, "summary", err); ok {
			if summary, ok := value.(*Summary); ok {
				return summary, nil
			}
		}
		return nil, fmt.Errorf("fetch summary: %w", err)
	}

	var summary Summary
	if err := resp.Decode(&summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &summary, nil
}

// recover consults the fallback policy for a failed resource.
func (s *Service) recover(ctx context.Context, resource string, err error) (any, bool) {
	if s.fallback == nil {
		return nil, false
	}
	value, ok := s.fallback.Fallback(ctx, resource, err)
	if !ok {
		return nil, false
	}
	s.log.Warn("Serving fallback data", logger.Fields(
		logger.FieldResource, resource,
		logger.FieldError, err.Error(),
		logger.FieldFallback, true,
	))
	return value, true
}
