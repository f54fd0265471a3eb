package dataservice

import (
	"context"
	"math/rand"
	"time"
)

// FallbackProvider decides whether a failed fetch can be answered with
// locally synthesized data instead. It is an explicit, injected policy:
// nothing in the service infers it from an environment or build mode.
//
// Fallback receives the resource key that failed (e.g. "metrics:cpu",
// "alerts", "summary") and the structured error, and returns a replacement
// value and true to recover, or false to let the error propagate.
type FallbackProvider interface {
	Fallback(ctx context.Context, resource string, err error) (any, bool)
}

// MockProvider is a FallbackProvider that synthesizes plausible dashboard
// data deterministically from a seed. It recovers every failure, whatever
// the classification; callers wanting a narrower policy wrap it.
type MockProvider struct {
	seed int64
	now  func() time.Time
}

// NewMockProvider creates a provider seeded for reproducible data.
func NewMockProvider(seed int64) *MockProvider {
	return &MockProvider{seed: seed, now: time.Now}
}

// Fallback implements FallbackProvider.
func (p *MockProvider) Fallback(_ context.Context, resource string, _ error) (any, bool) {
	switch resource {
	case "alerts":
		return p.Alerts(6), true
	case "summary":
		return p.Summary(), true
	default:
		// metrics:<name>
		name := resource
		if len(resource) > len("metrics:") && resource[:len("metrics:")] == "metrics:" {
			name = resource[len("metrics:"):]
		}
		return p.Series(name, 96), true
	}
}

// Series synthesizes a metric series with n points at 15-minute intervals,
// ending now.
func (p *MockProvider) Series(name string, n int) *Series {
	rng := rand.New(rand.NewSource(p.seed + int64(len(name))))
	end := p.now().Truncate(time.Minute)

	points := make([]MetricPoint, n)
	value := 40 + rng.Float64()*20
	for i := range points {
		// Random walk keeps the chart plausible.
		value += rng.Float64()*10 - 5
		if value < 0 {
			value = 0
		}
		points[i] = MetricPoint{
			Timestamp: end.Add(-time.Duration(n-1-i) * 15 * time.Minute),
			Value:     float64(int(value*100)) / 100,
		}
	}
	return &Series{Name: name, Unit: "percent", Points: points}
}

// Alerts synthesizes n alerts, newest first.
func (p *MockProvider) Alerts(n int) []Alert {
	rng := rand.New(rand.NewSource(p.seed))
	severities := []string{SeverityInfo, SeverityWarning, SeverityCritical}
	messages := []string{
		"Error rate above threshold",
		"Latency p99 exceeded 500ms",
		"Disk usage above 80%",
		"Queue depth growing",
		"Certificate expires within 14 days",
	}

	alerts := make([]Alert, n)
	now := p.now()
	for i := range alerts {
		alerts[i] = Alert{
			ID:           alertID(rng),
			Severity:     severities[rng.Intn(len(severities))],
			Message:      messages[rng.Intn(len(messages))],
			Acknowledged: rng.Intn(3) == 0,
			CreatedAt:    now.Add(-time.Duration(i) * 37 * time.Minute),
		}
	}
	return alerts
}

// Summary synthesizes the headline figures.
func (p *MockProvider) Summary() *Summary {
	rng := rand.New(rand.NewSource(p.seed + 1))
	return &Summary{
		TotalUsers:   10000 + rng.Intn(5000),
		ActiveUsers:  1000 + rng.Intn(2000),
		ErrorRate:    float64(rng.Intn(500)) / 100,
		AvgLatencyMS: 50 + float64(rng.Intn(200)),
	}
}

const alertIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func alertID(rng *rand.Rand) string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = alertIDAlphabet[rng.Intn(len(alertIDAlphabet))]
	}
	return "alrt-" + string(b)
}
