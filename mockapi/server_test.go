package mockapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/statviz/dashkit/dataservice"
	"github.com/statviz/dashkit/httpclient"
	"github.com/statviz/dashkit/logger"
)

func testServer(t *testing.T) (*Server, *httpclient.Client) {
	t.Helper()
	s := New(Config{Seed: 42}, logger.Nop())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	c := httpclient.New(httpclient.Config{
		BaseURL:    ts.URL + "/api",
		Retries:    2,
		RetryDelay: time.Millisecond,
	})
	return s, c
}

func TestServer_Metrics(t *testing.T) {
	_, c := testServer(t)

	resp, err := c.Get(context.Background(), "/metrics/cpu",
		httpclient.WithQueryParam("window", "6h"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var series dataservice.Series
	if err := resp.Decode(&series); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if series.Name != "cpu" {
		t.Errorf("expected cpu, got %q", series.Name)
	}
	// 6h at 15m resolution.
	if len(series.Points) != 24 {
		t.Errorf("expected 24 points, got %d", len(series.Points))
	}
}

func TestServer_Metrics_BadWindow(t *testing.T) {
	_, c := testServer(t)

	_, err := c.Get(context.Background(), "/metrics/cpu",
		httpclient.WithQueryParam("window", "soon"))
	if err == nil {
		t.Fatal("expected error")
	}
	reqErr, ok := httpclient.AsError(err)
	if !ok || !reqErr.IsClientError() {
		t.Errorf("expected 4xx structured error, got %v", err)
	}
	if reqErr.Message != "bad window parameter" {
		t.Errorf("expected message from body, got %q", reqErr.Message)
	}
}

func TestServer_AlertsAndAck(t *testing.T) {
	_, c := testServer(t)

	resp, err := c.Get(context.Background(), "/alerts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var alerts []dataservice.Alert
	if err := resp.Decode(&alerts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(alerts) == 0 {
		t.Fatal("expected alerts")
	}

	if _, err := c.Post(context.Background(), "/alerts/"+alerts[0].ID+"/ack", nil); err != nil {
		t.Fatalf("ack: %v", err)
	}
}

func TestServer_FailureInjection(t *testing.T) {
	_, c := testServer(t)

	_, err := c.Get(context.Background(), "/summary",
		httpclient.WithQueryParam("fail", "500"),
		httpclient.WithRetries(0))
	if err == nil {
		t.Fatal("expected injected failure")
	}
	reqErr, _ := httpclient.AsError(err)
	if reqErr.Status != 500 || reqErr.Message != "injected failure" {
		t.Errorf("unexpected error: %+v", reqErr)
	}
}

func TestServer_FlakyExercisesRetry(t *testing.T) {
	_, c := testServer(t)

	// Fails twice with 503, then succeeds: retries should absorb it.
	resp, err := c.Get(context.Background(), "/summary",
		httpclient.WithQueryParam("flaky", "2"))
	if err != nil {
		t.Fatalf("retries should have absorbed the flakiness: %v", err)
	}

	var summary dataservice.Summary
	if err := resp.Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.TotalUsers == 0 {
		t.Error("expected populated summary")
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := New(Config{Seed: 1}, logger.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	}()

	c := httpclient.New(httpclient.Config{BaseURL: s.BaseURL()})
	if _, err := c.Get(context.Background(), "/summary"); err != nil {
		t.Fatalf("request against started server: %v", err)
	}
}
