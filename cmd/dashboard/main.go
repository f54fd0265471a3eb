// Command dashboard is the composition root of the dashkit data layer: it
// loads configuration, wires one request client with its interceptors,
// fetches the dashboard resources, and exports them to a file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/statviz/dashkit/config"
	"github.com/statviz/dashkit/dataservice"
	"github.com/statviz/dashkit/export"
	"github.com/statviz/dashkit/httpclient"
	"github.com/statviz/dashkit/logger"
	"github.com/statviz/dashkit/mockapi"
	"github.com/statviz/dashkit/resilience"
)

func main() {
	var (
		configFile = flag.String("config", "", "path to dashkit.yaml")
		metrics    = flag.String("metrics", "cpu,memory,latency", "comma-separated metric names to fetch")
		window     = flag.String("window", "24h", "metrics window")
	)
	flag.Parse()

	cfg, err := config.Load(config.LoaderOptions{ConfigFile: *configFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, cfg.Service)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, strings.Split(*metrics, ","), *window); err != nil {
		log.Error("Run failed", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *logger.Logger, metrics []string, window string) error {
	baseURL := cfg.API.BaseURL

	// In mock mode an in-process API serves the dashboard instead of a
	// remote backend.
	if cfg.Mock.Enabled {
		mock := mockapi.New(mockapi.Config{Port: cfg.Mock.Port, Seed: cfg.Mock.Seed}, log)
		if err := mock.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = mock.Shutdown(shutdownCtx)
		}()
		baseURL = mock.BaseURL()
	}

	clientCfg := httpclient.Config{
		BaseURL:    baseURL,
		Timeout:    cfg.API.Timeout,
		Retries:    cfg.API.Retries,
		RetryDelay: cfg.API.RetryDelay,
		Headers:    cfg.API.Headers,
	}
	if cfg.API.Breaker {
		breaker := resilience.DefaultBreakerConfig(cfg.Service)
		clientCfg.CircuitBreaker = &breaker
	}

	client := httpclient.New(clientCfg)
	client.AddRequestInterceptor(httpclient.RequestIDInterceptor())
	client.AddRequestInterceptor(httpclient.TracePropagationInterceptor())

	var opts []dataservice.Option
	opts = append(opts, dataservice.WithLogger(log))
	if cfg.Mock.Enabled {
		// Explicit policy: synthesized data may stand in for a failed
		// fetch only when mock mode is on.
		opts = append(opts, dataservice.WithFallback(dataservice.NewMockProvider(cfg.Mock.Seed)))
	}
	svc := dataservice.New(client, opts...)

	summary, err := svc.Summary(ctx)
	if err != nil {
		return err
	}
	log.Info("Summary", logger.Fields(
		"total_users", summary.TotalUsers,
		"active_users", summary.ActiveUsers,
		"error_rate", summary.ErrorRate,
		"avg_latency_ms", summary.AvgLatencyMS,
	))

	alerts, err := svc.Alerts(ctx)
	if err != nil {
		return err
	}
	for _, a := range alerts {
		log.Info("Alert", logger.Fields(
			"id", a.ID,
			"severity", a.Severity,
			"message", a.Message,
		))
	}

	var fetched []*dataservice.Series
	for _, name := range metrics {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		series, err := svc.Metrics(ctx, name, window)
		if err != nil {
			return err
		}
		fetched = append(fetched, series)
	}

	outPath := filepath.Join(cfg.Export.Dir, "dashboard."+cfg.Export.Format)
	if err := export.SeriesFile(outPath, fetched...); err != nil {
		return err
	}
	log.Info("Exported series", logger.Fields(
		"path", outPath,
		"series", len(fetched),
	))
	return nil
}
