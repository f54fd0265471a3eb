package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{EnvFile: "does-not-exist.env"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service != "dashkit" {
		t.Errorf("expected default service name, got %q", cfg.Service)
	}
	if cfg.Mock.Port != 8080 {
		t.Errorf("expected default mock port, got %d", cfg.Mock.Port)
	}
	if cfg.Export.Format != "csv" {
		t.Errorf("expected default export format csv, got %q", cfg.Export.Format)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level, got %q", cfg.Log.Level)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashkit.yaml")
	yaml := `
service: staging-dash
api:
  base_url: http://api.staging.local/api
  timeout: 5s
  retries: 2
  retry_delay: 200ms
  breaker: true
log:
  level: debug
  format: json
mock:
  enabled: true
  port: 9090
  seed: 7
export:
  format: json
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(LoaderOptions{ConfigFile: path, EnvFile: "does-not-exist.env"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service != "staging-dash" {
		t.Errorf("service = %q", cfg.Service)
	}
	if cfg.API.BaseURL != "http://api.staging.local/api" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.API.Retries != 2 || cfg.API.RetryDelay != 200*time.Millisecond {
		t.Errorf("retry config = %d/%v", cfg.API.Retries, cfg.API.RetryDelay)
	}
	if !cfg.API.Breaker {
		t.Error("breaker should be enabled")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log config = %+v", cfg.Log)
	}
	if !cfg.Mock.Enabled || cfg.Mock.Port != 9090 || cfg.Mock.Seed != 7 {
		t.Errorf("mock config = %+v", cfg.Mock)
	}
	if cfg.Export.Format != "json" {
		t.Errorf("export format = %q", cfg.Export.Format)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashkit.yaml")
	if err := os.WriteFile(path, []byte("api:\n  retries: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DASHKIT_API_RETRIES", "5")

	cfg, err := Load(LoaderOptions{ConfigFile: path, EnvFile: "does-not-exist.env"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Retries != 5 {
		t.Errorf("env override lost: retries = %d", cfg.API.Retries)
	}
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()

	for name, yaml := range map[string]string{
		"bad url":           "api:\n  base_url: not-a-url\n",
		"negative retries":  "api:\n  retries: -1\n",
		"bad export format": "export:\n  format: xml\n",
		"bad log level":     "log:\n  level: verbose\n",
	} {
		path := filepath.Join(dir, "dashkit.yaml")
		if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(LoaderOptions{ConfigFile: path, EnvFile: "does-not-exist.env"}); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("DASHKIT_SERVICE=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("DASHKIT_SERVICE") })

	cfg, err := Load(LoaderOptions{EnvFile: envPath})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service != "from-dotenv" {
		t.Errorf("expected service from .env, got %q", cfg.Service)
	}
}
