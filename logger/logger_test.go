package logger

import (
	"errors"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected info, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected console, got %s", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected stdout, got %s", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamps enabled")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Level: "debug", Format: "json", Output: "stderr"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg = Config{Level: "verbose", Format: "json"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}

	cfg = Config{Level: "info", Format: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestLogger_DoesNotPanic(t *testing.T) {
	log := New(Config{Level: "debug", Format: "json"}, "test")

	log.Debug("debug message")
	log.Info("info message", Fields("resource", "metrics"))
	log.Warn("warn message", ErrorFields("fetch", errors.New("boom")))
	log.Error("error message", DurationFields("fetch", 120*time.Millisecond))

	log.WithComponent("sub").Info("tagged")
	log.WithError(errors.New("boom")).Error("with error")
	log.WithFields(map[string]interface{}{"k": "v"}).Info("with fields")
	Nop().Info("discarded")
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two")
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected map: %v", m)
	}

	// Odd trailing value is dropped, non-string keys skipped.
	m = Fields("a", 1, "dangling")
	if len(m) != 1 {
		t.Errorf("expected 1 entry, got %v", m)
	}
	m = Fields(42, "x")
	if len(m) != 0 {
		t.Errorf("expected empty map, got %v", m)
	}
}
