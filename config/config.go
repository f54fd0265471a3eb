// Package config loads dashkit configuration from YAML files, .env files,
// and DASHKIT_* environment variables, in that order of precedence
// (environment wins). Loaded configuration is validated with struct tags.
package config

import (
	"time"

	"github.com/statviz/dashkit/logger"
)

// AppConfig is the root configuration for the dashboard data layer.
type AppConfig struct {
	// Service names this deployment in logs.
	Service string `mapstructure:"service" validate:"required"`

	API    APIConfig     `mapstructure:"api"`
	Log    logger.Config `mapstructure:"log"`
	Mock   MockConfig    `mapstructure:"mock"`
	Export ExportConfig  `mapstructure:"export"`
}

// APIConfig configures the request client.
type APIConfig struct {
	BaseURL    string            `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout    time.Duration     `mapstructure:"timeout" validate:"gte=0"`
	Retries    int               `mapstructure:"retries" validate:"gte=0"`
	RetryDelay time.Duration     `mapstructure:"retry_delay" validate:"gte=0"`
	Headers    map[string]string `mapstructure:"headers"`
	// Breaker enables the client circuit breaker.
	Breaker bool `mapstructure:"breaker"`
}

// MockConfig configures the in-process mock API used in development.
type MockConfig struct {
	Enabled bool  `mapstructure:"enabled"`
	Port    int   `mapstructure:"port" validate:"gte=0,lte=65535"`
	Seed    int64 `mapstructure:"seed"`
}

// ExportConfig configures file export of fetched series.
type ExportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=csv json"`
}

// ApplyDefaults fills zero-value fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Service == "" {
		c.Service = "dashkit"
	}
	if c.Mock.Port == 0 {
		c.Mock.Port = 8080
	}
	if c.Export.Format == "" {
		c.Export.Format = "csv"
	}
	c.Log.ApplyDefaults()
}
