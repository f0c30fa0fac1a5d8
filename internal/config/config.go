// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New builds a Config with defaults; Load layers a YAML file and env vars on top.
// - The model name used by the HTTP layer when a request omits one lives here and
//   is read-only after startup.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Storage backends accepted by StorageBackend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StorageBackend is one of memory, sqlite, postgres.
	StorageBackend string `koanf:"storage_backend"`

	// DatabaseDSN is the sqlite path or postgres connection string.
	DatabaseDSN string `koanf:"database_dsn"`

	// BaselineFile is an optional YAML file of baseline models loaded at startup.
	BaselineFile string `koanf:"baseline_file"`

	// DefaultModel is used when a request does not name a baseline model.
	DefaultModel string `koanf:"default_model"`

	// ShortGameYards is the approach/around-green threshold given to models
	// that do not set their own.
	ShortGameYards float64 `koanf:"short_game_yards"`

	// FetchTimeoutMS bounds every repository fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// FetchRetries is how many times an unavailable fetch is retried.
	FetchRetries int `koanf:"fetch_retries"`

	// WorkerCount bounds per-round strokes-gained enrichment.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the shot submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRollingWindow caps GET /players/{id}/rolling?window.
	MaxRollingWindow int `koanf:"max_rolling_window"`

	// MetricsEnabled switches the Prometheus recorders; /healthz keeps serving
	// the registry either way.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// SystemMetricsIntervalMS is how often process gauges are refreshed.
	SystemMetricsIntervalMS int `koanf:"system_metrics_interval_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		StorageBackend:   BackendMemory,
		DefaultModel:     "tour",
		ShortGameYards:   30,
		FetchTimeoutMS:   2000,
		FetchRetries:     2,
		WorkerCount:      runtime.NumCPU() * 2,
		DedupeSize:       100_000,
		MaxRollingWindow: 50,

		MetricsEnabled:          true,
		SystemMetricsIntervalMS: 10_000,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// SystemMetricsInterval returns SystemMetricsIntervalMS as a duration.
func (c *Config) SystemMetricsInterval() time.Duration {
	return time.Duration(c.SystemMetricsIntervalMS) * time.Millisecond
}

// Validate reports the first invalid field wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DefaultModel == "":
		return fmt.Errorf("%w: default_model must not be empty", ErrInvalidConfig)
	case c.ShortGameYards <= 0:
		return fmt.Errorf("%w: short_game_yards must be positive", ErrInvalidConfig)
	case c.FetchTimeoutMS <= 0:
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	case c.FetchRetries < 0:
		return fmt.Errorf("%w: fetch_retries must not be negative", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxRollingWindow <= 0:
		return fmt.Errorf("%w: max_rolling_window must be positive", ErrInvalidConfig)
	case c.SystemMetricsIntervalMS <= 0:
		return fmt.Errorf("%w: system_metrics_interval_ms must be positive", ErrInvalidConfig)
	}

	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.DatabaseDSN == "" {
			c.DatabaseDSN = "sgengine.db"
		}
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("%w: database_dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_backend %q", ErrInvalidConfig, c.StorageBackend)
	}
	return nil
}
