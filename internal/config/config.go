// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory scan queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scan workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds how many scan ids are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// DefaultTrials applies when a request leaves trials unset.
	DefaultTrials int `koanf:"default_trials"`

	// MaxTrials caps trials per play per request.
	MaxTrials int `koanf:"max_trials"`

	// RiskWeight is the recommender's penalty per turnover percentage point.
	RiskWeight float64 `koanf:"risk_weight"`

	// Seed is the base seed for requests that do not carry their own.
	Seed int64 `koanf:"seed"`

	// TrialWorkers sets goroutines per aggregation.
	TrialWorkers int `koanf:"trial_workers"`

	// ScanTimeoutMS bounds one asynchronous scan. Zero disables the bound.
	ScanTimeoutMS int `koanf:"scan_timeout_ms"`

	// ShutdownGraceMS is how long shutdown waits for queued scans before
	// cancelling them.
	ShutdownGraceMS int `koanf:"shutdown_grace_ms"`

	// CatalogPath optionally replaces the embedded catalog.
	CatalogPath string `koanf:"catalog_path"`

	// StorePath enables the SQLite scan store at this path.
	StorePath string `koanf:"store_path"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		QueueSize:     1024,
		WorkerCount:   runtime.NumCPU(),
		DedupeSize:    10_000,
		DefaultTrials: 1000,
		MaxTrials:     100_000,
		RiskWeight:    0.15,
		Seed:          42,
		TrialWorkers:  1,
		ScanTimeoutMS: 30_000,

		ShutdownGraceMS: 30_000,
	}
}

// ScanTimeout returns ScanTimeoutMS as a duration.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutMS) * time.Millisecond
}

// ShutdownGrace returns ShutdownGraceMS as a duration.
func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceMS) * time.Millisecond
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.DefaultTrials < 1:
		return fmt.Errorf("%w: default_trials must be positive, got %d", ErrInvalidConfig, c.DefaultTrials)
	case c.MaxTrials < c.DefaultTrials:
		return fmt.Errorf("%w: max_trials %d below default_trials %d", ErrInvalidConfig, c.MaxTrials, c.DefaultTrials)
	case c.RiskWeight < 0:
		return fmt.Errorf("%w: risk_weight must not be negative, got %g", ErrInvalidConfig, c.RiskWeight)
	case c.TrialWorkers < 1:
		return fmt.Errorf("%w: trial_workers must be positive, got %d", ErrInvalidConfig, c.TrialWorkers)
	case c.ScanTimeoutMS < 0:
		return fmt.Errorf("%w: scan_timeout_ms must not be negative, got %d", ErrInvalidConfig, c.ScanTimeoutMS)
	case c.ShutdownGraceMS < 1:
		return fmt.Errorf("%w: shutdown_grace_ms must be positive, got %d", ErrInvalidConfig, c.ShutdownGraceMS)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
