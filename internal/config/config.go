// Package config defines all configuration structures for the lineage
// traversal platform. No I/O or parsing logic lives here — only plain data
// types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OpenSearchConfig holds OpenSearch cluster connection parameters.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
	ScrollSize         int      `mapstructure:"scroll_size"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "text"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
	SamplingRate     int    `mapstructure:"sampling_rate"`
}

// LineageConfig holds the lineage traversal engine's tunables. The spec's
// fixed protocol constants (domain/lineage.BatchSize, MaxElasticResult,
// DefaultTimeoutSecs) are used as defaults here — an operator can retune
// them per deployment without a code change, but the committed defaults
// never change behavior out of the box.
type LineageConfig struct {
	IndexName       string        `mapstructure:"index_name"`
	BatchSize       int           `mapstructure:"batch_size"`
	MaxResultWindow int           `mapstructure:"max_result_window"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RegistrySchema  string        `mapstructure:"registry_schema"`
}

// MetricsConfig holds Prometheus metrics-registry parameters.
type MetricsConfig struct {
	Namespace            string `mapstructure:"namespace"`
	Subsystem            string `mapstructure:"subsystem"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// AuthConfig holds HTTP authentication parameters. APIKeys maps a raw key
// value to the tenant it belongs to. Only Enabled=false turns authentication
// off; with Enabled set and an empty map no key validates, so every request
// outside SkipPaths is rejected with 401.
type AuthConfig struct {
	Enabled   bool              `mapstructure:"enabled"`
	APIKeys   map[string]string `mapstructure:"api_keys"`
	SkipPaths []string          `mapstructure:"skip_paths"`
}

// RateLimitConfig holds the token-bucket parameters applied per client.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// CORSConfig holds cross-origin request parameters for the HTTP API.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// TenantConfig holds multi-tenant request-scoping parameters.
type TenantConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Required       bool     `mapstructure:"required"`
	AllowedTenants []string `mapstructure:"allowed_tenants"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the lineage service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Log        LogConfig        `mapstructure:"log"`
	Lineage    LineageConfig    `mapstructure:"lineage"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Tenant     TenantConfig     `mapstructure:"tenant"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses must contain at least one address")
	}

	if c.Lineage.IndexName == "" {
		return fmt.Errorf("config: lineage.index_name is required")
	}
	if c.Lineage.BatchSize < 1 {
		return fmt.Errorf("config: lineage.batch_size must be ≥ 1, got %d", c.Lineage.BatchSize)
	}
	if c.Lineage.Timeout <= 0 {
		return fmt.Errorf("config: lineage.timeout must be > 0")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|text", c.Log.Format)
	}

	if c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required")
	}

	return nil
}
