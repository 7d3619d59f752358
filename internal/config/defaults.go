// Package config provides configuration loading, defaults, and validation for
// the lineage traversal platform.
package config

import (
	"time"

	"github.com/turtacn/keyip-lineage/internal/domain/lineage"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultOpenSearchAddr = "http://localhost:9200"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultLineageIndexName      = "graph_edge_v2"
	DefaultLineageRegistrySchema = "configs/edge-schema.yaml"
	DefaultMetricsNamespace      = "keyip_lineage"

	DefaultRateLimitRequestsPerSecond = 50
	DefaultRateLimitBurstSize         = 100
)

// DefaultAuthSkipPaths lists the paths that bypass authentication when no
// explicit skip list is configured.
var DefaultAuthSkipPaths = []string{"/health", "/metrics"}

// DefaultCORSAllowedOrigins is the fallback origin list when CORS is enabled
// without an explicit allow-list.
var DefaultCORSAllowedOrigins = []string{"*"}

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}

	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddr}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Lineage.IndexName == "" {
		cfg.Lineage.IndexName = DefaultLineageIndexName
	}
	if cfg.Lineage.BatchSize == 0 {
		cfg.Lineage.BatchSize = lineage.BatchSize
	}
	if cfg.Lineage.MaxResultWindow == 0 {
		cfg.Lineage.MaxResultWindow = lineage.MaxElasticResult
	}
	if cfg.Lineage.Timeout == 0 {
		cfg.Lineage.Timeout = lineage.DefaultTimeoutSecs * time.Second
	}
	if cfg.Lineage.RegistrySchema == "" {
		cfg.Lineage.RegistrySchema = DefaultLineageRegistrySchema
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	if len(cfg.Auth.SkipPaths) == 0 {
		cfg.Auth.SkipPaths = DefaultAuthSkipPaths
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = DefaultRateLimitRequestsPerSecond
	}
	if cfg.RateLimit.BurstSize == 0 {
		cfg.RateLimit.BurstSize = DefaultRateLimitBurstSize
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = DefaultCORSAllowedOrigins
	}
}
