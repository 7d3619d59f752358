// Command apiserver runs the lineage traversal engine's HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	applineage "github.com/turtacn/keyip-lineage/internal/application/lineage"
	"github.com/turtacn/keyip-lineage/internal/config"
	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/registry"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/search/opensearch"
	httpserver "github.com/turtacn/keyip-lineage/internal/interfaces/http"
	"github.com/turtacn/keyip-lineage/internal/interfaces/http/handlers"
	"github.com/turtacn/keyip-lineage/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, falling back to env-only configuration\n", err)
		cfg, err = config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: failed to build logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting lineage api server",
		logging.String("index", cfg.Lineage.IndexName),
		logging.Int("port", cfg.Server.Port),
	)

	metrics, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		Subsystem:            cfg.Metrics.Subsystem,
		EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
		EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
	}, logger)
	if err != nil {
		logger.Error("failed to build metrics collector", logging.Err(err))
		os.Exit(1)
	}

	osClient, err := opensearch.NewClient(opensearch.ClientConfig{
		Addresses: cfg.OpenSearch.Addresses,
		Username:  cfg.OpenSearch.User,
		Password:  cfg.OpenSearch.Password,
	}, logger)
	if err != nil {
		logger.Error("failed to build opensearch client", logging.Err(err))
		os.Exit(1)
	}

	searcher := opensearch.NewSearcher(osClient, opensearch.SearcherConfig{
		DefaultPageSize: cfg.Lineage.BatchSize,
		MaxPageSize:     cfg.Lineage.MaxResultWindow,
		SearchTimeout:   cfg.Lineage.Timeout,
	}, logger)
	searchClient := opensearch.NewLineageSearchAdapter(searcher)

	reg, err := registry.LoadStaticRegistry(cfg.Lineage.RegistrySchema)
	if err != nil {
		logger.Error("failed to load edge schema registry", logging.Err(err))
		os.Exit(1)
	}

	service := applineage.NewService(cfg.Lineage.IndexName, searchClient, reg, metrics, logger, cfg.Lineage.Timeout)
	lineageHandler := handlers.NewLineageHandler(service)
	healthHandler := handlers.NewHealthHandler(cfg.Lineage.IndexName, openSearchHealthChecker{client: osClient})

	router := httpserver.NewRouter(httpserver.RouterConfig{
		LineageHandler: lineageHandler,
		HealthHandler:  healthHandler,
		AuthMiddleware: buildAuthMiddleware(cfg.Auth, logger),
		CORS:           buildCORSMiddleware(cfg.CORS),
		Logging:        middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()),
		RateLimit:      buildRateLimitMiddleware(cfg.RateLimit),
		Tenant:         buildTenantMiddleware(cfg.Tenant, logger),
		Logger:         logger,
	})

	srv := httpserver.NewServer(httpserver.ServerConfig{
		Port: cfg.Server.Port,
	}, router, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Error("server exited with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// buildAuthMiddleware wires a StaticAPIKeyValidator from the configured
// key table. Authentication is skipped entirely when disabled, since this
// deployment has no token issuer and the static table is the only credential
// source.
func buildAuthMiddleware(cfg config.AuthConfig, logger logging.Logger) *middleware.AuthMiddleware {
	if !cfg.Enabled {
		return nil
	}
	keys := make(map[string]middleware.APIKeyInfo, len(cfg.APIKeys))
	for key, tenantID := range cfg.APIKeys {
		keys[key] = middleware.APIKeyInfo{KeyID: key, TenantID: tenantID}
	}
	return middleware.NewAuthMiddleware(
		middleware.DisabledTokenValidator{},
		middleware.NewStaticAPIKeyValidator(keys),
		middleware.AuthConfig{SkipPaths: cfg.SkipPaths},
		logger,
	)
}

// buildCORSMiddleware returns nil when CORS is disabled so the router
// installs no handler at all, rather than a permissive no-op one.
func buildCORSMiddleware(cfg config.CORSConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return nil
	}
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins
	return middleware.NewCORSMiddleware(corsCfg).Handler
}

// buildRateLimitMiddleware wires a token-bucket limiter keyed by tenant so
// multi-tenant callers cannot starve each other under a shared limit.
func buildRateLimitMiddleware(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return nil
	}
	limiter := middleware.NewTokenBucketLimiter(cfg.RequestsPerSecond, cfg.BurstSize, time.Minute)
	limitCfg := middleware.DefaultRateLimitConfig()
	limitCfg.RequestsPerSecond = cfg.RequestsPerSecond
	limitCfg.BurstSize = cfg.BurstSize
	limitCfg.KeyFunc = middleware.CompositeKeyFunc
	return middleware.RateLimit(limiter, limitCfg)
}

// buildTenantMiddleware extracts and validates the tenant ID ambient to
// every lineage request.
func buildTenantMiddleware(cfg config.TenantConfig, logger logging.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return nil
	}
	tenantCfg := middleware.DefaultTenantConfig()
	tenantCfg.Required = cfg.Required
	tenantCfg.AllowedTenants = cfg.AllowedTenants
	return middleware.NewTenantMiddleware(tenantCfg, logger)
}

// openSearchHealthChecker reports OpenSearch reachability for the
// readiness probe without importing handlers into the opensearch package.
type openSearchHealthChecker struct {
	client *opensearch.Client
}

func (c openSearchHealthChecker) Name() string { return "opensearch" }

func (c openSearchHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return c.client.Ping(ctx)
}

var _ domain.SearchClient = (*opensearch.LineageSearchAdapter)(nil)
