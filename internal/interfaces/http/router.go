package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-lineage/internal/interfaces/http/handlers"
	"github.com/turtacn/keyip-lineage/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree. The middleware fields take the
// plain func(http.Handler) http.Handler shape the chi router expects, since
// that is what each middleware constructor in this package returns.
type RouterConfig struct {
	// Handlers
	LineageHandler *handlers.LineageHandler
	HealthHandler  *handlers.HealthHandler

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware
	CORS           func(http.Handler) http.Handler
	Logging        func(http.Handler) http.Handler
	RateLimit      func(http.Handler) http.Handler
	Tenant         func(http.Handler) http.Handler

	// Infrastructure
	Logger logging.Logger
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
// It wires global middleware, public health endpoints, and authenticated API v1
// resource groups into a single http.Handler suitable for use with http.Server.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	if cfg.Logging != nil {
		r.Use(cfg.Logging)
	}
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit)
	}

	// --- Public health endpoints (no auth) ---
	r.Group(func(pub chi.Router) {
		if cfg.HealthHandler != nil {
			pub.Get("/healthz", cfg.HealthHandler.Liveness)
			pub.Get("/readyz", cfg.HealthHandler.Readiness)
			pub.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		}
	})

	// --- API v1 (authenticated + tenant-scoped) ---
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.Authenticate())
		}
		if cfg.Tenant != nil {
			api.Use(cfg.Tenant)
		}

		registerLineageRoutes(api, cfg.LineageHandler)
	})

	return r
}

// registerLineageRoutes mounts the traversal engine's endpoints under
// /lineage: getLineage itself plus its count- and impact-summary siblings.
func registerLineageRoutes(r chi.Router, h *handlers.LineageHandler) {
	if h == nil {
		return
	}
	h.RegisterRoutes(r)
}
