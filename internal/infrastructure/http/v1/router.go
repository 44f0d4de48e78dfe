// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"policyhub/internal/domain/auth"
	"policyhub/internal/domain/numbering"
	"policyhub/internal/infrastructure/http/v1/handlers"
	"policyhub/internal/infrastructure/http/v1/middleware"
	"policyhub/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Numbering issues numbers and manages generators
	Numbering *numbering.Service

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation; nil disables bearer tokens entirely
	JWTValidator middleware.JWTValidator

	// AuthRequired rejects requests without a valid token and enforces roles
	AuthRequired bool

	// Idempotency stores X-Idempotency-Key responses; nil disables the middleware
	Idempotency middleware.IdempotencyStore

	// Health probes for /health/ready, keyed by component name
	HealthChecks map[string]handlers.HealthChecker

	// Backend name reported by /health/info
	Backend string

	// Version reported by /health/info
	Version string

	// Gatherer exposed on /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.Backend, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "route not found"})
	})

	v1 := router.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.Tenant()) // 1. Resolve tenant
	switch {
	case cfg.JWTValidator != nil && cfg.AuthRequired:
		protected.Use(middleware.Auth(cfg.JWTValidator)) // 2. Validate JWT
	case cfg.JWTValidator != nil:
		protected.Use(middleware.OptionalAuth(cfg.JWTValidator))
	}
	if cfg.Idempotency != nil {
		protected.Use(middleware.Idempotency(cfg.Idempotency)) // 3. Replay retried requests
	}

	registerNumberingRoutes(protected, cfg)

	return router
}

// registerNumberingRoutes registers generator configuration and issuance endpoints.
func registerNumberingRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewNumberingHandler(handlers.NewBaseHandler(), cfg.Numbering)

	admin := requireRole(cfg, auth.RoleAdmin)
	issuer := requireRole(cfg, auth.RoleIssuer, auth.RoleAdmin)

	generators := rg.Group("/numbering/generators")
	generators.GET("", handler.List)
	generators.POST("", admin, handler.Create)
	generators.POST("/validate", handler.Validate)
	generators.GET("/:productCode", handler.Get)
	generators.PUT("/:productCode", admin, handler.Update)
	generators.GET("/:productCode/history", handler.History)
	generators.POST("/:productCode/next", issuer, handler.Next)
	generators.POST("/:productCode/decode", handler.Decode)
}

// requireRole enforces roles only when authentication is mandatory.
func requireRole(cfg RouterConfig, roles ...string) gin.HandlerFunc {
	if cfg.JWTValidator == nil || !cfg.AuthRequired {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RequireRole(roles...)
}
