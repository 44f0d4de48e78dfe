// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is a dependency probed by the readiness endpoint.
// Implemented by postgres.Pool and redis.Client.
type HealthChecker interface {
	Health(ctx context.Context) error
}

const readyTimeout = 2 * time.Second

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	version string
	backend string
	checks  map[string]HealthChecker
}

// NewHealthHandler creates a new health handler.
// checks maps a component name ("postgres", "redis") to its probe.
func NewHealthHandler(version, backend string, checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{version: version, backend: backend, checks: checks}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (can the counter store be reached?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = "unhealthy: " + err.Error()
			continue
		}
		results[name] = "healthy"
	}

	body := gin.H{"status": "ok", "checks": results}
	if status != http.StatusOK {
		body["status"] = "error"
	}
	c.JSON(status, body)
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":     "policyhub",
		"version": h.version,
		"backend": h.backend,
	})
}
