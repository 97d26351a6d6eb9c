package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is anything whose connectivity can be checked
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	storage Pinger
	started time.Time
}

// NewHealthHandlers creates a new health handlers instance. cache and storage may be nil.
func NewHealthHandlers(db, cache, storage Pinger) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		storage: storage,
		started: time.Now(),
	}
}

// HealthStatus represents the readiness report
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
}

// LivenessCheck handles GET /health
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /health/ready. The database is required; cache and
// storage outages degrade the report without failing it.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	health := &HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}

	statusCode := http.StatusOK
	if !h.checkDependency(ctx, health, "database", h.db) {
		health.Status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}
	if !h.checkDependency(ctx, health, "redis", h.cache) && health.Status == "ready" {
		health.Status = "degraded"
	}
	if !h.checkDependency(ctx, health, "storage", h.storage) && health.Status == "ready" {
		health.Status = "degraded"
	}

	return c.JSON(statusCode, health)
}

func (h *HealthHandlers) checkDependency(ctx context.Context, health *HealthStatus, name string, p Pinger) bool {
	if p == nil {
		health.Services[name] = "disabled"
		return true
	}
	if err := p.Ping(ctx); err != nil {
		health.Services[name] = "unhealthy"
		return false
	}
	health.Services[name] = "healthy"
	return true
}
