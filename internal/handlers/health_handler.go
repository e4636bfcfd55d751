package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	statusHealthy   = "Healthy"
	statusDegraded  = "Degraded"
	statusUnhealthy = "Unhealthy"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	database Pinger
	cache    Pinger
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewHealthHandler creates a HealthHandler. A nil cache pinger is reported
// as healthy.
func NewHealthHandler(database, cache Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		database: database,
		cache:    cache,
		timeout:  2 * time.Second,
		logger:   logger.Named("health"),
		now:      time.Now,
	}
}

// RegisterRoutes registers the health routes with the Fiber app.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleLiveness)
	router.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness reports that the process is serving requests.
func (h *HealthHandler) HandleLiveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    statusHealthy,
		"timestamp": h.now().UTC(),
	})
}

// HandleReadiness checks the database and the cache. The service cannot
// work without its database; a cache outage only degrades it.
func (h *HealthHandler) HandleReadiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status := statusHealthy
	code := fiber.StatusOK
	checks := fiber.Map{"database": statusHealthy, "cache": statusHealthy}

	if err := h.database.Ping(ctx); err != nil {
		h.logger.Error("database not ready", zap.Error(err))
		checks["database"] = statusUnhealthy
		status = statusUnhealthy
		code = fiber.StatusServiceUnavailable
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Warn("cache not ready", zap.Error(err))
			checks["cache"] = statusDegraded
			if status == statusHealthy {
				status = statusDegraded
			}
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": h.now().UTC(),
	})
}
