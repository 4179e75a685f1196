package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/post-gateway/internal/middleware"
	"github.com/deppfellow/post-gateway/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Health statuses reported by /status.
const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthHandler exposes a "system" endpoint that monitors and load balancers
// use to verify the gateway is alive and the upstream is reachable.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler with access to shared app dependencies.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth returns the gateway health status and dependency checks.
//
// Response includes:
// - overall status (healthy/unhealthy)
// - timestamp (UTC)
// - environment (from config)
// - checks map (upstream), empty when health checks are disabled
//
// It returns:
// - 200 OK if all checks pass
// - 503 Service Unavailable if any check fails
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{})
	response := map[string]interface{}{
		"status":      statusHealthy,
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true

	obs := h.server.Config.Observability
	if obs == nil || obs.HealthChecks.Enabled {
		timeout := 5 * time.Second
		if obs != nil {
			timeout = obs.GetHealthCheckTimeout()
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		upstreamStart := time.Now()

		if err := h.server.Upstream.Ping(ctx); err != nil {
			isHealthy = false
			checks["upstream"] = map[string]interface{}{
				"status":        statusUnhealthy,
				"response_time": time.Since(upstreamStart).String(),
				"error":         err.Error(),
			}

			logger.Error().
				Err(err).
				Dur("response_time", time.Since(upstreamStart)).
				Msg("upstream health check failed")

			if app := h.server.LoggerService.GetApplication(); app != nil {
				app.RecordCustomEvent("HealthCheckError", map[string]interface{}{
					"check_type":       "upstream",
					"operation":        "health_check",
					"error_type":       "upstream_unreachable",
					"response_time_ms": time.Since(upstreamStart).Milliseconds(),
					"error_message":    err.Error(),
				})
			}
		} else {
			checks["upstream"] = map[string]interface{}{
				"status":        statusHealthy,
				"response_time": time.Since(upstreamStart).String(),
			}

			logger.Debug().
				Dur("response_time", time.Since(upstreamStart)).
				Msg("upstream health check passed")
		}
	}

	if !isHealthy {
		response["status"] = statusUnhealthy

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return errors.Wrap(err, "failed to write JSON response")
	}

	return nil
}
