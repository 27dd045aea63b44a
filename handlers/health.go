package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/utils"
)

// HealthCheck probes one dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves GET /health. Any failing check turns the response into a 503.
func HealthHandler(environment string, startTime time.Time, checks map[string]HealthCheck) fiber.Handler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *fiber.Ctx) error {
		health := models.HealthStatus{
			Status:      "healthy",
			Environment: environment,
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			Timestamp:   time.Now().UTC(),
			Checks:      map[string]string{"server": "ok"},
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				health.Status = "unhealthy"
				health.Checks[name] = err.Error()
				continue
			}
			health.Checks[name] = "ok"
		}

		if health.Status != "healthy" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.StandardResponse{
				Success:   false,
				Message:   "Service is unhealthy",
				Data:      health,
				Error:     &utils.ErrorInfo{Code: "UNHEALTHY", Message: "One or more health checks failed"},
				Timestamp: time.Now(),
				TraceID:   utils.GetTraceID(c),
			})
		}
		return utils.SuccessResponse(c, "Service is healthy", health)
	}
}
