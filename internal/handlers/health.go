package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck handles GET /health.
// It answers as long as the process is serving HTTP: no database query, no authentication.
// Load balancers and container liveness probes hit it.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Pinger is anything whose reachability decides readiness (the store's database).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ready handles GET /health/ready. Unlike HealthCheck it fails with 503 while the
// database is unreachable, so traffic is only routed to instances that can serve it.
func Ready(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	}
}
