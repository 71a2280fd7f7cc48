package handlers

import (
	"context"
	"palcontent/config"
	"palcontent/internal/database"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler answers 200 while every dependency responds and 503 with the
// failing checks otherwise.
func HealthHandler(router fiber.Router, config config.Config, db database.DB) {
	log := logger.New("handlers").File("health_handler")
	started := time.Now()

	router.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		defer cancel()

		status := "ok"
		checks := fiber.Map{}
		for name, err := range db.Ping(ctx) {
			if err != nil {
				status = "degraded"
				checks[name] = err.Error()
				log.Function("health").Warn("dependency check failed", "dependency", name, "error", err)
				continue
			}
			checks[name] = "ok"
		}

		code := fiber.StatusOK
		if status != "ok" {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":        status,
			"version":       config.GeneralVersion,
			"service":       "palcontent_api",
			"uptimeSeconds": int64(time.Since(started).Seconds()),
			"checks":        checks,
		})
	})
}
