package controllers

import (
	"context"
	"time"

	"tutortrack/database"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct{}

// Health reports liveness plus the state of the database and the key-value
// store. The service is degraded, not down, when Redis is unavailable.
func (hc *HealthController) Health(c *fiber.Ctx) error {
	dbStatus := "ok"
	if database.DB == nil {
		dbStatus = "down"
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}

	redisStatus := "ok"
	redisClient := database.GetRedisClient()
	if redisClient == nil {
		redisStatus = "disabled"
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
		}
	}

	status := fiber.StatusOK
	overall := "ok"
	if dbStatus == "down" {
		status = fiber.StatusServiceUnavailable
		overall = "down"
	} else if redisStatus == "down" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"database": dbStatus,
		"redis":    redisStatus,
		"time":     time.Now().Format(time.RFC3339),
	})
}
