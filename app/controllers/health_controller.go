package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HandleHealth reports database and cache reachability.
func HandleHealth(db *gorm.DB, rdb redis.Cmdable) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		checks := fiber.Map{"database": "ok", "cache": "ok"}
		healthy := true
		if db == nil {
			checks["database"] = "unconfigured"
			healthy = false
		} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unreachable"
			healthy = false
		}
		if rdb == nil {
			checks["cache"] = "unconfigured"
			healthy = false
		} else if err := rdb.Ping(ctx).Err(); err != nil {
			checks["cache"] = "unreachable"
			healthy = false
		}

		status := fiber.StatusOK
		checks["status"] = "ok"
		if !healthy {
			status = fiber.StatusServiceUnavailable
			checks["status"] = "degraded"
		}
		return c.Status(status).JSON(checks)
	}
}
