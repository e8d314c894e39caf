package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tutortrack/config"
	"tutortrack/database"
	"tutortrack/models"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"duration":   duration.String(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
		}).Info("HTTP Request")

		return err
	}
}

// LogActivity records a group-scoped activity entry. Writes go to the Redis
// cache first; on cache failure the entry is saved straight to the database.
// The write happens in a goroutine so request latency is unaffected.
func LogActivity(c *fiber.Ctx, groupPin, action, resource string, resourceID uint, details interface{}) {
	var detailsJSON models.JSON
	if details != nil {
		if detailsBytes, err := json.Marshal(details); err == nil {
			detailsJSON = detailsBytes
		}
	}

	entry := models.ActivityLog{
		GroupPin:   groupPin,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    detailsJSON,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	}

	go func(al models.ActivityLog) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("panic recovered in LogActivity goroutine")
			}
		}()

		if err := cacheActivityLog(al); err != nil {
			if database.DB == nil {
				logrus.Error("database.DB is nil; cannot save activity log")
				return
			}
			if dbErr := database.DB.Create(&al).Error; dbErr != nil {
				logrus.WithError(dbErr).Error("Failed to save activity log to database")
			}
		}
	}(entry)
}

// cacheActivityLog stores an activity entry in Redis with a 24-hour TTL and
// queues it for batch persistence. Returns an error when caching is disabled
// or unavailable so the caller can fall back to the database.
func cacheActivityLog(entry models.ActivityLog) error {
	if config.AppConfig == nil || !config.AppConfig.UseRedisActivityCache {
		return fmt.Errorf("activity log cache disabled")
	}

	redisClient := database.GetRedisClient()
	if redisClient == nil {
		return fmt.Errorf("redis client is nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal activity log: %w", err)
	}

	ctx := context.Background()
	cacheKey := fmt.Sprintf("log:%s:%s:%d", entry.GroupPin, entry.Action, time.Now().UnixNano())

	if err := redisClient.Set(ctx, cacheKey, data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to cache activity log: %w", err)
	}

	if err := redisClient.ZAdd(ctx, "logs:queue", &redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: cacheKey,
	}).Err(); err != nil {
		logrus.WithError(err).Error("Failed to add activity log to processing queue")
	}

	return nil
}

// FlushCachedLogs drains the Redis log queue into the database. Called
// periodically by the scheduler and once during shutdown.
func FlushCachedLogs() error {
	redisClient := database.GetRedisClient()
	if redisClient == nil || database.DB == nil {
		return nil
	}

	ctx := context.Background()
	keys, err := redisClient.ZRange(ctx, "logs:queue", 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read log queue: %w", err)
	}

	for _, key := range keys {
		data, err := redisClient.Get(ctx, key).Result()
		if err != nil {
			if err != redis.Nil {
				logrus.WithError(err).WithField("key", key).Warn("Failed to read cached activity log")
			}
			redisClient.ZRem(ctx, "logs:queue", key)
			continue
		}

		var entry models.ActivityLog
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Corrupt cached activity log, dropping")
			redisClient.Del(ctx, key)
			redisClient.ZRem(ctx, "logs:queue", key)
			continue
		}

		if err := database.DB.Create(&entry).Error; err != nil {
			logrus.WithError(err).Error("Failed to persist cached activity log")
			continue
		}

		redisClient.Del(ctx, key)
		redisClient.ZRem(ctx, "logs:queue", key)
	}

	return nil
}
