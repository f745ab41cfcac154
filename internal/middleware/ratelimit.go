package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/contentwriter/api/internal/model"
	"github.com/contentwriter/api/pkg/response"
)

type RateLimiter struct {
	redis *redis.Client
	log   zerolog.Logger
}

func NewRateLimiter(redisClient *redis.Client, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{redis: redisClient, log: log}
}

// Limit creates a fixed window rate limiting middleware keyed by user
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" || maxRequests <= 0 {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, userID)
		ctx := c.Context()

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// fail open
			rl.log.Warn().Err(err).Str("limit", keyPrefix).Msg("rate limiter unavailable")
			return c.Next()
		}

		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return response.RateLimited(c)
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))

		return c.Next()
	}
}

// GenerateLimit limits text generations per minute
func (rl *RateLimiter) GenerateLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("generate", maxPerMin, time.Minute)
}

// ImageLimit limits image generations per hour. Text requests pass through.
func (rl *RateLimiter) ImageLimit(maxPerHour int) fiber.Handler {
	limit := rl.Limit("image", maxPerHour, time.Hour)
	return func(c *fiber.Ctx) error {
		var body struct {
			Mode model.GenerationMode `json:"mode"`
		}
		if err := c.BodyParser(&body); err != nil || !body.Mode.IsImage() {
			return c.Next()
		}
		return limit(c)
	}
}

// SegmentLimit limits segmentation requests per minute
func (rl *RateLimiter) SegmentLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("segment", maxPerMin, time.Minute)
}
