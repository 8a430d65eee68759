package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/big-blue22/keizibann/internal/cache"
	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware creates a fixed-window rate limiter shared by every instance.
// Without a Redis client, or when a Redis call fails, requests are limited in-process instead.
func RedisRateLimitMiddleware(redisClient *cache.RedisClient, config RateLimitConfig) gin.HandlerFunc {
	config = config.withDefaults()
	local := NewRateLimiter(config)
	if redisClient == nil {
		return local
	}

	return func(c *gin.Context) {
		clientKey := config.KeyFunc(c)
		key := fmt.Sprintf("rate_limit:%s:%s", config.Name, clientKey)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := redisClient.IncrBy(ctx, key, 1)
		if err != nil {
			logger.Log.Warn("Redis rate limit unavailable, limiting in-process",
				zap.String("limiter", config.Name),
				zap.Error(err),
			)
			local(c)
			return
		}

		// First request of the window starts the clock
		if count == 1 {
			if err := redisClient.Expire(ctx, key, config.Window); err != nil {
				logger.Log.Warn("Failed to set rate limit expiration",
					logger.WithIP(clientKey),
					zap.Error(err),
				)
			}
		}

		if count > int64(config.Limit) {
			retryAfter, err := redisClient.TTL(ctx, key)
			if err != nil || retryAfter <= 0 {
				retryAfter = config.Window
			}
			rejectRateLimited(c, config, retryAfter)
			return
		}

		c.Next()
	}
}

// RateLimitSmart uses Redis when the shared client is connected and the in-process limiter otherwise
func RateLimitSmart(config RateLimitConfig) gin.HandlerFunc {
	return RedisRateLimitMiddleware(cache.GetRedisClient(), config)
}
