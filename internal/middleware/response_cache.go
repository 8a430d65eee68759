package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/big-blue22/keizibann/internal/cache"
	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const responseCacheName = "response_cache"

// ResponseCacheMiddleware caches successful GET responses in Redis for ttl.
// Only 2xx responses with a body are stored. X-Cache reports HIT or MISS.
// A nil client disables caching.
func ResponseCacheMiddleware(redisClient *cache.RedisClient, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || redisClient == nil {
			c.Next()
			return
		}

		cacheKey := responseCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery)
		ctx := c.Request.Context()

		start := time.Now()
		cached, err := redisClient.Get(ctx, cacheKey)
		RecordCacheOperation("GET", responseCacheName, time.Since(start))

		if err == nil {
			RecordCacheHit(responseCacheName)
			c.Header("X-Cache", "HIT")
			c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}
		if err != cache.Nil {
			logger.Log.Debug("Response cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
		RecordCacheMiss(responseCacheName)

		writer := &cachedResponseWriter{
			ResponseWriter: c.Writer,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if writer.statusCode < 200 || writer.statusCode >= 300 || writer.body.Len() == 0 {
			return
		}

		start = time.Now()
		if err := redisClient.SetEx(ctx, cacheKey, writer.body.String(), ttl); err != nil {
			logger.Log.Debug("Failed to write response to cache",
				zap.String("key", cacheKey),
				zap.Error(err),
			)
			return
		}
		RecordCacheOperation("SET", responseCacheName, time.Since(start))
	}
}

func responseCacheKey(path, query string) string {
	if query == "" {
		return "response:" + path
	}
	return fmt.Sprintf("response:%s:%s", path, query)
}

// cachedResponseWriter captures the body while writing it through
type cachedResponseWriter struct {
	gin.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func (w *cachedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
