package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/metrics"
	"go.uber.org/zap"
)

// ResponseCache caches successful anonymous-safe GET responses in redis.
// Only mount it on routes whose body doesn't depend on the caller.
// Adds X-Cache: HIT/MISS.
func ResponseCache(rc *cache.RedisClient, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || !rc.Enabled() {
			c.Next()
			return
		}

		key := responseCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery)
		ctx := c.Request.Context()
		maxAge := fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))

		if body, err := rc.Get(ctx, key); err == nil {
			metrics.CacheResult("response", true)
			c.Header("X-Cache", "HIT")
			c.Header("Cache-Control", maxAge)
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(body))
			c.Abort()
			return
		}
		metrics.CacheResult("response", false)

		writer := &cachedResponseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Header("Cache-Control", maxAge)

		c.Next()

		if s := writer.Status(); s >= 200 && s < 300 && writer.body.Len() > 0 {
			if err := rc.SetEx(ctx, key, writer.body.String(), ttl); err != nil {
				logger.Log.Debug("Failed to cache response", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

func responseCacheKey(path, query string) string {
	if query == "" {
		return "response:" + path
	}
	return "response:" + path + "?" + query
}

// InvalidateResponse drops the cached body for path after a successful write
func InvalidateResponse(rc *cache.RedisClient, pathFn func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if s := c.Writer.Status(); s < 200 || s >= 300 {
			return
		}
		key := responseCacheKey(pathFn(c), "")
		if err := rc.Del(c.Request.Context(), key); err != nil {
			logger.Log.Warn("Failed to invalidate cached response", zap.String("key", key), zap.Error(err))
		}
	}
}

type cachedResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
