package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/logger"
	"go.uber.org/zap"
)

// RedisRateLimiter shares counters across instances through redis. When redis
// is disabled or errors, the in-process limiter takes over so a redis outage
// never lifts the limit entirely.
func RedisRateLimiter(rc *cache.RedisClient, cfg RateLimitConfig) gin.HandlerFunc {
	cfg = cfg.normalized()
	fallback := newMemoryLimiter(cfg.Limit, cfg.Window)

	return func(c *gin.Context) {
		key := cfg.KeyFunc(c)
		if !rc.Enabled() {
			if ok, reset := fallback.allow(cfg.Scope+":"+key, time.Now()); !ok {
				rejectRateLimited(c, cfg.Scope, reset)
				return
			}
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		redisKey := "rate_limit:" + cfg.Scope + ":" + key
		count, err := rc.IncrWindow(ctx, redisKey, cfg.Window)
		if err != nil {
			logger.Log.Warn("Redis rate limit failed, using local limiter",
				zap.String("scope", cfg.Scope),
				zap.Error(err),
			)
			if ok, reset := fallback.allow(cfg.Scope+":"+key, time.Now()); !ok {
				rejectRateLimited(c, cfg.Scope, reset)
				return
			}
			c.Next()
			return
		}

		if count > int64(cfg.Limit) {
			reset, err := rc.TTL(ctx, redisKey)
			if err != nil || reset <= 0 {
				reset = cfg.Window
			}
			logger.Log.Debug("Rate limit exceeded",
				zap.String("scope", cfg.Scope),
				zap.String("key", key),
				zap.Int64("count", count),
			)
			rejectRateLimited(c, cfg.Scope, reset)
			return
		}
		c.Next()
	}
}
