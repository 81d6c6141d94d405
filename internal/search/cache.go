package search

import (
	"context"
	"crypto/md5"
	"fmt"
	"time"

	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/logger"
	"go.uber.org/zap"
)

// ResultCacheTTL bounds how stale a cached user/group/page result may be
const ResultCacheTTL = time.Minute

// resultCache holds viewer-independent results in redis. Post results
// depend on the viewer's memberships and are never cached.
type resultCache struct {
	redis *cache.RedisClient
	ttl   time.Duration
}

func (c *resultCache) key(kind, query string, limit int) string {
	hash := md5.Sum([]byte(fmt.Sprintf("%s|%d", query, limit)))
	return fmt.Sprintf("search:%s:%x", kind, hash)
}

// load fills dst from the cache or, on a miss, from fetch
func (c *resultCache) load(ctx context.Context, kind, query string, limit int, dst interface{}, fetch func() error) error {
	if !c.redis.Enabled() {
		return fetch()
	}
	key := c.key(kind, query, limit)
	if err := c.redis.GetJSON(ctx, key, dst); err == nil {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	if err := c.redis.SetJSON(ctx, key, dst, c.ttl); err != nil {
		logger.Log.Debug("Failed to cache search results", zap.String("kind", kind), zap.Error(err))
	}
	return nil
}
