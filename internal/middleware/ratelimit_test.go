package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(h)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func hit(router *gin.Engine, client string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if client != "" {
		req.Header.Set("X-Client-ID", client)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	router := limitedRouter(NewRateLimiter(RateLimitConfig{
		Limit:  3,
		Window: time.Second,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "").Code, "Request %d should succeed", i+1)
	}

	w := hit(router, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	time.Sleep(time.Second + 100*time.Millisecond)
	assert.Equal(t, http.StatusOK, hit(router, "").Code, "Request after window should succeed")
}

func TestRateLimiterDifferentClients(t *testing.T) {
	router := limitedRouter(NewRateLimiter(RateLimitConfig{
		Limit:  2,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.GetHeader("X-Client-ID")
		},
	}))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "client-a").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "client-a").Code, "Client A should be rate limited")
	assert.Equal(t, http.StatusOK, hit(router, "client-b").Code, "Client B should not be rate limited")
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	router := limitedRouter(RedisRateLimiter(rc, RateLimitConfig{
		Limit:  2,
		Window: time.Minute,
		Scope:  "test",
		KeyFunc: func(c *gin.Context) string {
			return c.GetHeader("X-Client-ID")
		},
	}))

	assert.Equal(t, http.StatusOK, hit(router, "a").Code)
	assert.Equal(t, http.StatusOK, hit(router, "a").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "a").Code)
	assert.Equal(t, http.StatusOK, hit(router, "b").Code)

	require.True(t, mr.Exists("rate_limit:test:a"))
	assert.Greater(t, mr.TTL("rate_limit:test:a"), time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit(router, "a").Code)
}

func TestRedisRateLimiterFallsBackWithoutRedis(t *testing.T) {
	var rc *cache.RedisClient
	router := limitedRouter(RedisRateLimiter(rc, RateLimitConfig{
		Limit:  1,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "same"
		},
	}))

	assert.Equal(t, http.StatusOK, hit(router, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "").Code)
}

func TestDefaultConfigs(t *testing.T) {
	defaultConfig := DefaultRateLimitConfig()
	assert.Equal(t, 100, defaultConfig.Limit)
	assert.Equal(t, time.Minute, defaultConfig.Window)
	assert.NotNil(t, defaultConfig.KeyFunc)

	authConfig := AuthRateLimitConfig()
	assert.Equal(t, 10, authConfig.Limit)
	assert.Equal(t, "auth", authConfig.Scope)

	uploadConfig := UploadRateLimitConfig()
	assert.Equal(t, 20, uploadConfig.Limit)
	assert.Equal(t, time.Minute, uploadConfig.Window)
}
