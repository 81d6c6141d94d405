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
)

func TestResponseCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	calls := 0
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/config/wellness", ResponseCache(rc, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"limit_minutes": 30})
	})
	router.PUT("/api/config/wellness",
		InvalidateResponse(rc, func(*gin.Context) string { return "/api/config/wellness" }),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config/wellness", nil))
		return w
	}

	w := get()
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	w = get()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"limit_minutes":30}`, w.Body.String())
	assert.Equal(t, 1, calls)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/config/wellness", nil))
	assert.False(t, mr.Exists("response:/api/config/wellness"))

	assert.Equal(t, "MISS", get().Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", ResponseCache(rc, time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "down"})
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.False(t, mr.Exists("response:/x"))
}
