package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/util"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// Scope labels the limiter in metrics and redis keys
	Scope string
	// KeyFunc picks the bucket a request counts against
	KeyFunc func(c *gin.Context) string
}

// ClientKey buckets by authenticated user, falling back to client IP
func ClientKey(c *gin.Context) string {
	if uid := util.OptionalUserID(c); uid != "" {
		return "u:" + uid
	}
	return "ip:" + c.ClientIP()
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 100, Window: time.Minute, Scope: "api", KeyFunc: ClientKey}
}

// AuthRateLimitConfig returns stricter limits for auth endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 10, Window: time.Minute, Scope: "auth", KeyFunc: ClientKey}
}

// UploadRateLimitConfig returns limits for upload endpoints
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 20, Window: time.Minute, Scope: "upload", KeyFunc: ClientKey}
}

// SearchRateLimitConfig returns limits for search endpoints
func SearchRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 60, Window: time.Minute, Scope: "search", KeyFunc: ClientKey}
}

// FactCheckRateLimitConfig limits on-demand AI checks
func FactCheckRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 10, Window: time.Minute, Scope: "factcheck", KeyFunc: ClientKey}
}

func (cfg RateLimitConfig) normalized() RateLimitConfig {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientKey
	}
	if cfg.Scope == "" {
		cfg.Scope = "api"
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}

type window struct {
	start time.Time
	count int
}

// memoryLimiter counts requests per key in fixed windows
type memoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	sweep   time.Time
}

func newMemoryLimiter(limit int, period time.Duration) *memoryLimiter {
	return &memoryLimiter{windows: make(map[string]*window), limit: limit, period: period, sweep: time.Now()}
}

// allow reports whether key may proceed and how long until its window resets
func (m *memoryLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.sweep) > m.period {
		for k, w := range m.windows {
			if now.Sub(w.start) >= m.period {
				delete(m.windows, k)
			}
		}
		m.sweep = now
	}

	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= m.period {
		w = &window{start: now}
		m.windows[key] = w
	}
	w.count++
	return w.count <= m.limit, m.period - now.Sub(w.start)
}

// NewRateLimiter creates an in-process rate limiting middleware
func NewRateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	cfg = cfg.normalized()
	lim := newMemoryLimiter(cfg.Limit, cfg.Window)
	return func(c *gin.Context) {
		ok, reset := lim.allow(cfg.Scope+":"+cfg.KeyFunc(c), time.Now())
		if !ok {
			rejectRateLimited(c, cfg.Scope, reset)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, scope string, retryAfter time.Duration) {
	metrics.Get().RateLimitExceededTotal.WithLabelValues(scope).Inc()
	secs := int(retryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "RATE_LIMITED",
		"message":     "too many requests, slow down",
		"retry_after": secs,
	})
}
