package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/admin"
	"github.com/maskapp/mask/internal/auth"
	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/factcheck"
	"github.com/maskapp/mask/internal/groups"
	"github.com/maskapp/mask/internal/messages"
	"github.com/maskapp/mask/internal/notifications"
	"github.com/maskapp/mask/internal/pages"
	"github.com/maskapp/mask/internal/posts"
	"github.com/maskapp/mask/internal/reports"
	"github.com/maskapp/mask/internal/search"
	"github.com/maskapp/mask/internal/social"
	"github.com/maskapp/mask/internal/storage"
	"github.com/maskapp/mask/internal/timeline"
	"github.com/maskapp/mask/internal/trust"
	"github.com/maskapp/mask/pkg/wellness"
	"gorm.io/gorm"
)

// Deps are the services the HTTP layer talks to
type Deps struct {
	DB            *gorm.DB
	Redis         *cache.RedisClient
	Auth          *auth.Service
	Posts         *posts.Service
	Timeline      *timeline.Service
	Social        *social.Service
	Groups        *groups.Service
	Pages         *pages.Service
	Messages      *messages.Service
	Notifications *notifications.Service
	FactCheck     *factcheck.Annotator
	Trust         *trust.Service
	Search        *search.Service
	Uploads       *storage.Uploader
	Reports       *reports.Service
	Admin         *admin.Service
	Wellness      wellness.Policy
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	db            *gorm.DB
	redis         *cache.RedisClient
	auth          *auth.Service
	posts         *posts.Service
	timeline      *timeline.Service
	social        *social.Service
	groups        *groups.Service
	pages         *pages.Service
	messages      *messages.Service
	notifications *notifications.Service
	factcheck     *factcheck.Annotator
	trust         *trust.Service
	search        *search.Service
	uploads       *storage.Uploader
	reports       *reports.Service
	admin         *admin.Service
	wellness      wellness.Policy
}

// NewHandlers creates a new handlers instance
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		db:            d.DB,
		redis:         d.Redis,
		auth:          d.Auth,
		posts:         d.Posts,
		timeline:      d.Timeline,
		social:        d.Social,
		groups:        d.Groups,
		pages:         d.Pages,
		messages:      d.Messages,
		notifications: d.Notifications,
		factcheck:     d.FactCheck,
		trust:         d.Trust,
		search:        d.Search,
		uploads:       d.Uploads,
		reports:       d.Reports,
		admin:         d.Admin,
		wellness:      d.Wellness,
	}
}

// Health reports database and redis reachability
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if sqlDB, err := h.db.DB(); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	switch {
	case !h.redis.Enabled():
		checks["redis"] = "disabled"
	case h.redis.Ping(ctx) != nil:
		// redis only backs caches, so the service stays up without it
		checks["redis"] = "unreachable"
	default:
		checks["redis"] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}

// WellnessConfig serves the usage-timer thresholds and their hash
// GET /api/config/wellness
func (h *Handlers) WellnessConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.wellness.Wire())
}
