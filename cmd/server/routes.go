package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/config"
	"github.com/maskapp/mask/internal/handlers"
	"github.com/maskapp/mask/internal/middleware"
	"github.com/maskapp/mask/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type routeMiddleware struct {
	auth  gin.HandlerFunc
	admin gin.HandlerFunc
	staff gin.HandlerFunc
	redis *cache.RedisClient
}

func setupRouter(cfg *config.Config, h *handlers.Handlers, ws *websocket.Handler, mw routeMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(otelgin.Middleware("mask-api", otelgin.WithFilter(func(req *http.Request) bool {
		return req.URL.Path != "/health" && req.URL.Path != "/metrics"
	})))
	r.Use(middleware.GinLogger())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID", middleware.AdminKeyHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-Cache", "Retry-After"}
	r.Use(cors.New(corsConfig))

	// websocket upgrades and uploads must not be gzipped
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`^/api/ws`, `^/uploads/`})))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limit := func(c middleware.RateLimitConfig) gin.HandlerFunc {
		return middleware.RedisRateLimiter(mw.redis, c)
	}

	api := r.Group("/api")
	api.Use(limit(middleware.DefaultRateLimitConfig()))
	{
		api.GET("/config/wellness", middleware.ResponseCache(mw.redis, time.Minute), h.WellnessConfig)
		api.GET("/trust/:type/:id", middleware.ResponseCache(mw.redis, 30*time.Second), h.GetTrust)
		api.GET("/ws", ws.HandleWebSocket)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", limit(middleware.AuthRateLimitConfig()), h.Register)
			authGroup.POST("/login", limit(middleware.AuthRateLimitConfig()), h.Login)
			authGroup.GET("/me", mw.auth, h.Me)
			authGroup.POST("/logout", mw.auth, h.Logout)
			authGroup.POST("/password", mw.auth, limit(middleware.AuthRateLimitConfig()), h.ChangePassword)
		}

		posts := api.Group("/posts", mw.auth)
		{
			posts.POST("", h.CreatePost)
			posts.GET("/feed", h.GetFeed)
			posts.GET("/bookmarks", h.GetBookmarks)
			posts.GET("/bookmarks/ids", h.GetBookmarkIDs)
			posts.GET("/:id", h.GetPost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/react", h.React)
			posts.GET("/:id/reactions", h.GetReactions)
			posts.POST("/:id/comments", h.CreateComment)
			posts.GET("/:id/comments", h.GetComments)
			posts.DELETE("/:id/comments/:commentId", h.DeleteComment)
			posts.POST("/:id/reshare", h.Reshare)
			posts.POST("/:id/bookmark", h.ToggleBookmark)
		}

		users := api.Group("/users", mw.auth)
		{
			users.PATCH("/me", h.UpdateMyProfile)
			users.DELETE("/me", h.DeleteMyAccount)
			users.GET("/me/friends", h.GetMyFriends)
			users.GET("/friend-requests", h.GetFriendRequests)
			users.POST("/friend-requests/:id/accept", h.AcceptFriendRequest)
			users.POST("/friend-requests/:id/decline", h.DeclineFriendRequest)
			users.GET("/:id", h.GetUserProfile)
			users.GET("/:id/posts", h.GetUserPosts)
			users.POST("/:id/follow", h.FollowUser)
			users.DELETE("/:id/follow", h.UnfollowUser)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)
			users.POST("/:id/friend-request", h.SendFriendRequest)
			users.DELETE("/:id/friend", h.Unfriend)
		}

		groups := api.Group("/groups", mw.auth)
		{
			groups.POST("", h.CreateGroup)
			groups.GET("", h.GetMyGroups)
			groups.GET("/:id", h.GetGroup)
			groups.PATCH("/:id", h.UpdateGroup)
			groups.GET("/:id/posts", h.GetGroupPosts)
			groups.POST("/:id/join", h.JoinGroup)
			groups.POST("/:id/leave", h.LeaveGroup)
			groups.GET("/:id/members", h.GetGroupMembers)
			groups.POST("/:id/members/:userId/approve", h.ApproveMember)
		}

		pages := api.Group("/pages", mw.auth)
		{
			pages.POST("", h.CreatePage)
			pages.GET("/:id", h.GetPage)
			pages.PATCH("/:id", h.UpdatePage)
			pages.GET("/:id/posts", h.GetPagePosts)
			pages.POST("/:id/follow", h.FollowPage)
			pages.DELETE("/:id/follow", h.UnfollowPage)
			pages.GET("/:id/admins", h.GetPageAdmins)
			pages.POST("/:id/admins", h.AddPageAdmin)
		}

		msgs := api.Group("/messages", mw.auth)
		{
			msgs.GET("/conversations", h.GetConversations)
			msgs.GET("/:userId", h.GetMessageHistory)
			msgs.POST("/:userId", h.SendMessage)
			msgs.POST("/:userId/read", h.MarkConversationRead)
		}

		notifs := api.Group("/notifications", mw.auth)
		{
			notifs.GET("", h.GetNotifications)
			notifs.GET("/motivation", h.GetMotivation)
			notifs.POST("/read-all", h.MarkAllNotificationsRead)
			notifs.POST("/:id/read", h.MarkNotificationRead)
		}

		api.GET("/factcheck/:postId", mw.auth, limit(middleware.FactCheckRateLimitConfig()), h.GetFactCheck)
		api.GET("/search", mw.auth, limit(middleware.SearchRateLimitConfig()), h.Search)
		api.POST("/uploads", mw.auth, limit(middleware.UploadRateLimitConfig()), h.Upload)
		api.POST("/reports", mw.auth, h.FileReport)

		adminGroup := api.Group("/admin", mw.auth)
		{
			// moderators work the report queue in role mode
			reportsGroup := adminGroup.Group("/reports", mw.staff)
			{
				reportsGroup.GET("", h.AdminListReports)
				reportsGroup.GET("/:id", h.AdminGetReport)
				reportsGroup.PATCH("/:id", h.AdminUpdateReport)
				reportsGroup.DELETE("/:id", h.AdminDeleteReport)
			}

			console := adminGroup.Group("", mw.admin)
			{
				console.GET("/stats", h.AdminStats)
				console.GET("/ws", ws.HandleMetrics)

				console.GET("/users", h.AdminListUsers)
				console.PUT("/users/:id/role", h.AdminSetRole)
				console.PUT("/users/:id/disabled", h.AdminSetUserDisabled)
				console.DELETE("/users/:id", h.AdminDeleteUser)
				console.POST("/users/:id/restore", h.AdminRestoreUser)

				console.GET("/groups", h.AdminListGroups)
				console.PUT("/groups/:id/disabled", h.AdminSetGroupDisabled)
				console.DELETE("/groups/:id", h.AdminDeleteGroup)

				console.GET("/pages", h.AdminListPages)
				console.PUT("/pages/:id/disabled", h.AdminSetPageDisabled)
				console.DELETE("/pages/:id", h.AdminDeletePage)

				console.GET("/quotes", h.AdminListQuotes)
				console.POST("/quotes", h.AdminCreateQuote)
				console.PATCH("/quotes/:id", h.AdminUpdateQuote)
				console.DELETE("/quotes/:id", h.AdminDeleteQuote)

				console.PUT("/trust/:type/:id", middleware.InvalidateResponse(mw.redis, trustPath), h.SetTrust)
			}
		}
	}

	return r
}

// trustPath maps the admin write onto the public read it invalidates
func trustPath(c *gin.Context) string {
	return strings.Replace(c.Request.URL.Path, "/api/admin/trust/", "/api/trust/", 1)
}
