package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/maskapp/mask/internal/admin"
	"github.com/maskapp/mask/internal/auth"
	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/config"
	"github.com/maskapp/mask/internal/database"
	"github.com/maskapp/mask/internal/expiry"
	"github.com/maskapp/mask/internal/factcheck"
	"github.com/maskapp/mask/internal/groups"
	"github.com/maskapp/mask/internal/handlers"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/messages"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/middleware"
	"github.com/maskapp/mask/internal/notifications"
	"github.com/maskapp/mask/internal/pages"
	"github.com/maskapp/mask/internal/posts"
	"github.com/maskapp/mask/internal/reports"
	"github.com/maskapp/mask/internal/repository"
	"github.com/maskapp/mask/internal/search"
	"github.com/maskapp/mask/internal/social"
	"github.com/maskapp/mask/internal/storage"
	"github.com/maskapp/mask/internal/telemetry"
	"github.com/maskapp/mask/internal/timeline"
	"github.com/maskapp/mask/internal/trust"
	"github.com/maskapp/mask/internal/validation"
	"github.com/maskapp/mask/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// logger isn't up yet
		_, _ = os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	if envErr != nil {
		logger.Log.Info(".env file not found, using system environment variables")
	}
	logger.Log.Info("Mask server starting", zap.String("environment", cfg.Environment))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracer, err := telemetry.InitTracer(context.Background(), telemetry.Config{
		ServiceName:  "mask-api",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		Insecure:     cfg.Tracing.Insecure,
		SamplingRate: cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	if cfg.Tracing.Endpoint != "" {
		logger.Log.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	}

	// Database
	if err := database.Initialize(cfg.DB); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}
	db := database.DB

	// Redis is optional unless listed in REQUIRED_SERVICES
	var rc *cache.RedisClient
	if cfg.Redis.Enabled() {
		rc, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, caches disabled", zap.Error(err))
			rc = nil
		} else {
			defer rc.Close()
		}
	}

	metrics.Initialize()

	// Uploads
	var backend storage.Backend
	switch cfg.Uploads.Backend {
	case "s3":
		backend, err = storage.NewS3Backend(context.Background(), cfg.Uploads.Region, cfg.Uploads.Bucket, cfg.Uploads.CDNURL)
	default:
		backend, err = storage.NewLocalBackend(cfg.Uploads.Dir, cfg.Uploads.URLPath)
	}
	if err != nil {
		logger.Log.Fatal("Failed to initialize upload storage", zap.String("backend", cfg.Uploads.Backend), zap.Error(err))
	}
	uploader := storage.NewUploader(backend, cfg.Uploads.MaxBytes)

	// Fact-check provider; without a key every post is annotated unavailable
	var provider factcheck.Provider
	if p, err := factcheck.NewGenAIProvider(context.Background(), cfg.AI.APIKey, cfg.AI.Model, ""); err == nil {
		provider = p
	} else {
		logger.Log.Warn("Fact-check provider disabled", zap.Error(err))
	}

	// Startup checks
	validator := validation.NewServiceValidator(cfg.RequiredServices)
	if rc.Enabled() {
		validator.Register("redis", rc.Ping)
	}
	if cfg.Uploads.Backend == "s3" {
		validator.Register("s3", backend.Check)
	}
	if provider != nil {
		validator.Register("ai", func(context.Context) error {
			if cfg.AI.Model == "" {
				return errors.New("AI_MODEL is empty")
			}
			return nil
		})
	}
	if _, err := validator.ValidateServices(context.Background()); err != nil {
		logger.Log.Fatal("Required service unavailable", zap.Error(err))
	}

	// Realtime
	wsHub := websocket.NewHub()
	wsHub.SetRateLimitConfig(websocket.RateLimitConfig{
		MaxMessagesPerSecond: cfg.WS.MaxMessagesPerSecond,
		BurstSize:            cfg.WS.Burst,
	})
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	if relay := websocket.NewRelay(wsHub, rc, uuid.NewString()); relay != nil {
		wsHub.SetRelay(relay)
		go func() {
			if err := relay.Run(relayCtx, nil); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Error("WebSocket relay stopped", zap.Error(err))
			}
		}()
	}
	go wsHub.Run()

	// Services
	users := repository.NewUserRepository(db)
	authService := auth.NewService(db, []byte(cfg.JWT.Secret), cfg.JWT.TTL)
	notifier := notifications.NewService(db, wsHub)
	annotator := factcheck.NewAnnotator(db, rc, provider, cfg.AI.Timeout)
	postService := posts.NewService(db, rc, notifier, annotator)

	wsHandler := websocket.NewHandler(wsHub, authService, cfg.CORSOrigins)
	wsHandler.RegisterDefaultHandlers()

	h := handlers.NewHandlers(handlers.Deps{
		DB:            db,
		Redis:         rc,
		Auth:          authService,
		Posts:         postService,
		Timeline:      timeline.NewService(postService, rc),
		Social:        social.NewService(db, users, notifier),
		Groups:        groups.NewService(db, notifier),
		Pages:         pages.NewService(db),
		Messages:      messages.NewService(db, wsHub, notifier),
		Notifications: notifier,
		FactCheck:     annotator,
		Trust:         trust.NewService(db),
		Search:        search.NewService(db, users, postService, rc),
		Uploads:       uploader,
		Reports:       reports.NewService(db),
		Admin:         admin.NewService(db, users),
		Wellness:      cfg.Wellness,
	})

	// Ephemeral posts
	cleanup := expiry.NewCleanupService(db, postService, uploader, cfg.ExpirySweep)
	cleanup.Start()
	defer cleanup.Stop()

	gate := middleware.NewAdminGate(cfg.Admin.Mode, cfg.Admin.Key)
	r := setupRouter(cfg, h, wsHandler, routeMiddleware{
		auth:  middleware.RequireAuth(authService),
		admin: gate.RequireAdmin(),
		staff: gate.RequireStaff(),
		redis: rc,
	})
	if local, ok := backend.(*storage.LocalBackend); ok {
		r.Static(cfg.Uploads.URLPath, local.Dir())
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Mask server listening", zap.String("port", cfg.Port), zap.String("admin_auth", string(gate.Mode())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHandler.Shutdown(ctx); err != nil {
		logger.Log.Warn("WebSocket shutdown warning", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	annotator.Wait()
	if err := shutdownTracer(ctx); err != nil {
		logger.Log.Warn("Tracer shutdown warning", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
