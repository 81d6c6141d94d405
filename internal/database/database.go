package database

import (
	"fmt"
	"time"

	"github.com/maskapp/mask/internal/config"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// sleep is swapped out in tests
var sleep = time.Sleep

// Initialize opens the configured database, retrying a fixed number of times
// with a constant delay between attempts.
func Initialize(cfg config.DatabaseConfig) error {
	attempts := cfg.Retries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := open(cfg)
		if err == nil {
			DB = db
			logger.Log.Info("Database connected",
				zap.String("driver", cfg.Driver),
				zap.Int("attempt", attempt))
			return nil
		}

		lastErr = err
		logger.Log.Warn("Database connection failed",
			zap.String("driver", cfg.Driver),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if attempt < attempts {
			sleep(cfg.RetryDelay)
		}
	}

	return fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, lastErr)
}

func open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.URL)
	default:
		dialector = postgres.Open(cfg.URL)
	}

	db, err := Open(dialector, gormlogger.Warn)
	if err != nil {
		return nil, err
	}
	if err := db.Use(telemetry.GORMTracingPlugin(nil)); err != nil {
		return nil, fmt.Errorf("tracing plugin: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Open wraps gorm.Open with the shared settings (UTC clock, zap logging)
func Open(dialector gorm.Dialector, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
		// Reshares outlive their originals and reactions are purged by hand
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// OpenInMemory returns a fresh migrated sqlite database. Used by tests and
// the sqlite development mode.
func OpenInMemory() (*gorm.DB, error) {
	db, err := Open(sqlite.Open("file::memory:?cache=private&_foreign_keys=off"), gormlogger.Silent)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := MigrateDB(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs auto-migration for all models on the global connection
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := MigrateDB(DB); err != nil {
		return err
	}
	logger.Log.Info("Database migrations completed")
	return nil
}

// MigrateDB migrates the given connection
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return createIndexes(db)
}

func createIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_pseudonym_lower ON users (LOWER(pseudonym))",
		"CREATE INDEX IF NOT EXISTS idx_posts_scope_created ON posts (scope, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_reports_target ON reports (target_type, target_id)",
	}
	if db.Dialector.Name() == "postgres" {
		statements = append(statements,
			"CREATE INDEX IF NOT EXISTS idx_posts_expires ON posts (expires_at) WHERE expires_at IS NOT NULL",
			"CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (user_id) WHERE read = false",
		)
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Log.Warn("Index creation failed", zap.String("sql", stmt), zap.Error(err))
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
