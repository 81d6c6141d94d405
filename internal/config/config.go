package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maskapp/mask/pkg/wellness"
)

// AdminAuthMode selects the single mechanism that gates /api/admin
type AdminAuthMode string

const (
	AdminAuthRole AdminAuthMode = "role"
	AdminAuthKey  AdminAuthMode = "key"
)

// Config holds every server setting read from the environment
type Config struct {
	Environment string
	Port        string
	BaseURL     string

	DB       DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	AI       AIConfig
	Uploads  UploadConfig
	Wellness wellness.Policy
	Tracing  TracingConfig
	WS       WebSocketConfig

	CORSOrigins      []string
	LogLevel         string
	LogFile          string
	ExpirySweep      time.Duration
	RequiredServices []string
}

type DatabaseConfig struct {
	Driver       string // postgres | sqlite
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	Retries      int
	RetryDelay   time.Duration
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
}

// Enabled reports whether any redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type AdminConfig struct {
	Mode AdminAuthMode
	Key  string
}

type AIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type TracingConfig struct {
	Endpoint     string
	Insecure     bool
	SamplingRate float64
}

// WebSocketConfig bounds inbound frames per connection
type WebSocketConfig struct {
	MaxMessagesPerSecond int
	Burst                int
}

type UploadConfig struct {
	Backend  string // local | s3
	Dir      string
	URLPath  string
	MaxBytes int64
	Region   string
	Bucket   string
	CDNURL   string
}

// Load reads configuration from environment variables.
// godotenv should already have been applied by the caller.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8787"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8787"),
		DB: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			URL:          databaseURL(),
			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 10),
			Retries:      getInt("DB_CONNECT_RETRIES", 5),
			RetryDelay:   getDuration("DB_CONNECT_RETRY_DELAY", 3*time.Second),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			TTL:    getDuration("JWT_TTL", 7*24*time.Hour),
		},
		Admin: AdminConfig{
			Mode: AdminAuthMode(strings.ToLower(getEnv("ADMIN_AUTH_MODE", string(AdminAuthRole)))),
			Key:  os.Getenv("ADMIN_KEY"),
		},
		AI: AIConfig{
			APIKey:  os.Getenv("AI_API_KEY"),
			Model:   getEnv("AI_MODEL", "gemini-2.5-flash"),
			Timeout: getDuration("AI_TIMEOUT", 20*time.Second),
		},
		Uploads: UploadConfig{
			Backend:  getEnv("UPLOAD_BACKEND", "local"),
			Dir:      getEnv("UPLOAD_DIR", "./uploads"),
			URLPath:  "/uploads",
			MaxBytes: int64(getInt("UPLOAD_MAX_BYTES", 5<<20)),
			Region:   getEnv("AWS_REGION", "us-east-1"),
			Bucket:   os.Getenv("S3_BUCKET"),
			CDNURL:   os.Getenv("CDN_URL"),
		},
		Wellness: wellness.Policy{
			ReminderEvery:  getDuration("WELLNESS_REMINDER_EVERY", 20*time.Minute),
			WarnAt:         getDuration("WELLNESS_WARN_AT", 55*time.Minute),
			LogoutAt:       getDuration("WELLNESS_LOGOUT_AT", 60*time.Minute),
			Grace:          getDuration("WELLNESS_GRACE", 15*time.Minute),
			ActivityWindow: getDuration("WELLNESS_ACTIVITY_WINDOW", time.Minute),
		},
		Tracing: TracingConfig{
			Endpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:     getEnv("OTEL_EXPORTER_OTLP_INSECURE", "true") == "true",
			SamplingRate: getFloat("OTEL_SAMPLING_RATE", 1.0),
		},
		WS: WebSocketConfig{
			MaxMessagesPerSecond: getInt("WS_MAX_MESSAGES_PER_SECOND", 10),
			Burst:                getInt("WS_BURST", 20),
		},
		CORSOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          os.Getenv("LOG_FILE"),
		ExpirySweep:      getDuration("EXPIRY_SWEEP_INTERVAL", time.Minute),
		RequiredServices: splitList(os.Getenv("REQUIRED_SERVICES")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		if c.Environment != "development" && c.Environment != "test" {
			return fmt.Errorf("JWT_SECRET environment variable not set")
		}
		c.JWT.Secret = "mask-development-secret"
	}

	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}

	switch c.Admin.Mode {
	case AdminAuthRole:
	case AdminAuthKey:
		if c.Admin.Key == "" {
			return fmt.Errorf("ADMIN_AUTH_MODE=key requires ADMIN_KEY")
		}
	default:
		return fmt.Errorf("ADMIN_AUTH_MODE must be role or key, got %q", c.Admin.Mode)
	}

	switch c.Uploads.Backend {
	case "local":
	case "s3":
		if c.Uploads.Bucket == "" {
			return fmt.Errorf("UPLOAD_BACKEND=s3 requires S3_BUCKET")
		}
	default:
		return fmt.Errorf("UPLOAD_BACKEND must be local or s3, got %q", c.Uploads.Backend)
	}

	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATE must be between 0 and 1, got %v", c.Tracing.SamplingRate)
	}

	if c.WS.MaxMessagesPerSecond < 1 || c.WS.Burst < 1 {
		return fmt.Errorf("WS_MAX_MESSAGES_PER_SECOND and WS_BURST must be positive")
	}

	if err := c.Wellness.Validate(); err != nil {
		return fmt.Errorf("wellness policy: %w", err)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RequiresService reports whether startup must fail when the named service is down
func (c *Config) RequiresService(name string) bool {
	for _, s := range c.RequiredServices {
		if s == name {
			return true
		}
	}
	return false
}

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	if os.Getenv("DB_DRIVER") == "sqlite" {
		return getEnv("DB_PATH", "mask.db")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_NAME", "mask"),
		getEnv("DB_SSLMODE", "disable"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

// getDuration accepts Go durations ("90s") or a bare number of seconds
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
