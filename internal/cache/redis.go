package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/json-iterator/go"
	"github.com/maskapp/mask/internal/config"
	"github.com/maskapp/mask/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned when a key is absent or the cache is disabled
var ErrMiss = errors.New("cache miss")

// RedisClient wraps redis.Client. A nil *RedisClient is a valid, disabled
// cache: reads miss and writes are dropped.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects using REDIS_URL or host/port/password
func NewRedisClient(cfg config.RedisConfig) (*RedisClient, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password: cfg.Password,
		}
	}
	opts.MaxRetries = 3
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	rc := &RedisClient{client: client}

	logger.Log.Info("Redis client connected", zap.String("address", opts.Addr))
	return rc, nil
}

// Wrap adapts an existing go-redis client (miniredis in tests)
func Wrap(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Enabled reports whether the cache is backed by a live client
func (rc *RedisClient) Enabled() bool {
	return rc != nil && rc.client != nil
}

// Raw exposes the underlying client for pub/sub
func (rc *RedisClient) Raw() *redis.Client {
	if !rc.Enabled() {
		return nil
	}
	return rc.client
}

func (rc *RedisClient) Close() error {
	if !rc.Enabled() {
		return nil
	}
	return rc.client.Close()
}

func (rc *RedisClient) Ping(ctx context.Context) error {
	if !rc.Enabled() {
		return errors.New("redis not configured")
	}
	return rc.client.Ping(ctx).Err()
}

// Get retrieves a string value
func (rc *RedisClient) Get(ctx context.Context, key string) (string, error) {
	if !rc.Enabled() {
		return "", ErrMiss
	}
	v, err := rc.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

// SetEx stores a value with expiration
func (rc *RedisClient) SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !rc.Enabled() {
		return nil
	}
	return rc.client.Set(ctx, key, value, ttl).Err()
}

// Del deletes one or more keys
func (rc *RedisClient) Del(ctx context.Context, keys ...string) error {
	if !rc.Enabled() || len(keys) == 0 {
		return nil
	}
	return rc.client.Del(ctx, keys...).Err()
}

// GetJSON decodes a JSON value into dst
func (rc *RedisClient) GetJSON(ctx context.Context, key string, dst interface{}) error {
	raw, err := rc.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.UnmarshalFromString(raw, dst)
}

// SetJSON encodes value as JSON with expiration
func (rc *RedisClient) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !rc.Enabled() {
		return nil
	}
	raw, err := json.MarshalToString(value)
	if err != nil {
		return err
	}
	return rc.client.Set(ctx, key, raw, ttl).Err()
}

// IncrWindow increments key and sets ttl on the first hit of the window.
// Returns the count within the current window.
func (rc *RedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !rc.Enabled() {
		return 0, errors.New("redis not configured")
	}
	pipe := rc.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// TTL returns the remaining lifetime of key
func (rc *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	if !rc.Enabled() {
		return 0, ErrMiss
	}
	return rc.client.TTL(ctx, key).Result()
}

// Publish sends payload on a pub/sub channel
func (rc *RedisClient) Publish(ctx context.Context, channel string, payload []byte) error {
	if !rc.Enabled() {
		return nil
	}
	return rc.client.Publish(ctx, channel, payload).Err()
}
