package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8787", cfg.Port)
	assert.Equal(t, AdminAuthRole, cfg.Admin.Mode)
	assert.Equal(t, 5, cfg.DB.Retries)
	assert.Equal(t, 3*time.Second, cfg.DB.RetryDelay)
	assert.Equal(t, int64(5<<20), cfg.Uploads.MaxBytes)
	assert.Equal(t, "mask.db", cfg.DB.URL)
	assert.NotEmpty(t, cfg.JWT.Secret, "development secret should be filled in outside production")
}

func TestLoadRequiresJWTSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestKeyModeRequiresAdminKey(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("ADMIN_AUTH_MODE", "key")
	t.Setenv("ADMIN_KEY", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("ADMIN_KEY", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AdminAuthKey, cfg.Admin.Mode)
}

func TestDurationsAcceptSeconds(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DB_CONNECT_RETRY_DELAY", "7")
	t.Setenv("WELLNESS_REMINDER_EVERY", "10m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.DB.RetryDelay)
	assert.Equal(t, 10*time.Minute, cfg.Wellness.ReminderEvery)
}

func TestInvalidWellnessOrderingRejected(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("WELLNESS_WARN_AT", "70m")
	t.Setenv("WELLNESS_LOGOUT_AT", "60m")

	_, err := Load()
	assert.Error(t, err)
}

func TestRequiredServices(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("REQUIRED_SERVICES", "redis, ai")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.RequiresService("redis"))
	assert.True(t, cfg.RequiresService("ai"))
	assert.False(t, cfg.RequiresService("s3"))
}

func TestWebSocketLimits(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, WebSocketConfig{MaxMessagesPerSecond: 10, Burst: 20}, cfg.WS)

	t.Setenv("WS_MAX_MESSAGES_PER_SECOND", "2")
	t.Setenv("WS_BURST", "4")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, WebSocketConfig{MaxMessagesPerSecond: 2, Burst: 4}, cfg.WS)

	t.Setenv("WS_BURST", "0")
	_, err = Load()
	assert.Error(t, err)
}
