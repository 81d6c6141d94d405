package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/maskapp/mask/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "")
	os.Exit(m.Run())
}

func newTestCache(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestNilClientIsDisabled(t *testing.T) {
	var rc *RedisClient
	ctx := context.Background()

	assert.False(t, rc.Enabled())
	_, err := rc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, rc.SetEx(ctx, "k", "v", time.Minute))
	assert.NoError(t, rc.Del(ctx, "k"))
	assert.Error(t, rc.Ping(ctx))
}

func TestJSONRoundTripAndExpiry(t *testing.T) {
	rc, mr := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		IDs []string `json:"ids"`
	}
	require.NoError(t, rc.SetJSON(ctx, "bookmarks:u1", payload{IDs: []string{"a", "b"}}, time.Minute))

	var got payload
	require.NoError(t, rc.GetJSON(ctx, "bookmarks:u1", &got))
	assert.Equal(t, []string{"a", "b"}, got.IDs)

	mr.FastForward(61 * time.Second)
	err := rc.GetJSON(ctx, "bookmarks:u1", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestIncrWindowKeepsFirstTTL(t *testing.T) {
	rc, mr := newTestCache(t)
	ctx := context.Background()

	n, err := rc.IncrWindow(ctx, "rl:u1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mr.FastForward(30 * time.Second)
	n, err = rc.IncrWindow(ctx, "rl:u1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ttl, err := rc.TTL(ctx, "rl:u1")
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, 30*time.Second)

	mr.FastForward(31 * time.Second)
	n, err = rc.IncrWindow(ctx, "rl:u1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
