package validation

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/maskapp/mask/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "")
	os.Exit(m.Run())
}

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestOptionalFailureDegrades(t *testing.T) {
	sv := NewServiceValidator(nil)
	sv.Register("redis", down)
	sv.Register("ai", ok)

	statuses, err := sv.ValidateServices(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "ai", statuses[0].Name)
	assert.True(t, statuses[0].OK)
	assert.False(t, statuses[1].OK)
	assert.Equal(t, "connection refused", statuses[1].Error)
}

func TestRequiredFailureAborts(t *testing.T) {
	sv := NewServiceValidator([]string{" Redis ", "s3"})
	sv.Register("redis", down)
	sv.Register("s3", ok)

	_, err := sv.ValidateServices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
	assert.NotContains(t, err.Error(), "s3")
}

func TestRequiredWithoutCheck(t *testing.T) {
	sv := NewServiceValidator([]string{"ai"})
	_, err := sv.ValidateServices(context.Background())
	assert.Error(t, err)
}

func TestCheckReceivesDeadline(t *testing.T) {
	sv := NewServiceValidator(nil)
	var hasDeadline bool
	sv.Register("s3", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})
	_, err := sv.ValidateServices(context.Background())
	require.NoError(t, err)
	assert.True(t, hasDeadline)
}
