package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maskapp/mask/internal/config"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "")
	os.Exit(m.Run())
}

func TestOpenInMemoryMigratesAllModels(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)

	for _, m := range models.AllModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestInitializeSqliteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.db")
	err := Initialize(config.DatabaseConfig{Driver: "sqlite", URL: path, Retries: 1, MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	defer Close()

	require.NoError(t, Migrate())
	assert.NoError(t, Health())
}

func TestInitializeRetriesWithConstantDelay(t *testing.T) {
	var delays []time.Duration
	sleep = func(d time.Duration) { delays = append(delays, d) }
	defer func() { sleep = time.Sleep }()

	// A directory that does not exist makes every sqlite open fail
	badPath := filepath.Join(t.TempDir(), "missing", "dir", "mask.db")
	err := Initialize(config.DatabaseConfig{
		Driver:     "sqlite",
		URL:        badPath,
		Retries:    3,
		RetryDelay: 2 * time.Second,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, delays)
}
