package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/maskapp/mask/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLoggerIsSafe(t *testing.T) {
	logger = nil
	assert.NotPanics(t, func() {
		Debug("message only")
		Info("test", "a", 1, "b", 2.5, "c", true)
		Warn("test", "map", map[string]string{"key": "value"})
		Error("test", "err", "error message", "code", 500)
	})
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, log.WarnLevel)

	Debug("hidden")
	Info("hidden too")
	Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
}

func TestInitWritesToConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Init(filepath.Join(dir, "config.toml")))
	defer Close()

	Init(true)
	Debug("hello from test", "n", 1)
	Close()

	data, err := os.ReadFile(filepath.Join(dir, "mask.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}
