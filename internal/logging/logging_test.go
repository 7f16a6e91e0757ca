package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philipparndt/vecstl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}

func TestNewJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecstl.log")
	logger, err := New(config.LogConfig{Level: "warn", Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("skipping polygon", zap.Int("polygon", 3))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"skipping polygon"`)
	assert.Contains(t, lines[0], `"polygon":3`)
	assert.Contains(t, lines[0], `"timestamp"`)
}

func TestNewConsole(t *testing.T) {
	logger, err := New(config.DefaultLogConfig())
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewFallsBack(t *testing.T) {
	logger, err := New(config.LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{filepath.Join(t.TempDir(), "missing", "dir", "x.log")},
	})
	assert.Error(t, err)
	assert.NotNil(t, logger)
}
