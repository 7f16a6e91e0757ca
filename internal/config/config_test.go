package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/philipparndt/vecstl/pkg/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5.0, cfg.Conversion.Thickness)
	assert.Equal(t, 0.1, cfg.Conversion.MinThickness)
	assert.Equal(t, 1e-6, cfg.Conversion.Tolerance)
	assert.Equal(t, 16, cfg.Conversion.CurveSegments)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)

	assert.NoError(t, cfg.Validate())
}

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecstl.yaml")
	yamlContent := `
conversion:
  thickness: 2.5
  curve_segments: 32
  name: "plate"
  split_layers: true
log:
  level: debug
  format: json
server:
  addr: ":9000"
  request_timeout: 5s
watch:
  debounce: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.Conversion.Thickness)
	assert.Equal(t, 32, cfg.Conversion.CurveSegments)
	assert.Equal(t, "plate", cfg.Conversion.Name)
	assert.True(t, cfg.Conversion.SplitLayers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)

	// Untouched values keep their defaults
	assert.Equal(t, 0.1, cfg.Conversion.MinThickness)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadBytes)
}

func TestLoader_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Conversion.Thickness)
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("conversion: [1, 2"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv("VECSTL_CONVERSION_THICKNESS", "3")
	t.Setenv("VECSTL_LOG_OUTPUT_PATHS", "stdout, /tmp/vecstl.log")
	t.Setenv("VECSTL_SERVER_REQUEST_TIMEOUT", "90s")
	t.Setenv("VECSTL_SERVER_MAX_UPLOAD_BYTES", "1024")
	t.Setenv("VECSTL_CONVERSION_SPLIT_LAYERS", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.Conversion.Thickness)
	assert.Equal(t, []string{"stdout", "/tmp/vecstl.log"}, cfg.Log.OutputPaths)
	assert.Equal(t, 90*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, int64(1024), cfg.Server.MaxUploadBytes)
	assert.True(t, cfg.Conversion.Options().SplitLayers)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecstl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("conversion:\n  thickness: 2\n"), 0o644))
	t.Setenv("VECSTL_CONVERSION_THICKNESS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.Conversion.Thickness)
}

func TestLoader_BadEnvValue(t *testing.T) {
	t.Setenv("VECSTL_CONVERSION_CURVE_SEGMENTS", "many")
	_, err := Load("")
	assert.ErrorContains(t, err, "VECSTL_CONVERSION_CURVE_SEGMENTS")
}

func TestLoader_CustomPrefixAndValidator(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "warn")
	called := false
	cfg, err := NewLoader().
		WithEnvPrefix("TEST").
		WithValidator(func(c *Config) error {
			called = true
			return nil
		}).
		Load()
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"thickness below minimum": func(c *Config) { c.Conversion.Thickness = 0.05 },
		"zero minimum":            func(c *Config) { c.Conversion.MinThickness = 0 },
		"negative tolerance":      func(c *Config) { c.Conversion.Tolerance = -1 },
		"no curve segments":       func(c *Config) { c.Conversion.CurveSegments = 0 },
		"log level":               func(c *Config) { c.Log.Level = "verbose" },
		"log format":              func(c *Config) { c.Log.Format = "xml" },
		"upload limit":            func(c *Config) { c.Server.MaxUploadBytes = 0 },
		"request timeout":         func(c *Config) { c.Server.RequestTimeout = 0 },
		"debounce":                func(c *Config) { c.Watch.Debounce = -time.Second },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestCheckThickness(t *testing.T) {
	conv := DefaultConversionConfig()
	assert.NoError(t, conv.CheckThickness(0.1))
	assert.NoError(t, conv.CheckThickness(12))
	assert.ErrorIs(t, conv.CheckThickness(0.09), convert.ErrInvalidThickness)
	assert.ErrorIs(t, conv.CheckThickness(-1), convert.ErrInvalidThickness)
}

func TestConversionOptions(t *testing.T) {
	opts := DefaultConversionConfig().Options()
	assert.Equal(t, convert.Options{Tolerance: 1e-6, CurveSegments: 16, Name: "vecstl"}, opts)
}
