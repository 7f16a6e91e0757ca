package config

import (
	"time"

	"github.com/philipparndt/vecstl/pkg/pathio"
	"github.com/philipparndt/vecstl/pkg/region"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Conversion: DefaultConversionConfig(),
		Log:        DefaultLogConfig(),
		Server:     DefaultServerConfig(),
		Watch:      DefaultWatchConfig(),
	}
}

// DefaultConversionConfig returns the default pipeline settings
func DefaultConversionConfig() ConversionConfig {
	return ConversionConfig{
		Thickness:     5.0,
		MinThickness:  0.1,
		Tolerance:     region.DefaultTolerance,
		CurveSegments: pathio.DefaultCurveSegments,
		Name:          "vecstl",
	}
}

// DefaultLogConfig returns the default logger settings
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{"stderr"},
	}
}

// DefaultServerConfig returns the default HTTP server settings
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RequestTimeout:  30 * time.Second,
		MaxUploadBytes:  20 << 20,
	}
}

// DefaultWatchConfig returns the default watch settings
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Debounce: 200 * time.Millisecond,
	}
}
