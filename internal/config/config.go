// Package config holds the vecstl configuration. Values are resolved in
// the order defaults, YAML file, environment (prefix VECSTL), and finally
// command line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/philipparndt/vecstl/pkg/convert"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete configuration
type Config struct {
	Conversion ConversionConfig `yaml:"conversion" env:"CONVERSION"`
	Log        LogConfig        `yaml:"log" env:"LOG"`
	Server     ServerConfig     `yaml:"server" env:"SERVER"`
	Watch      WatchConfig      `yaml:"watch" env:"WATCH"`
}

// ConversionConfig controls the pipeline
type ConversionConfig struct {
	// Thickness is the default extrusion height in drawing units
	Thickness float64 `yaml:"thickness" env:"THICKNESS"`
	// MinThickness is the smallest thickness accepted from users
	MinThickness float64 `yaml:"min_thickness" env:"MIN_THICKNESS"`
	// Tolerance is the endpoint merge distance
	Tolerance float64 `yaml:"tolerance" env:"TOLERANCE"`
	// CurveSegments is the number of samples per curve
	CurveSegments int `yaml:"curve_segments" env:"CURVE_SEGMENTS"`
	// Name is written into the STL header
	Name string `yaml:"name" env:"NAME"`
	// SplitLayers extrudes every DXF layer and top level SVG group on its own
	SplitLayers bool `yaml:"split_layers" env:"SPLIT_LAYERS"`
}

// LogConfig controls the logger
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console
	Format       string   `yaml:"format" env:"FORMAT"`
	OutputPaths  []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// ServerConfig controls the HTTP server
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// RequestTimeout bounds a single conversion
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	// MaxUploadBytes limits the size of an uploaded drawing
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
}

// WatchConfig controls the watch command
type WatchConfig struct {
	// Debounce is the quiet period after a change before converting
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

// Options returns the converter options for this configuration
func (c ConversionConfig) Options() convert.Options {
	return convert.Options{
		Tolerance:     c.Tolerance,
		CurveSegments: c.CurveSegments,
		Name:          c.Name,
		SplitLayers:   c.SplitLayers,
	}
}

// CheckThickness validates a user supplied thickness against the minimum
func (c ConversionConfig) CheckThickness(thickness float64) error {
	if math.IsNaN(thickness) || math.IsInf(thickness, 0) || thickness < c.MinThickness || thickness <= 0 {
		return fmt.Errorf("%w: %v (minimum %v)", convert.ErrInvalidThickness, thickness, c.MinThickness)
	}
	return nil
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "console"}
)

// Validate checks the configuration for values the pipeline cannot use
func (c *Config) Validate() error {
	var errs []string

	conv := c.Conversion
	if !(conv.MinThickness > 0) {
		errs = append(errs, "conversion.min_thickness must be positive")
	}
	if conv.CheckThickness(conv.Thickness) != nil {
		errs = append(errs, "conversion.thickness must be at least conversion.min_thickness")
	}
	if conv.Tolerance < 0 || math.IsNaN(conv.Tolerance) || math.IsInf(conv.Tolerance, 0) {
		errs = append(errs, "conversion.tolerance must be a non-negative number")
	}
	if conv.CurveSegments < 1 {
		errs = append(errs, "conversion.curve_segments must be at least 1")
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level must be one of %s", strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Sprintf("log.format must be one of %s", strings.Join(logFormats, ", ")))
	}

	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, "server.max_upload_bytes must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, "watch.debounce must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
