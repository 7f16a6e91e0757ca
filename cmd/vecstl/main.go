package main

import (
	"fmt"
	"os"

	"github.com/philipparndt/vecstl/internal/config"
	"github.com/philipparndt/vecstl/internal/logging"
	"github.com/philipparndt/vecstl/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "vecstl",
	Short: "Extrude DXF and SVG drawings into STL solids",
	Long: `vecstl turns the closed outlines of a 2D drawing into a printable 3D solid.
Closed regions are extruded to a fixed thickness with their holes kept open,
and the result is written as a binary STL file.`,
	Version:           version.GetFullVersion(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// setup loads the configuration and builds the logger for every command
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
		if err := c.Validate(); err != nil {
			return err
		}
	}

	l, err := logging.New(c.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	cfg, logger = c, l
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
