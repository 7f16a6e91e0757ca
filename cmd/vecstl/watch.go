package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/philipparndt/vecstl/pkg/convert"
	"github.com/philipparndt/vecstl/pkg/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	watchFlags  drawingFlags
	watchOutput string
)

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Convert a drawing again every time it changes",
	Long: `Convert the drawing once and keep watching it. Each save triggers a new
conversion after the configured debounce period. Failed conversions are logged
and the previous STL is left in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addDrawingFlags(watchCmd, &watchFlags)

	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Output file (default <name>_extruded.stl next to the input)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := watchOutput
	if output == "" {
		output = filepath.Join(filepath.Dir(input), convert.OutputName(input))
	}
	if output == "-" {
		return errors.New("watch writes to a file, stdout is not supported")
	}

	rebuild := func(path string) {
		res, err := convertFile(input, watchFlags)
		if err != nil {
			logger.Error("conversion failed", zap.String("input", path), zap.Error(err))
			return
		}
		if err := writeResult(nil, output, res, false, cfg.Conversion.Name); err != nil {
			logger.Error("failed to write STL", zap.String("output", output), zap.Error(err))
			return
		}
		for _, w := range res.Warnings {
			logger.Warn("conversion warning", zap.Stringer("warning", w))
		}
		logger.Info("wrote STL",
			zap.String("output", output),
			zap.Int("vertices", res.VertexCount),
			zap.Int("faces", res.FaceCount))
	}

	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Watch([]string{input}, rebuild); err != nil {
		return err
	}

	rebuild(input)
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s, press Ctrl+C to stop\n", input)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
