package main

import (
	"fmt"
	"path/filepath"

	"github.com/philipparndt/vecstl/pkg/convert"
	"github.com/philipparndt/vecstl/pkg/pathio"
	"github.com/spf13/cobra"
)

var (
	convertFlags  drawingFlags
	convertOutput string
	convertASCII  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a DXF or SVG drawing into an STL solid",
	Long: `Extrude every closed region of the drawing to the given thickness and write
the merged solid as STL. Open lines are ignored; self-intersecting loops are
reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	addDrawingFlags(convertCmd, &convertFlags)

	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file, - for stdout (default <name>_extruded.stl next to the input)")
	convertCmd.Flags().BoolVar(&convertASCII, "ascii", false, "Write ASCII STL instead of binary")
}

func addDrawingFlags(cmd *cobra.Command, f *drawingFlags) {
	cmd.Flags().Float64VarP(&f.thickness, "thickness", "t", 0, "Extrusion thickness (default from config)")
	cmd.Flags().StringVar(&f.format, "format", "", "Input format, one of "+pathio.FormatTags()+" (default from file extension)")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "Endpoint merge tolerance (default from config)")
	cmd.Flags().IntVar(&f.curveSegments, "curve-segments", 0, "Samples per curve (default from config)")
	cmd.Flags().BoolVar(&f.splitLayers, "split-layers", false, "Extrude each DXF layer or top level SVG group on its own")
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	res, err := convertFile(input, convertFlags)
	if err != nil {
		return err
	}

	output := convertOutput
	if output == "" {
		output = filepath.Join(filepath.Dir(input), convert.OutputName(input))
	}
	if err := writeResult(cmd.OutOrStdout(), output, res, convertASCII, cfg.Conversion.Name); err != nil {
		return err
	}

	printWarnings(cmd.ErrOrStderr(), res.Warnings)
	if output == "-" {
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", output)
	fmt.Fprintf(out, "  Polygons: %d\n", res.Polygons)
	fmt.Fprintf(out, "  Vertices: %d\n", res.VertexCount)
	fmt.Fprintf(out, "  Faces: %d\n", res.FaceCount)
	fmt.Fprintf(out, "  Volume: %.6f cubic units\n", res.Volume)
	return nil
}
