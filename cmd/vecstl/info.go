package main

import (
	"fmt"

	"github.com/philipparndt/vecstl/pkg/analysis"
	"github.com/spf13/cobra"
)

var infoFlags drawingFlags

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display information about an STL file or a converted drawing",
	Long: `Show dimensions, triangle count, volume, surface area, topology and edge
statistics. DXF and SVG inputs are converted first.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	addDrawingFlags(infoCmd, &infoFlags)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	m, name, err := loadMesh(filename, infoFlags)
	if err != nil {
		return err
	}

	result := analysis.AnalyzeMesh(m)
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Mesh Information")
	fmt.Fprintln(out, "================")
	if name != "" {
		fmt.Fprintf(out, "Name: %s\n", name)
	}
	fmt.Fprintf(out, "File: %s\n\n", filename)

	fmt.Fprintln(out, "Model Statistics:")
	fmt.Fprintf(out, "  Vertices: %d\n", result.VertexCount)
	fmt.Fprintf(out, "  Triangles: %d\n", result.TriangleCount)
	fmt.Fprintf(out, "  Edges: %d\n", result.EdgeCount)
	fmt.Fprintf(out, "  Surface Area: %.6f square units\n\n", result.SurfaceArea)

	fmt.Fprintln(out, "Topology:")
	fmt.Fprintf(out, "  Components: %d\n", result.Components)
	fmt.Fprintf(out, "  Boundary Edges: %d\n", result.BoundaryEdges)
	fmt.Fprintf(out, "  Watertight: %t\n", result.Watertight)
	fmt.Fprintf(out, "  Consistent Winding: %t\n\n", result.WindingConsistent)

	fmt.Fprintln(out, "Bounding Box:")
	fmt.Fprintf(out, "  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Fprintf(out, "  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Fprintf(out, "  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

	fmt.Fprintln(out, "Dimensions:")
	fmt.Fprintf(out, "  Width (X): %.6f units\n", result.Dimensions.X)
	fmt.Fprintf(out, "  Depth (Y): %.6f units\n", result.Dimensions.Y)
	fmt.Fprintf(out, "  Height (Z): %.6f units\n", result.Dimensions.Z)
	fmt.Fprintf(out, "  Diagonal: %.6f units\n", result.BoundingBox.Diagonal())
	fmt.Fprintf(out, "  Volume: %.6f cubic units\n\n", result.Volume)

	fmt.Fprintln(out, "Edge Lengths:")
	fmt.Fprintf(out, "  Minimum: %.6f units\n", result.MinEdgeLength)
	fmt.Fprintf(out, "  Maximum: %.6f units\n", result.MaxEdgeLength)
	fmt.Fprintf(out, "  Average: %.6f units\n", result.AvgEdgeLength)
	return nil
}
