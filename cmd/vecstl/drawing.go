package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/philipparndt/vecstl/pkg/convert"
	"github.com/philipparndt/vecstl/pkg/mesh"
	"github.com/philipparndt/vecstl/pkg/pathio"
	"github.com/philipparndt/vecstl/pkg/stl"
)

// drawingFlags are shared by every command that reads a drawing
type drawingFlags struct {
	thickness     float64
	format        string
	tolerance     float64
	curveSegments int
	splitLayers   bool
}

// options merges the flags over the configured conversion settings
func (f drawingFlags) options() convert.Options {
	opts := cfg.Conversion.Options()
	if f.tolerance > 0 {
		opts.Tolerance = f.tolerance
	}
	if f.curveSegments > 0 {
		opts.CurveSegments = f.curveSegments
	}
	if f.splitLayers {
		opts.SplitLayers = true
	}
	return opts
}

func (f drawingFlags) thicknessOrDefault() float64 {
	if f.thickness != 0 {
		return f.thickness
	}
	return cfg.Conversion.Thickness
}

// convertFile reads and converts one drawing
func convertFile(path string, flags drawingFlags) (*convert.Result, error) {
	var (
		format pathio.Format
		err    error
	)
	if flags.format != "" {
		format, err = pathio.ParseFormat(flags.format)
	} else {
		format, err = pathio.FormatFromFilename(path)
	}
	if err != nil {
		return nil, describe(err)
	}

	thickness := flags.thicknessOrDefault()
	if err := cfg.Conversion.CheckThickness(thickness); err != nil {
		return nil, describe(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	res, err := convert.New(flags.options(), logger).Convert(data, format, thickness)
	if err != nil {
		return nil, describe(err)
	}
	return res, nil
}

// describe prefixes err with the user facing message for its condition
func describe(err error) error {
	return fmt.Errorf("%s: %w", convert.Message(convert.Classify(err)), err)
}

func isSTL(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".stl")
}

// loadMesh returns the mesh of an STL file, or converts a drawing
func loadMesh(path string, flags drawingFlags) (*mesh.Mesh, string, error) {
	if isSTL(path) {
		model, err := stl.Parse(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse STL file: %w", err)
		}
		return model.ToMesh(), model.Name, nil
	}

	res, err := convertFile(path, flags)
	if err != nil {
		return nil, "", err
	}
	return res.Mesh, filepath.Base(path), nil
}

// writeResult writes the STL to path, or to stdout for "-". A close error
// is returned when the write itself succeeded.
func writeResult(stdout io.Writer, path string, res *convert.Result, ascii bool, name string) (err error) {
	var w io.Writer = stdout
	if path != "-" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return fmt.Errorf("failed to create %s: %w", path, cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close %s: %w", path, cerr)
			}
		}()
		w = f
	}

	if ascii {
		return stl.WriteASCII(w, res.Mesh, name)
	}
	_, err = w.Write(res.STL)
	return err
}

func printWarnings(w io.Writer, warnings []convert.Warning) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}
