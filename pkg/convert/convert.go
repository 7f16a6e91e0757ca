// Package convert runs the whole drawing to STL pipeline: load paths,
// extract closed regions, extrude them, merge the prisms, repair winding
// and serialize.
package convert

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/philipparndt/vecstl/pkg/extrude"
	"github.com/philipparndt/vecstl/pkg/mesh"
	"github.com/philipparndt/vecstl/pkg/pathio"
	"github.com/philipparndt/vecstl/pkg/region"
	"github.com/philipparndt/vecstl/pkg/stl"
	"go.uber.org/zap"
)

// ErrInvalidThickness is returned for a thickness that is not positive
var ErrInvalidThickness = errors.New("thickness must be positive")

// Options tunes a Converter
type Options struct {
	// Tolerance is the endpoint merge distance in drawing units
	Tolerance float64
	// CurveSegments is the number of samples per curve
	CurveSegments int
	// Name is written into the STL header
	Name string
	// SplitLayers treats every DXF layer and top level SVG group as its own
	// drawing, so a hole only cuts the outline on its own layer
	SplitLayers bool
}

// DefaultOptions returns the converter defaults
func DefaultOptions() Options {
	return Options{
		Tolerance:     region.DefaultTolerance,
		CurveSegments: pathio.DefaultCurveSegments,
		Name:          "vecstl",
	}
}

// Converter turns drawings into STL meshes. It holds no per request state
// and can be shared between goroutines.
type Converter struct {
	opts   Options
	logger *zap.Logger

	extrudeAll func([]region.Polygon, float64, *zap.Logger) extrude.ExtrusionResult
}

// New creates a Converter. A nil logger discards all output.
func New(opts Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{opts: opts, logger: logger, extrudeAll: extrude.All}
}

// Warning is a problem that did not stop the conversion
type Warning struct {
	// Collection is the index of the path collection
	Collection int
	// Polygon is the polygon index within the collection, or -1 when the
	// warning concerns the collection or a rejected loop
	Polygon int
	Err     error
}

func (w Warning) String() string {
	if w.Polygon < 0 {
		return fmt.Sprintf("collection %d: %v", w.Collection, w.Err)
	}
	return fmt.Sprintf("collection %d, polygon %d: %v", w.Collection, w.Polygon, w.Err)
}

// Result is a finished conversion
type Result struct {
	Mesh        *mesh.Mesh
	STL         []byte
	VertexCount int
	FaceCount   int
	Volume      float64
	// Collections is the number of path collections in the drawing
	Collections int
	// Polygons is the number of polygons found, including skipped ones
	Polygons int
	Warnings []Warning
}

// Convert runs the pipeline on one drawing
func (c *Converter) Convert(data []byte, format pathio.Format, thickness float64) (*Result, error) {
	start := time.Now()
	if !(thickness > 0) || math.IsInf(thickness, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThickness, thickness)
	}

	collections, err := pathio.Load(data, format, pathio.Options{
		CurveSegments:    c.opts.CurveSegments,
		SplitCollections: c.opts.SplitLayers,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Collections: collections.Len()}
	var (
		meshes    []*mesh.Mesh
		rejected  []region.RejectedLoop
		failures  []error
		skipped   []error
		anyClosed bool
	)
	for ci, col := range collections.All() {
		log := c.logger.With(zap.Int("collection", ci), zap.String("name", col.Name))

		if err := col.SkippedErr(); err != nil {
			log.Warn("ignoring unsupported entities", zap.Error(err))
			res.Warnings = append(res.Warnings, Warning{Collection: ci, Polygon: -1, Err: err})
			skipped = append(skipped, err)
		}

		ex, err := region.Extract(col, region.Options{Tolerance: c.opts.Tolerance})
		if err != nil {
			return nil, err
		}
		log.Debug("regions extracted",
			zap.Int("segments", len(col.Segments)),
			zap.Int("polygons", len(ex.Polygons)),
			zap.Int("open_chains", len(ex.OpenChains)),
			zap.Int("rejected", len(ex.Rejected)))

		if len(ex.OpenChains) > 0 {
			log.Info("ignoring open chains", zap.Int("count", len(ex.OpenChains)))
		}
		if ex.NoClosedRegion {
			if collections.IsMany() {
				res.Warnings = append(res.Warnings, Warning{Collection: ci, Polygon: -1, Err: region.ErrNoClosedRegion})
			}
			continue
		}
		anyClosed = true

		for _, r := range ex.Rejected {
			log.Warn("rejecting loop", zap.Stringer("reason", r.Reason), zap.Float64("x", r.At.X), zap.Float64("y", r.At.Y))
			res.Warnings = append(res.Warnings, Warning{
				Collection: ci,
				Polygon:    -1,
				Err:        &region.SelfIntersectionError{Loops: []region.RejectedLoop{r}},
			})
		}
		rejected = append(rejected, ex.Rejected...)

		res.Polygons += len(ex.Polygons)
		ext := c.extrudeAll(ex.Polygons, thickness, log)
		for _, w := range ext.Warnings {
			res.Warnings = append(res.Warnings, Warning{Collection: ci, Polygon: w.Polygon, Err: w.Err})
			failures = append(failures, fmt.Errorf("collection %d, polygon %d: %w", ci, w.Polygon, w.Err))
		}
		meshes = append(meshes, ext.Meshes...)
	}

	if !anyClosed {
		if len(skipped) > 0 {
			return nil, fmt.Errorf("%w; %w", region.ErrNoClosedRegion, errors.Join(skipped...))
		}
		return nil, region.ErrNoClosedRegion
	}
	if res.Polygons == 0 {
		return nil, &region.SelfIntersectionError{Loops: rejected}
	}

	merged, err := mesh.Merge(meshes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, errors.Join(failures...))
	}
	flipped := merged.FixNormals()

	res.Mesh = merged
	res.STL = stl.Encode(merged, c.opts.Name)
	res.VertexCount = merged.VertexCount()
	res.FaceCount = merged.FaceCount()
	res.Volume = merged.Volume()

	c.logger.Info("conversion finished",
		zap.Stringer("format", format),
		zap.Int("collections", res.Collections),
		zap.Int("polygons", res.Polygons),
		zap.Int("vertices", res.VertexCount),
		zap.Int("faces", res.FaceCount),
		zap.Int("flipped_faces", flipped),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

// ConvertTagged resolves a format tag such as "svg" and converts data
func (c *Converter) ConvertTagged(data []byte, tag string, thickness float64) (*Result, error) {
	format, err := pathio.ParseFormat(tag)
	if err != nil {
		return nil, err
	}
	return c.Convert(data, format, thickness)
}

// OutputName returns the conventional STL file name for a drawing,
// e.g. "logo.svg" becomes "logo_extruded.stl"
func OutputName(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "model"
	}
	return stem + "_extruded.stl"
}
