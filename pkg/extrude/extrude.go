// Package extrude lifts 2D polygons into closed prisms.
package extrude

import (
	"errors"
	"fmt"
	"math"

	"github.com/philipparndt/vecstl/pkg/geometry"
	"github.com/philipparndt/vecstl/pkg/mesh"
	"github.com/philipparndt/vecstl/pkg/region"
	"go.uber.org/zap"
)

var (
	// ErrDegeneratePolygon is returned for polygons that cannot be triangulated
	ErrDegeneratePolygon = errors.New("degenerate polygon")
	// ErrInvalidHeight is returned for a height that is not a positive finite number
	ErrInvalidHeight = errors.New("extrusion height must be positive")
)

// DegenerateError describes why a polygon could not be triangulated
type DegenerateError struct {
	Reason string
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDegeneratePolygon, e.Reason)
}

func (e *DegenerateError) Unwrap() error {
	return ErrDegeneratePolygon
}

// Polygon builds the prism of p between z=0 and z=height.
//
// The first half of the vertices is the bottom copy of Points(p) and the
// second half the top copy. Faces are the bottom cap facing -z, the top cap
// facing +z and two wall triangles per ring edge. Walls of holes face into
// the hole.
func Polygon(p region.Polygon, height float64) (*mesh.Mesh, error) {
	if !(height > 0) || math.IsInf(height, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeight, height)
	}
	tris, err := Triangulate(p)
	if err != nil {
		return nil, err
	}

	pts := Points(p)
	n := len(pts)
	m := &mesh.Mesh{
		Vertices: make([]geometry.Vector3, 2*n),
		Faces:    make([][3]int, 0, 2*len(tris)+2*n),
	}
	for i, pt := range pts {
		m.Vertices[i] = geometry.Lift(pt, 0)
		m.Vertices[i+n] = geometry.Lift(pt, height)
	}

	// Caps
	for _, t := range tris {
		m.Faces = append(m.Faces, [3]int{t[0], t[2], t[1]})
	}
	for _, t := range tris {
		m.Faces = append(m.Faces, [3]int{t[0] + n, t[1] + n, t[2] + n})
	}

	// Walls. Outer rings run counter-clockwise and holes clockwise, so the
	// right hand side of every edge is outside the solid.
	offset := 0
	for _, r := range p.Rings() {
		k := len(r.Open())
		for i := 0; i < k; i++ {
			a := offset + i
			b := offset + (i+1)%k
			m.Faces = append(m.Faces, [3]int{a, b, b + n}, [3]int{a, b + n, a + n})
		}
		offset += k
	}
	return m, nil
}

// Warning records a polygon that was skipped
type Warning struct {
	Polygon int
	Err     error
}

// ExtrusionResult holds the meshes of the polygons that could be extruded
type ExtrusionResult struct {
	Meshes []*mesh.Mesh
	// Indices maps each mesh back to its position in the input
	Indices  []int
	Warnings []Warning
}

// All extrudes every polygon. A polygon that fails is logged and skipped so
// the others still produce output.
func All(polys []region.Polygon, height float64, logger *zap.Logger) ExtrusionResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res ExtrusionResult
	for i, p := range polys {
		m, err := Polygon(p, height)
		if err != nil {
			logger.Warn("skipping polygon",
				zap.Int("polygon", i),
				zap.Int("points", p.PointCount()),
				zap.Error(err))
			res.Warnings = append(res.Warnings, Warning{Polygon: i, Err: err})
			continue
		}
		res.Meshes = append(res.Meshes, m)
		res.Indices = append(res.Indices, i)
	}
	return res
}

// Err joins the errors of all skipped polygons
func (r ExtrusionResult) Err() error {
	errs := make([]error, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		errs = append(errs, fmt.Errorf("polygon %d: %w", w.Polygon, w.Err))
	}
	return errors.Join(errs...)
}
