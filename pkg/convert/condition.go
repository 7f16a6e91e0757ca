package convert

import (
	"errors"

	"github.com/philipparndt/vecstl/pkg/extrude"
	"github.com/philipparndt/vecstl/pkg/mesh"
	"github.com/philipparndt/vecstl/pkg/pathio"
	"github.com/philipparndt/vecstl/pkg/region"
)

// Condition is the machine readable outcome of a failed conversion
type Condition int

const (
	Unknown Condition = iota
	UnsupportedFormat
	MalformedInput
	InvalidThickness
	NoClosedRegion
	SelfIntersectingRegion
	DegeneratePolygon
	EmptyMeshSet
)

var conditionNames = map[Condition]string{
	Unknown:                "unknown",
	UnsupportedFormat:      "unsupported_format",
	MalformedInput:         "malformed_input",
	InvalidThickness:       "invalid_thickness",
	NoClosedRegion:         "no_closed_region",
	SelfIntersectingRegion: "self_intersecting_region",
	DegeneratePolygon:      "degenerate_polygon",
	EmptyMeshSet:           "empty_mesh_set",
}

func (c Condition) String() string {
	if name, ok := conditionNames[c]; ok {
		return name
	}
	return conditionNames[Unknown]
}

// Classify maps an error from Convert to its condition. An empty mesh set
// is checked before the per polygon causes it wraps.
func Classify(err error) Condition {
	switch {
	case err == nil:
		return Unknown
	case errors.Is(err, pathio.ErrUnsupportedFormat):
		return UnsupportedFormat
	case errors.Is(err, pathio.ErrMalformedInput):
		return MalformedInput
	case errors.Is(err, ErrInvalidThickness), errors.Is(err, extrude.ErrInvalidHeight):
		return InvalidThickness
	case errors.Is(err, region.ErrNoClosedRegion):
		return NoClosedRegion
	case errors.Is(err, mesh.ErrEmptyMeshSet):
		return EmptyMeshSet
	case errors.Is(err, region.ErrSelfIntersectingRegion):
		return SelfIntersectingRegion
	case errors.Is(err, extrude.ErrDegeneratePolygon):
		return DegeneratePolygon
	default:
		return Unknown
	}
}

// Message returns the user facing text for a condition
func Message(c Condition) string {
	switch c {
	case UnsupportedFormat:
		return "unsupported file format; upload a DXF or SVG file"
	case MalformedInput:
		return "the file could not be read; check that it is a valid DXF or SVG file"
	case InvalidThickness:
		return "thickness must be a positive number"
	case NoClosedRegion:
		return "no closed region found; check that lines connect and do not self-intersect"
	case SelfIntersectingRegion:
		return "closed regions were found but they self-intersect; check the drawing for crossing or touching lines"
	case DegeneratePolygon:
		return "a closed region could not be triangulated"
	case EmptyMeshSet:
		return "mesh generation failed; no closed region could be extruded"
	default:
		return "conversion failed"
	}
}
