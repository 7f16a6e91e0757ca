// Package region turns loose path segments into simple polygons with holes.
//
// Endpoints that lie within the tolerance of each other are merged, so a
// boundary drawn as many separate lines still forms a loop. Lines that
// meet at shared nodes are split into the faces they enclose. Loops that
// touch or cross themselves or each other are rejected rather than
// repaired.
package region

import (
	"errors"
	"fmt"
	"strings"

	"github.com/philipparndt/vecstl/pkg/geometry"
)

// DefaultTolerance is the endpoint merge distance in source units
const DefaultTolerance = 1e-6

var (
	// ErrNoClosedRegion means the collection has no closed loop at all
	ErrNoClosedRegion = errors.New("no closed region found")
	// ErrSelfIntersectingRegion means closed loops exist but none is simple
	ErrSelfIntersectingRegion = errors.New("closed region is self-intersecting")
	// ErrInvalidTolerance is returned for a negative or non-finite tolerance
	ErrInvalidTolerance = errors.New("invalid tolerance")
)

// Options configures extraction
type Options struct {
	Tolerance float64
}

// DefaultOptions returns the extraction defaults
func DefaultOptions() Options {
	return Options{Tolerance: DefaultTolerance}
}

// Polygon is a simple outer ring with optional holes. The outer ring is
// counter-clockwise and every hole is clockwise. All rings are closed.
type Polygon struct {
	Outer geometry.Ring
	Holes []geometry.Ring
}

// Rings returns the outer ring followed by the holes
func (p Polygon) Rings() []geometry.Ring {
	rings := make([]geometry.Ring, 0, len(p.Holes)+1)
	rings = append(rings, p.Outer)
	return append(rings, p.Holes...)
}

// Area returns the enclosed area with the holes subtracted
func (p Polygon) Area() float64 {
	a := p.Outer.SignedArea()
	for _, h := range p.Holes {
		a += h.SignedArea()
	}
	return a
}

// PointCount returns the number of distinct boundary points over all rings
func (p Polygon) PointCount() int {
	n := 0
	for _, r := range p.Rings() {
		n += len(r.Open())
	}
	return n
}

// RejectReason tells why a loop was not turned into a polygon
type RejectReason int

const (
	// Branching faces of a line network run into themselves at a node
	// shared by more than two edges
	Branching RejectReason = iota
	// SelfIntersecting loops cross or touch themselves
	SelfIntersecting
	// Crossing loops cross or touch another loop
	Crossing
)

func (r RejectReason) String() string {
	switch r {
	case Branching:
		return "branching"
	case SelfIntersecting:
		return "self-intersecting"
	case Crossing:
		return "crossing another loop"
	default:
		return "unknown"
	}
}

// RejectedLoop records a closed boundary that failed simplicity validation
type RejectedLoop struct {
	// Points are the boundary points of the loop, or the nodes of a
	// rejected network
	Points []geometry.Point2D
	Reason RejectReason
	// At is a point close to the problem
	At geometry.Point2D
}

// Extraction is the outcome of Extract
type Extraction struct {
	Polygons []Polygon
	// OpenChains are dangling polylines that do not close
	OpenChains [][]geometry.Point2D
	Rejected   []RejectedLoop
	// NoClosedRegion is set when not a single closed loop exists, valid or not
	NoClosedRegion bool
}

// Err reports the condition of an extraction that produced no polygon
func (e *Extraction) Err() error {
	switch {
	case e.NoClosedRegion:
		return ErrNoClosedRegion
	case len(e.Polygons) == 0 && len(e.Rejected) > 0:
		return &SelfIntersectionError{Loops: e.Rejected}
	default:
		return nil
	}
}

// SelfIntersectionError lists the loops that failed validation
type SelfIntersectionError struct {
	Loops []RejectedLoop
}

func (e *SelfIntersectionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d closed loop(s) rejected", len(e.Loops))
	for i, l := range e.Loops {
		if i == 3 {
			fmt.Fprintf(&b, ", ...")
			break
		}
		fmt.Fprintf(&b, "; %s near (%g, %g)", l.Reason, l.At.X, l.At.Y)
	}
	return b.String()
}

func (e *SelfIntersectionError) Unwrap() error {
	return ErrSelfIntersectingRegion
}
