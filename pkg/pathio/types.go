// Package pathio loads vector drawings into collections of 2D line
// segments. Curves are sampled into straight pieces at load time so the
// rest of the pipeline only ever sees segments.
package pathio

import (
	"fmt"
	"slices"
	"strings"

	"github.com/philipparndt/vecstl/pkg/geometry"
)

// Segment is one straight piece of a source path
type Segment struct {
	Start, End geometry.Point2D
	// Path identifies the source element the segment was sampled from
	Path int
}

// PathCollection is a set of segments sharing one coordinate space
type PathCollection struct {
	Name     string
	Segments []Segment
	// Skipped counts source entities by kind that produced no segments
	// because the loader does not read them
	Skipped map[string]int
}

// SkippedErr describes the skipped entities, or returns nil when every
// entity was read
func (c PathCollection) SkippedErr() error {
	if len(c.Skipped) == 0 {
		return nil
	}
	kinds := make([]string, 0, len(c.Skipped))
	for k := range c.Skipped {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%d %s", c.Skipped[k], k)
	}
	return fmt.Errorf("%w: skipped %s", ErrUnsupportedEntity, strings.Join(parts, ", "))
}

// Paths returns the number of distinct source paths in the collection
func (c PathCollection) Paths() int {
	seen := make(map[int]struct{})
	for _, s := range c.Segments {
		seen[s.Path] = struct{}{}
	}
	return len(seen)
}

// OneOrMany holds either a single value or a list of values. The loader
// decides once which shape a document has so downstream code does not
// need to inspect it again.
type OneOrMany[T any] struct {
	items []T
	many  bool
}

// One wraps a single value
func One[T any](v T) OneOrMany[T] {
	return OneOrMany[T]{items: []T{v}}
}

// Many wraps a list of values
func Many[T any](vs []T) OneOrMany[T] {
	return OneOrMany[T]{items: vs, many: true}
}

// IsMany reports whether the value was built with Many
func (o OneOrMany[T]) IsMany() bool {
	return o.many
}

// One returns the single value. ok is false for a Many variant.
func (o OneOrMany[T]) One() (v T, ok bool) {
	if o.many || len(o.items) != 1 {
		return v, false
	}
	return o.items[0], true
}

// All returns every value regardless of the variant
func (o OneOrMany[T]) All() []T {
	return o.items
}

// Len returns the number of values
func (o OneOrMany[T]) Len() int {
	return len(o.items)
}

// polylineSegments appends the segments joining consecutive points
func polylineSegments(out []Segment, pts []geometry.Point2D, path int) []Segment {
	for i := 1; i < len(pts); i++ {
		if pts[i-1] == pts[i] {
			continue
		}
		out = append(out, Segment{Start: pts[i-1], End: pts[i], Path: path})
	}
	return out
}
