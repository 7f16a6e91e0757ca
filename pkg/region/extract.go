package region

import (
	"fmt"
	"math"

	"github.com/philipparndt/vecstl/pkg/geometry"
	"github.com/philipparndt/vecstl/pkg/pathio"
)

// loop is a traced closed boundary awaiting validation
type loop struct {
	pts    []geometry.Point2D
	bounds geometry.Bounds2D
	ok     bool
	// network is the index of the branching component the loop is a face
	// of, or -1 for a plain loop
	network int
}

// Extract finds the simple closed regions described by the segments of c
func Extract(c pathio.PathCollection, opts Options) (*Extraction, error) {
	tol := opts.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTolerance, opts.Tolerance)
	}

	g := buildGraph(c.Segments, tol)
	result := &Extraction{OpenChains: g.prune()}
	result.OpenChains = append(result.OpenChains, g.removeBridges()...)

	var loops []*loop
	for ci, comp := range g.components() {
		if comp.branch >= 0 {
			faces, rejected := networkFaces(g, comp, ci, tol)
			loops = append(loops, faces...)
			result.Rejected = append(result.Rejected, rejected...)
			continue
		}
		pts := g.trace(comp)
		if at, bad := selfIntersection(pts, tol); bad {
			result.Rejected = append(result.Rejected, RejectedLoop{Points: pts, Reason: SelfIntersecting, At: at})
			continue
		}
		loops = append(loops, &loop{pts: pts, bounds: geometry.NewBounds2D(pts...), ok: true, network: -1})
	}
	result.NoClosedRegion = len(loops) == 0 && len(result.Rejected) == 0

	// Loops that touch each other cannot be nested reliably. Faces of one
	// network share edges by construction.
	for i := 0; i < len(loops); i++ {
		for j := i + 1; j < len(loops); j++ {
			if loops[i].network >= 0 && loops[i].network == loops[j].network {
				continue
			}
			if !loops[i].bounds.Overlaps(loops[j].bounds, tol) {
				continue
			}
			if at, hit := loopsTouch(loops[i].pts, loops[j].pts, tol); hit {
				loops[i].ok = false
				loops[j].ok = false
				result.Rejected = append(result.Rejected,
					RejectedLoop{Points: loops[i].pts, Reason: Crossing, At: at},
					RejectedLoop{Points: loops[j].pts, Reason: Crossing, At: at})
			}
		}
	}

	valid := loops[:0]
	for _, l := range loops {
		if l.ok {
			valid = append(valid, l)
		}
	}
	result.Polygons = nest(valid, tol)
	return result, nil
}

// networkFaces splits a component with branch nodes into its bounded
// faces. A network whose edges cross away from a node is rejected whole,
// and a face that runs into itself at a shared node is rejected alone.
func networkFaces(g *graph, comp component, network int, tol float64) ([]*loop, []RejectedLoop) {
	if at, bad := networkCrossing(g, comp, tol); bad {
		return nil, []RejectedLoop{{Points: g.points(comp.nodes), Reason: SelfIntersecting, At: at}}
	}

	var (
		loops    []*loop
		rejected []RejectedLoop
	)
	for _, face := range g.faces(comp) {
		pts := g.points(face)
		if geometry.Ring(pts).SignedArea() <= 0 {
			// The unbounded face
			continue
		}
		if at, bad := selfIntersection(pts, tol); bad {
			rejected = append(rejected, RejectedLoop{Points: pts, Reason: Branching, At: at})
			continue
		}
		loops = append(loops, &loop{pts: pts, bounds: geometry.NewBounds2D(pts...), ok: true, network: network})
	}
	return loops, rejected
}

// networkCrossing looks for two edges of a component that meet anywhere
// other than a common node
func networkCrossing(g *graph, comp component, tol float64) (geometry.Point2D, bool) {
	edges := g.edges(comp)
	for i, e := range edges {
		a, b := g.nodes[e.a], g.nodes[e.b]
		eb := geometry.NewBounds2D(a, b)
		for _, f := range edges[i+1:] {
			if e.a == f.a || e.a == f.b || e.b == f.a || e.b == f.b {
				continue
			}
			c, d := g.nodes[f.a], g.nodes[f.b]
			if !eb.Overlaps(geometry.NewBounds2D(c, d), tol) {
				continue
			}
			if geometry.SegmentsIntersect(a, b, c, d, tol) {
				return crossingPoint(a, b, c, d), true
			}
		}
	}
	return geometry.Point2D{}, false
}

// nest classifies loops by even-odd containment depth. Even depth loops are
// outer boundaries, odd depth loops are holes of their direct container.
func nest(loops []*loop, tol float64) []Polygon {
	n := len(loops)
	rings := make([]geometry.Ring, n)
	for i, l := range loops {
		rings[i] = geometry.Ring(l.pts).Close()
	}

	contains := func(outer, inner int) bool {
		if !loops[outer].bounds.Contains(loops[inner].bounds) {
			return false
		}
		return rings[outer].Locate(loops[inner].pts[0], tol) == geometry.Inside
	}

	depth := make([]int, n)
	for i := range loops {
		for j := range loops {
			if i != j && contains(j, i) {
				depth[i]++
			}
		}
	}

	index := make(map[int]int)
	var polygons []Polygon
	for i := range loops {
		if depth[i]%2 != 0 {
			continue
		}
		outer := rings[i]
		if outer.SignedArea() < 0 {
			outer = outer.Reverse()
		}
		index[i] = len(polygons)
		polygons = append(polygons, Polygon{Outer: outer})
	}
	for i := range loops {
		if depth[i]%2 == 0 {
			continue
		}
		for j := range loops {
			if depth[j] == depth[i]-1 && contains(j, i) {
				hole := rings[i]
				if hole.SignedArea() > 0 {
					hole = hole.Reverse()
				}
				p := &polygons[index[j]]
				p.Holes = append(p.Holes, hole)
				break
			}
		}
	}
	return polygons
}

// selfIntersection looks for edges of an open point loop that cross, touch
// or fold back onto each other
func selfIntersection(pts []geometry.Point2D, tol float64) (geometry.Point2D, bool) {
	n := len(pts)
	edge := func(i int) (geometry.Point2D, geometry.Point2D) {
		return pts[i%n], pts[(i+1)%n]
	}
	for i := 0; i < n; i++ {
		a, b := edge(i)
		prev := pts[(i+n-1)%n]
		// Adjacent edges only share their common point
		if geometry.DistanceToSegment(prev, a, b) <= tol || geometry.DistanceToSegment(b, prev, a) <= tol {
			return a, true
		}
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			c, d := edge(j)
			if geometry.SegmentsIntersect(a, b, c, d, tol) {
				return crossingPoint(a, b, c, d), true
			}
		}
	}
	return geometry.Point2D{}, false
}

// loopsTouch reports whether any edges of two loops cross or touch
func loopsTouch(p, q []geometry.Point2D, tol float64) (geometry.Point2D, bool) {
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		eb := geometry.NewBounds2D(a, b)
		for j := range q {
			c, d := q[j], q[(j+1)%len(q)]
			if !eb.Overlaps(geometry.NewBounds2D(c, d), tol) {
				continue
			}
			if geometry.SegmentsIntersect(a, b, c, d, tol) {
				return crossingPoint(a, b, c, d), true
			}
		}
	}
	return geometry.Point2D{}, false
}

// crossingPoint returns where the lines through a-b and c-d meet, clamped
// to a-b. Parallel lines report a.
func crossingPoint(a, b, c, d geometry.Point2D) geometry.Point2D {
	r := b.Sub(a)
	s := d.Sub(c)
	den := r.Cross(s)
	if den == 0 {
		return a
	}
	t := math.Max(0, math.Min(1, c.Sub(a).Cross(s)/den))
	return a.Add(r.Mul(t))
}
