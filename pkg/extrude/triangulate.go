package extrude

import (
	"fmt"
	"sort"

	"github.com/philipparndt/vecstl/pkg/geometry"
	"github.com/philipparndt/vecstl/pkg/region"
)

// vertex is a node of the circular list that ear clipping works on. Bridge
// points appear twice in the list but share the same index.
type vertex struct {
	i          int
	p          geometry.Point2D
	prev, next *vertex
}

// link builds a circular list over pts, numbering them from offset
func link(pts []geometry.Point2D, offset int) *vertex {
	var first, last *vertex
	for k, p := range pts {
		v := &vertex{i: offset + k, p: p}
		if first == nil {
			first = v
		} else {
			last.next = v
			v.prev = last
		}
		last = v
	}
	last.next = first
	first.prev = last
	return first
}

func (v *vertex) remove() {
	v.prev.next = v.next
	v.next.prev = v.prev
}

// Points returns the boundary points of p in triangulation index order:
// the outer ring without its closing point, then each hole the same way
func Points(p region.Polygon) []geometry.Point2D {
	var pts []geometry.Point2D
	for _, r := range p.Rings() {
		pts = append(pts, r.Open()...)
	}
	return pts
}

// Triangulate splits the polygon into counter-clockwise triangles whose
// corners index into Points(p). Holes are joined to the outer ring by
// bridge edges and the result is cut by ear clipping, so no point is
// added.
func Triangulate(p region.Polygon) ([][3]int, error) {
	if err := checkRings(p); err != nil {
		return nil, err
	}

	outer := p.Outer.Open()
	start := link(outer, 0)

	type hole struct {
		list *vertex
		max  *vertex
	}
	holes := make([]hole, 0, len(p.Holes))
	offset := len(outer)
	for _, r := range p.Holes {
		pts := r.Open()
		h := hole{list: link(pts, offset)}
		h.max = h.list
		for v := h.list.next; v != h.list; v = v.next {
			if v.p.X > h.max.p.X || (v.p.X == h.max.p.X && v.p.Y < h.max.p.Y) {
				h.max = v
			}
		}
		holes = append(holes, h)
		offset += len(pts)
	}
	// Rightmost holes first so bridges rarely have to pass other holes
	sort.SliceStable(holes, func(a, b int) bool {
		return holes[a].max.p.X > holes[b].max.p.X
	})

	for k, h := range holes {
		var pending []*vertex
		for _, other := range holes[k+1:] {
			pending = append(pending, other.list)
		}
		bridge := findBridge(h.max, start, pending)
		if bridge == nil {
			return nil, degenerate("no bridge from hole point (%g, %g) to the outer ring", h.max.p.X, h.max.p.Y)
		}
		split(bridge, h.max)
	}

	tris, err := clipEars(start)
	if err != nil {
		return nil, err
	}
	if want := offset + 2*len(p.Holes) - 2; len(tris) != want {
		return nil, degenerate("triangulation produced %d triangles, expected %d", len(tris), want)
	}
	return tris, nil
}

func checkRings(p region.Polygon) error {
	for k, r := range p.Rings() {
		pts := r.Open()
		distinct := make(map[geometry.Point2D]struct{}, len(pts))
		for _, pt := range pts {
			distinct[pt] = struct{}{}
		}
		if len(distinct) < 3 {
			return degenerate("ring %d has %d distinct points", k, len(distinct))
		}
		if len(distinct) != len(pts) {
			return degenerate("ring %d repeats a point", k)
		}
		area := r.SignedArea()
		if k == 0 && area <= 0 {
			return degenerate("outer ring has area %g", area)
		}
		if k > 0 && area >= 0 {
			return degenerate("hole %d has area %g", k-1, area)
		}
	}
	return nil
}

// findBridge returns the outer list vertex nearest to m that m can see
// without crossing any edge of the outer list, of m's own hole or of the
// holes still waiting to be joined
func findBridge(m, start *vertex, pending []*vertex) *vertex {
	blocked := func(v *vertex, list *vertex) bool {
		e := list
		for {
			a, b := e.p, e.next.p
			touchesEnd := a == v.p || b == v.p || a == m.p || b == m.p
			if !touchesEnd && geometry.SegmentsIntersect(m.p, v.p, a, b, 0) {
				return true
			}
			e = e.next
			if e == list {
				return false
			}
		}
	}

	var best *vertex
	bestDist := 0.0
	v := start
	for {
		if locallyInside(v, m.p) {
			d := v.p.Distance(m.p)
			if best == nil || d < bestDist {
				clear := !blocked(v, start) && !blocked(v, m)
				for _, h := range pending {
					if !clear {
						break
					}
					clear = !blocked(v, h)
				}
				if clear {
					best, bestDist = v, d
				}
			}
		}
		v = v.next
		if v == start {
			return best
		}
	}
}

// locallyInside reports whether p lies inside the polygon angle at v
func locallyInside(v *vertex, p geometry.Point2D) bool {
	a, b := v.prev.p, v.next.p
	if geometry.Orient(a, v.p, b) >= 0 {
		return geometry.Orient(a, v.p, p) > 0 && geometry.Orient(v.p, b, p) > 0
	}
	return geometry.Orient(a, v.p, p) > 0 || geometry.Orient(v.p, b, p) > 0
}

// split joins the hole containing m into the list containing v with a pair
// of bridge edges v->m and m'->v'
func split(v, m *vertex) {
	v2 := &vertex{i: v.i, p: v.p}
	m2 := &vertex{i: m.i, p: m.p}
	vn, mp := v.next, m.prev

	v.next = m
	m.prev = v

	v2.next = vn
	vn.prev = v2

	m2.next = v2
	v2.prev = m2

	mp.next = m2
	m2.prev = mp
}

// clipEars cuts ears until two vertices remain. Strictly convex ears are
// preferred; when none is left, a vertex lying straight between its
// neighbours may be cut as a flat triangle.
func clipEars(ear *vertex) ([][3]int, error) {
	var tris [][3]int
	relaxed := false
	stop := ear
	for ear.prev != ear.next {
		prev, next := ear.prev, ear.next
		if isEar(ear, relaxed) {
			tris = append(tris, [3]int{prev.i, ear.i, next.i})
			ear.remove()
			ear = next.next
			stop = ear
			relaxed = false
			continue
		}
		ear = next
		if ear == stop {
			if relaxed {
				return nil, degenerate("no ear left after %d triangles", len(tris))
			}
			relaxed = true
		}
	}
	return tris, nil
}

func isEar(ear *vertex, relaxed bool) bool {
	a, b, c := ear.prev.p, ear.p, ear.next.p
	o := geometry.Orient(a, b, c)
	switch {
	case o > 0:
	case o == 0 && relaxed && between(a, b, c):
	default:
		return false
	}
	for v := ear.next.next; v != ear.prev; v = v.next {
		if v.p == a || v.p == b || v.p == c {
			continue
		}
		if inTriangle(a, b, c, v.p) {
			return false
		}
	}
	return true
}

// inTriangle reports whether p is inside or on the counter-clockwise
// triangle abc
func inTriangle(a, b, c, p geometry.Point2D) bool {
	return geometry.Orient(a, b, p) >= 0 && geometry.Orient(b, c, p) >= 0 && geometry.Orient(c, a, p) >= 0
}

// between reports whether collinear b lies strictly inside segment a-c
func between(a, b, c geometry.Point2D) bool {
	ab, ac := b.Sub(a), c.Sub(a)
	t := ab.Dot(ac)
	return t > 0 && t < ac.Dot(ac)
}

func degenerate(format string, args ...any) error {
	return &DegenerateError{Reason: fmt.Sprintf(format, args...)}
}
