package geometry

import "math"

// Ring is a closed boundary. A well formed ring repeats its first point
// as its last point.
type Ring []Point2D

// Location classifies a point against a ring
type Location int

const (
	Outside Location = iota
	OnBoundary
	Inside
)

// Open returns the ring points without the closing duplicate
func (r Ring) Open() []Point2D {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

// IsClosed reports whether the first and last point coincide
func (r Ring) IsClosed() bool {
	return len(r) > 1 && r[0] == r[len(r)-1]
}

// Close returns a copy of the ring with the closing point appended when missing
func (r Ring) Close() Ring {
	pts := r.Open()
	out := make(Ring, 0, len(pts)+1)
	out = append(out, pts...)
	if len(pts) > 0 {
		out = append(out, pts[0])
	}
	return out
}

// Reverse returns the ring traversed the other way, keeping it closed
func (r Ring) Reverse() Ring {
	pts := r.Open()
	out := make(Ring, 0, len(pts)+1)
	for i := len(pts) - 1; i >= 0; i-- {
		out = append(out, pts[i])
	}
	return out.Close()
}

// SignedArea returns the shoelace area. Counter-clockwise rings are positive.
func (r Ring) SignedArea() float64 {
	pts := r.Open()
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}

// Bounds returns the bounding box of the ring
func (r Ring) Bounds() Bounds2D {
	return NewBounds2D(r...)
}

// Locate classifies p against the ring using the crossing rule.
// Points within tol of an edge are on the boundary.
func (r Ring) Locate(p Point2D, tol float64) Location {
	pts := r.Open()
	inside := false
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		if DistanceToSegment(p, a, b) <= tol {
			return OnBoundary
		}
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	if inside {
		return Inside
	}
	return Outside
}

// DistanceToSegment returns the distance from p to the segment a-b
func DistanceToSegment(p, a, b Point2D) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Distance(a)
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Distance(a.Add(ab.Mul(t)))
}

// SegmentsIntersect reports whether segments a-b and c-d cross or touch.
// Touching is measured with tol so near misses count as contact.
func SegmentsIntersect(a, b, c, d Point2D, tol float64) bool {
	d1 := Orient(c, d, a)
	d2 := Orient(c, d, b)
	d3 := Orient(a, b, c)
	d4 := Orient(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return DistanceToSegment(a, c, d) <= tol ||
		DistanceToSegment(b, c, d) <= tol ||
		DistanceToSegment(c, a, b) <= tol ||
		DistanceToSegment(d, a, b) <= tol
}
