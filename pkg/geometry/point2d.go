package geometry

import "math"

// Point2D is a point in drawing coordinates. X increases to the right
// and Y increases up, which gives counter-clockwise its usual meaning.
type Point2D struct {
	X, Y float64
}

// Pt is shorthand for Point2D{X: x, Y: y}
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Add returns p + q
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul scales the point by s
func (p Point2D) Mul(s float64) Point2D {
	return Point2D{X: p.X * s, Y: p.Y * s}
}

// Dot returns the dot product
func (p Point2D) Dot(q Point2D) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the z component of the 3D cross product
func (p Point2D) Cross(q Point2D) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Distance returns the euclidean distance to q
func (p Point2D) Distance(q Point2D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Near reports whether p and q are within tol of each other
func (p Point2D) Near(q Point2D, tol float64) bool {
	return p.Distance(q) <= tol
}

// Orient returns twice the signed area of the triangle (a, b, c).
// Positive means c lies left of a->b.
func Orient(a, b, c Point2D) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// Bounds2D is an axis aligned 2D box
type Bounds2D struct {
	Min, Max Point2D
}

// NewBounds2D returns the bounds of pts
func NewBounds2D(pts ...Point2D) Bounds2D {
	b := Bounds2D{
		Min: Point2D{X: math.MaxFloat64, Y: math.MaxFloat64},
		Max: Point2D{X: -math.MaxFloat64, Y: -math.MaxFloat64},
	}
	for _, p := range pts {
		b.Extend(p)
	}
	return b
}

// Extend grows the box to include p
func (b *Bounds2D) Extend(p Point2D) {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
}

// Overlaps reports whether the boxes intersect after growing both by tol
func (b Bounds2D) Overlaps(o Bounds2D, tol float64) bool {
	return b.Min.X <= o.Max.X+tol && o.Min.X <= b.Max.X+tol &&
		b.Min.Y <= o.Max.Y+tol && o.Min.Y <= b.Max.Y+tol
}

// Contains reports whether o lies inside b
func (b Bounds2D) Contains(o Bounds2D) bool {
	return b.Min.X <= o.Min.X && b.Min.Y <= o.Min.Y && b.Max.X >= o.Max.X && b.Max.Y >= o.Max.Y
}
