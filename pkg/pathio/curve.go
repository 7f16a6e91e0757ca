package pathio

import (
	"math"

	"github.com/philipparndt/vecstl/pkg/geometry"
)

// cubicBezier samples a cubic curve. The start point is not included and
// the last sample is exactly p3.
func cubicBezier(p0, p1, p2, p3 geometry.Point2D, segments int) []geometry.Point2D {
	pts := make([]geometry.Point2D, 0, segments)
	for i := 1; i < segments; i++ {
		t := float64(i) / float64(segments)
		mt := 1 - t
		pts = append(pts, geometry.Point2D{
			X: mt*mt*mt*p0.X + 3*mt*mt*t*p1.X + 3*mt*t*t*p2.X + t*t*t*p3.X,
			Y: mt*mt*mt*p0.Y + 3*mt*mt*t*p1.Y + 3*mt*t*t*p2.Y + t*t*t*p3.Y,
		})
	}
	return append(pts, p3)
}

// quadBezier samples a quadratic curve without its start point
func quadBezier(p0, p1, p2 geometry.Point2D, segments int) []geometry.Point2D {
	pts := make([]geometry.Point2D, 0, segments)
	for i := 1; i < segments; i++ {
		t := float64(i) / float64(segments)
		mt := 1 - t
		pts = append(pts, geometry.Point2D{
			X: mt*mt*p0.X + 2*mt*t*p1.X + t*t*p2.X,
			Y: mt*mt*p0.Y + 2*mt*t*p1.Y + t*t*p2.Y,
		})
	}
	return append(pts, p2)
}

// ellipsePoint evaluates a rotated ellipse at parameter t
func ellipsePoint(c geometry.Point2D, rx, ry, phi, t float64) geometry.Point2D {
	sinPhi, cosPhi := math.Sincos(phi)
	sinT, cosT := math.Sincos(t)
	return geometry.Point2D{
		X: c.X + rx*cosPhi*cosT - ry*sinPhi*sinT,
		Y: c.Y + rx*sinPhi*cosT + ry*cosPhi*sinT,
	}
}

// arcSteps returns how many pieces a sweep of dtheta radians is cut into
func arcSteps(dtheta float64, segments int) int {
	n := int(math.Ceil(math.Abs(dtheta) / (math.Pi / 2) * float64(segments)))
	if n < 1 {
		n = 1
	}
	return n
}

// ellipticArc samples an arc starting at theta1 and sweeping dtheta,
// excluding the start point
func ellipticArc(c geometry.Point2D, rx, ry, phi, theta1, dtheta float64, segments int) []geometry.Point2D {
	n := arcSteps(dtheta, segments)
	pts := make([]geometry.Point2D, 0, n)
	for i := 1; i <= n; i++ {
		pts = append(pts, ellipsePoint(c, rx, ry, phi, theta1+dtheta*float64(i)/float64(n)))
	}
	return pts
}

// fullEllipse returns a closed ring around an ellipse
func fullEllipse(c geometry.Point2D, rx, ry, phi float64, segments int) []geometry.Point2D {
	n := 4 * segments
	pts := make([]geometry.Point2D, 0, n+1)
	for i := 0; i < n; i++ {
		pts = append(pts, ellipsePoint(c, rx, ry, phi, 2*math.Pi*float64(i)/float64(n)))
	}
	return append(pts, pts[0])
}

// svgArc converts an endpoint parameterised SVG arc to samples, excluding
// p1 and ending exactly at p2
func svgArc(p1 geometry.Point2D, rx, ry, xRotDeg float64, largeArc, sweep bool, p2 geometry.Point2D, segments int) []geometry.Point2D {
	if p1 == p2 {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []geometry.Point2D{p2}
	}

	phi := xRotDeg * math.Pi / 180
	sinPhi, cosPhi := math.Sincos(phi)
	dx2 := (p1.X - p2.X) / 2
	dy2 := (p1.Y - p2.Y) / 2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2

	// Scale radii up when the endpoints are too far apart
	if lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if den > 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if largeArc == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	center := geometry.Point2D{
		X: cosPhi*cxp - sinPhi*cyp + (p1.X+p2.X)/2,
		Y: sinPhi*cxp + cosPhi*cyp + (p1.Y+p2.Y)/2,
	}

	angle := func(ux, uy, vx, vy float64) float64 {
		return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
	}
	ux, uy := (x1p-cxp)/rx, (y1p-cyp)/ry
	vx, vy := (-x1p-cxp)/rx, (-y1p-cyp)/ry
	theta1 := angle(1, 0, ux, uy)
	dtheta := angle(ux, uy, vx, vy)
	if !sweep && dtheta > 0 {
		dtheta -= 2 * math.Pi
	} else if sweep && dtheta < 0 {
		dtheta += 2 * math.Pi
	}

	pts := ellipticArc(center, rx, ry, phi, theta1, dtheta, segments)
	pts[len(pts)-1] = p2
	return pts
}

// bulgeArc samples a DXF polyline bulge between p1 and p2, excluding p1.
// A positive bulge turns counter-clockwise.
func bulgeArc(p1, p2 geometry.Point2D, bulge float64, segments int) []geometry.Point2D {
	if bulge == 0 || p1 == p2 {
		return []geometry.Point2D{p2}
	}
	theta := 4 * math.Atan(bulge)
	d := p2.Sub(p1)
	chord := math.Hypot(d.X, d.Y)
	left := geometry.Point2D{X: -d.Y / chord, Y: d.X / chord}
	h := (chord / 2) / math.Tan(theta/2)
	center := p1.Add(p2).Mul(0.5).Add(left.Mul(h))
	r := center.Distance(p1)
	start := math.Atan2(p1.Y-center.Y, p1.X-center.X)

	pts := ellipticArc(center, r, r, 0, start, theta, segments)
	pts[len(pts)-1] = p2
	return pts
}

// sampleSpline evaluates a B-spline with de Boor's algorithm. Each knot
// span with non zero length is cut into segments pieces. Weights make it
// rational; nil means all ones.
func sampleSpline(degree int, knots []float64, ctrl []geometry.Point2D, weights []float64, segments int) []geometry.Point2D {
	n := len(ctrl)
	last := -1
	var pts []geometry.Point2D
	for k := degree; k < n; k++ {
		t0, t1 := knots[k], knots[k+1]
		if !(t1 > t0) {
			continue
		}
		for i := 0; i < segments; i++ {
			pts = append(pts, deBoor(k, t0+(t1-t0)*float64(i)/float64(segments), degree, knots, ctrl, weights))
		}
		last = k
	}
	if last < 0 {
		return nil
	}
	return append(pts, deBoor(last, knots[last+1], degree, knots, ctrl, weights))
}

// deBoor evaluates the spline at t inside knot span k in homogeneous
// coordinates
func deBoor(k int, t float64, degree int, knots []float64, ctrl []geometry.Point2D, weights []float64) geometry.Point2D {
	type hpoint struct{ x, y, w float64 }
	d := make([]hpoint, degree+1)
	for j := range d {
		w := 1.0
		if weights != nil {
			w = weights[j+k-degree]
		}
		c := ctrl[j+k-degree]
		d[j] = hpoint{x: c.X * w, y: c.Y * w, w: w}
	}
	for r := 1; r <= degree; r++ {
		for j := degree; j >= r; j-- {
			lo, hi := knots[j+k-degree], knots[j+1+k-r]
			alpha := 0.0
			if hi > lo {
				alpha = (t - lo) / (hi - lo)
			}
			d[j] = hpoint{
				x: (1-alpha)*d[j-1].x + alpha*d[j].x,
				y: (1-alpha)*d[j-1].y + alpha*d[j].y,
				w: (1-alpha)*d[j-1].w + alpha*d[j].w,
			}
		}
	}
	if d[degree].w == 0 {
		return geometry.Point2D{X: d[degree].x, Y: d[degree].y}
	}
	return geometry.Point2D{X: d[degree].x / d[degree].w, Y: d[degree].y / d[degree].w}
}
