package pathio

import (
	"fmt"
	"math"
	"strings"

	"github.com/philipparndt/vecstl/pkg/geometry"
)

// affine is the SVG matrix [a c e; b d f; 0 0 1]
type affine struct {
	a, b, c, d, e, f float64
}

var identity = affine{a: 1, d: 1}

// mul returns the matrix product m*n, which applies n first
func (m affine) mul(n affine) affine {
	return affine{
		a: m.a*n.a + m.c*n.b,
		b: m.b*n.a + m.d*n.b,
		c: m.a*n.c + m.c*n.d,
		d: m.b*n.c + m.d*n.d,
		e: m.a*n.e + m.c*n.f + m.e,
		f: m.b*n.e + m.d*n.f + m.f,
	}
}

func (m affine) apply(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: m.a*p.X + m.c*p.Y + m.e,
		Y: m.b*p.X + m.d*p.Y + m.f,
	}
}

func (m affine) applyAll(pts []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = m.apply(p)
	}
	return out
}

// parseTransform parses an SVG transform list such as
// "translate(10 20) rotate(45)"
func parseTransform(s string) (affine, error) {
	m := identity
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		end := strings.IndexByte(rest, ')')
		if open < 0 || end < open {
			return identity, fmt.Errorf("invalid transform %q", s)
		}
		name := strings.TrimSpace(rest[:open])
		args, err := parseNumberList(rest[open+1 : end])
		if err != nil {
			return identity, fmt.Errorf("transform %s: %w", name, err)
		}
		t, err := transformFor(name, args)
		if err != nil {
			return identity, err
		}
		m = m.mul(t)
		rest = strings.TrimLeft(rest[end+1:], " \t\r\n,")
	}
	return m, nil
}

func transformFor(name string, args []float64) (affine, error) {
	argc := func(allowed ...int) error {
		for _, n := range allowed {
			if len(args) == n {
				return nil
			}
		}
		return fmt.Errorf("transform %s: unexpected %d arguments", name, len(args))
	}
	switch name {
	case "matrix":
		if err := argc(6); err != nil {
			return identity, err
		}
		return affine{a: args[0], b: args[1], c: args[2], d: args[3], e: args[4], f: args[5]}, nil
	case "translate":
		if err := argc(1, 2); err != nil {
			return identity, err
		}
		t := affine{a: 1, d: 1, e: args[0]}
		if len(args) == 2 {
			t.f = args[1]
		}
		return t, nil
	case "scale":
		if err := argc(1, 2); err != nil {
			return identity, err
		}
		sy := args[0]
		if len(args) == 2 {
			sy = args[1]
		}
		return affine{a: args[0], d: sy}, nil
	case "rotate":
		if err := argc(1, 3); err != nil {
			return identity, err
		}
		sin, cos := math.Sincos(args[0] * math.Pi / 180)
		r := affine{a: cos, b: sin, c: -sin, d: cos}
		if len(args) == 3 {
			cx, cy := args[1], args[2]
			r = affine{a: 1, d: 1, e: cx, f: cy}.mul(r).mul(affine{a: 1, d: 1, e: -cx, f: -cy})
		}
		return r, nil
	case "skewX":
		if err := argc(1); err != nil {
			return identity, err
		}
		return affine{a: 1, c: math.Tan(args[0] * math.Pi / 180), d: 1}, nil
	case "skewY":
		if err := argc(1); err != nil {
			return identity, err
		}
		return affine{a: 1, b: math.Tan(args[0] * math.Pi / 180), d: 1}, nil
	default:
		return identity, fmt.Errorf("unknown transform %q", name)
	}
}
