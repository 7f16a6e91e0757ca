package pathio

import (
	"fmt"
	"strconv"

	"github.com/philipparndt/vecstl/pkg/geometry"
)

// subpath is one M...Z run of an SVG path
type subpath struct {
	pts    []geometry.Point2D
	closed bool
}

// pathLexer reads commands, numbers and arc flags from path data
type pathLexer struct {
	s   string
	pos int
}

func (l *pathLexer) skipSeparators() {
	for l.pos < len(l.s) {
		switch l.s[l.pos] {
		case ' ', '\t', '\n', '\r', '\f', ',':
			l.pos++
		default:
			return
		}
	}
}

func (l *pathLexer) done() bool {
	l.skipSeparators()
	return l.pos >= len(l.s)
}

// atNumber reports whether the next token starts a number
func (l *pathLexer) atNumber() bool {
	if l.done() {
		return false
	}
	c := l.s[l.pos]
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func (l *pathLexer) number() (float64, error) {
	if !l.atNumber() {
		return 0, fmt.Errorf("expected number at offset %d", l.pos)
	}
	start := l.pos
	if c := l.s[l.pos]; c == '-' || c == '+' {
		l.pos++
	}
	digits := l.digits()
	if l.pos < len(l.s) && l.s[l.pos] == '.' {
		l.pos++
		digits += l.digits()
	}
	if digits == 0 {
		return 0, fmt.Errorf("invalid number at offset %d", start)
	}
	if l.pos < len(l.s) && (l.s[l.pos] == 'e' || l.s[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.s) && (l.s[l.pos] == '-' || l.s[l.pos] == '+') {
			l.pos++
		}
		if l.digits() == 0 {
			// "e" belongs to the next token, not to this number
			l.pos = mark
		}
	}
	v, err := strconv.ParseFloat(l.s[start:l.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", l.s[start:l.pos], err)
	}
	return v, nil
}

func (l *pathLexer) digits() int {
	n := 0
	for l.pos < len(l.s) && l.s[l.pos] >= '0' && l.s[l.pos] <= '9' {
		l.pos++
		n++
	}
	return n
}

// flag reads an arc flag, which may be packed without separators
func (l *pathLexer) flag() (bool, error) {
	if l.done() {
		return false, fmt.Errorf("expected arc flag at end of data")
	}
	switch l.s[l.pos] {
	case '0':
		l.pos++
		return false, nil
	case '1':
		l.pos++
		return true, nil
	default:
		return false, fmt.Errorf("invalid arc flag %q at offset %d", l.s[l.pos], l.pos)
	}
}

func (l *pathLexer) point() (geometry.Point2D, error) {
	x, err := l.number()
	if err != nil {
		return geometry.Point2D{}, err
	}
	y, err := l.number()
	if err != nil {
		return geometry.Point2D{}, err
	}
	return geometry.Point2D{X: x, Y: y}, nil
}

func isCommand(c byte) bool {
	switch c {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}

// parsePathData parses the d attribute of an SVG path into sampled subpaths
func parsePathData(d string, segments int) ([]subpath, error) {
	var (
		out     []subpath
		current *subpath
		cur     geometry.Point2D
		start   geometry.Point2D
		ctrl    geometry.Point2D // last control point for S and T
		cmd     byte
		prev    byte
	)
	lex := &pathLexer{s: d}

	emit := func(pts ...geometry.Point2D) {
		if current == nil {
			current = &subpath{pts: []geometry.Point2D{cur}}
		}
		current.pts = append(current.pts, pts...)
	}
	flush := func() {
		if current != nil && len(current.pts) > 1 {
			out = append(out, *current)
		}
		current = nil
	}

	for !lex.done() {
		c := lex.s[lex.pos]
		switch {
		case isCommand(c):
			cmd = c
			lex.pos++
		case lex.atNumber() && cmd != 0 && cmd != 'Z' && cmd != 'z':
			// Repeated parameters reuse the command; a moveto continues as lineto
			if cmd == 'M' {
				cmd = 'L'
			} else if cmd == 'm' {
				cmd = 'l'
			}
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", c, lex.pos)
		}

		relative := cmd >= 'a' && cmd <= 'z'
		base := geometry.Point2D{}
		if relative {
			base = cur
		}

		switch cmd {
		case 'M', 'm':
			p, err := lex.point()
			if err != nil {
				return nil, err
			}
			flush()
			cur = p.Add(base)
			start = cur
			current = &subpath{pts: []geometry.Point2D{cur}}

		case 'L', 'l':
			p, err := lex.point()
			if err != nil {
				return nil, err
			}
			cur = p.Add(base)
			emit(cur)

		case 'H', 'h':
			x, err := lex.number()
			if err != nil {
				return nil, err
			}
			cur = geometry.Point2D{X: x + base.X, Y: cur.Y}
			emit(cur)

		case 'V', 'v':
			y, err := lex.number()
			if err != nil {
				return nil, err
			}
			cur = geometry.Point2D{X: cur.X, Y: y + base.Y}
			emit(cur)

		case 'C', 'c':
			var p [3]geometry.Point2D
			for i := range p {
				pt, err := lex.point()
				if err != nil {
					return nil, err
				}
				p[i] = pt.Add(base)
			}
			emit(cubicBezier(cur, p[0], p[1], p[2], segments)...)
			ctrl, cur = p[1], p[2]

		case 'S', 's':
			c1 := cur
			if prev == 'C' || prev == 'c' || prev == 'S' || prev == 's' {
				c1 = cur.Mul(2).Sub(ctrl)
			}
			c2, err := lex.point()
			if err != nil {
				return nil, err
			}
			end, err := lex.point()
			if err != nil {
				return nil, err
			}
			c2, end = c2.Add(base), end.Add(base)
			emit(cubicBezier(cur, c1, c2, end, segments)...)
			ctrl, cur = c2, end

		case 'Q', 'q':
			c1, err := lex.point()
			if err != nil {
				return nil, err
			}
			end, err := lex.point()
			if err != nil {
				return nil, err
			}
			c1, end = c1.Add(base), end.Add(base)
			emit(quadBezier(cur, c1, end, segments)...)
			ctrl, cur = c1, end

		case 'T', 't':
			c1 := cur
			if prev == 'Q' || prev == 'q' || prev == 'T' || prev == 't' {
				c1 = cur.Mul(2).Sub(ctrl)
			}
			end, err := lex.point()
			if err != nil {
				return nil, err
			}
			end = end.Add(base)
			emit(quadBezier(cur, c1, end, segments)...)
			ctrl, cur = c1, end

		case 'A', 'a':
			rx, err := lex.number()
			if err != nil {
				return nil, err
			}
			ry, err := lex.number()
			if err != nil {
				return nil, err
			}
			rot, err := lex.number()
			if err != nil {
				return nil, err
			}
			large, err := lex.flag()
			if err != nil {
				return nil, err
			}
			sweep, err := lex.flag()
			if err != nil {
				return nil, err
			}
			end, err := lex.point()
			if err != nil {
				return nil, err
			}
			end = end.Add(base)
			emit(svgArc(cur, rx, ry, rot, large, sweep, end, segments)...)
			cur = end

		case 'Z', 'z':
			if current != nil {
				if cur != start {
					current.pts = append(current.pts, start)
				}
				current.closed = true
				flush()
			}
			cur = start
		}
		prev = cmd
	}
	flush()
	return out, nil
}
