package pathio

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/philipparndt/vecstl/pkg/geometry"
)

// dxfPair is one group code / value pair of an ASCII DXF file
type dxfPair struct {
	code  int
	value string
	line  int
}

// dxfEntity is an entity type with the pairs that follow it
type dxfEntity struct {
	kind  string
	pairs []dxfPair
	line  int
}

func (e dxfEntity) layer() string {
	for _, p := range e.pairs {
		if p.code == 8 {
			return strings.TrimSpace(p.value)
		}
	}
	return "0"
}

// floatValue returns the first value for code, or def when absent
func (e dxfEntity) floatValue(code int, def float64) (float64, error) {
	for _, p := range e.pairs {
		if p.code == code {
			return parseDXFFloat(p)
		}
	}
	return def, nil
}

func (e dxfEntity) intValue(code int) (int, error) {
	for _, p := range e.pairs {
		if p.code == code {
			v, err := strconv.Atoi(strings.TrimSpace(p.value))
			if err != nil {
				return 0, fmt.Errorf("line %d: group %d: %w", p.line, code, err)
			}
			return v, nil
		}
	}
	return 0, nil
}

// floats returns every value for code in file order
func (e dxfEntity) floats(code int) ([]float64, error) {
	var out []float64
	for _, p := range e.pairs {
		if p.code == code {
			v, err := parseDXFFloat(p)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// points pairs up repeated x and y groups in file order
func (e dxfEntity) points(xCode, yCode int) ([]geometry.Point2D, error) {
	var (
		out      []geometry.Point2D
		pendingX *float64
	)
	for _, p := range e.pairs {
		switch p.code {
		case xCode:
			x, err := parseDXFFloat(p)
			if err != nil {
				return nil, err
			}
			pendingX = &x
		case yCode:
			if pendingX == nil {
				return nil, fmt.Errorf("line %d: y coordinate without x", p.line)
			}
			y, err := parseDXFFloat(p)
			if err != nil {
				return nil, err
			}
			out = append(out, geometry.Point2D{X: *pendingX, Y: y})
			pendingX = nil
		}
	}
	return out, nil
}

func parseDXFFloat(p dxfPair) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(p.value), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: group %d: %w", p.line, p.code, err)
	}
	return v, nil
}

// dxfVertex is a polyline vertex with the bulge of the edge leaving it
type dxfVertex struct {
	p     geometry.Point2D
	bulge float64
}

// dxfLoader accumulates segments per layer in first seen order
type dxfLoader struct {
	segments int
	nextPath int
	layers   []string
	byLayer  map[string][]Segment
	skipped  map[string]int
}

func loadDXF(data []byte, opts Options) (OneOrMany[PathCollection], error) {
	if bytes.HasPrefix(data, []byte("AutoCAD Binary DXF")) {
		return OneOrMany[PathCollection]{}, malformed(FormatDXF, nil, "binary DXF is not supported")
	}
	pairs, err := readDXFPairs(data)
	if err != nil {
		return OneOrMany[PathCollection]{}, err
	}
	entities, err := dxfEntities(pairs)
	if err != nil {
		return OneOrMany[PathCollection]{}, err
	}

	l := &dxfLoader{
		segments: opts.curveSegments(),
		byLayer:  make(map[string][]Segment),
		skipped:  make(map[string]int),
	}
	if err := l.addEntities(entities); err != nil {
		return OneOrMany[PathCollection]{}, malformed(FormatDXF, err, "entity")
	}
	return l.collections(opts.SplitCollections), nil
}

// collections returns one collection per layer when split is set and the
// drawing has several layers, otherwise a single collection with every
// layer. Skipped entity counts go to the first collection.
func (l *dxfLoader) collections(split bool) OneOrMany[PathCollection] {
	var skipped map[string]int
	if len(l.skipped) > 0 {
		skipped = l.skipped
	}
	if len(l.layers) == 0 {
		return One(PathCollection{Name: "0", Skipped: skipped})
	}
	if !split || len(l.layers) == 1 {
		var segs []Segment
		for _, name := range l.layers {
			segs = append(segs, l.byLayer[name]...)
		}
		return One(PathCollection{Name: strings.Join(l.layers, ","), Segments: segs, Skipped: skipped})
	}
	collections := make([]PathCollection, 0, len(l.layers))
	for _, name := range l.layers {
		collections = append(collections, PathCollection{Name: name, Segments: l.byLayer[name]})
	}
	collections[0].Skipped = skipped
	return Many(collections)
}

// readDXFPairs splits the file into code/value pairs
func readDXFPairs(data []byte) ([]dxfPair, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 || (len(lines) == 1 && strings.TrimSpace(lines[0]) == "") {
		return nil, malformed(FormatDXF, nil, "empty file")
	}
	if len(lines)%2 != 0 {
		return nil, malformed(FormatDXF, nil, "odd number of lines (%d), group codes and values must pair up", len(lines))
	}

	pairs := make([]dxfPair, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		code, err := strconv.Atoi(strings.TrimSpace(lines[i]))
		if err != nil {
			return nil, malformed(FormatDXF, err, "line %d: invalid group code %q", i+1, strings.TrimSpace(lines[i]))
		}
		pairs = append(pairs, dxfPair{code: code, value: strings.TrimRight(lines[i+1], "\r"), line: i + 2})
	}
	return pairs, nil
}

// dxfEntities returns the entities of the ENTITIES section
func dxfEntities(pairs []dxfPair) ([]dxfEntity, error) {
	var (
		entities   []dxfEntity
		sections   int
		section    string
		inSection  bool
		current    *dxfEntity
		expectName bool
	)
	for _, p := range pairs {
		if expectName {
			expectName = false
			if p.code != 2 {
				return nil, malformed(FormatDXF, nil, "line %d: SECTION without name", p.line)
			}
			section = strings.TrimSpace(p.value)
			continue
		}
		if p.code != 0 {
			if current != nil {
				current.pairs = append(current.pairs, p)
			}
			continue
		}

		value := strings.TrimSpace(p.value)
		if current != nil {
			entities = append(entities, *current)
			current = nil
		}
		switch value {
		case "SECTION":
			if inSection {
				return nil, malformed(FormatDXF, nil, "line %d: nested SECTION", p.line)
			}
			inSection = true
			expectName = true
			sections++
		case "ENDSEC":
			inSection = false
			section = ""
		case "EOF":
			if inSection {
				return nil, malformed(FormatDXF, nil, "line %d: EOF inside section %s", p.line, section)
			}
			return entities, nil
		default:
			if inSection && section == "ENTITIES" {
				current = &dxfEntity{kind: value, line: p.line}
			}
		}
	}
	if current != nil {
		entities = append(entities, *current)
	}
	if sections == 0 {
		return nil, malformed(FormatDXF, nil, "no SECTION found")
	}
	if inSection {
		return nil, malformed(FormatDXF, nil, "section %s is not terminated", section)
	}
	return entities, nil
}

func (l *dxfLoader) add(layer string, pts []geometry.Point2D) {
	if len(pts) < 2 {
		return
	}
	if _, ok := l.byLayer[layer]; !ok {
		l.layers = append(l.layers, layer)
	}
	l.byLayer[layer] = polylineSegments(l.byLayer[layer], pts, l.nextPath)
	l.nextPath++
}

func (l *dxfLoader) addEntities(entities []dxfEntity) error {
	for i := 0; i < len(entities); i++ {
		e := entities[i]
		var (
			pts []geometry.Point2D
			err error
		)
		switch e.kind {
		case "LINE":
			pts, err = dxfLine(e)
		case "CIRCLE":
			pts, err = l.circle(e)
		case "ARC":
			pts, err = l.arc(e)
		case "ELLIPSE":
			pts, err = l.ellipse(e)
		case "SPLINE":
			pts, err = l.spline(e)
		case "LWPOLYLINE":
			pts, err = l.lwpolyline(e)
		case "POLYLINE":
			// Vertices follow as separate entities up to SEQEND
			var vertices []dxfEntity
			j := i + 1
			for ; j < len(entities) && entities[j].kind == "VERTEX"; j++ {
				vertices = append(vertices, entities[j])
			}
			if j < len(entities) && entities[j].kind == "SEQEND" {
				j++
			}
			pts, err = l.polyline(e, vertices)
			i = j - 1
		case "VERTEX", "SEQEND":
			continue
		default:
			l.skipped[e.kind]++
			continue
		}
		if err != nil {
			return fmt.Errorf("%s at line %d: %w", e.kind, e.line, err)
		}
		l.add(e.layer(), pts)
	}
	return nil
}

func dxfPoint(e dxfEntity, xCode, yCode int) (geometry.Point2D, error) {
	x, err := e.floatValue(xCode, 0)
	if err != nil {
		return geometry.Point2D{}, err
	}
	y, err := e.floatValue(yCode, 0)
	if err != nil {
		return geometry.Point2D{}, err
	}
	return geometry.Point2D{X: x, Y: y}, nil
}

func dxfLine(e dxfEntity) ([]geometry.Point2D, error) {
	a, err := dxfPoint(e, 10, 20)
	if err != nil {
		return nil, err
	}
	b, err := dxfPoint(e, 11, 21)
	if err != nil {
		return nil, err
	}
	return []geometry.Point2D{a, b}, nil
}

func (l *dxfLoader) circle(e dxfEntity) ([]geometry.Point2D, error) {
	c, err := dxfPoint(e, 10, 20)
	if err != nil {
		return nil, err
	}
	r, err := e.floatValue(40, 0)
	if err != nil {
		return nil, err
	}
	if r <= 0 {
		return nil, nil
	}
	return fullEllipse(c, r, r, 0, l.segments), nil
}

func (l *dxfLoader) arc(e dxfEntity) ([]geometry.Point2D, error) {
	c, err := dxfPoint(e, 10, 20)
	if err != nil {
		return nil, err
	}
	r, err := e.floatValue(40, 0)
	if err != nil {
		return nil, err
	}
	start, err := e.floatValue(50, 0)
	if err != nil {
		return nil, err
	}
	end, err := e.floatValue(51, 360)
	if err != nil {
		return nil, err
	}
	if r <= 0 {
		return nil, nil
	}
	// Arcs run counter-clockwise from the start angle to the end angle
	sweep := math.Mod(end-start, 360)
	if sweep <= 0 {
		sweep += 360
	}
	theta1 := start * math.Pi / 180
	dtheta := sweep * math.Pi / 180
	pts := []geometry.Point2D{ellipsePoint(c, r, r, 0, theta1)}
	return append(pts, ellipticArc(c, r, r, 0, theta1, dtheta, l.segments)...), nil
}

// ellipse samples a full or partial ellipse. The major axis endpoint is
// relative to the center and the parameters run counter-clockwise.
func (l *dxfLoader) ellipse(e dxfEntity) ([]geometry.Point2D, error) {
	c, err := dxfPoint(e, 10, 20)
	if err != nil {
		return nil, err
	}
	major, err := dxfPoint(e, 11, 21)
	if err != nil {
		return nil, err
	}
	ratio, err := e.floatValue(40, 1)
	if err != nil {
		return nil, err
	}
	start, err := e.floatValue(41, 0)
	if err != nil {
		return nil, err
	}
	end, err := e.floatValue(42, 2*math.Pi)
	if err != nil {
		return nil, err
	}

	rx := math.Hypot(major.X, major.Y)
	if rx == 0 || ratio <= 0 {
		return nil, nil
	}
	ry := rx * ratio
	phi := math.Atan2(major.Y, major.X)

	sweep := math.Mod(end-start, 2*math.Pi)
	if sweep <= 1e-12 {
		sweep += 2 * math.Pi
	}
	if math.Abs(sweep-2*math.Pi) < 1e-9 {
		return fullEllipse(c, rx, ry, phi, l.segments), nil
	}
	pts := []geometry.Point2D{ellipsePoint(c, rx, ry, phi, start)}
	return append(pts, ellipticArc(c, rx, ry, phi, start, sweep, l.segments)...), nil
}

// spline samples a B-spline or NURBS curve from its control points and
// knots. Splines stored only as fit points become the polyline through
// them.
func (l *dxfLoader) spline(e dxfEntity) ([]geometry.Point2D, error) {
	flags, err := e.intValue(70)
	if err != nil {
		return nil, err
	}
	degree, err := e.intValue(71)
	if err != nil {
		return nil, err
	}
	knots, err := e.floats(40)
	if err != nil {
		return nil, err
	}
	weights, err := e.floats(41)
	if err != nil {
		return nil, err
	}
	ctrl, err := e.points(10, 20)
	if err != nil {
		return nil, err
	}
	fit, err := e.points(11, 21)
	if err != nil {
		return nil, err
	}
	closed := flags&1 != 0

	var pts []geometry.Point2D
	switch {
	case len(ctrl) > degree && degree >= 1 && len(knots) == len(ctrl)+degree+1:
		if len(weights) != len(ctrl) {
			weights = nil
		}
		pts = sampleSpline(degree, knots, ctrl, weights, l.segments)
	case len(fit) >= 2:
		pts = fit
	case len(ctrl) >= 2:
		return nil, fmt.Errorf("spline of degree %d has %d control points and %d knots", degree, len(ctrl), len(knots))
	default:
		return nil, nil
	}
	if len(pts) < 2 {
		return nil, nil
	}

	if closed && pts[len(pts)-1] != pts[0] {
		if pts[len(pts)-1].Near(pts[0], 1e-9) {
			pts[len(pts)-1] = pts[0]
		} else {
			pts = append(pts, pts[0])
		}
	}
	return pts, nil
}

func (l *dxfLoader) lwpolyline(e dxfEntity) ([]geometry.Point2D, error) {
	flags, err := e.intValue(70)
	if err != nil {
		return nil, err
	}
	var (
		vertices []dxfVertex
		pendingX *float64
	)
	for _, p := range e.pairs {
		switch p.code {
		case 10:
			x, err := parseDXFFloat(p)
			if err != nil {
				return nil, err
			}
			pendingX = &x
		case 20:
			if pendingX == nil {
				return nil, fmt.Errorf("line %d: y coordinate without x", p.line)
			}
			y, err := parseDXFFloat(p)
			if err != nil {
				return nil, err
			}
			vertices = append(vertices, dxfVertex{p: geometry.Point2D{X: *pendingX, Y: y}})
			pendingX = nil
		case 42:
			if len(vertices) == 0 {
				continue
			}
			b, err := parseDXFFloat(p)
			if err != nil {
				return nil, err
			}
			vertices[len(vertices)-1].bulge = b
		}
	}
	return l.polylinePoints(vertices, flags&1 != 0), nil
}

func (l *dxfLoader) polyline(e dxfEntity, vertexEntities []dxfEntity) ([]geometry.Point2D, error) {
	flags, err := e.intValue(70)
	if err != nil {
		return nil, err
	}
	vertices := make([]dxfVertex, 0, len(vertexEntities))
	for _, v := range vertexEntities {
		p, err := dxfPoint(v, 10, 20)
		if err != nil {
			return nil, err
		}
		bulge, err := v.floatValue(42, 0)
		if err != nil {
			return nil, err
		}
		vertices = append(vertices, dxfVertex{p: p, bulge: bulge})
	}
	return l.polylinePoints(vertices, flags&1 != 0), nil
}

// polylinePoints expands bulges into arc samples and closes the loop when asked
func (l *dxfLoader) polylinePoints(vertices []dxfVertex, closed bool) []geometry.Point2D {
	if len(vertices) == 0 {
		return nil
	}
	pts := []geometry.Point2D{vertices[0].p}
	for i := 1; i < len(vertices); i++ {
		pts = append(pts, bulgeArc(vertices[i-1].p, vertices[i].p, vertices[i-1].bulge, l.segments)...)
	}
	last := vertices[len(vertices)-1]
	if closed && last.p != vertices[0].p {
		pts = append(pts, bulgeArc(last.p, vertices[0].p, last.bulge, l.segments)...)
	}
	return pts
}
