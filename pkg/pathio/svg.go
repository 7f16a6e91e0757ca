package pathio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/philipparndt/vecstl/pkg/geometry"
)

// svgLoader walks an SVG element tree and samples every shape into segments
type svgLoader struct {
	segments int
	nextPath int
}

func loadSVG(data []byte, opts Options) (OneOrMany[PathCollection], error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return OneOrMany[PathCollection]{}, malformed(FormatSVG, err, "xml parse failed")
	}
	root := doc.Root()
	if root == nil {
		return OneOrMany[PathCollection]{}, malformed(FormatSVG, nil, "document has no root element")
	}
	if root.Tag != "svg" {
		return OneOrMany[PathCollection]{}, malformed(FormatSVG, nil, "root element is <%s>, expected <svg>", root.Tag)
	}

	l := &svgLoader{segments: opts.curveSegments()}
	rootTransform, err := l.transform(root, identity)
	if err != nil {
		return OneOrMany[PathCollection]{}, err
	}

	// When splitting, two or more top level groups with nothing beside them
	// become separate collections, one per group
	var groups []*etree.Element
	loose := false
	for _, child := range root.ChildElements() {
		switch {
		case child.Tag == "g":
			groups = append(groups, child)
		case isSVGShape(child.Tag):
			loose = true
		}
	}
	if opts.SplitCollections && len(groups) >= 2 && !loose {
		collections := make([]PathCollection, 0, len(groups))
		for i, g := range groups {
			segs, err := l.walk(g, rootTransform, nil)
			if err != nil {
				return OneOrMany[PathCollection]{}, err
			}
			name := g.SelectAttrValue("id", "")
			if name == "" {
				name = fmt.Sprintf("group-%d", i+1)
			}
			collections = append(collections, PathCollection{Name: name, Segments: segs})
		}
		return Many(collections), nil
	}

	var segs []Segment
	for _, child := range root.ChildElements() {
		if segs, err = l.walk(child, rootTransform, segs); err != nil {
			return OneOrMany[PathCollection]{}, err
		}
	}
	return One(PathCollection{Name: root.SelectAttrValue("id", ""), Segments: segs}), nil
}

func isSVGShape(tag string) bool {
	switch tag {
	case "path", "polygon", "polyline", "line", "rect", "circle", "ellipse":
		return true
	}
	return false
}

// transform returns parent composed with the element's own transform attribute
func (l *svgLoader) transform(el *etree.Element, parent affine) (affine, error) {
	attr := el.SelectAttr("transform")
	if attr == nil {
		return parent, nil
	}
	local, err := parseTransform(attr.Value)
	if err != nil {
		return identity, malformed(FormatSVG, err, "<%s> transform", el.Tag)
	}
	return parent.mul(local), nil
}

func (l *svgLoader) walk(el *etree.Element, parent affine, out []Segment) ([]Segment, error) {
	m, err := l.transform(el, parent)
	if err != nil {
		return nil, err
	}

	switch el.Tag {
	case "svg", "g", "a", "switch":
		for _, child := range el.ChildElements() {
			if out, err = l.walk(child, m, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	case "path":
		subs, err := parsePathData(el.SelectAttrValue("d", ""), l.segments)
		if err != nil {
			return nil, malformed(FormatSVG, err, "<path> data")
		}
		for _, sp := range subs {
			out = l.add(out, m.applyAll(sp.pts))
		}
		return out, nil
	}

	if !isSVGShape(el.Tag) {
		return out, nil
	}
	pts, err := l.shapePoints(el)
	if err != nil {
		return nil, malformed(FormatSVG, err, "<%s>", el.Tag)
	}
	return l.add(out, m.applyAll(pts)), nil
}

// add appends a sampled polyline as a new source path
func (l *svgLoader) add(out []Segment, pts []geometry.Point2D) []Segment {
	if len(pts) < 2 {
		return out
	}
	out = polylineSegments(out, pts, l.nextPath)
	l.nextPath++
	return out
}

// shapePoints samples the basic shapes into local coordinates
func (l *svgLoader) shapePoints(el *etree.Element) ([]geometry.Point2D, error) {
	attrs, err := lengths(el, shapeAttrs[el.Tag]...)
	if err != nil {
		return nil, err
	}

	switch el.Tag {
	case "line":
		return []geometry.Point2D{{X: attrs["x1"], Y: attrs["y1"]}, {X: attrs["x2"], Y: attrs["y2"]}}, nil
	case "rect":
		x, y, w, h := attrs["x"], attrs["y"], attrs["width"], attrs["height"]
		if w <= 0 || h <= 0 {
			return nil, nil
		}
		return []geometry.Point2D{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}, {X: x, Y: y}}, nil
	case "circle":
		if attrs["r"] <= 0 {
			return nil, nil
		}
		return fullEllipse(geometry.Point2D{X: attrs["cx"], Y: attrs["cy"]}, attrs["r"], attrs["r"], 0, l.segments), nil
	case "ellipse":
		if attrs["rx"] <= 0 || attrs["ry"] <= 0 {
			return nil, nil
		}
		return fullEllipse(geometry.Point2D{X: attrs["cx"], Y: attrs["cy"]}, attrs["rx"], attrs["ry"], 0, l.segments), nil
	case "polygon", "polyline":
		nums, err := parseNumberList(el.SelectAttrValue("points", ""))
		if err != nil {
			return nil, err
		}
		if len(nums)%2 != 0 {
			return nil, fmt.Errorf("odd number of coordinates in points")
		}
		pts := make([]geometry.Point2D, 0, len(nums)/2+1)
		for i := 0; i < len(nums); i += 2 {
			pts = append(pts, geometry.Point2D{X: nums[i], Y: nums[i+1]})
		}
		if el.Tag == "polygon" && len(pts) > 2 && pts[0] != pts[len(pts)-1] {
			pts = append(pts, pts[0])
		}
		return pts, nil
	}
	return nil, nil
}

var shapeAttrs = map[string][]string{
	"line":    {"x1", "y1", "x2", "y2"},
	"rect":    {"x", "y", "width", "height"},
	"circle":  {"cx", "cy", "r"},
	"ellipse": {"cx", "cy", "rx", "ry"},
}

// lengths reads numeric attributes, defaulting missing ones to zero
func lengths(el *etree.Element, names ...string) (map[string]float64, error) {
	out := make(map[string]float64, len(names))
	for _, name := range names {
		v, err := parseLength(el.SelectAttrValue(name, ""))
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// parseLength parses an SVG length, dropping any unit suffix
func parseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	for _, unit := range []string{"px", "mm", "cm", "in", "pt", "pc", "em", "ex", "%"} {
		if strings.HasSuffix(s, unit) {
			s = strings.TrimSpace(strings.TrimSuffix(s, unit))
			break
		}
	}
	return strconv.ParseFloat(s, 64)
}

// parseNumberList reads a comma or whitespace separated list of numbers
func parseNumberList(s string) ([]float64, error) {
	lex := &pathLexer{s: s}
	var nums []float64
	for !lex.done() {
		v, err := lex.number()
		if err != nil {
			return nil, err
		}
		nums = append(nums, v)
	}
	return nums, nil
}
