package pathio

import "fmt"

// DefaultCurveSegments is the number of samples per cubic or quadratic
// curve and per quarter turn of an arc
const DefaultCurveSegments = 16

// Options tunes how drawings are read
type Options struct {
	CurveSegments int
	// SplitCollections returns each DXF layer and each top level SVG group
	// as its own collection. By default the whole drawing is one collection
	// so loops on different layers still nest into holes.
	SplitCollections bool
}

// DefaultOptions returns the loader defaults
func DefaultOptions() Options {
	return Options{CurveSegments: DefaultCurveSegments}
}

func (o Options) curveSegments() int {
	if o.CurveSegments <= 0 {
		return DefaultCurveSegments
	}
	return o.CurveSegments
}

// Load parses data in the given format into path collections
func Load(data []byte, format Format, opts Options) (OneOrMany[PathCollection], error) {
	switch format {
	case FormatSVG:
		return loadSVG(data, opts)
	case FormatDXF:
		return loadDXF(data, opts)
	default:
		return OneOrMany[PathCollection]{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// LoadTagged resolves the format tag and loads data
func LoadTagged(data []byte, tag string, opts Options) (OneOrMany[PathCollection], error) {
	format, err := ParseFormat(tag)
	if err != nil {
		return OneOrMany[PathCollection]{}, err
	}
	return Load(data, format, opts)
}
