package pathio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported vector file format
type Format int

const (
	FormatUnknown Format = iota
	FormatDXF
	FormatSVG
)

var (
	// ErrUnsupportedFormat is returned for format tags outside the known set
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrMalformedInput is returned when the bytes do not parse as the declared format
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnsupportedEntity marks drawing entities the loader cannot sample
	ErrUnsupportedEntity = errors.New("unsupported entity")
)

// String returns the lower case tag of the format
func (f Format) String() string {
	switch f {
	case FormatDXF:
		return "dxf"
	case FormatSVG:
		return "svg"
	default:
		return "unknown"
	}
}

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatDXF, FormatSVG}
}

// FormatTags joins the tags of Formats for messages, e.g. "dxf, svg"
func FormatTags() string {
	tags := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		tags = append(tags, f.String())
	}
	return strings.Join(tags, ", ")
}

// ParseFormat resolves a format tag such as "svg", "DXF" or ".svg"
func ParseFormat(tag string) (Format, error) {
	want := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "."))
	for _, f := range Formats() {
		if f.String() == want {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %q (expected one of %s)", ErrUnsupportedFormat, tag, FormatTags())
}

// FormatFromFilename derives the format from a file extension
func FormatFromFilename(name string) (Format, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return FormatUnknown, fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, name)
	}
	return ParseFormat(ext)
}

// MalformedInputError carries the parser detail for input that could not be read
type MalformedInputError struct {
	Format Format
	Detail string
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := fmt.Sprintf("malformed %s input: %s", e.Format, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrMalformedInput and the underlying parser error
func (e *MalformedInputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedInput}
	}
	return []error{ErrMalformedInput, e.Err}
}

func malformed(f Format, err error, format string, args ...any) error {
	return &MalformedInputError{Format: f, Detail: fmt.Sprintf(format, args...), Err: err}
}
