package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/philipparndt/vecstl/pkg/geometry"
)

// ErrInvalidSTL is returned for data that is neither ASCII nor binary STL
var ErrInvalidSTL = errors.New("invalid STL data")

// Parse reads an STL file and returns a Model
// It automatically detects whether the file is ASCII or binary format
func Parse(filename string) (*Model, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file)
}

// ParseReader reads a whole STL stream
func ParseReader(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL data: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses an STL file held in memory.
// Binary files may also start with "solid", so the size implied by the
// triangle count is checked first.
func ParseBytes(data []byte) (*Model, error) {
	if len(data) >= headerSize+4 {
		count := binary.LittleEndian.Uint32(data[headerSize:])
		if int64(len(data)) == int64(headerSize+4)+int64(count)*recordSize {
			return parseBinary(bytes.NewReader(data))
		}
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) {
		return parseASCII(bytes.NewReader(data))
	}
	if len(data) < headerSize+4 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than a binary header", ErrInvalidSTL, len(data))
	}
	return parseBinary(bytes.NewReader(data))
}

func parseFloats(fields []string, line int) (geometry.Vector3, error) {
	var v [3]float64
	for i := range v {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return geometry.Vector3{}, fmt.Errorf("%w: line %d: %v", ErrInvalidSTL, line, err)
		}
		v[i] = f
	}
	return geometry.NewVector3(v[0], v[1], v[2]), nil
}

// parseASCII parses an ASCII STL file
func parseASCII(reader io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(reader)
	model := NewModel("")

	var currentNormal geometry.Vector3
	var vertices []geometry.Vector3
	line := 0

	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())

		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 {
				model.Name = strings.Join(fields[1:], " ")
			}

		case "facet":
			if len(fields) >= 5 && fields[1] == "normal" {
				n, err := parseFloats(fields[2:5], line)
				if err != nil {
					return nil, err
				}
				currentNormal = n
			}

		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: vertex needs three coordinates", ErrInvalidSTL, line)
			}
			v, err := parseFloats(fields[1:4], line)
			if err != nil {
				return nil, err
			}
			vertices = append(vertices, v)

		case "endfacet":
			if len(vertices) != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrInvalidSTL, line, len(vertices))
			}
			model.AddTriangle(geometry.NewTriangle(currentNormal, vertices[0], vertices[1], vertices[2]))
			vertices = vertices[:0] // Clear vertices
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}

	return model, nil
}

// parseBinary parses a binary STL file
func parseBinary(reader io.Reader) (*Model, error) {
	model := NewModel("")

	// Read 80-byte header
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Extract name from header (if present)
	model.Name = string(bytes.TrimRight(header, "\x00"))

	// Read triangle count
	var triangleCount uint32
	if err := binary.Read(reader, binary.LittleEndian, &triangleCount); err != nil {
		return nil, fmt.Errorf("failed to read triangle count: %w", err)
	}

	// The count comes from the file, so it only sizes the first allocation
	model.Triangles = make([]geometry.Triangle, 0, min(triangleCount, 1<<16))
	for i := uint32(0); i < triangleCount; i++ {
		var r record
		if err := binary.Read(reader, binary.LittleEndian, &r); err != nil {
			return nil, fmt.Errorf("failed to read triangle %d: %w", i, err)
		}
		model.AddTriangle(geometry.NewTriangle(
			fromFloat32(r.Normal),
			fromFloat32(r.V1),
			fromFloat32(r.V2),
			fromFloat32(r.V3),
		))
	}

	return model, nil
}
