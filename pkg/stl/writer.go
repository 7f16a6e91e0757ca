package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/philipparndt/vecstl/pkg/geometry"
	"github.com/philipparndt/vecstl/pkg/mesh"
)

const (
	headerSize = 80
	// recordSize is the packed size of one triangle record
	recordSize = 50
)

// record is one binary triangle: normal, three corners, attribute count
type record struct {
	Normal    [3]float32
	V1        [3]float32
	V2        [3]float32
	V3        [3]float32
	Attribute uint16
}

func toFloat32(v geometry.Vector3) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func fromFloat32(v [3]float32) geometry.Vector3 {
	return geometry.NewVector3(float64(v[0]), float64(v[1]), float64(v[2]))
}

// header returns the name zero padded or truncated to 80 bytes
func header(name string) [headerSize]byte {
	var h [headerSize]byte
	copy(h[:], name)
	return h
}

// WriteBinary writes m as a little endian binary STL. A nil or empty mesh
// produces a valid file with zero triangles.
func WriteBinary(w io.Writer, m *mesh.Mesh, name string) error {
	bw := bufio.NewWriter(w)

	h := header(name)
	if _, err := bw.Write(h[:]); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(m.FaceCount())); err != nil {
		return fmt.Errorf("failed to write triangle count: %w", err)
	}

	for i := 0; i < m.FaceCount(); i++ {
		t := m.Triangle(i)
		r := record{
			Normal: toFloat32(t.Normal),
			V1:     toFloat32(t.V1),
			V2:     toFloat32(t.V2),
			V3:     toFloat32(t.V3),
		}
		if err := binary.Write(bw, binary.LittleEndian, &r); err != nil {
			return fmt.Errorf("failed to write triangle %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// Encode returns the binary STL bytes of m
func Encode(m *mesh.Mesh, name string) []byte {
	var buf bytes.Buffer
	buf.Grow(headerSize + 4 + recordSize*m.FaceCount())
	// Writes to a bytes.Buffer cannot fail
	_ = WriteBinary(&buf, m, name)
	return buf.Bytes()
}

// WriteASCII writes m as an ASCII STL
func WriteASCII(w io.Writer, m *mesh.Mesh, name string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for i := 0; i < m.FaceCount(); i++ {
		t := m.Triangle(i)
		fmt.Fprintf(bw, "  facet normal %g %g %g\n", t.Normal.X, t.Normal.Y, t.Normal.Z)
		fmt.Fprintf(bw, "    outer loop\n")
		for _, v := range []geometry.Vector3{t.V1, t.V2, t.V3} {
			fmt.Fprintf(bw, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintf(bw, "    endloop\n")
		fmt.Fprintf(bw, "  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}
