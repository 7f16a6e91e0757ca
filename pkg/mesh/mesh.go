// Package mesh holds indexed triangle meshes and the merge and winding
// repair steps applied before serialization.
package mesh

import (
	"errors"
	"fmt"

	"github.com/philipparndt/vecstl/pkg/geometry"
)

// ErrIndexOutOfRange is returned by Validate for faces that address a
// missing vertex
var ErrIndexOutOfRange = errors.New("face index out of range")

// Mesh is a list of vertices and triangles that index into it
type Mesh struct {
	Vertices []geometry.Vector3
	Faces    [][3]int
}

// VertexCount returns the number of vertices
func (m *Mesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices)
}

// FaceCount returns the number of triangles
func (m *Mesh) FaceCount() int {
	if m == nil {
		return 0
	}
	return len(m.Faces)
}

// Validate checks that every face index addresses a vertex
func (m *Mesh) Validate() error {
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("%w: face %d uses %d, mesh has %d vertices", ErrIndexOutOfRange, i, idx, len(m.Vertices))
			}
		}
	}
	return nil
}

// Triangle returns face i with its vertices resolved and its normal computed
func (m *Mesh) Triangle(i int) geometry.Triangle {
	f := m.Faces[i]
	return geometry.FromVertices(m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]])
}

// Triangles resolves every face
func (m *Mesh) Triangles() []geometry.Triangle {
	out := make([]geometry.Triangle, len(m.Faces))
	for i := range m.Faces {
		out[i] = m.Triangle(i)
	}
	return out
}

// Volume returns the signed volume. Closed meshes with outward winding are
// positive.
func (m *Mesh) Volume() float64 {
	return m.volumeOf(nil)
}

// volumeOf sums the signed volume of the given faces, or all faces when nil
func (m *Mesh) volumeOf(faces []int) float64 {
	var v float64
	if faces == nil {
		for i := range m.Faces {
			v += m.Triangle(i).SignedVolume()
		}
		return v
	}
	for _, i := range faces {
		v += m.Triangle(i).SignedVolume()
	}
	return v
}

// SurfaceArea returns the total area of all faces
func (m *Mesh) SurfaceArea() float64 {
	var a float64
	for i := range m.Faces {
		a += m.Triangle(i).Area()
	}
	return a
}

// BoundingBox returns the bounds of all vertices
func (m *Mesh) BoundingBox() geometry.BoundingBox {
	b := geometry.NewBoundingBox()
	for _, v := range m.Vertices {
		b.Extend(v)
	}
	return b
}

// Clone returns a deep copy
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices: make([]geometry.Vector3, len(m.Vertices)),
		Faces:    make([][3]int, len(m.Faces)),
	}
	copy(out.Vertices, m.Vertices)
	copy(out.Faces, m.Faces)
	return out
}

// flip reverses the winding of face i
func (m *Mesh) flip(i int) {
	m.Faces[i][1], m.Faces[i][2] = m.Faces[i][2], m.Faces[i][1]
}
