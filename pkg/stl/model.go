package stl

import (
	"github.com/philipparndt/vecstl/pkg/geometry"
	"github.com/philipparndt/vecstl/pkg/mesh"
)

// Model represents a complete STL model
type Model struct {
	Name      string
	Triangles []geometry.Triangle
}

// NewModel creates a new STL model
func NewModel(name string) *Model {
	return &Model{
		Name:      name,
		Triangles: make([]geometry.Triangle, 0),
	}
}

// FromMesh resolves every face of m into a model triangle
func FromMesh(m *mesh.Mesh, name string) *Model {
	model := NewModel(name)
	if m == nil {
		return model
	}
	model.Triangles = m.Triangles()
	return model
}

// AddTriangle adds a triangle to the model
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

// TriangleCount returns the number of triangles in the model
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// BoundingBox calculates the bounding box of the entire model
func (m *Model) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, triangle := range m.Triangles {
		bbox.Extend(triangle.V1)
		bbox.Extend(triangle.V2)
		bbox.Extend(triangle.V3)
	}
	return bbox
}

// SurfaceArea calculates the total surface area of the model
func (m *Model) SurfaceArea() float64 {
	totalArea := 0.0
	for _, triangle := range m.Triangles {
		totalArea += triangle.Area()
	}
	return totalArea
}

// ToMesh converts the triangle soup into an indexed mesh. Vertices with
// exactly equal coordinates are welded into one, which is how the facets of
// an STL file share their corners.
func (m *Model) ToMesh() *mesh.Mesh {
	out := &mesh.Mesh{
		Vertices: make([]geometry.Vector3, 0, len(m.Triangles)/2+3),
		Faces:    make([][3]int, 0, len(m.Triangles)),
	}
	index := make(map[geometry.Vector3]int, len(m.Triangles)/2+3)
	vertex := func(v geometry.Vector3) int {
		if i, ok := index[v]; ok {
			return i
		}
		i := len(out.Vertices)
		index[v] = i
		out.Vertices = append(out.Vertices, v)
		return i
	}
	for _, t := range m.Triangles {
		out.Faces = append(out.Faces, [3]int{vertex(t.V1), vertex(t.V2), vertex(t.V3)})
	}
	return out
}
