package mesh

import (
	"errors"

	"github.com/philipparndt/vecstl/pkg/geometry"
)

// ErrEmptyMeshSet is returned when there is nothing to merge
var ErrEmptyMeshSet = errors.New("empty mesh set")

// Merge concatenates meshes into one. Vertices are never welded, so
// coincident points from different inputs stay distinct. Nil entries count
// as empty meshes.
func Merge(meshes []*Mesh) (*Mesh, error) {
	if len(meshes) == 0 {
		return nil, ErrEmptyMeshSet
	}

	vertices, faces := 0, 0
	for _, m := range meshes {
		vertices += m.VertexCount()
		faces += m.FaceCount()
	}

	out := &Mesh{
		Vertices: make([]geometry.Vector3, 0, vertices),
		Faces:    make([][3]int, 0, faces),
	}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		offset := len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, f := range m.Faces {
			out.Faces = append(out.Faces, [3]int{f[0] + offset, f[1] + offset, f[2] + offset})
		}
	}
	return out, nil
}
