package mesh

import (
	"testing"

	"github.com/philipparndt/vecstl/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// cube returns an outward wound axis aligned cube with its min corner at o
func cube(o geometry.Vector3, size float64) *Mesh {
	v := func(x, y, z float64) geometry.Vector3 {
		return o.Add(geometry.NewVector3(x*size, y*size, z*size))
	}
	return &Mesh{
		Vertices: []geometry.Vector3{
			v(0, 0, 0), v(1, 0, 0), v(1, 1, 0), v(0, 1, 0),
			v(0, 0, 1), v(1, 0, 1), v(1, 1, 1), v(0, 1, 1),
		},
		Faces: [][3]int{
			{0, 2, 1}, {0, 3, 2}, // bottom
			{4, 5, 6}, {4, 6, 7}, // top
			{0, 1, 5}, {0, 5, 4}, // front
			{3, 7, 6}, {3, 6, 2}, // back
			{0, 4, 7}, {0, 7, 3}, // left
			{1, 2, 6}, {1, 6, 5}, // right
		},
	}
}

func TestCubeFixture(t *testing.T) {
	m := cube(geometry.Vector3{}, 1)
	require.NoError(t, m.Validate())
	assert.InDelta(t, 1, m.Volume(), 1e-12)
	assert.InDelta(t, 6, m.SurfaceArea(), 1e-12)
	assert.True(t, m.IsWatertight())
	assert.True(t, m.IsWindingConsistent())
	assert.Equal(t, 0, m.BoundaryEdges())
	assert.Equal(t, 1, m.ComponentCount())
	assert.Equal(t, geometry.NewVector3(1, 1, 1), m.BoundingBox().Size())

	n := m.Triangle(2).Normal
	assert.InDelta(t, 1, n.Z, 1e-12)
}

func TestValidate(t *testing.T) {
	m := &Mesh{Vertices: make([]geometry.Vector3, 3), Faces: [][3]int{{0, 1, 3}}}
	assert.ErrorIs(t, m.Validate(), ErrIndexOutOfRange)
}

func TestMergeEmpty(t *testing.T) {
	_, err := Merge(nil)
	assert.ErrorIs(t, err, ErrEmptyMeshSet)
}

func TestMergeKeepsCoincidentVerticesDistinct(t *testing.T) {
	a := cube(geometry.Vector3{}, 1)
	b := cube(geometry.Vector3{}, 1)

	m, err := Merge([]*Mesh{a, nil, b})
	require.NoError(t, err)
	assert.Equal(t, 16, m.VertexCount())
	assert.Equal(t, 24, m.FaceCount())
	assert.Equal(t, 2, m.ComponentCount())
	assert.Equal(t, [3]int{8, 10, 9}, m.Faces[12])
	require.NoError(t, m.Validate())
}

func TestFixNormalsRepairsSingleFace(t *testing.T) {
	m := cube(geometry.Vector3{}, 2)
	m.flip(7)
	require.False(t, m.IsWindingConsistent())

	assert.Equal(t, 1, m.FixNormals())
	assert.True(t, m.IsWindingConsistent())
	assert.Equal(t, cube(geometry.Vector3{}, 2).Faces, m.Faces)
}

func TestFixNormalsTurnsInvertedSolidOutward(t *testing.T) {
	m := cube(geometry.Vector3{}, 1)
	for i := range m.Faces {
		m.flip(i)
	}
	require.Less(t, m.Volume(), 0.0)

	assert.Equal(t, 12, m.FixNormals())
	assert.InDelta(t, 1, m.Volume(), 1e-12)
}

func TestFixNormalsComponentsAreIndependent(t *testing.T) {
	a := cube(geometry.Vector3{}, 1)
	b := cube(geometry.NewVector3(5, 0, 0), 1)
	for i := range b.Faces {
		b.flip(i)
	}
	m, err := Merge([]*Mesh{a, b})
	require.NoError(t, err)

	assert.Equal(t, 12, m.FixNormals())
	assert.InDelta(t, 2, m.Volume(), 1e-12)
	assert.Equal(t, a.Faces, m.Faces[:12])
}

func TestFixNormalsEmptyMesh(t *testing.T) {
	m := &Mesh{}
	assert.Equal(t, 0, m.FixNormals())
	assert.False(t, m.IsWatertight())
}

func TestMergeAdditiveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "n")
		meshes := make([]*Mesh, n)
		vertices, faces := 0, 0
		for i := range meshes {
			size := rapid.Float64Range(0.1, 10).Draw(t, "size")
			meshes[i] = cube(geometry.NewVector3(float64(i)*20, 0, 0), size)
			vertices += meshes[i].VertexCount()
			faces += meshes[i].FaceCount()
		}
		m, err := Merge(meshes)
		if err != nil {
			t.Fatal(err)
		}
		if m.VertexCount() != vertices || m.FaceCount() != faces {
			t.Fatalf("expected %d/%d, got %d/%d", vertices, faces, m.VertexCount(), m.FaceCount())
		}
		if err := m.Validate(); err != nil {
			t.Fatal(err)
		}
	})
}

func TestFixNormalsIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := cube(geometry.Vector3{}, rapid.Float64Range(0.5, 5).Draw(t, "size"))
		for i := range m.Faces {
			if rapid.Bool().Draw(t, "flip") {
				m.flip(i)
			}
		}
		m.FixNormals()
		if !m.IsWindingConsistent() || m.Volume() <= 0 {
			t.Fatalf("repair left an inconsistent mesh: %v", m.Faces)
		}
		before := m.Clone()
		if n := m.FixNormals(); n != 0 {
			t.Fatalf("second repair flipped %d faces", n)
		}
		for i := range m.Faces {
			if m.Faces[i] != before.Faces[i] {
				t.Fatalf("face %d changed from %v to %v", i, before.Faces[i], m.Faces[i])
			}
		}
	})
}
