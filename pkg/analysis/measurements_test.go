package analysis

import (
	"math"
	"testing"

	"github.com/philipparndt/vecstl/pkg/geometry"
	"github.com/philipparndt/vecstl/pkg/mesh"
)

// box returns an outward wound box with corners at the origin and size
func box(size geometry.Vector3) *mesh.Mesh {
	v := func(x, y, z float64) geometry.Vector3 {
		return geometry.NewVector3(x*size.X, y*size.Y, z*size.Z)
	}
	return &mesh.Mesh{
		Vertices: []geometry.Vector3{
			v(0, 0, 0), v(1, 0, 0), v(1, 1, 0), v(0, 1, 0),
			v(0, 0, 1), v(1, 0, 1), v(1, 1, 1), v(0, 1, 1),
		},
		Faces: [][3]int{
			{0, 2, 1}, {0, 3, 2}, {4, 5, 6}, {4, 6, 7},
			{0, 1, 5}, {0, 5, 4}, {3, 7, 6}, {3, 6, 2},
			{0, 4, 7}, {0, 7, 3}, {1, 2, 6}, {1, 6, 5},
		},
	}
}

func TestAnalyzeMesh(t *testing.T) {
	result := AnalyzeMesh(box(geometry.NewVector3(10, 10, 5)))

	if result.TriangleCount != 12 {
		t.Errorf("TriangleCount failed: expected 12, got %d", result.TriangleCount)
	}
	if result.VertexCount != 8 {
		t.Errorf("VertexCount failed: expected 8, got %d", result.VertexCount)
	}
	// 12 box edges plus one diagonal per side
	if result.EdgeCount != 18 {
		t.Errorf("EdgeCount failed: expected 18, got %d", result.EdgeCount)
	}
	if math.Abs(result.Volume-500) > 1e-9 {
		t.Errorf("Volume failed: expected 500, got %v", result.Volume)
	}
	if result.SurfaceArea != 400 {
		t.Errorf("SurfaceArea failed: expected 400, got %v", result.SurfaceArea)
	}
	if !result.Watertight || !result.WindingConsistent {
		t.Errorf("expected a closed consistent mesh")
	}
	if result.BoundaryEdges != 0 || result.Components != 1 {
		t.Errorf("unexpected topology: %d boundary edges, %d components", result.BoundaryEdges, result.Components)
	}
	if result.MinEdgeLength != 5 || math.Abs(result.MaxEdgeLength-math.Sqrt(200)) > 1e-12 {
		t.Errorf("edge lengths failed: min %v, max %v", result.MinEdgeLength, result.MaxEdgeLength)
	}
	if result.Dimensions != geometry.NewVector3(10, 10, 5) {
		t.Errorf("Dimensions failed: got %v", result.Dimensions)
	}
}

func TestAnalyzeEmptyMesh(t *testing.T) {
	result := AnalyzeMesh(&mesh.Mesh{})
	if result.EdgeCount != 0 || result.MinEdgeLength != 0 || result.Watertight {
		t.Errorf("unexpected result for empty mesh: %+v", result)
	}
}

func TestFindEdges(t *testing.T) {
	result := AnalyzeMesh(box(geometry.NewVector3(10, 10, 5)))

	longest := FindLongestEdges(result, 2)
	if len(longest) != 2 || longest[0].Length < longest[1].Length {
		t.Errorf("FindLongestEdges failed: %+v", longest)
	}
	shortest := FindShortestEdges(result, 100)
	if len(shortest) != result.EdgeCount || shortest[0].Length != 5 {
		t.Errorf("FindShortestEdges failed: %+v", shortest[0])
	}
	vertical := FindEdgesByLength(result, 4.9, 5.1)
	if len(vertical) != 4 {
		t.Errorf("FindEdgesByLength failed: expected 4 vertical edges, got %d", len(vertical))
	}
	for _, e := range result.AllEdges {
		if e.Faces != 2 {
			t.Errorf("edge %v-%v used by %d faces", e.Start, e.End, e.Faces)
		}
	}
}

func TestFindBoundaryEdges(t *testing.T) {
	closed := AnalyzeMesh(box(geometry.NewVector3(1, 1, 1)))
	if got := FindBoundaryEdges(closed); len(got) != 0 {
		t.Errorf("FindBoundaryEdges failed: expected none on a closed box, got %d", len(got))
	}

	open := box(geometry.NewVector3(1, 1, 1))
	open.Faces = open.Faces[2:]
	result := AnalyzeMesh(open)
	if got := FindBoundaryEdges(result); len(got) != 4 || len(got) != result.BoundaryEdges {
		t.Errorf("FindBoundaryEdges failed: expected the 4 edges of the missing side, got %d", len(got))
	}
}

func TestFindNearestVertex(t *testing.T) {
	v, d := FindNearestVertex(box(geometry.NewVector3(1, 1, 1)), geometry.NewVector3(2, 2, 2))
	if v != geometry.NewVector3(1, 1, 1) {
		t.Errorf("FindNearestVertex failed: got %v", v)
	}
	if d != geometry.NewVector3(1, 1, 1).Length() {
		t.Errorf("distance failed: got %v", d)
	}
}

func TestFormat(t *testing.T) {
	if got := FormatMeasurement(1.5, ""); got != "1.500000 units" {
		t.Errorf("FormatMeasurement failed: got %q", got)
	}
	if got := FormatVector(geometry.NewVector3(1, 2, 3)); got != "(1.000000, 2.000000, 3.000000)" {
		t.Errorf("FormatVector failed: got %q", got)
	}
}
