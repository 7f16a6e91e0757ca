package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/vecstl/pkg/geometry"
	"github.com/philipparndt/vecstl/pkg/mesh"
)

// EdgeInfo contains information about an undirected edge of the mesh
type EdgeInfo struct {
	Start  geometry.Vector3
	End    geometry.Vector3
	Length float64
	// Faces is the number of triangles using the edge
	Faces int
}

// MeasurementResult contains various measurements of a mesh
type MeasurementResult struct {
	BoundingBox       geometry.BoundingBox
	Dimensions        geometry.Vector3
	Volume            float64
	SurfaceArea       float64
	VertexCount       int
	TriangleCount     int
	EdgeCount         int
	BoundaryEdges     int
	Components        int
	Watertight        bool
	WindingConsistent bool
	MinEdgeLength     float64
	MaxEdgeLength     float64
	AvgEdgeLength     float64
	AllEdges          []EdgeInfo
}

// AnalyzeMesh performs comprehensive analysis on a mesh
func AnalyzeMesh(m *mesh.Mesh) *MeasurementResult {
	result := &MeasurementResult{
		BoundingBox:       m.BoundingBox(),
		Volume:            m.Volume(),
		SurfaceArea:       m.SurfaceArea(),
		VertexCount:       m.VertexCount(),
		TriangleCount:     m.FaceCount(),
		Components:        m.ComponentCount(),
		Watertight:        m.IsWatertight(),
		WindingConsistent: m.IsWindingConsistent(),
		AllEdges:          make([]EdgeInfo, 0),
	}
	result.Dimensions = result.BoundingBox.Size()

	use := m.EdgeUse()
	keys := make([]mesh.Edge, 0, len(use))
	for e := range use {
		keys = append(keys, e)
	}
	// Map order is random, edges are listed by vertex index
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})

	minLength := math.MaxFloat64
	maxLength := 0.0
	totalLength := 0.0

	for _, e := range keys {
		start, end := m.Vertices[e.A], m.Vertices[e.B]
		length := start.Distance(end)
		result.AllEdges = append(result.AllEdges, EdgeInfo{
			Start:  start,
			End:    end,
			Length: length,
			Faces:  use[e],
		})
		if use[e] == 1 {
			result.BoundaryEdges++
		}

		totalLength += length
		if length < minLength {
			minLength = length
		}
		if length > maxLength {
			maxLength = length
		}
	}

	result.EdgeCount = len(result.AllEdges)
	if result.EdgeCount > 0 {
		result.MinEdgeLength = minLength
		result.MaxEdgeLength = maxLength
		result.AvgEdgeLength = totalLength / float64(result.EdgeCount)
	}

	return result
}

// FindEdgesByLength finds all edges within a length range
func FindEdgesByLength(result *MeasurementResult, minLength, maxLength float64) []EdgeInfo {
	var edges []EdgeInfo
	for _, edge := range result.AllEdges {
		if edge.Length >= minLength && edge.Length <= maxLength {
			edges = append(edges, edge)
		}
	}
	return edges
}

// FindBoundaryEdges returns the edges used by a single triangle. A closed
// solid has none.
func FindBoundaryEdges(result *MeasurementResult) []EdgeInfo {
	var edges []EdgeInfo
	for _, edge := range result.AllEdges {
		if edge.Faces == 1 {
			edges = append(edges, edge)
		}
	}
	return edges
}

// FindLongestEdges returns the N longest edges in the mesh
func FindLongestEdges(result *MeasurementResult, count int) []EdgeInfo {
	edges := make([]EdgeInfo, len(result.AllEdges))
	copy(edges, result.AllEdges)

	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Length > edges[j].Length
	})

	if count > len(edges) {
		count = len(edges)
	}

	return edges[:count]
}

// FindShortestEdges returns the N shortest edges in the mesh
func FindShortestEdges(result *MeasurementResult, count int) []EdgeInfo {
	edges := make([]EdgeInfo, len(result.AllEdges))
	copy(edges, result.AllEdges)

	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Length < edges[j].Length
	})

	if count > len(edges) {
		count = len(edges)
	}

	return edges[:count]
}

// FindNearestVertex finds the vertex in the mesh nearest to a given point
func FindNearestVertex(m *mesh.Mesh, point geometry.Vector3) (geometry.Vector3, float64) {
	var nearestVertex geometry.Vector3
	minDistance := math.MaxFloat64

	for _, vertex := range m.Vertices {
		distance := point.Distance(vertex)
		if distance < minDistance {
			minDistance = distance
			nearestVertex = vertex
		}
	}

	return nearestVertex, minDistance
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
