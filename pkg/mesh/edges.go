package mesh

// Edge is an undirected edge between two vertex indices, smaller first
type Edge struct {
	A, B int
}

// NewEdge returns the undirected edge between a and b
func NewEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// faceEdges returns the three directed edges of a face
func faceEdges(f [3]int) [3][2]int {
	return [3][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}}
}

// hasDirected reports whether face f walks from a to b
func hasDirected(f [3]int, a, b int) bool {
	for _, e := range faceEdges(f) {
		if e[0] == a && e[1] == b {
			return true
		}
	}
	return false
}

// EdgeUse counts how many faces use each undirected edge
func (m *Mesh) EdgeUse() map[Edge]int {
	use := make(map[Edge]int, len(m.Faces)*3/2)
	for _, f := range m.Faces {
		for _, e := range faceEdges(f) {
			if e[0] == e[1] {
				continue
			}
			use[NewEdge(e[0], e[1])]++
		}
	}
	return use
}

// edgeFaces maps each undirected edge to the faces using it, in face order
func (m *Mesh) edgeFaces() map[Edge][]int {
	out := make(map[Edge][]int, len(m.Faces)*3/2)
	for i, f := range m.Faces {
		for _, e := range faceEdges(f) {
			if e[0] == e[1] {
				continue
			}
			k := NewEdge(e[0], e[1])
			out[k] = append(out[k], i)
		}
	}
	return out
}

// BoundaryEdges returns the number of edges used by a single face
func (m *Mesh) BoundaryEdges() int {
	n := 0
	for _, c := range m.EdgeUse() {
		if c == 1 {
			n++
		}
	}
	return n
}

// IsWatertight reports whether every edge is shared by exactly two faces
func (m *Mesh) IsWatertight() bool {
	if len(m.Faces) == 0 {
		return false
	}
	for _, c := range m.EdgeUse() {
		if c != 2 {
			return false
		}
	}
	return true
}

// IsWindingConsistent reports whether no directed edge is used twice, which
// means neighbouring faces always traverse their shared edge in opposite
// directions
func (m *Mesh) IsWindingConsistent() bool {
	seen := make(map[[2]int]bool, len(m.Faces)*3)
	for _, f := range m.Faces {
		for _, e := range faceEdges(f) {
			if seen[e] {
				return false
			}
			seen[e] = true
		}
	}
	return true
}

// components groups faces connected through shared edges. Each group is in
// breadth first order from its lowest face.
func (m *Mesh) components(visit func(from, to int, a, b int)) [][]int {
	byEdge := m.edgeFaces()
	visited := make([]bool, len(m.Faces))
	var out [][]int
	for seed := range m.Faces {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		comp := []int{seed}
		for q := 0; q < len(comp); q++ {
			cur := comp[q]
			for _, e := range faceEdges(m.Faces[cur]) {
				if e[0] == e[1] {
					continue
				}
				for _, next := range byEdge[NewEdge(e[0], e[1])] {
					if visited[next] {
						continue
					}
					visited[next] = true
					if visit != nil {
						visit(cur, next, e[0], e[1])
					}
					comp = append(comp, next)
				}
			}
		}
		out = append(out, comp)
	}
	return out
}

// ComponentCount returns the number of edge connected face groups
func (m *Mesh) ComponentCount() int {
	return len(m.components(nil))
}
