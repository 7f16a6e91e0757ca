package mesh

// FixNormals makes the winding of every connected component consistent and
// outward facing. Winding is propagated breadth first from the lowest face
// of each component: a neighbour that walks a shared edge in the same
// direction as the face it was reached from is flipped. A component whose
// signed volume ends up negative is then flipped as a whole.
//
// The result depends only on the mesh, and repairing a repaired mesh
// changes nothing. It returns the number of faces whose winding changed.
func (m *Mesh) FixNormals() int {
	flipped := make([]bool, len(m.Faces))
	comps := m.components(func(_, to int, a, b int) {
		// The settled face walks a->b, so the neighbour must walk b->a
		if hasDirected(m.Faces[to], a, b) {
			m.flip(to)
			flipped[to] = !flipped[to]
		}
	})

	for _, comp := range comps {
		if m.volumeOf(comp) >= 0 {
			continue
		}
		for _, i := range comp {
			m.flip(i)
			flipped[i] = !flipped[i]
		}
	}

	n := 0
	for _, f := range flipped {
		if f {
			n++
		}
	}
	return n
}
