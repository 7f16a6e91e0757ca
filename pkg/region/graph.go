package region

import (
	"math"
	"slices"
	"sort"

	"github.com/philipparndt/vecstl/pkg/geometry"
	"github.com/philipparndt/vecstl/pkg/pathio"
)

type cell struct {
	x, y int64
}

// snapper merges points that lie within tol of an existing node. Nodes
// are bucketed on a grid of cell size tol so only neighbouring cells are
// searched.
type snapper struct {
	tol   float64
	grid  map[cell][]int
	nodes []geometry.Point2D
}

func newSnapper(tol float64) *snapper {
	return &snapper{tol: tol, grid: make(map[cell][]int)}
}

func (s *snapper) cellOf(p geometry.Point2D) cell {
	return cell{x: int64(math.Floor(p.X / s.tol)), y: int64(math.Floor(p.Y / s.tol))}
}

func (s *snapper) node(p geometry.Point2D) int {
	c := s.cellOf(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range s.grid[cell{x: c.x + dx, y: c.y + dy}] {
				if s.nodes[id].Near(p, s.tol) {
					return id
				}
			}
		}
	}
	id := len(s.nodes)
	s.nodes = append(s.nodes, p)
	s.grid[c] = append(s.grid[c], id)
	return id
}

type edgeKey struct {
	a, b int
}

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

// graph is the undirected segment graph after snapping
type graph struct {
	nodes []geometry.Point2D
	adj   [][]int
	alive map[edgeKey]bool
	deg   []int
}

func buildGraph(segments []pathio.Segment, tol float64) *graph {
	s := newSnapper(tol)
	type pair struct{ a, b int }
	pairs := make([]pair, 0, len(segments))
	for _, seg := range segments {
		pairs = append(pairs, pair{a: s.node(seg.Start), b: s.node(seg.End)})
	}

	g := &graph{
		nodes: s.nodes,
		adj:   make([][]int, len(s.nodes)),
		alive: make(map[edgeKey]bool, len(pairs)),
		deg:   make([]int, len(s.nodes)),
	}
	for _, p := range pairs {
		if p.a == p.b {
			continue
		}
		k := keyOf(p.a, p.b)
		if _, dup := g.alive[k]; dup {
			continue
		}
		g.alive[k] = true
		g.adj[p.a] = append(g.adj[p.a], p.b)
		g.adj[p.b] = append(g.adj[p.b], p.a)
		g.deg[p.a]++
		g.deg[p.b]++
	}
	return g
}

// neighbors returns the nodes still joined to n
func (g *graph) neighbors(n int) []int {
	var out []int
	for _, m := range g.adj[n] {
		if g.alive[keyOf(n, m)] {
			out = append(out, m)
		}
	}
	return out
}

// prune repeatedly removes dead ends and returns the removed edges traced
// into open chains
func (g *graph) prune() [][]geometry.Point2D {
	removed := make([][]int, len(g.nodes))
	var queue []int
	for n, d := range g.deg {
		if d == 1 {
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if g.deg[n] != 1 {
			continue
		}
		m := g.neighbors(n)[0]
		g.alive[keyOf(n, m)] = false
		g.deg[n]--
		g.deg[m]--
		removed[n] = append(removed[n], m)
		removed[m] = append(removed[m], n)
		if g.deg[m] == 1 {
			queue = append(queue, m)
		}
	}
	return g.chains(removed)
}

// chains traces removed edges into polylines. Chains run between nodes
// that are not simple pass-through points.
func (g *graph) chains(removed [][]int) [][]geometry.Point2D {
	visited := make(map[edgeKey]bool)
	stop := func(n int) bool {
		return len(removed[n]) != 2 || g.deg[n] > 0
	}
	var chains [][]geometry.Point2D
	for n := range removed {
		if !stop(n) {
			continue
		}
		for _, next := range removed[n] {
			if visited[keyOf(n, next)] {
				continue
			}
			chain := []geometry.Point2D{g.nodes[n]}
			prev, cur := n, next
			for {
				visited[keyOf(prev, cur)] = true
				chain = append(chain, g.nodes[cur])
				if stop(cur) {
					break
				}
				following := removed[cur][0]
				if following == prev {
					following = removed[cur][1]
				}
				prev, cur = cur, following
			}
			chains = append(chains, chain)
		}
	}
	return chains
}

// bridges returns the live edges that lie on no cycle
func (g *graph) bridges() []edgeKey {
	disc := make([]int, len(g.nodes))
	low := make([]int, len(g.nodes))
	clock := 0
	var out []edgeKey
	var visit func(v, parent int)
	visit = func(v, parent int) {
		clock++
		disc[v], low[v] = clock, clock
		for _, w := range g.neighbors(v) {
			if w == parent {
				continue
			}
			if disc[w] == 0 {
				visit(w, v)
				low[v] = min(low[v], low[w])
				if low[w] > disc[v] {
					out = append(out, keyOf(v, w))
				}
			} else {
				low[v] = min(low[v], disc[w])
			}
		}
	}
	for v := range g.nodes {
		if disc[v] == 0 && g.deg[v] > 0 {
			visit(v, -1)
		}
	}
	return out
}

// removeBridges drops edges that join loops without enclosing anything,
// such as a line from an outline to a hole, and returns them as open
// chains. Every remaining edge lies on a cycle.
func (g *graph) removeBridges() [][]geometry.Point2D {
	bridges := g.bridges()
	if len(bridges) == 0 {
		return nil
	}
	removed := make([][]int, len(g.nodes))
	for _, k := range bridges {
		g.alive[k] = false
		g.deg[k.a]--
		g.deg[k.b]--
		removed[k.a] = append(removed[k.a], k.b)
		removed[k.b] = append(removed[k.b], k.a)
	}
	return g.chains(removed)
}

// component is a connected set of nodes that survived pruning
type component struct {
	nodes []int
	// branch is the first node with more than two edges, or -1
	branch int
}

func (g *graph) components() []component {
	seen := make([]bool, len(g.nodes))
	var out []component
	for start := range g.nodes {
		if seen[start] || g.deg[start] == 0 {
			continue
		}
		c := component{branch: -1}
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			c.nodes = append(c.nodes, n)
			if g.deg[n] != 2 && c.branch < 0 {
				c.branch = n
			}
			for _, m := range g.neighbors(n) {
				if !seen[m] {
					seen[m] = true
					stack = append(stack, m)
				}
			}
		}
		out = append(out, c)
	}
	return out
}

// trace walks a component whose nodes all have degree two, starting at its
// lowest node
func (g *graph) trace(c component) []geometry.Point2D {
	start := c.nodes[0]
	for _, n := range c.nodes {
		if n < start {
			start = n
		}
	}
	pts := []geometry.Point2D{g.nodes[start]}
	prev, cur := start, g.neighbors(start)[0]
	for cur != start {
		pts = append(pts, g.nodes[cur])
		nb := g.neighbors(cur)
		next := nb[0]
		if next == prev {
			next = nb[1]
		}
		prev, cur = cur, next
	}
	return pts
}

// faces walks every face of a component, keeping the face on the left of
// each step. Bounded faces come out counter-clockwise and the one unbounded
// face clockwise.
func (g *graph) faces(c component) [][]int {
	nodes := slices.Sorted(slices.Values(c.nodes))
	around := make(map[int][]int, len(nodes))
	for _, n := range nodes {
		nb := g.neighbors(n)
		p := g.nodes[n]
		sort.Slice(nb, func(i, j int) bool {
			a, b := g.nodes[nb[i]].Sub(p), g.nodes[nb[j]].Sub(p)
			return math.Atan2(a.Y, a.X) < math.Atan2(b.Y, b.X)
		})
		around[n] = nb
	}

	type half struct{ from, to int }
	seen := make(map[half]bool)
	var out [][]int
	for _, n := range nodes {
		for _, m := range around[n] {
			if seen[half{n, m}] {
				continue
			}
			var face []int
			u, v := n, m
			for !seen[half{u, v}] {
				seen[half{u, v}] = true
				face = append(face, u)
				// Turn onto the edge that follows the way back clockwise
				nb := around[v]
				i := slices.Index(nb, u)
				u, v = v, nb[(i+len(nb)-1)%len(nb)]
			}
			out = append(out, face)
		}
	}
	return out
}

// edges returns the live edges between nodes of c
func (g *graph) edges(c component) []edgeKey {
	var out []edgeKey
	for _, n := range c.nodes {
		for _, m := range g.neighbors(n) {
			if n < m {
				out = append(out, keyOf(n, m))
			}
		}
	}
	return out
}

func (g *graph) points(ids []int) []geometry.Point2D {
	pts := make([]geometry.Point2D, len(ids))
	for i, id := range ids {
		pts[i] = g.nodes[id]
	}
	return pts
}
