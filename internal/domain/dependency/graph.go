// Package dependency implements the task dependency graph: a directed
// acyclic graph whose edges point from a prerequisite task to the task that
// depends on it.
//
// Graph is not safe for concurrent use. Callers serialize access (see
// service.Scheduler).
package dependency

import (
	"cmp"
	"container/heap"
	"fmt"
	"slices"

	"github.com/Strob0t/TaskMate/internal/domain"
)

// Edge is a directed dependency: To cannot start before From is done.
type Edge struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func compareEdges(a, b Edge) int {
	return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
}

// Graph is an adjacency-list DAG keyed by task id.
type Graph struct {
	nodes map[int64]struct{}
	out   map[int64]map[int64]struct{}
	in    map[int64]map[int64]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[int64]struct{}),
		out:   make(map[int64]map[int64]struct{}),
		in:    make(map[int64]map[int64]struct{}),
	}
}

// Build creates a graph from the live task ids and a persisted edge set.
// It fails if an edge references a missing task or the edges contain a cycle.
func Build(taskIDs []int64, edges []Edge) (*Graph, error) {
	g := New()
	for _, id := range taskIDs {
		g.AddNode(id)
	}
	for _, e := range edges {
		if _, err := g.AddEdge(e.From, e.To); err != nil {
			return nil, fmt.Errorf("edge %d->%d: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// AddNode registers a live task. Adding an existing node is a no-op.
func (g *Graph) AddNode(id int64) {
	g.nodes[id] = struct{}{}
}

// HasNode reports whether id is a live task.
func (g *Graph) HasNode(id int64) bool {
	_, ok := g.nodes[id]
	return ok
}

// RemoveNode drops a task and every edge incident to it. It returns the
// removed edges in (From, To) order.
func (g *Graph) RemoveNode(id int64) []Edge {
	if !g.HasNode(id) {
		return nil
	}
	var removed []Edge
	for to := range g.out[id] {
		delete(g.in[to], id)
		removed = append(removed, Edge{From: id, To: to})
	}
	for from := range g.in[id] {
		delete(g.out[from], id)
		removed = append(removed, Edge{From: from, To: id})
	}
	delete(g.out, id)
	delete(g.in, id)
	delete(g.nodes, id)
	slices.SortFunc(removed, compareEdges)
	return removed
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to int64) bool {
	_, ok := g.out[from][to]
	return ok
}

// AddEdge inserts prerequisite -> dependent. It reports whether the edge was
// new; inserting an existing edge is a no-op. On error the graph is unchanged.
func (g *Graph) AddEdge(prerequisite, dependent int64) (bool, error) {
	if prerequisite == dependent {
		return false, domain.ErrSelfDependency
	}
	if !g.HasNode(prerequisite) {
		return false, fmt.Errorf("%w: %d", domain.ErrUnknownTask, prerequisite)
	}
	if !g.HasNode(dependent) {
		return false, fmt.Errorf("%w: %d", domain.ErrUnknownTask, dependent)
	}
	if g.HasEdge(prerequisite, dependent) {
		return false, nil
	}
	// The new edge closes a cycle iff the prerequisite is already reachable
	// from the dependent.
	if g.Reachable(dependent, prerequisite) {
		return false, fmt.Errorf("%w: %d already depends on %d", domain.ErrCycleDetected, prerequisite, dependent)
	}

	if g.out[prerequisite] == nil {
		g.out[prerequisite] = make(map[int64]struct{})
	}
	if g.in[dependent] == nil {
		g.in[dependent] = make(map[int64]struct{})
	}
	g.out[prerequisite][dependent] = struct{}{}
	g.in[dependent][prerequisite] = struct{}{}
	return true, nil
}

// RemoveEdge deletes prerequisite -> dependent and reports whether it existed.
func (g *Graph) RemoveEdge(prerequisite, dependent int64) bool {
	if !g.HasEdge(prerequisite, dependent) {
		return false
	}
	delete(g.out[prerequisite], dependent)
	delete(g.in[dependent], prerequisite)
	if len(g.out[prerequisite]) == 0 {
		delete(g.out, prerequisite)
	}
	if len(g.in[dependent]) == 0 {
		delete(g.in, dependent)
	}
	return true
}

// Reachable reports whether to can be reached from from by following edges.
// A node reaches itself.
func (g *Graph) Reachable(from, to int64) bool {
	if from == to {
		return true
	}
	visited := map[int64]bool{from: true}
	stack := []int64{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.out[n] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// Nodes returns all task ids in ascending order.
func (g *Graph) Nodes() []int64 {
	ids := make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Edges returns every edge sorted by (From, To).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.EdgeCount())
	for from, tos := range g.out {
		for to := range tos {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	slices.SortFunc(edges, compareEdges)
	return edges
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, tos := range g.out {
		n += len(tos)
	}
	return n
}

// Prerequisites returns the direct prerequisites of id, ascending.
func (g *Graph) Prerequisites(id int64) []int64 {
	return sortedKeys(g.in[id])
}

// Dependents returns the tasks that directly depend on id, ascending.
func (g *Graph) Dependents(id int64) []int64 {
	return sortedKeys(g.out[id])
}

// Impact returns every task transitively reachable from id, ascending.
// The task itself is not included.
func (g *Graph) Impact(id int64) ([]int64, error) {
	if !g.HasNode(id) {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownTask, id)
	}
	seen := map[int64]bool{id: true}
	queue := []int64{id}
	result := []int64{}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for next := range g.out[n] {
			if seen[next] {
				continue
			}
			seen[next] = true
			result = append(result, next)
			queue = append(queue, next)
		}
	}
	slices.Sort(result)
	return result, nil
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := New()
	for id := range g.nodes {
		c.nodes[id] = struct{}{}
	}
	for from, tos := range g.out {
		c.out[from] = make(map[int64]struct{}, len(tos))
		for to := range tos {
			c.out[from][to] = struct{}{}
		}
	}
	for to, froms := range g.in {
		c.in[to] = make(map[int64]struct{}, len(froms))
		for from := range froms {
			c.in[to][from] = struct{}{}
		}
	}
	return c
}

func sortedKeys(m map[int64]struct{}) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// idHeap is a min-heap of task ids used to pick the smallest ready node.
type idHeap []int64

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(int64)) }
func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

var _ heap.Interface = (*idHeap)(nil)
