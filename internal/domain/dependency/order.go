package dependency

import (
	"container/heap"
	"slices"
)

// TopologicalOrder returns every node in Kahn order. Among nodes that are
// ready at the same time the smallest id comes first.
func (g *Graph) TopologicalOrder() []int64 {
	return g.kahn(g.Nodes())
}

// kahn orders the given subset of nodes. Edges leaving the subset are ignored.
func (g *Graph) kahn(subset []int64) []int64 {
	member := make(map[int64]bool, len(subset))
	for _, id := range subset {
		member[id] = true
	}

	inDegree := make(map[int64]int, len(subset))
	for _, id := range subset {
		for from := range g.in[id] {
			if member[from] {
				inDegree[id]++
			}
		}
	}

	ready := &idHeap{}
	for _, id := range subset {
		if inDegree[id] == 0 {
			heap.Push(ready, id)
		}
	}

	order := make([]int64, 0, len(subset))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int64)
		order = append(order, n)
		for next := range g.out[n] {
			if !member[next] {
				continue
			}
			inDegree[next]--
			if inDegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}
	return order
}

// CriticalPath returns the longest chain of dependent tasks, measured in
// number of tasks. Only nodes incident to at least one edge take part. When
// several chains share the maximum length the lexicographically smallest id
// sequence wins. The result is empty when the graph has no edges.
func (g *Graph) CriticalPath() []int64 {
	var incident []int64
	for _, id := range g.Nodes() {
		if len(g.in[id]) > 0 || len(g.out[id]) > 0 {
			incident = append(incident, id)
		}
	}
	if len(incident) == 0 {
		return []int64{}
	}

	// best[v] is the preferred longest path ending at v.
	best := make(map[int64][]int64, len(incident))
	for _, v := range g.kahn(incident) {
		var pick []int64
		for _, p := range g.Prerequisites(v) {
			if better(best[p], pick) {
				pick = best[p]
			}
		}
		path := make([]int64, len(pick)+1)
		copy(path, pick)
		path[len(pick)] = v
		best[v] = path
	}

	var result []int64
	for _, v := range incident {
		if better(best[v], result) {
			result = best[v]
		}
	}
	return slices.Clone(result)
}

// better reports whether a is longer than b, or equally long and
// lexicographically smaller.
func better(a, b []int64) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return slices.Compare(a, b) < 0
}
