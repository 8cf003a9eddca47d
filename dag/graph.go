package dag

import (
	"container/heap"
	"fmt"
	"strings"
)

// Graph declares nodes and edges (dependency relationships).
// Nodes keeps declaration order, which is the tie breaker for every ordering.
type Graph struct {
	Nodes []string
	Edges []Edge
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// AddEdge appends a dependency edge.
func (g *Graph) AddEdge(from, to string) {
	g.Edges = append(g.Edges, Edge{From: from, To: to})
}

type indexed struct {
	index      map[string]int
	dependents [][]int
	inDegree   []int
}

func (g *Graph) index() (*indexed, error) {
	ix := &indexed{
		index:      make(map[string]int, len(g.Nodes)),
		dependents: make([][]int, len(g.Nodes)),
		inDegree:   make([]int, len(g.Nodes)),
	}
	for i, name := range g.Nodes {
		if _, dup := ix.index[name]; dup {
			return nil, fmt.Errorf("dag: duplicate node %q", name)
		}
		ix.index[name] = i
	}

	seen := make(map[Edge]bool, len(g.Edges))
	for _, e := range g.Edges {
		from, ok := ix.index[e.From]
		if !ok {
			return nil, fmt.Errorf("dag: edge references unknown node %q", e.From)
		}
		to, ok := ix.index[e.To]
		if !ok {
			return nil, fmt.Errorf("dag: edge references unknown node %q", e.To)
		}
		if from == to {
			return nil, &CycleError{Path: []string{e.From, e.To}}
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		ix.inDegree[to]++
		ix.dependents[from] = append(ix.dependents[from], to)
	}
	return ix, nil
}

// CycleError reports the nodes that could not be ordered.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "dag: cycle detected among " + strings.Join(e.Path, ", ")
}

// Sort returns a topological order of the graph using Kahn's algorithm.
// Among ready nodes the one declared first always goes next, so the result
// is a pure function of the declaration.
func Sort(g *Graph) ([]string, error) {
	ix, err := g.index()
	if err != nil {
		return nil, err
	}

	ready := &intHeap{}
	for i, deg := range ix.inDegree {
		if deg == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]string, 0, len(g.Nodes))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		order = append(order, g.Nodes[n])
		for _, d := range ix.dependents[n] {
			ix.inDegree[d]--
			if ix.inDegree[d] == 0 {
				heap.Push(ready, d)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, &CycleError{Path: remaining(g, ix)}
	}
	return order, nil
}

// BuildLevels groups nodes by dependency level. Nodes within one level do
// not depend on each other; each level keeps declaration order.
func BuildLevels(g *Graph) ([][]string, error) {
	ix, err := g.index()
	if err != nil {
		return nil, err
	}

	var queue []int
	for i, deg := range ix.inDegree {
		if deg == 0 {
			queue = append(queue, i)
		}
	}

	var levels [][]string
	visited := 0
	for len(queue) > 0 {
		level := make([]string, len(queue))
		for i, n := range queue {
			level[i] = g.Nodes[n]
		}
		levels = append(levels, level)
		visited += len(queue)

		next := &intHeap{}
		for _, n := range queue {
			for _, d := range ix.dependents[n] {
				ix.inDegree[d]--
				if ix.inDegree[d] == 0 {
					heap.Push(next, d)
				}
			}
		}
		queue = queue[:0:0]
		for next.Len() > 0 {
			queue = append(queue, heap.Pop(next).(int))
		}
	}

	if visited != len(g.Nodes) {
		return nil, &CycleError{Path: remaining(g, ix)}
	}
	return levels, nil
}

// Descendants returns every node reachable from start, in declaration order.
// start itself is not included.
func Descendants(g *Graph, start string) ([]string, error) {
	ix, err := g.index()
	if err != nil {
		return nil, err
	}
	s, ok := ix.index[start]
	if !ok {
		return nil, fmt.Errorf("dag: unknown node %q", start)
	}

	visited := make([]bool, len(g.Nodes))
	stack := append([]int(nil), ix.dependents[s]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, ix.dependents[n]...)
	}

	var out []string
	for i, v := range visited {
		if v && i != s {
			out = append(out, g.Nodes[i])
		}
	}
	return out, nil
}

func remaining(g *Graph, ix *indexed) []string {
	var out []string
	for i, deg := range ix.inDegree {
		if deg > 0 {
			out = append(out, g.Nodes[i])
		}
	}
	return out
}

type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
