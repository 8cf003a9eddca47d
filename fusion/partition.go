package fusion

import (
	"fmt"
	"strings"

	"github.com/kbukum/powerflow/dag"
	"github.com/kbukum/powerflow/stage"
)

// Unit is one executable unit: a single stage or a set of fused stages.
type Unit struct {
	// Name is the stage names joined with "+".
	Name string
	// Stages in declaration order.
	Stages []string
	// Reasons explains each fusion, empty for single stage units.
	Reasons []string
}

// Contains reports whether the unit runs the named stage.
func (u Unit) Contains(name string) bool {
	for _, s := range u.Stages {
		if s == name {
			return true
		}
	}
	return false
}

// Fused reports whether the unit holds more than one stage.
func (u Unit) Fused() bool { return len(u.Stages) > 1 }

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union keeps the smaller index as root so roots follow declaration order.
func (uf *unionFind) union(a, b int) bool {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return false
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	return true
}

// Partition groups the stages of def into executable units.
//
// Two stages are fused when the consumer requires an artifact whose
// (producer, kind) the table marks non-reloadable, or when either declares
// must-fuse-with the other. A stage lying on a dependency path between two
// members of a unit joins that unit, so units never depend on themselves
// through an outside stage. Units are ordered by their first stage.
func Partition(def *stage.Definition, table *Table) ([]Unit, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	n := len(def.Stages)
	uf := newUnionFind(n)
	reasons := make(map[int][]string)
	note := func(a, b int, why string) {
		uf.union(a, b)
		reasons[a] = append(reasons[a], why)
	}

	for i := range def.Stages {
		st := &def.Stages[i]
		for _, ref := range st.Requires {
			a, _ := def.Artifact(ref)
			if table.NonReloadable(ref.Stage, a.Kind) {
				note(i, def.Index(ref.Stage), fmt.Sprintf(
					"%s requires %s: %s from %s is non-reloadable", st.Name, ref, a.Kind, ref.Stage))
			}
		}
		if !st.Fusion.IsIndependent() {
			note(i, def.Index(st.Fusion.FuseWith), fmt.Sprintf("%s is %s", st.Name, st.Fusion))
		}
	}

	reach := reachability(def)
	for changed := true; changed; {
		changed = false
		for x := 0; x < n; x++ {
			for a := 0; a < n && !changed; a++ {
				if !reach[a][x] || uf.find(a) == uf.find(x) {
					continue
				}
				for b := 0; b < n; b++ {
					if reach[x][b] && uf.find(a) == uf.find(b) {
						note(x, a, fmt.Sprintf("%s lies between %s and %s", def.Stages[x].Name, def.Stages[a].Name, def.Stages[b].Name))
						changed = true
						break
					}
				}
			}
		}
	}

	byRoot := make(map[int]int)
	var units []Unit
	for i := range def.Stages {
		root := uf.find(i)
		idx, ok := byRoot[root]
		if !ok {
			idx = len(units)
			byRoot[root] = idx
			units = append(units, Unit{})
		}
		units[idx].Stages = append(units[idx].Stages, def.Stages[i].Name)
		units[idx].Reasons = append(units[idx].Reasons, reasons[i]...)
	}
	for i := range units {
		units[i].Name = strings.Join(units[i].Stages, "+")
	}
	return units, nil
}

// reachability returns reach[a][b]: b transitively depends on a.
func reachability(def *stage.Definition) [][]bool {
	n := len(def.Stages)
	reach := make([][]bool, n)
	for i := range reach {
		reach[i] = make([]bool, n)
	}
	for i := range def.Stages {
		for _, dep := range def.Dependencies(def.Stages[i].Name) {
			reach[def.Index(dep)][i] = true
		}
	}
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !reach[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if reach[k][j] {
					reach[i][j] = true
				}
			}
		}
	}
	return reach
}

// UnitOf maps every stage name to the index of its unit.
func UnitOf(units []Unit) map[string]int {
	m := make(map[string]int)
	for i, u := range units {
		for _, s := range u.Stages {
			m[s] = i
		}
	}
	return m
}

// Graph returns the dependency graph between units, named by unit name.
func Graph(def *stage.Definition, units []Unit) *dag.Graph {
	unitOf := UnitOf(units)
	g := &dag.Graph{}
	for _, u := range units {
		g.Nodes = append(g.Nodes, u.Name)
	}
	for i := range def.Stages {
		to := unitOf[def.Stages[i].Name]
		for _, dep := range def.Dependencies(def.Stages[i].Name) {
			if from := unitOf[dep]; from != to {
				g.AddEdge(units[from].Name, units[to].Name)
			}
		}
	}
	return g
}
