package flow

import (
	"sort"

	"github.com/kbukum/powerflow/dag"
	"github.com/kbukum/powerflow/emit"
	"github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/executor"
	"github.com/kbukum/powerflow/fusion"
	"github.com/kbukum/powerflow/stage"
)

// Request is one flow invocation.
type Request struct {
	Definition *stage.Definition
	// Inputs carries design, stimuli and resolved reports. May be nil when
	// every stage is custom.
	Inputs *emit.Inputs
	// Table is the tool limitation table. Nil means fusion.DefaultTable.
	Table *fusion.Table
	// RunDir fills artifact paths left empty in the definition.
	RunDir string
}

// Plan is the fully planned flow: units in execution order with their
// commands, or the emission error that will fail the unit when reached.
type Plan struct {
	Definition *stage.Definition
	Units      []UnitPlan
	// deps maps a unit name to the names of the units it depends on.
	deps  map[string][]string
	graph *dag.Graph
}

// UnitPlan is the plan of one unit.
type UnitPlan struct {
	*executor.Plan
	// EmitErr is set when the unit's commands could not be emitted.
	EmitErr error
}

// Unit returns the plan of the named unit.
func (p *Plan) Unit(name string) (UnitPlan, bool) {
	for _, u := range p.Units {
		if u.Unit.Name == name {
			return u, true
		}
	}
	return UnitPlan{}, false
}

// Dependencies returns the units the named unit depends on, in execution order.
func (p *Plan) Dependencies(name string) []string {
	return p.deps[name]
}

// Levels groups unit names by dependency level.
func (p *Plan) Levels() ([][]string, error) {
	return dag.BuildLevels(p.graph)
}

// Downstream returns every unit that cannot run if the named unit fails.
func (p *Plan) Downstream(name string) ([]string, error) {
	return dag.Descendants(p.graph, name)
}

// Build validates the request and plans every unit. Configuration problems are
// returned as errors; emission problems are recorded per unit.
func Build(req Request, opts ...emit.Option) (*Plan, error) {
	if req.Definition == nil {
		return nil, errors.Configuration("stages", "flow definition is required")
	}
	if err := req.Definition.Validate(); err != nil {
		return nil, err
	}
	table := req.Table
	if table == nil {
		table = fusion.DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if req.Inputs == nil {
		for _, st := range req.Definition.Stages {
			if st.OperationOf() != stage.OpCustom {
				return nil, errors.Configuration("inputs", "stage "+st.Name+" needs design and stimulus inputs")
			}
		}
	}

	def := req.Definition
	if req.RunDir != "" {
		def = def.WithRunDir(req.RunDir)
	}

	units, err := fusion.Partition(def, table)
	if err != nil {
		return nil, err
	}
	g := fusion.Graph(def, units)
	order, err := dag.Sort(g)
	if err != nil {
		return nil, errors.Configuration("stages", err.Error())
	}

	byName := make(map[string]fusion.Unit, len(units))
	for _, u := range units {
		byName[u.Name] = u
	}
	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}

	plan := &Plan{Definition: def, deps: make(map[string][]string), graph: g}
	seen := make(map[dag.Edge]bool)
	for _, e := range g.Edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		plan.deps[e.To] = append(plan.deps[e.To], e.From)
	}
	for to, deps := range plan.deps {
		sortByPosition(deps, position)
		plan.deps[to] = deps
	}

	emitter := emit.New(def, req.Inputs, opts...)
	for _, name := range order {
		u := byName[name]
		up := UnitPlan{Plan: &executor.Plan{
			Unit:     u,
			Requires: requires(def, u),
			Produces: produces(def, u),
		}}
		up.Commands, up.EmitErr = emitter.Unit(u)
		plan.Units = append(plan.Units, up)
	}
	return plan, nil
}

func sortByPosition(names []string, position map[string]int) {
	sort.Slice(names, func(i, j int) bool { return position[names[i]] < position[names[j]] })
}

// requires lists artifacts consumed by the unit but produced outside it.
func requires(def *stage.Definition, u fusion.Unit) []stage.Produced {
	var out []stage.Produced
	seen := make(map[stage.ArtifactRef]bool)
	for _, name := range u.Stages {
		st, _ := def.Stage(name)
		for _, ref := range st.Requires {
			if u.Contains(ref.Stage) || seen[ref] {
				continue
			}
			seen[ref] = true
			a, _ := def.Artifact(ref)
			out = append(out, stage.Produced{Ref: ref, Kind: a.Kind, Path: a.Path})
		}
	}
	return out
}

// produces lists every artifact declared by the unit's stages.
func produces(def *stage.Definition, u fusion.Unit) []stage.Produced {
	var out []stage.Produced
	for _, name := range u.Stages {
		st, _ := def.Stage(name)
		for _, a := range st.Produces {
			out = append(out, stage.Produced{Ref: st.Ref(a.Name), Kind: a.Kind, Path: a.Path})
		}
	}
	return out
}
