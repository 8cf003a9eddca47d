package stage

import (
	"fmt"
	"path/filepath"

	"github.com/kbukum/powerflow/dag"
	"github.com/kbukum/powerflow/validation"
)

// Definition is an ordered list of stages forming one flow.
type Definition struct {
	Name   string  `yaml:"name"`
	Stages []Stage `yaml:"stages"`
}

// Names returns stage names in declaration order.
func (d *Definition) Names() []string {
	names := make([]string, len(d.Stages))
	for i := range d.Stages {
		names[i] = d.Stages[i].Name
	}
	return names
}

// Index returns the declaration index of a stage, or -1.
func (d *Definition) Index(name string) int {
	for i := range d.Stages {
		if d.Stages[i].Name == name {
			return i
		}
	}
	return -1
}

// Stage looks a stage up by name.
func (d *Definition) Stage(name string) (*Stage, bool) {
	if i := d.Index(name); i >= 0 {
		return &d.Stages[i], true
	}
	return nil, false
}

// Artifact resolves a reference to the declared artifact.
func (d *Definition) Artifact(ref ArtifactRef) (Artifact, bool) {
	st, ok := d.Stage(ref.Stage)
	if !ok {
		return Artifact{}, false
	}
	return st.Output(ref.Name)
}

// Dependencies returns the effective dependencies of a stage: its declared
// DependsOn followed by the producer of every required artifact, deduplicated.
func (d *Definition) Dependencies(name string) []string {
	st, ok := d.Stage(name)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var deps []string
	add := func(n string) {
		if n == name || seen[n] {
			return
		}
		seen[n] = true
		deps = append(deps, n)
	}
	for _, dep := range st.DependsOn {
		add(dep)
	}
	for _, ref := range st.Requires {
		add(ref.Stage)
	}
	return deps
}

// Consumers returns the stages that require ref, in declaration order.
func (d *Definition) Consumers(ref ArtifactRef) []string {
	var out []string
	for i := range d.Stages {
		for _, r := range d.Stages[i].Requires {
			if r == ref {
				out = append(out, d.Stages[i].Name)
				break
			}
		}
	}
	return out
}

// Graph returns the stage dependency graph.
func (d *Definition) Graph() *dag.Graph {
	g := &dag.Graph{Nodes: d.Names()}
	for i := range d.Stages {
		for _, dep := range d.Dependencies(d.Stages[i].Name) {
			g.AddEdge(dep, d.Stages[i].Name)
		}
	}
	return g
}

// WithRunDir returns a copy of the definition where artifacts without a path
// are placed under runDir, and relative paths are made relative to runDir.
func (d *Definition) WithRunDir(runDir string) *Definition {
	out := &Definition{Name: d.Name, Stages: make([]Stage, len(d.Stages))}
	for i, st := range d.Stages {
		cp := st
		cp.DependsOn = append([]string(nil), st.DependsOn...)
		cp.Requires = append([]ArtifactRef(nil), st.Requires...)
		cp.Commands = append([]string(nil), st.Commands...)
		cp.Produces = make([]Artifact, len(st.Produces))
		for j, a := range st.Produces {
			switch {
			case a.Path == "":
				a.Path = defaultPath(runDir, st.Name, a)
			case !filepath.IsAbs(a.Path):
				a.Path = filepath.Join(runDir, a.Path)
			}
			cp.Produces[j] = a
		}
		out.Stages[i] = cp
	}
	return out
}

func defaultPath(runDir, stageName string, a Artifact) string {
	if a.Kind.IsDatabase() {
		return filepath.Join(runDir, "db", fmt.Sprintf("%s.%s", stageName, a.Name))
	}
	return filepath.Join(runDir, stageName, a.Name)
}

// Validate checks names, references, artifact identity and acyclicity.
// Every problem is reported as one configuration error.
func (d *Definition) Validate() error {
	v := validation.New()
	if len(d.Stages) == 0 {
		v.AddError("stages", "at least one stage is required")
		return v.Err()
	}

	names := make(map[string]bool, len(d.Stages))
	for i := range d.Stages {
		st := &d.Stages[i]
		field := fmt.Sprintf("stages[%d]", i)
		v.Required(field+".name", st.Name)
		if st.Name != "" && names[st.Name] {
			v.AddError(field+".name", fmt.Sprintf("duplicate stage %q", st.Name))
		}
		names[st.Name] = true
	}

	paths := make(map[string]ArtifactRef)
	for i := range d.Stages {
		st := &d.Stages[i]
		field := fmt.Sprintf("stages[%d]", i)

		for j, dep := range st.DependsOn {
			f := fmt.Sprintf("%s.depends_on[%d]", field, j)
			switch {
			case dep == st.Name:
				v.AddError(f, "stage cannot depend on itself")
			case !names[dep]:
				v.AddError(f, fmt.Sprintf("unknown stage %q", dep))
			}
		}

		for j, ref := range st.Requires {
			f := fmt.Sprintf("%s.requires[%d]", field, j)
			if ref.Stage == st.Name {
				v.AddError(f, "stage cannot require its own output")
				continue
			}
			if _, ok := d.Artifact(ref); !ok {
				v.AddError(f, fmt.Sprintf("no stage produces %s", ref))
			}
		}

		outputs := make(map[string]bool)
		for j, a := range st.Produces {
			f := fmt.Sprintf("%s.produces[%d]", field, j)
			v.Required(f+".name", a.Name)
			if outputs[a.Name] {
				v.AddError(f+".name", fmt.Sprintf("duplicate artifact %q", a.Name))
			}
			outputs[a.Name] = true
			if !a.Kind.IsKnown() {
				v.AddError(f+".kind", fmt.Sprintf("unknown artifact kind %q", a.Kind))
			}
			if a.Path != "" {
				ref := st.Ref(a.Name)
				if owner, taken := paths[a.Path]; taken {
					v.AddError(f+".path", fmt.Sprintf("path %s already produced by %s", a.Path, owner))
				}
				paths[a.Path] = ref
			}
		}

		if !st.Fusion.IsIndependent() {
			f := field + ".fusion"
			switch {
			case st.Fusion.FuseWith == st.Name:
				v.AddError(f, "stage cannot fuse with itself")
			case !names[st.Fusion.FuseWith]:
				v.AddError(f, fmt.Sprintf("unknown stage %q", st.Fusion.FuseWith))
			}
		}

		if st.Operation == OpCustom && len(st.Commands) == 0 {
			v.AddError(field+".commands", "custom stages need at least one command")
		}
	}

	if v.HasErrors() {
		return v.Err()
	}
	if _, err := dag.Sort(d.Graph()); err != nil {
		v.AddError("stages", err.Error())
	}
	return v.Err()
}

// OperationOf returns the stage operation, defaulting to the stage name.
func (s *Stage) OperationOf() Operation {
	if s.Operation != "" {
		return s.Operation
	}
	return Operation(s.Name)
}
