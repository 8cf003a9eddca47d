package emit

import (
	"path/filepath"
	"strconv"

	"github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/fusion"
	"github.com/kbukum/powerflow/stage"
)

// Emitter turns stages and units into commands.
type Emitter struct {
	def         *stage.Definition
	in          *Inputs
	registry    *Registry
	checkpoints Checkpoints
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithRegistry replaces the built-in operations.
func WithRegistry(r *Registry) Option {
	return func(e *Emitter) { e.registry = r }
}

// WithCheckpoints replaces the checkpoint commands.
func WithCheckpoints(c Checkpoints) Option {
	return func(e *Emitter) { e.checkpoints = c }
}

// New creates an Emitter for def. Artifact paths are taken from def, so it
// should already be placed under a run directory.
func New(def *stage.Definition, in *Inputs, opts ...Option) *Emitter {
	e := &Emitter{
		def:         def,
		in:          in,
		registry:    DefaultRegistry(),
		checkpoints: DefaultCheckpoints(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stage emits the commands of one stage.
func (e *Emitter) Stage(st *stage.Stage) ([]Command, error) {
	op := st.OperationOf()
	fn, ok := e.registry.Get(op)
	if !ok {
		return nil, errors.Emission(st.Name, "", "no emitter for operation "+strconv.Quote(string(op)))
	}
	if e.in == nil && op != stage.OpCustom {
		return nil, errors.Emission(st.Name, "", "no design inputs")
	}
	return fn(e, st)
}

// Unit emits the full command list of one executable unit: the global
// settings, loads of every database consumed from outside the unit, the
// commands of each stage in unit order, then saves of every database the
// unit produces for a stage outside it.
func (e *Emitter) Unit(u fusion.Unit) ([]Command, error) {
	cmds := e.prologue()

	loaded := make(map[stage.ArtifactRef]bool)
	for _, name := range u.Stages {
		st, ok := e.def.Stage(name)
		if !ok {
			return nil, errors.Emission(name, "", "stage is not defined")
		}
		for _, ref := range st.Requires {
			if u.Contains(ref.Stage) || loaded[ref] {
				continue
			}
			loaded[ref] = true
			load, err := e.load(st, ref)
			if err != nil {
				return nil, err
			}
			if load != nil {
				cmds = append(cmds, *load)
			}
		}
	}

	for _, name := range u.Stages {
		st, _ := e.def.Stage(name)
		stageCmds, err := e.Stage(st)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, stageCmds...)
	}

	for _, name := range u.Stages {
		st, _ := e.def.Stage(name)
		for _, a := range st.Produces {
			if !e.consumedOutside(u, st.Ref(a.Name)) {
				continue
			}
			save, err := e.save(st, a)
			if err != nil {
				return nil, err
			}
			cmds = append(cmds, save...)
		}
	}
	return cmds, nil
}

func (e *Emitter) prologue() []Command {
	s := e.in.settingsOrDefault()
	threads := strconv.Itoa(s.MaxThreads)
	return []Command{
		{Verb: "set_multi_cpu_usage", Args: []string{"-local_cpu", threads}},
		{Verb: "set_db", Args: []string{"auto_super_thread", "1"}},
		{Verb: "set_db", Args: []string{"max_cpus_per_server", threads}},
		{Verb: "set_db", Args: []string{"max_frame_count", strconv.Itoa(s.MaxFrameCount)}},
	}
}

func (in *Inputs) settingsOrDefault() Settings {
	s := DefaultSettings()
	if in == nil {
		return s
	}
	if in.Settings.MaxThreads > 0 {
		s.MaxThreads = in.Settings.MaxThreads
	}
	if in.Settings.MaxFrameCount > 0 {
		s.MaxFrameCount = in.Settings.MaxFrameCount
	}
	return s
}

// load returns nil for file artifacts, which need no loading.
func (e *Emitter) load(consumer *stage.Stage, ref stage.ArtifactRef) (*Command, error) {
	a, ok := e.def.Artifact(ref)
	if !ok {
		return nil, errors.Emission(consumer.Name, ref.String(), "artifact is not declared")
	}
	if a.Path == "" {
		return nil, errors.Emission(consumer.Name, ref.String(), "artifact has no path")
	}
	if !a.Kind.IsDatabase() {
		return nil, nil
	}
	cp, ok := e.checkpoints[a.Kind]
	if !ok || cp.Load == nil {
		return nil, errors.Emission(consumer.Name, ref.String(), string(a.Kind)+" cannot be loaded into a new session")
	}
	c := cp.Load(a.Path)
	c.Stage = consumer.Name
	return &c, nil
}

func (e *Emitter) save(producer *stage.Stage, a stage.Artifact) ([]Command, error) {
	ref := producer.Ref(a.Name)
	if a.Path == "" {
		return nil, errors.Emission(producer.Name, ref.String(), "artifact has no path")
	}
	if !a.Kind.IsDatabase() {
		return nil, nil
	}
	cp, ok := e.checkpoints[a.Kind]
	if !ok || cp.Save == nil {
		return nil, errors.Emission(producer.Name, ref.String(), string(a.Kind)+" cannot be saved")
	}
	c := cp.Save(a.Path)
	c.Stage = producer.Name
	return []Command{
		cmd(producer.Name, "file", "mkdir", word(filepath.Dir(a.Path))),
		c,
	}, nil
}

func (e *Emitter) consumedOutside(u fusion.Unit, ref stage.ArtifactRef) bool {
	for _, c := range e.def.Consumers(ref) {
		if !u.Contains(c) {
			return true
		}
	}
	return false
}
