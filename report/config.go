package report

// Default naming values.
const (
	DefaultNaming = "{stem}.{kind}.{ext}"
	DefaultStem   = "power"
)

// Config is the declarative report request.
type Config struct {
	// Dir is the base directory for relative destinations.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Naming is the destination template. Placeholders: {stem}, {kind},
	// {format}, {ext}.
	Naming string `yaml:"naming" mapstructure:"naming"`
	Stem   string `yaml:"stem" mapstructure:"stem"`
	// Formats applies to every kind that does not list its own.
	Formats []string      `yaml:"formats" mapstructure:"formats"`
	Kinds   []KindRequest `yaml:"kinds" mapstructure:"kinds"`
}

// KindRequest asks for one report kind.
type KindRequest struct {
	Kind    string   `yaml:"kind" mapstructure:"kind"`
	Formats []string `yaml:"formats" mapstructure:"formats"`

	Inst      string `yaml:"inst" mapstructure:"inst"`
	Module    string `yaml:"module" mapstructure:"module"`
	Levels    string `yaml:"levels" mapstructure:"levels"`
	PowerType string `yaml:"power_type" mapstructure:"power_type"`
	TclArgs   string `yaml:"tcl_args" mapstructure:"tcl_args"`
	// Command is the tool command run for custom reports.
	Command string `yaml:"command" mapstructure:"command"`
}

// Options carries the per-kind command options onto each resolved spec.
type Options struct {
	Inst      string `json:"inst,omitempty"`
	Module    string `json:"module,omitempty"`
	Levels    string `json:"levels,omitempty"`
	PowerType string `json:"power_type,omitempty"`
	TclArgs   string `json:"tcl_args,omitempty"`
	Command   string `json:"command,omitempty"`
}

func (r KindRequest) options() Options {
	return Options{
		Inst:      r.Inst,
		Module:    r.Module,
		Levels:    r.Levels,
		PowerType: r.PowerType,
		TclArgs:   r.TclArgs,
		Command:   r.Command,
	}
}

// Spec is one concrete report to produce.
type Spec struct {
	Kind        Kind    `json:"kind"`
	Format      Format  `json:"format"`
	Destination string  `json:"destination"`
	Stem        string  `json:"stem"`
	Options     Options `json:"options"`
}

// Key is the deduplication identity of a spec.
type Key struct {
	Kind   Kind
	Format Format
}

// Key returns the spec's identity.
func (s Spec) Key() Key { return Key{Kind: s.Kind, Format: s.Format} }

// RequiresTimeBased reports whether any spec needs frame based analysis.
func RequiresTimeBased(specs []Spec) bool {
	for _, s := range specs {
		if e, ok := Lookup(s.Kind); ok && e.TimeBased {
			return true
		}
	}
	return false
}
