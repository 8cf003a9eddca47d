package stage

import (
	"fmt"
	"strings"
)

// Operation names a built-in stage behavior known to the command emitter.
type Operation string

const (
	OpInitDesign       Operation = "init_design"
	OpSynthesizeDesign Operation = "synthesize_design"
	OpReadStimulus     Operation = "read_stimulus"
	OpComputePower     Operation = "compute_power"
	OpReportPower      Operation = "report_power"
	// OpCustom runs the stage's literal Commands.
	OpCustom Operation = "custom"
)

// Stage is one named step of the flow.
type Stage struct {
	Name      string         `yaml:"name"`
	Operation Operation      `yaml:"operation,omitempty"`
	DependsOn []string       `yaml:"depends_on,omitempty"`
	Requires  []ArtifactRef  `yaml:"requires,omitempty"`
	Produces  []Artifact     `yaml:"produces,omitempty"`
	Fusion    Classification `yaml:"fusion,omitempty"`
	// Commands are literal tool commands for OpCustom stages.
	Commands []string `yaml:"commands,omitempty"`
}

// Output returns the produced artifact with the given name.
func (s *Stage) Output(name string) (Artifact, bool) {
	for _, a := range s.Produces {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// Ref returns the reference for one of the stage's outputs.
func (s *Stage) Ref(name string) ArtifactRef {
	return ArtifactRef{Stage: s.Name, Name: name}
}

const fusePrefix = "must-fuse-with:"

// Classification is a stage's declared fusion class: independent, or
// must-fuse-with another named stage.
type Classification struct {
	FuseWith string
}

// Independent is the default classification.
var Independent = Classification{}

// MustFuseWith returns a classification binding a stage to another.
func MustFuseWith(stage string) Classification {
	return Classification{FuseWith: stage}
}

// IsIndependent reports whether the stage has no declared fusion partner.
func (c Classification) IsIndependent() bool { return c.FuseWith == "" }

func (c Classification) String() string {
	if c.IsIndependent() {
		return "independent"
	}
	return fusePrefix + c.FuseWith
}

// ParseClassification parses "independent" or "must-fuse-with:<stage>".
func ParseClassification(s string) (Classification, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "independent":
		return Independent, nil
	case strings.HasPrefix(s, fusePrefix):
		target := strings.TrimSpace(strings.TrimPrefix(s, fusePrefix))
		if target == "" {
			return Classification{}, fmt.Errorf("fusion classification %q names no stage", s)
		}
		return MustFuseWith(target), nil
	default:
		return Classification{}, fmt.Errorf("unknown fusion classification %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Classification) UnmarshalText(text []byte) error {
	parsed, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
