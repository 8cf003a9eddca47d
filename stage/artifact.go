package stage

import "fmt"

// Kind is the type of an artifact.
type Kind string

const (
	KindDesignDB   Kind = "design-database"
	KindStimulusDB Kind = "stimulus-database"
	KindPowerDB    Kind = "power-database"
	KindReport     Kind = "report"
	KindFrameInfo  Kind = "frame-info"
)

// Kinds lists every recognized artifact kind.
var Kinds = []Kind{KindDesignDB, KindStimulusDB, KindPowerDB, KindReport, KindFrameInfo}

// IsKnown reports whether k is a recognized kind.
func (k Kind) IsKnown() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsDatabase reports whether the kind lives inside the tool session rather
// than as a plain output file.
func (k Kind) IsDatabase() bool {
	return k == KindDesignDB || k == KindStimulusDB || k == KindPowerDB
}

// Artifact is a named, typed output of a stage.
type Artifact struct {
	Name string `yaml:"name" json:"name"`
	Kind Kind   `yaml:"kind" json:"kind"`
	// Path is where the artifact is persisted. Filled from the run directory
	// when left empty in a definition.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// ArtifactRef identifies an artifact by its producing stage and logical name.
type ArtifactRef struct {
	Stage string `yaml:"stage" json:"stage"`
	Name  string `yaml:"name" json:"name"`
}

func (r ArtifactRef) String() string {
	return fmt.Sprintf("%s/%s", r.Stage, r.Name)
}

// Produced is an artifact together with the stage that produced it.
type Produced struct {
	Ref  ArtifactRef `yaml:"ref" json:"ref"`
	Kind Kind        `yaml:"kind" json:"kind"`
	Path string      `yaml:"path,omitempty" json:"path,omitempty"`
}
