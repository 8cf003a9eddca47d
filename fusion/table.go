package fusion

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/powerflow/stage"
	"github.com/kbukum/powerflow/validation"
)

// AnyStage matches every producing stage.
const AnyStage = "*"

// Limitation marks one (producing stage, artifact kind) pair.
type Limitation struct {
	Stage         string     `yaml:"stage" toml:"stage" mapstructure:"stage"`
	Kind          stage.Kind `yaml:"kind" toml:"kind" mapstructure:"kind"`
	NonReloadable bool       `yaml:"non_reloadable" toml:"non_reloadable" mapstructure:"non_reloadable"`
	Note          string     `yaml:"note,omitempty" toml:"note,omitempty" mapstructure:"note"`
}

// Table is the operator supplied limitation data for one tool version range.
type Table struct {
	Version string       `yaml:"version" toml:"version" mapstructure:"version"`
	Entries []Limitation `yaml:"limitations" toml:"limitations" mapstructure:"limitations"`
}

// DefaultTable describes the stimulus database reload defect: a database
// written with write_sdb errors out when read back with read_sdb.
func DefaultTable() *Table {
	return &Table{
		Version: "joules-21",
		Entries: []Limitation{{
			Stage:         string(stage.OpReadStimulus),
			Kind:          stage.KindStimulusDB,
			NonReloadable: true,
			Note:          "read_sdb fails on databases written by write_sdb",
		}},
	}
}

// NonReloadable reports whether kind produced by stageName cannot survive
// being persisted and reloaded. Exact stage entries win over AnyStage.
func (t *Table) NonReloadable(stageName string, kind stage.Kind) bool {
	if t == nil {
		return false
	}
	wildcard, found := false, false
	for _, e := range t.Entries {
		if e.Kind != kind {
			continue
		}
		switch e.Stage {
		case stageName:
			return e.NonReloadable
		case AnyStage:
			wildcard, found = e.NonReloadable, true
		}
	}
	return found && wildcard
}

// Validate checks every entry names a stage and a known kind.
func (t *Table) Validate() error {
	v := validation.New()
	seen := make(map[string]int)
	for i, e := range t.Entries {
		field := fmt.Sprintf("limitations[%d]", i)
		v.Required(field+".stage", e.Stage)
		if !e.Kind.IsKnown() {
			v.AddError(field+".kind", fmt.Sprintf("unknown artifact kind %q", e.Kind))
		}
		key := e.Stage + "|" + string(e.Kind)
		if prev, dup := seen[key]; dup {
			v.AddError(field, fmt.Sprintf("duplicates limitations[%d]", prev))
		}
		seen[key] = i
	}
	return v.Err()
}

// LoadTable reads a table from a .yaml, .yml or .toml file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fusion: reading %s: %w", path, err)
	}
	var t Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), &t)
		if err != nil {
			return nil, fmt.Errorf("fusion: parsing %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("fusion: %s: unknown keys %v", path, undecoded)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("fusion: parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("fusion: %s: unsupported table format", path)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
