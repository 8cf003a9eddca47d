package stage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/powerflow/errors"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		in      string
		want    Classification
		wantErr bool
	}{
		{"", Independent, false},
		{"independent", Independent, false},
		{"must-fuse-with:report_power", MustFuseWith("report_power"), false},
		{"must-fuse-with: compute_power ", MustFuseWith("compute_power"), false},
		{"must-fuse-with:", Classification{}, true},
		{"sometimes", Classification{}, true},
	}
	for _, tt := range tests {
		got, err := ParseClassification(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClassification(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClassification(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalValidates(t *testing.T) {
	def := Canonical()
	if err := def.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	want := []string{"init_design", "synthesize_design", "read_stimulus", "compute_power", "report_power"}
	got := def.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestDependencies(t *testing.T) {
	def := Canonical()
	deps := def.Dependencies("report_power")
	if strings.Join(deps, ",") != "compute_power,read_stimulus" {
		t.Errorf("Dependencies(report_power) = %v", deps)
	}
	if deps := def.Dependencies("init_design"); len(deps) != 0 {
		t.Errorf("Dependencies(init_design) = %v, want none", deps)
	}
	if deps := def.Dependencies("missing"); deps != nil {
		t.Errorf("Dependencies(missing) = %v, want nil", deps)
	}
}

func TestConsumers(t *testing.T) {
	def := Canonical()
	got := def.Consumers(ArtifactRef{Stage: "read_stimulus", Name: ArtifactStimulus})
	if strings.Join(got, ",") != "compute_power,report_power" {
		t.Errorf("Consumers() = %v", got)
	}
}

func TestWithRunDir(t *testing.T) {
	def := Canonical()
	def.Stages[4].Produces[0].Path = "out/reports"
	got := def.WithRunDir("/runs/a")

	if p := got.Stages[0].Produces[0].Path; p != filepath.Join("/runs/a", "db", "init_design.design") {
		t.Errorf("design path = %q", p)
	}
	if p := got.Stages[4].Produces[0].Path; p != filepath.Join("/runs/a", "out/reports") {
		t.Errorf("report path = %q", p)
	}
	if def.Stages[0].Produces[0].Path != "" {
		t.Error("WithRunDir mutated the original definition")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		def   Definition
		field string
	}{
		{
			name:  "empty",
			def:   Definition{},
			field: "stages",
		},
		{
			name: "duplicate stage",
			def: Definition{Stages: []Stage{
				{Name: "a"}, {Name: "a"},
			}},
			field: "stages[1].name",
		},
		{
			name: "unknown dependency",
			def: Definition{Stages: []Stage{
				{Name: "a", DependsOn: []string{"ghost"}},
			}},
			field: "stages[0].depends_on[0]",
		},
		{
			name: "missing artifact",
			def: Definition{Stages: []Stage{
				{Name: "a"},
				{Name: "b", Requires: []ArtifactRef{{Stage: "a", Name: "db"}}},
			}},
			field: "stages[1].requires[0]",
		},
		{
			name: "duplicate artifact",
			def: Definition{Stages: []Stage{
				{Name: "a", Produces: []Artifact{
					{Name: "db", Kind: KindDesignDB},
					{Name: "db", Kind: KindPowerDB},
				}},
			}},
			field: "stages[0].produces[1].name",
		},
		{
			name: "unknown kind",
			def: Definition{Stages: []Stage{
				{Name: "a", Produces: []Artifact{{Name: "db", Kind: "tarball"}}},
			}},
			field: "stages[0].produces[0].kind",
		},
		{
			name: "shared path",
			def: Definition{Stages: []Stage{
				{Name: "a", Produces: []Artifact{{Name: "x", Kind: KindReport, Path: "/tmp/r"}}},
				{Name: "b", Produces: []Artifact{{Name: "y", Kind: KindReport, Path: "/tmp/r"}}},
			}},
			field: "stages[1].produces[0].path",
		},
		{
			name: "fuse with unknown",
			def: Definition{Stages: []Stage{
				{Name: "a", Fusion: MustFuseWith("ghost")},
			}},
			field: "stages[0].fusion",
		},
		{
			name: "custom without commands",
			def: Definition{Stages: []Stage{
				{Name: "a", Operation: OpCustom},
			}},
			field: "stages[0].commands",
		},
		{
			name: "cycle",
			def: Definition{Stages: []Stage{
				{Name: "a", DependsOn: []string{"b"}},
				{Name: "b", DependsOn: []string{"a"}},
			}},
			field: "stages",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.HasCode(err, errors.ErrCodeConfiguration) {
				t.Fatalf("error code = %v, want configuration", err)
			}
			appErr, _ := errors.AsAppError(err)
			fields, _ := appErr.Details["fields"].([]errors.FieldProblem)
			for _, f := range fields {
				if f.Field == tt.field {
					return
				}
			}
			t.Errorf("no problem reported for %q: %v", tt.field, fields)
		})
	}
}

func TestParseYAML(t *testing.T) {
	src := `
name: split
stages:
  - name: init_design
    operation: init_design
    produces:
      - {name: design, kind: design-database}
  - name: report_power
    operation: report_power
    requires:
      - {stage: init_design, name: design}
    fusion: must-fuse-with:init_design
`
	def, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := def.Stages[1].Fusion; got != MustFuseWith("init_design") {
		t.Errorf("fusion = %v", got)
	}
	if _, err := Parse([]byte("stages:\n  - name: a\n    colour: red\n")); err == nil {
		t.Error("expected unknown field to be rejected")
	}
}

func TestMarshalRoundTripKeepsFusion(t *testing.T) {
	def := Canonical()
	def.Stages[3].Fusion = MustFuseWith("read_stimulus")
	data, err := Marshal(def)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	if !strings.Contains(string(data), "must-fuse-with:read_stimulus") {
		t.Errorf("marshalled definition lacks fusion class:\n%s", data)
	}
}
