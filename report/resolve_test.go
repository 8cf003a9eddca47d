package report

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kbukum/powerflow/errors"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	problems, _ := appErr.Details["fields"].([]errors.FieldProblem)
	out := make([]string, len(problems))
	for i, p := range problems {
		out[i] = p.Field
	}
	return out
}

func TestResolveTimingPowerCSVJSON(t *testing.T) {
	specs, err := Resolve(Config{
		Formats: []string{"csv", "json"},
		Kinds:   []KindRequest{{Kind: "timing"}, {Kind: "power"}},
	})
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	want := []Key{
		{KindTiming, FormatCSV},
		{KindTiming, FormatJSON},
		{KindPower, FormatCSV},
		{KindPower, FormatJSON},
	}
	if len(specs) != len(want) {
		t.Fatalf("got %d specs, want %d: %+v", len(specs), len(want), specs)
	}
	for i, s := range specs {
		if s.Key() != want[i] {
			t.Errorf("specs[%d] = %v, want %v", i, s.Key(), want[i])
		}
	}
	if specs[0].Destination != "power.timing.csv" {
		t.Errorf("destination = %q", specs[0].Destination)
	}
}

func TestResolveSizeIsProductMinusDuplicates(t *testing.T) {
	tests := []struct {
		name    string
		kinds   []string
		formats []string
		want    int
	}{
		{"single", []string{"power"}, []string{"rpt"}, 1},
		{"product", []string{"power", "timing", "hier_power"}, []string{"rpt", "csv", "json"}, 9},
		{"duplicate kind", []string{"power", "power"}, []string{"csv"}, 1},
		{"duplicate format", []string{"timing"}, []string{"csv", "csv", "json"}, 2},
		{"both", []string{"power", "timing", "power"}, []string{"json", "json"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Formats: tt.formats}
			for _, k := range tt.kinds {
				cfg.Kinds = append(cfg.Kinds, KindRequest{Kind: k})
			}
			specs, err := Resolve(cfg)
			if err != nil {
				t.Fatalf("Resolve() = %v", err)
			}
			if len(specs) != tt.want {
				t.Fatalf("len = %d, want %d", len(specs), tt.want)
			}
			kinds := make(map[string]bool)
			for _, k := range tt.kinds {
				kinds[k] = true
			}
			formats := make(map[string]bool)
			for _, f := range tt.formats {
				formats[f] = true
			}
			for _, s := range specs {
				if !kinds[string(s.Kind)] || !formats[string(s.Format)] {
					t.Errorf("spec %v not requested", s.Key())
				}
			}
		})
	}
}

func TestResolvePerKindFormatsOverrideDefault(t *testing.T) {
	specs, err := Resolve(Config{
		Dir:     "/out",
		Stem:    "stim0",
		Formats: []string{"rpt"},
		Kinds: []KindRequest{
			{Kind: "power", Inst: "core"},
			{Kind: "profile", Formats: []string{"png", "fsdb"}},
		},
	})
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	got := make([]string, len(specs))
	for i, s := range specs {
		got[i] = s.Destination
	}
	want := []string{
		filepath.Join("/out", "stim0.power.rpt"),
		filepath.Join("/out", "stim0.profile.png"),
		filepath.Join("/out", "stim0.profile.fsdb"),
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("destinations = %v, want %v", got, want)
	}
	if specs[0].Options.Inst != "core" {
		t.Errorf("options not carried: %+v", specs[0].Options)
	}
	if specs[0].Stem != filepath.Join("/out", "stim0") {
		t.Errorf("stem = %q", specs[0].Stem)
	}
	if !RequiresTimeBased(specs) {
		t.Error("profile specs should require time-based analysis")
	}
}

func TestResolveHierarchicalLabel(t *testing.T) {
	specs, err := ResolveStem(Config{
		Formats: []string{"rpt"},
		Kinds:   []KindRequest{{Kind: "hier_power"}},
	}, "run")
	if err != nil {
		t.Fatalf("ResolveStem() = %v", err)
	}
	if specs[0].Destination != "run.hier.power.rpt" {
		t.Errorf("destination = %q", specs[0].Destination)
	}
}

func TestResolveCustomNaming(t *testing.T) {
	specs, err := Resolve(Config{
		Naming:  "{kind}/{stem}-{format}.{ext}",
		Formats: []string{"csv"},
		Kinds:   []KindRequest{{Kind: "activity"}},
	})
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	if specs[0].Destination != "activity/power-csv.csv" {
		t.Errorf("destination = %q", specs[0].Destination)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"no kinds", Config{Formats: []string{"rpt"}}, "reports.kinds"},
		{"unknown kind", Config{
			Formats: []string{"rpt"},
			Kinds:   []KindRequest{{Kind: "power"}, {Kind: "thermal"}},
		}, "reports.kinds[1].kind"},
		{"unknown kind format", Config{
			Kinds: []KindRequest{{Kind: "power", Formats: []string{"rpt"}}, {Kind: "timing", Formats: []string{"csv", "xml"}}},
		}, "reports.kinds[1].formats[1]"},
		{"unknown default format", Config{
			Formats: []string{"pdf"},
			Kinds:   []KindRequest{{Kind: "power"}},
		}, "reports.formats[0]"},
		{"unsupported pair", Config{
			Kinds: []KindRequest{{Kind: "area", Formats: []string{"json"}}},
		}, "reports.kinds[0].formats[0]"},
		{"no formats", Config{
			Kinds: []KindRequest{{Kind: "power"}},
		}, "reports.kinds[0].formats"},
		{"custom without command", Config{
			Formats: []string{"rpt"},
			Kinds:   []KindRequest{{Kind: "custom"}},
		}, "reports.kinds[0].command"},
		{"bad placeholder", Config{
			Naming:  "{stem}.{when}",
			Formats: []string{"rpt"},
			Kinds:   []KindRequest{{Kind: "power"}},
		}, "reports.naming"},
		{"colliding names", Config{
			Naming:  "{stem}.{kind}",
			Formats: []string{"rpt", "csv"},
			Kinds:   []KindRequest{{Kind: "power"}},
		}, "reports.naming"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := Resolve(tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if specs != nil {
				t.Errorf("partial expansion returned: %v", specs)
			}
			fields := fieldsOf(t, err)
			for _, f := range fields {
				if f == tt.field {
					return
				}
			}
			t.Errorf("fields = %v, want %q among them", fields, tt.field)
		})
	}
}

func TestResolveCollectsAllErrors(t *testing.T) {
	_, err := Resolve(Config{
		Naming: "{nope}",
		Kinds: []KindRequest{
			{Kind: "bogus"},
			{Kind: "power", Formats: []string{"gif"}},
		},
	})
	if got := fieldsOf(t, err); len(got) != 3 {
		t.Errorf("fields = %v, want 3 problems", got)
	}
}

func TestParseTemplate(t *testing.T) {
	for _, bad := range []string{"{stem", "stem}", "{}", "a}{kind}"} {
		if _, err := parseTemplate(bad); err == nil {
			t.Errorf("parseTemplate(%q) should fail", bad)
		}
	}
	tmpl, err := parseTemplate(DefaultNaming)
	if err != nil {
		t.Fatalf("parseTemplate(default) = %v", err)
	}
	e, _ := Lookup(KindPower)
	if got := tmpl.expand("s", e, FormatJSON); got != "s.power.json" {
		t.Errorf("expand = %q", got)
	}
}
