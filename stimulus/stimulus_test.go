package stimulus

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/powerflow/errors"
)

func TestMethodPrecedence(t *testing.T) {
	tests := []struct {
		name string
		s    Stimulus
		want Method
		mode string
	}{
		{"average", Stimulus{Path: "a.vcd"}, MethodNone, "average"},
		{"interval size", Stimulus{IntervalSize: 10 * time.Nanosecond}, MethodIntervalSize, "time_based"},
		{"list", Stimulus{IntervalList: "{0 10 20}"}, MethodIntervalList, "time_based"},
		{"cycles", Stimulus{NumToggles: 4}, MethodCycles, "time_based"},
		{"frames", Stimulus{FrameCount: 100}, MethodFrameCount, "time_based"},
		{"size beats frames", Stimulus{IntervalSize: time.Microsecond, FrameCount: 10}, MethodIntervalSize, "time_based"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Method(); got != tt.want {
				t.Errorf("Method() = %q, want %q", got, tt.want)
			}
			if got := tt.s.Mode(); got != tt.mode {
				t.Errorf("Mode() = %q, want %q", got, tt.mode)
			}
		})
	}
}

func TestNanoseconds(t *testing.T) {
	tests := map[time.Duration]string{
		100 * time.Nanosecond:   "100ns",
		1500 * time.Microsecond: "1500000ns",
		2 * time.Millisecond:    "2000000ns",
		0:                       "0ns",
	}
	for in, want := range tests {
		if got := Nanoseconds(in); got != want {
			t.Errorf("Nanoseconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildAliasesDeduplicate(t *testing.T) {
	plan, err := Build([]Stimulus{
		{Path: "sim/a.vcd"},
		{Path: "sim/b.vcd"},
		{Path: "sim/a.vcd", Stem: "a_again"},
		{Path: "sim/a.vcd", Stem: "a_window", Start: 10 * time.Nanosecond},
	}, Options{BaseDir: "/work"})
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	var got []string
	for _, e := range plan.Entries {
		got = append(got, e.Alias)
	}
	if strings.Join(got, ",") != "stim0,stim1,stim0,stim2" {
		t.Errorf("aliases = %v", got)
	}
	if plan.Entries[2].New {
		t.Error("repeated read should not be new")
	}
	if plan.Entries[0].Path != "/work/sim/a.vcd" {
		t.Errorf("path = %q", plan.Entries[0].Path)
	}
	if strings.Join(plan.Aliases(), ",") != "stim0,stim1,stim2" {
		t.Errorf("Aliases() = %v", plan.Aliases())
	}
	if e, ok := plan.Lookup("stim1"); !ok || e.ReportStem() != "b.vcd" {
		t.Errorf("Lookup(stim1) = %+v, %v", e, ok)
	}
}

func TestBuildWarnsOnSeveralMethods(t *testing.T) {
	plan, err := Build([]Stimulus{
		{Path: "a.vcd", IntervalSize: time.Nanosecond, NumToggles: 3, ToggleSignal: "clk"},
	}, Options{})
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	if len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "using interval_size") {
		t.Errorf("warnings = %v", plan.Warnings)
	}
}

func TestBuildDefaultToggleSignal(t *testing.T) {
	plan, err := Build([]Stimulus{{Path: "a.vcd", NumToggles: 8}}, Options{DefaultToggleSignal: "clock"})
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	if plan.Entries[0].ToggleSignal != "clock" {
		t.Errorf("toggle = %q", plan.Entries[0].ToggleSignal)
	}
	if len(plan.Warnings) != 1 {
		t.Errorf("expected a warning, got %v", plan.Warnings)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    []Stimulus
		opts  Options
		field string
	}{
		{"empty", nil, Options{}, "stimuli"},
		{"missing path", []Stimulus{{}}, Options{}, "stimuli[0].path"},
		{"end before start", []Stimulus{{Path: "a", Start: 20, End: 10}}, Options{}, "stimuli[0].end"},
		{"needs time based", []Stimulus{{Path: "a"}}, Options{RequireTimeBased: true}, "stimuli[0]"},
		{"toggle without clock", []Stimulus{{Path: "a", NumToggles: 2}}, Options{}, "stimuli[0].toggle_signal"},
		{"stem clash", []Stimulus{{Path: "x/a"}, {Path: "y/a"}}, Options{}, "stimuli[1].stem"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.in, tt.opts)
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeConfiguration {
				t.Fatalf("err = %v, want configuration error", err)
			}
			problems, _ := appErr.Details["fields"].([]errors.FieldProblem)
			for _, p := range problems {
				if p.Field == tt.field {
					return
				}
			}
			t.Errorf("problems = %v, want field %q", problems, tt.field)
		})
	}
}
