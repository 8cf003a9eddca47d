package emit

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/fusion"
	"github.com/kbukum/powerflow/report"
	"github.com/kbukum/powerflow/stage"
	"github.com/kbukum/powerflow/stimulus"
)

func testDesign() Design {
	return Design{
		Level:     LevelRTL,
		TopModule: "Top",
		Files:     []string{"/src/top.sv"},
		Defines:   []string{"SIM"},
		Libraries: []Library{
			{Domain: "hold", Files: []string{"/lib/hold.lib"}},
			{Domain: "setup", Files: []string{"/lib/setup.lib"}},
		},
		PowerSpec: PowerSpec{Type: "cpf", File: "/run/power.cpf"},
		SDC:       []string{"/run/clocks.sdc"},
		Clocks:    []string{"clock"},
		TBName:    "TestDriver",
		TBDut:     "testHarness.top",
	}
}

func testInputs(t *testing.T) *Inputs {
	t.Helper()
	in, err := NewInputs(testDesign(), Settings{MaxThreads: 4, MaxFrameCount: 1000},
		[]stimulus.Stimulus{
			{Path: "/sim/a.fsdb", IntervalSize: 10 * time.Nanosecond},
			{Path: "/sim/a.fsdb", IntervalSize: 10 * time.Nanosecond, Stem: "again"},
		},
		report.Config{
			Dir:     "/run/reports",
			Formats: []string{"rpt"},
			Kinds: []report.KindRequest{
				{Kind: "power"},
				{Kind: "profile", Formats: []string{"png"}},
			},
		}, "")
	if err != nil {
		t.Fatalf("NewInputs() = %v", err)
	}
	return in
}

func rendered(cmds []Command) string {
	return strings.Join(Render(cmds), "\n")
}

func TestRender(t *testing.T) {
	tests := []struct {
		c    Command
		want string
	}{
		{Command{Verb: "report_area", Output: "/r/a.rpt", Redirect: true}, "report_area > /r/a.rpt"},
		{Command{Verb: "report_power", Args: []string{"-stims stim0", "", "-unit mW"}, Output: "/r/p.rpt"}, "report_power -stims stim0 -unit mW -out /r/p.rpt"},
		{Command{Verb: "read_db", Args: []string{word("/my dir/db")}}, "read_db {/my dir/db}"},
		{Command{Verb: "syn_power"}, "syn_power"},
	}
	for _, tt := range tests {
		if got := tt.c.Render(); got != tt.want {
			t.Errorf("Render() = %q, want %q", got, tt.want)
		}
	}
}

func TestReportsOneCommandPerSpec(t *testing.T) {
	specs, err := report.Resolve(report.Config{
		Dir:     "/out",
		Formats: []string{"rpt"},
		Kinds: []report.KindRequest{
			{Kind: "power", Inst: "core", Formats: []string{"rpt", "csv"}},
			{Kind: "hier_power"},
			{Kind: "ppa", Inst: "core"},
			{Kind: "area"},
			{Kind: "profile", Formats: []string{"png", "fsdb"}, PowerType: "leakage"},
			{Kind: "custom", Command: "report_clock_gating"},
		},
	})
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	cmds, err := New(stage.Canonical(), nil).Reports("report_power", "stim0", specs)
	if err != nil {
		t.Fatalf("Reports() = %v", err)
	}
	if len(cmds) != len(specs) {
		t.Fatalf("got %d commands for %d specs", len(cmds), len(specs))
	}
	want := []string{
		"report_power -stims stim0 -inst core -unit mW -out /out/power.power.rpt",
		"report_power -stims stim0 -inst core -unit mW -format csv -out /out/power.power.csv",
		"report_power -stims stim0 -by_hierarchy -levels all -unit mW -out /out/power.hier.power.rpt",
		"report_ppa -root core > /out/power.ppa.rpt",
		"report_area > /out/power.area.rpt",
		"plot_power_profile -stims stim0 -by_category {total} -types leakage -unit mW -format png -out /out/power.profile.png",
		"write_power_profile -stims stim0 -unit mW -format fsdb -out /out/power.profile.fsdb",
		"report_clock_gating -stims stim0 > /out/power.custom.rpt",
	}
	for i, c := range cmds {
		if got := c.Render(); got != want[i] {
			t.Errorf("cmd[%d] = %q\n want %q", i, got, want[i])
		}
		if c.Stage != "report_power" {
			t.Errorf("cmd[%d].Stage = %q", i, c.Stage)
		}
	}
}

func TestStageOperations(t *testing.T) {
	in := testInputs(t)
	def := stage.Canonical().WithRunDir("/run")
	e := New(def, in)

	tests := []struct {
		stage string
		want  []string
	}{
		{"init_design", []string{
			"read_libs /lib/setup.lib -domain setup -infer_memory_cells",
			"read_hdl -define SIM -sv /src/top.sv",
			"read_power_intent -cpf /run/power.cpf -module Top",
			"set_db leakage_power_effort medium",
			"set_db lp_insert_clock_gating true",
			"elaborate Top",
			"apply_power_intent",
			"commit_power_intent",
		}},
		{"synthesize_design", []string{
			"read_sdc /run/clocks.sdc",
			"syn_power -effort medium",
		}},
		{"read_stimulus", []string{
			"read_stimulus -file /sim/a.fsdb -dut_instance TestDriver/testHarness/top -interval_size 10ns -alias stim0 -append",
		}},
		{"compute_power", []string{
			"compute_power -mode time_based -stim stim0 -append",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			st, _ := def.Stage(tt.stage)
			cmds, err := e.Stage(st)
			if err != nil {
				t.Fatalf("Stage() = %v", err)
			}
			if got := rendered(cmds); got != strings.Join(tt.want, "\n") {
				t.Errorf("commands:\n%s\nwant:\n%s", got, strings.Join(tt.want, "\n"))
			}
		})
	}
}

func TestReportPowerStageUsesEveryReportSet(t *testing.T) {
	in := testInputs(t)
	def := stage.Canonical().WithRunDir("/run")
	st, _ := def.Stage("report_power")
	cmds, err := New(def, in).Stage(st)
	if err != nil {
		t.Fatalf("Stage() = %v", err)
	}
	out := rendered(cmds)
	if !strings.HasPrefix(out, "proc dump_frame_info") {
		t.Errorf("proc must come first:\n%s", out)
	}
	for _, want := range []string{
		"file mkdir /run/reports",
		"dump_frame_info stim0 /run/reports/a.fsdb",
		"dump_frame_info stim0 /run/reports/again",
		"-out /run/reports/a.fsdb.power.rpt",
		"-out /run/reports/again.profile.png",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Count(out, "file mkdir /run/reports\n") != 2 {
		t.Errorf("expected one mkdir per report set:\n%s", out)
	}
}

func TestUnitFusedHasNoCheckpointsInside(t *testing.T) {
	def := stage.Canonical().WithRunDir("/run")
	units, err := fusion.Partition(def, fusion.DefaultTable())
	if err != nil {
		t.Fatalf("Partition() = %v", err)
	}
	e := New(def, testInputs(t))

	init, err := e.Unit(units[0])
	if err != nil {
		t.Fatalf("Unit(init) = %v", err)
	}
	out := rendered(init)
	if !strings.HasPrefix(out, "set_multi_cpu_usage -local_cpu 4\nset_db auto_super_thread 1\nset_db max_cpus_per_server 4\nset_db max_frame_count 1000") {
		t.Errorf("missing global settings:\n%s", out)
	}
	if !strings.HasSuffix(out, "write_db -all_root_attributes -to_file /run/db/init_design.design") {
		t.Errorf("init unit should checkpoint the design:\n%s", out)
	}

	synth, _ := e.Unit(units[1])
	if !strings.Contains(rendered(synth), "read_db /run/db/init_design.design") {
		t.Errorf("synth unit should load the design:\n%s", rendered(synth))
	}

	fused, err := e.Unit(units[2])
	if err != nil {
		t.Fatalf("Unit(fused) = %v", err)
	}
	out = rendered(fused)
	if !strings.Contains(out, "read_db /run/db/synthesize_design.synth") {
		t.Errorf("fused unit should load the synthesized design:\n%s", out)
	}
	for _, banned := range []string{"write_sdb", "read_sdb", "write_db"} {
		if strings.Contains(out, banned) {
			t.Errorf("fused unit must not checkpoint (%s):\n%s", banned, out)
		}
	}
	if strings.Index(out, "read_stimulus") > strings.Index(out, "compute_power") {
		t.Error("stages must keep unit order")
	}
}

func TestUnitSplitStimulusUsesSDB(t *testing.T) {
	def := stage.Canonical().WithRunDir("/run")
	units, _ := fusion.Partition(def, &fusion.Table{})
	e := New(def, testInputs(t))

	read, err := e.Unit(units[2])
	if err != nil {
		t.Fatalf("Unit(read_stimulus) = %v", err)
	}
	if !strings.Contains(rendered(read), "write_sdb -out /run/db/read_stimulus.stimulus") {
		t.Errorf("split read_stimulus should save the sdb:\n%s", rendered(read))
	}
	compute, _ := e.Unit(units[3])
	if !strings.Contains(rendered(compute), "read_sdb /run/db/read_stimulus.stimulus") {
		t.Errorf("split compute_power should load the sdb:\n%s", rendered(compute))
	}
}

func TestUnitEmissionErrors(t *testing.T) {
	def := stage.Canonical().WithRunDir("/run")
	units, _ := fusion.Partition(def, &fusion.Table{})

	noSDB := DefaultCheckpoints()
	delete(noSDB, stage.KindStimulusDB)
	e := New(def, testInputs(t), WithCheckpoints(noSDB))
	if _, err := e.Unit(units[3]); !errors.HasCode(err, errors.ErrCodeEmission) {
		t.Errorf("unloadable kind: err = %v, want emission error", err)
	}

	bare := stage.Canonical()
	if _, err := New(bare, testInputs(t)).Unit(units[1]); !errors.HasCode(err, errors.ErrCodeEmission) {
		t.Errorf("pathless artifact: err = %v, want emission error", err)
	}

	in := testInputs(t)
	in.Reports[0].Alias = "stim9"
	st, _ := def.Stage("report_power")
	if _, err := New(def, in).Stage(st); !errors.HasCode(err, errors.ErrCodeEmission) {
		t.Errorf("unknown alias: err = %v, want emission error", err)
	}

	nolib := testInputs(t)
	nolib.Design.Libraries = nil
	initSt, _ := def.Stage("init_design")
	_, err := New(def, nolib).Stage(initSt)
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeEmission || appErr.Details["artifact"] != "libraries" {
		t.Errorf("no libraries: err = %v, want emission error naming libraries", err)
	}

	custom := &stage.Stage{Name: "x", Operation: "teleport"}
	if _, err := New(def, in).Stage(custom); !errors.HasCode(err, errors.ErrCodeEmission) {
		t.Errorf("unknown operation: err = %v, want emission error", err)
	}
}

func TestCustomStage(t *testing.T) {
	st := &stage.Stage{Name: "gating", Operation: stage.OpCustom, Commands: []string{"report_clock_gating > cg.rpt"}}
	cmds, err := New(&stage.Definition{Stages: []stage.Stage{*st}}, nil).Stage(st)
	if err != nil {
		t.Fatalf("Stage() = %v", err)
	}
	if rendered(cmds) != "report_clock_gating > cg.rpt" {
		t.Errorf("commands = %q", rendered(cmds))
	}
}

func TestEmissionIsDeterministic(t *testing.T) {
	def := stage.Canonical().WithRunDir("/run")
	units, _ := fusion.Partition(def, fusion.DefaultTable())
	first, _ := New(def, testInputs(t)).Unit(units[2])
	for i := 0; i < 5; i++ {
		again, _ := New(def, testInputs(t)).Unit(units[2])
		if rendered(again) != rendered(first) {
			t.Fatal("emission changed between runs")
		}
	}
}

func TestNewInputsCollectsProblems(t *testing.T) {
	d := testDesign()
	d.Level = "gate"
	_, err := NewInputs(d, Settings{MaxThreads: 0, MaxFrameCount: 1},
		[]stimulus.Stimulus{{Path: "/sim/a.vcd"}},
		report.Config{Formats: []string{"png"}, Kinds: []report.KindRequest{{Kind: "profile"}}}, "")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeConfiguration {
		t.Fatalf("err = %v, want configuration error", err)
	}
	problems, _ := appErr.Details["fields"].([]errors.FieldProblem)
	got := make(map[string]bool)
	for _, p := range problems {
		got[p.Field] = true
	}
	for _, want := range []string{"design.level", "settings.max_threads", "stimuli[0]"} {
		if !got[want] {
			t.Errorf("missing problem for %s in %v", want, problems)
		}
	}
}
