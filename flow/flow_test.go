package flow

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/powerflow/artifact"
	"github.com/kbukum/powerflow/dag"
	"github.com/kbukum/powerflow/emit"
	"github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/executor"
	"github.com/kbukum/powerflow/fusion"
	"github.com/kbukum/powerflow/logger"
	"github.com/kbukum/powerflow/provider"
	"github.com/kbukum/powerflow/report"
	"github.com/kbukum/powerflow/stage"
	"github.com/kbukum/powerflow/stimulus"
	"github.com/kbukum/powerflow/tool"
)

// recorder is a tool service that fails command failAt of unit failUnit and
// records every submitted unit.
type recorder struct {
	mu       sync.Mutex
	failUnit string
	failAt   int
	diag     string
	units    []string
}

func (r *recorder) service() tool.Service {
	return provider.Func("recorder", func(_ context.Context, sub tool.Submission) (*tool.Outcome, error) {
		r.mu.Lock()
		r.units = append(r.units, sub.Unit)
		r.mu.Unlock()

		out := &tool.Outcome{}
		for i := range sub.Commands {
			if sub.Unit == r.failUnit && i == r.failAt {
				out.Results = append(out.Results, tool.CommandOutcome{Index: i, Diagnostic: r.diag})
				return out, nil
			}
			out.Results = append(out.Results, tool.CommandOutcome{Index: i, OK: true})
		}
		return out, nil
	})
}

func (r *recorder) submitted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.units...)
}

func newController(r *recorder, opts ...Option) *Controller {
	opts = append([]Option{WithRunID("run-1"), WithLogger(logger.Nop())}, opts...)
	return New(executor.New(r.service()), opts...)
}

// customFlow is a -> b -> d with an independent c; every stage is custom.
func customFlow() *stage.Definition {
	return &stage.Definition{Name: "custom", Stages: []stage.Stage{
		{Name: "a", Operation: stage.OpCustom, Commands: []string{"cmd_a"},
			Produces: []stage.Artifact{{Name: "db", Kind: stage.KindDesignDB}}},
		{Name: "b", Operation: stage.OpCustom, Commands: []string{"cmd_b"},
			Requires: []stage.ArtifactRef{{Stage: "a", Name: "db"}},
			Produces: []stage.Artifact{{Name: "out", Kind: stage.KindReport}}},
		{Name: "c", Operation: stage.OpCustom, Commands: []string{"cmd_c"}},
		{Name: "d", Operation: stage.OpCustom, Commands: []string{"cmd_d"},
			Requires: []stage.ArtifactRef{{Stage: "b", Name: "out"}}},
	}}
}

func customRequest() Request {
	return Request{Definition: customFlow(), Table: &fusion.Table{}, RunDir: "/run"}
}

func statuses(rep *Report) string {
	parts := make([]string, len(rep.Results))
	for i, r := range rep.Results {
		parts[i] = r.Unit + "=" + string(r.Status)
	}
	return strings.Join(parts, ",")
}

func TestRun_AllSucceed(t *testing.T) {
	r := &recorder{}
	c := newController(r)
	rep, err := c.Run(context.Background(), customRequest())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if got := statuses(rep); got != "a=success,b=success,c=success,d=success" {
		t.Errorf("statuses = %s", got)
	}
	if !rep.Succeeded() || rep.Err() != nil {
		t.Errorf("Succeeded=%v Err=%v", rep.Succeeded(), rep.Err())
	}
	if rep.RunID != "run-1" {
		t.Errorf("RunID = %q", rep.RunID)
	}

	recs, _ := c.Store().List(context.Background())
	if len(recs) != 2 || recs[0].Path != "/run/db/a.db" || recs[0].Unit != "a" || recs[0].RunID != "run-1" {
		t.Errorf("store records = %+v", recs)
	}
}

func TestRun_FailureStopsFlow(t *testing.T) {
	r := &recorder{failUnit: "b", failAt: 4, diag: "Error: invalid command name \"cmd_b\""}
	rep, err := newController(r).Run(context.Background(), customRequest())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if got := statuses(rep); got != "a=success,b=failed,c=skipped,d=skipped" {
		t.Fatalf("statuses = %s", got)
	}
	if got := strings.Join(r.submitted(), ","); got != "a,b" {
		t.Errorf("submitted units = %s, skipped units must emit nothing", got)
	}

	b := rep.Results[1]
	if b.Diagnostics[0] != r.diag || !errors.HasCode(b.Err, errors.ErrCodeToolExecution) {
		t.Errorf("b result = %+v", b)
	}
	if c := rep.Results[2]; c.Err != nil || len(c.Diagnostics) != 1 {
		t.Errorf("independent unit should be skipped without dependency error: %+v", c)
	}
	d := rep.Results[3]
	appErr, ok := errors.AsAppError(d.Err)
	if !ok || appErr.Code != errors.ErrCodeDependencyUnmet {
		t.Fatalf("d err = %v, want DEPENDENCY_UNMET", d.Err)
	}
	if appErr.Details["artifact"] != "b/out" || appErr.Details["upstream"] != "b" {
		t.Errorf("d details = %+v", appErr.Details)
	}
	if rep.Err() != b.Err {
		t.Errorf("report error should be the first failure")
	}
}

func TestRun_TransitiveSkip(t *testing.T) {
	r := &recorder{failUnit: "a", failAt: 0, diag: "license"}
	rep, err := newController(r).Run(context.Background(), customRequest())
	if err != nil {
		t.Fatal(err)
	}
	d := rep.Results[3]
	appErr, _ := errors.AsAppError(d.Err)
	if appErr == nil || appErr.Details["upstream"] != "b" {
		t.Errorf("d should name its skipped upstream b, got %v", d.Err)
	}
}

func TestRun_ConfigurationErrorBeforeAnyCall(t *testing.T) {
	r := &recorder{}
	def := customFlow()
	def.Stages[0].DependsOn = []string{"a"}

	_, err := newController(r).Run(context.Background(), Request{Definition: def})
	if !errors.HasCode(err, errors.ErrCodeConfiguration) {
		t.Fatalf("err = %v, want CONFIGURATION_ERROR", err)
	}
	if len(r.submitted()) != 0 {
		t.Errorf("no unit may be submitted, got %v", r.submitted())
	}

	_, err = newController(r).Run(context.Background(), Request{Definition: stage.Canonical()})
	if !errors.HasCode(err, errors.ErrCodeConfiguration) {
		t.Errorf("missing inputs: err = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestRun_EmissionErrorFailsUnit(t *testing.T) {
	r := &recorder{}
	c := newController(r, WithEmitOptions(emit.WithCheckpoints(emit.Checkpoints{})))
	rep, err := c.Run(context.Background(), customRequest())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if got := statuses(rep); got != "a=failed,b=skipped,c=skipped,d=skipped" {
		t.Errorf("statuses = %s", got)
	}
	if !errors.HasCode(rep.Results[0].Err, errors.ErrCodeEmission) {
		t.Errorf("a err = %v, want EMISSION_ERROR", rep.Results[0].Err)
	}
	if len(r.submitted()) != 0 {
		t.Errorf("submitted = %v", r.submitted())
	}
}

func TestRun_Idempotent(t *testing.T) {
	r := &recorder{failUnit: "c", failAt: 4, diag: "boom"}
	c := newController(r)
	first, err := c.Run(context.Background(), customRequest())
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Run(context.Background(), customRequest())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Results, second.Results) {
		t.Errorf("results differ between identical runs:\n%+v\n%+v", first.Results, second.Results)
	}
}

func TestRun_Hook(t *testing.T) {
	var seen []string
	hook := func(_ context.Context, up UnitPlan, res executor.ExecutionResult) {
		seen = append(seen, up.Unit.Name+":"+string(res.Status))
	}
	r := &recorder{failUnit: "a", diag: "x"}
	if _, err := newController(r, OnUnitComplete(hook)).Run(context.Background(), customRequest()); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(seen, ","); got != "a:failed,b:skipped,c:skipped,d:skipped" {
		t.Errorf("hook calls = %s", got)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &recorder{}
	rep, err := newController(r).Run(ctx, customRequest())
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range rep.Results {
		if res.Status != dag.StatusSkipped || !errors.HasCode(res.Err, errors.ErrCodeTimeout) {
			t.Errorf("%s: %s %v", res.Unit, res.Status, res.Err)
		}
	}
}

func TestRunStages_Gating(t *testing.T) {
	r := &recorder{}
	store := artifact.NewMemoryStore()
	c := newController(r, WithStore(store))

	rep, err := c.RunStages(context.Background(), customRequest(), []string{"b"})
	if err != nil {
		t.Fatalf("RunStages() = %v", err)
	}
	if got := statuses(rep); got != "b=skipped" {
		t.Fatalf("statuses = %s", got)
	}
	if !errors.HasCode(rep.Results[0].Err, errors.ErrCodeDependencyUnmet) {
		t.Errorf("err = %v, want DEPENDENCY_UNMET", rep.Results[0].Err)
	}
	if len(r.submitted()) != 0 {
		t.Errorf("gated unit must not be submitted")
	}

	if err := store.Put(context.Background(), artifact.Record{
		Ref: stage.ArtifactRef{Stage: "a", Name: "db"}, Kind: stage.KindDesignDB, Path: "/run/db/a.db", Unit: "a",
	}); err != nil {
		t.Fatal(err)
	}
	rep, err = c.RunStages(context.Background(), customRequest(), []string{"b", "d"})
	if err != nil {
		t.Fatal(err)
	}
	if got := statuses(rep); got != "b=success,d=success" {
		t.Errorf("statuses = %s", got)
	}
}

func TestRunStages_UnknownStage(t *testing.T) {
	_, err := newController(&recorder{}).RunStages(context.Background(), customRequest(), []string{"a", "zz"})
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeConfiguration || appErr.Details["field"] != "stages[1]" {
		t.Errorf("err = %v", err)
	}
}

func TestRunStages_ManifestAcrossInvocations(t *testing.T) {
	path := t.TempDir() + "/manifest.yaml"
	first, err := artifact.OpenManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	r := &recorder{}
	if _, err := newController(r, WithStore(first)).RunStages(context.Background(), customRequest(), []string{"a"}); err != nil {
		t.Fatal(err)
	}

	second, err := artifact.OpenManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := newController(r, WithStore(second)).RunStages(context.Background(), customRequest(), []string{"b"})
	if err != nil {
		t.Fatal(err)
	}
	if got := statuses(rep); got != "b=success" {
		t.Errorf("statuses = %s", got)
	}
}

func canonicalRequest(t *testing.T) Request {
	t.Helper()
	in, err := emit.NewInputs(
		emit.Design{
			Level:     emit.LevelRTL,
			TopModule: "Top",
			Files:     []string{"/src/top.sv"},
			Libraries: []emit.Library{{Domain: "setup", Files: []string{"/lib/setup.lib"}}},
			Clocks:    []string{"clock"},
			TBName:    "TestDriver",
			TBDut:     "testHarness.top",
		},
		emit.DefaultSettings(),
		[]stimulus.Stimulus{{Path: "/sim/a.fsdb"}},
		report.Config{Dir: "/run/reports", Formats: []string{"rpt"}, Kinds: []report.KindRequest{{Kind: "power"}}},
		"",
	)
	if err != nil {
		t.Fatalf("NewInputs() = %v", err)
	}
	return Request{Definition: stage.Canonical(), Inputs: in, RunDir: "/run"}
}

func TestPlan_Canonical(t *testing.T) {
	plan, err := newController(&recorder{}).Plan(canonicalRequest(t))
	if err != nil {
		t.Fatalf("Plan() = %v", err)
	}
	var names []string
	for _, up := range plan.Units {
		names = append(names, up.Unit.Name)
		if up.EmitErr != nil {
			t.Errorf("%s: %v", up.Unit.Name, up.EmitErr)
		}
	}
	if got := strings.Join(names, ","); got != "init_design,synthesize_design,read_stimulus+compute_power+report_power" {
		t.Errorf("units = %s", got)
	}
	if deps := plan.Dependencies("read_stimulus+compute_power+report_power"); len(deps) != 1 || deps[0] != "synthesize_design" {
		t.Errorf("deps = %v", deps)
	}
	levels, err := plan.Levels()
	if err != nil || len(levels) != 3 {
		t.Errorf("levels = %v, %v", levels, err)
	}
	down, err := plan.Downstream("init_design")
	if err != nil || strings.Join(down, ",") != "synthesize_design,read_stimulus+compute_power+report_power" {
		t.Errorf("downstream = %v, %v", down, err)
	}
	fused, _ := plan.Unit("read_stimulus+compute_power+report_power")
	for _, c := range fused.Commands {
		if c.Verb == "write_sdb" || c.Verb == "read_sdb" {
			t.Errorf("fused unit must not checkpoint the stimulus database: %s", c.Render())
		}
	}
}

func TestRun_CanonicalFusedFailure(t *testing.T) {
	diag := "Error   : Failed to read stimulus '/sim/a.fsdb'. [STIM-12]"
	r := &recorder{failUnit: "read_stimulus+compute_power+report_power", failAt: 1, diag: diag}
	rep, err := newController(r).Run(context.Background(), canonicalRequest(t))
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if got := statuses(rep); got != "init_design=success,synthesize_design=success,read_stimulus+compute_power+report_power=failed" {
		t.Fatalf("statuses = %s", got)
	}
	fused := rep.Results[2]
	if !reflect.DeepEqual(fused.Stages, []string{"read_stimulus", "compute_power", "report_power"}) {
		t.Errorf("failure must cover every fused stage: %v", fused.Stages)
	}
	if fused.Diagnostics[0] != diag {
		t.Errorf("diagnostic = %q", fused.Diagnostics[0])
	}
}
