package flow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kbukum/powerflow/artifact"
	"github.com/kbukum/powerflow/dag"
	"github.com/kbukum/powerflow/emit"
	"github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/executor"
	"github.com/kbukum/powerflow/logger"
	"github.com/kbukum/powerflow/observability"
)

// Hook is called after every unit, including skipped ones.
type Hook func(ctx context.Context, unit UnitPlan, res executor.ExecutionResult)

// Controller drives flows through a Runner.
type Controller struct {
	runner   executor.Runner
	store    artifact.Store
	log      *logger.Logger
	emitOpts []emit.Option
	hooks    []Hook
	newRunID func() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore sets the artifact store. Defaults to a fresh MemoryStore.
func WithStore(s artifact.Store) Option {
	return func(c *Controller) { c.store = s }
}

// WithLogger sets the controller logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithEmitOptions passes options to the command emitter.
func WithEmitOptions(opts ...emit.Option) Option {
	return func(c *Controller) { c.emitOpts = append(c.emitOpts, opts...) }
}

// OnUnitComplete registers a hook run after each unit.
func OnUnitComplete(h Hook) Option {
	return func(c *Controller) { c.hooks = append(c.hooks, h) }
}

// WithRunID fixes the run ID instead of generating one per run.
func WithRunID(id string) Option {
	return func(c *Controller) { c.newRunID = func() string { return id } }
}

// New creates a Controller.
func New(runner executor.Runner, opts ...Option) *Controller {
	c := &Controller{
		runner:   runner,
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = artifact.NewMemoryStore()
	}
	if c.log == nil {
		c.log = logger.WithComponent("flow")
	}
	return c
}

// Store returns the controller's artifact store.
func (c *Controller) Store() artifact.Store { return c.store }

// Report is the outcome of one flow invocation.
type Report struct {
	RunID string
	Plan  *Plan
	// Results holds one entry per unit considered, in execution order.
	Results []executor.ExecutionResult
}

// Succeeded reports whether every unit succeeded.
func (r *Report) Succeeded() bool {
	for _, res := range r.Results {
		if res.Status != dag.StatusSuccess {
			return false
		}
	}
	return true
}

// Err returns the error of the first unit that did not succeed, or nil.
func (r *Report) Err() error {
	for _, res := range r.Results {
		if res.Status != dag.StatusSuccess {
			if res.Err != nil {
				return res.Err
			}
			return fmt.Errorf("unit %s %s", res.Unit, res.Status)
		}
	}
	return nil
}

// Plan validates and plans the request without executing anything.
func (c *Controller) Plan(req Request) (*Plan, error) {
	return Build(req, c.emitOpts...)
}

// Run executes every unit of the flow. A non-nil error means the request was
// rejected before any tool call; unit failures are reported in the Report.
func (c *Controller) Run(ctx context.Context, req Request) (*Report, error) {
	plan, err := c.Plan(req)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, plan, nil), nil
}

// RunStages executes only the units containing the named stages. Artifacts
// from units outside the selection must already be in the store.
func (c *Controller) RunStages(ctx context.Context, req Request, names []string) (*Report, error) {
	plan, err := c.Plan(req)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.Configuration("stages", "at least one stage name is required")
	}
	selected := make(map[string]bool)
	for i, name := range names {
		found := false
		for _, up := range plan.Units {
			if up.Unit.Contains(name) {
				selected[up.Unit.Name] = true
				found = true
			}
		}
		if !found {
			return nil, errors.Configuration(fmt.Sprintf("stages[%d]", i), fmt.Sprintf("unknown stage %q", name))
		}
	}
	return c.execute(ctx, plan, selected), nil
}

// execute runs the planned units in order. A nil selection runs every unit.
func (c *Controller) execute(ctx context.Context, plan *Plan, selected map[string]bool) *Report {
	runID := c.newRunID()
	ctx = logger.ContextWithRunID(ctx, runID)
	log := c.log.WithContext(ctx)

	ctx, span := observability.StartSpan(ctx, observability.SpanFlowRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, runID)

	var names []string
	for _, up := range plan.Units {
		if selected == nil || selected[up.Unit.Name] {
			names = append(names, up.Unit.Name)
		}
	}
	tracker := dag.NewTracker(names)
	report := &Report{RunID: runID, Plan: plan}

	log.Info("flow started", logger.Fields("units", len(names)))

	var stoppedBy string
	for _, up := range plan.Units {
		name := up.Unit.Name
		if selected != nil && !selected[name] {
			continue
		}

		var res executor.ExecutionResult
		switch {
		case ctx.Err() != nil:
			res = c.skip(tracker, up, errors.Timeout("flow run").WithCause(ctx.Err()))
		case stoppedBy != "":
			res = c.skip(tracker, up, c.upstreamFailure(tracker, plan, up))
		default:
			if err := c.gate(ctx, tracker, plan, up); err != nil {
				res = c.skip(tracker, up, err)
				break
			}
			res = c.run(ctx, tracker, up, runID)
			if res.Status == dag.StatusFailed {
				stoppedBy = name
			}
		}

		report.Results = append(report.Results, res)
		for _, h := range c.hooks {
			h(ctx, up, res)
		}
	}

	status := observability.StatusSuccess
	if !report.Succeeded() {
		status = observability.StatusFailed
		observability.SetSpanError(ctx, report.Err())
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatus, status)
	log.Info("flow finished", logger.Fields(logger.FieldStatus, status, "units", len(report.Results)))
	return report
}

// gate checks every external input of the unit. Inputs from units of this
// run must come from a unit that succeeded; all inputs must be in the store.
func (c *Controller) gate(ctx context.Context, tracker *dag.Tracker, plan *Plan, up UnitPlan) error {
	if err := c.upstreamFailure(tracker, plan, up); err != nil {
		return err
	}
	for _, req := range up.Requires {
		rec, err := c.store.Get(ctx, req.Ref)
		if err != nil {
			return errors.Internal(err)
		}
		if rec == nil {
			return errors.DependencyUnmet(up.Unit.Name, req.Ref.String(), producerUnit(plan, req.Ref.Stage))
		}
	}
	return nil
}

// upstreamFailure explains why a unit is skipped after the flow stopped. It
// returns nil for units that do not depend on anything that failed.
func (c *Controller) upstreamFailure(tracker *dag.Tracker, plan *Plan, up UnitPlan) error {
	for _, dep := range plan.Dependencies(up.Unit.Name) {
		if status, inRun := tracker.Get(dep); inRun && status != dag.StatusSuccess {
			return c.unmet(plan, up, dep)
		}
	}
	return nil
}

// unmet builds the DependencyUnmet error for a unit whose upstream unit did
// not succeed, naming the first artifact it needed from that unit.
func (c *Controller) unmet(plan *Plan, up UnitPlan, depUnit string) error {
	dep, _ := plan.Unit(depUnit)
	for _, req := range up.Requires {
		if dep.Unit.Contains(req.Ref.Stage) {
			return errors.DependencyUnmet(up.Unit.Name, req.Ref.String(), depUnit)
		}
	}
	return errors.DependencyUnmet(up.Unit.Name, "", depUnit)
}

func (c *Controller) skip(tracker *dag.Tracker, up UnitPlan, reason error) executor.ExecutionResult {
	if err := tracker.Transition(up.Unit.Name, dag.StatusSkipped); err != nil {
		return executor.Failed(up.Unit, errors.Internal(err))
	}
	res := executor.Skipped(up.Unit, reason)
	if reason == nil {
		res.Diagnostics = []string{"not run: flow stopped after a failed unit"}
	}
	return res
}

func (c *Controller) run(ctx context.Context, tracker *dag.Tracker, up UnitPlan, runID string) executor.ExecutionResult {
	if err := tracker.Transition(up.Unit.Name, dag.StatusRunning); err != nil {
		return executor.Failed(up.Unit, errors.Internal(err))
	}

	// A unit being re-run invalidates what it produced before.
	for _, p := range up.Produces {
		if err := c.store.Delete(ctx, p.Ref); err != nil {
			return c.finish(tracker, executor.Failed(up.Unit, errors.Internal(err)))
		}
	}

	if up.EmitErr != nil {
		return c.finish(tracker, executor.Failed(up.Unit, up.EmitErr))
	}

	res := c.runner.Run(ctx, up.Plan)
	if res.Status != dag.StatusSuccess {
		return c.finish(tracker, res)
	}

	for _, a := range res.Artifacts {
		rec := artifact.Record{Ref: a.Ref, Kind: a.Kind, Path: a.Path, Unit: up.Unit.Name, RunID: runID}
		if err := c.store.Put(ctx, rec); err != nil {
			res = executor.Failed(up.Unit, errors.Internal(err))
			break
		}
	}
	return c.finish(tracker, res)
}

func (c *Controller) finish(tracker *dag.Tracker, res executor.ExecutionResult) executor.ExecutionResult {
	to := dag.StatusFailed
	if res.Status == dag.StatusSuccess {
		to = dag.StatusSuccess
	}
	if err := tracker.Transition(res.Unit, to); err != nil {
		c.log.Error("unit state transition rejected", logger.ErrorFields("finish", err))
	}
	return res
}

func producerUnit(plan *Plan, stageName string) string {
	for _, up := range plan.Units {
		if up.Unit.Contains(stageName) {
			return up.Unit.Name
		}
	}
	return ""
}
