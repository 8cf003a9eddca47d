package executor

import (
	"context"
	"fmt"

	"github.com/kbukum/powerflow/dag"
	"github.com/kbukum/powerflow/emit"
	"github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/fusion"
	"github.com/kbukum/powerflow/logger"
	"github.com/kbukum/powerflow/stage"
	"github.com/kbukum/powerflow/tool"
)

// Plan is everything needed to execute one unit.
type Plan struct {
	Unit     fusion.Unit
	Commands []emit.Command
	// Requires lists artifacts produced outside the unit that it consumes.
	Requires []stage.Produced
	// Produces lists every artifact the unit's stages declare.
	Produces []stage.Produced
}

// ExecutionResult is the outcome of one unit.
type ExecutionResult struct {
	Unit   string
	Stages []string
	Status dag.Status
	// Artifacts is the full declared set on success, empty otherwise.
	Artifacts   []stage.Produced
	Diagnostics []string
	// Completed counts commands the tool confirmed.
	Completed int
	// Aborted counts commands that never ran because an earlier one failed.
	Aborted int
	Err     error
}

// Skipped builds the result of a unit that was never submitted.
func Skipped(u fusion.Unit, err error) ExecutionResult {
	r := ExecutionResult{Unit: u.Name, Stages: u.Stages, Status: dag.StatusSkipped, Err: err}
	if err != nil {
		r.Diagnostics = []string{diagnostic(err)}
	}
	return r
}

// Failed builds the result of a unit that failed before submission, e.g. on
// an emission error.
func Failed(u fusion.Unit, err error) ExecutionResult {
	return ExecutionResult{
		Unit: u.Name, Stages: u.Stages, Status: dag.StatusFailed,
		Diagnostics: []string{diagnostic(err)}, Err: err,
	}
}

// Runner executes unit plans.
type Runner interface {
	Run(ctx context.Context, plan *Plan) ExecutionResult
}

// RunnerFunc adapts a function into a Runner.
type RunnerFunc func(ctx context.Context, plan *Plan) ExecutionResult

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, plan *Plan) ExecutionResult { return f(ctx, plan) }

// Executor submits plans to a tool service.
type Executor struct {
	svc tool.Service
}

var _ Runner = (*Executor)(nil)

// New creates an Executor over svc.
func New(svc tool.Service) *Executor {
	return &Executor{svc: svc}
}

// Run submits every command of the plan in one batch. Service errors and
// failed commands both yield a failed result carrying a ToolExecutionError.
func (e *Executor) Run(ctx context.Context, plan *Plan) ExecutionResult {
	res := ExecutionResult{Unit: plan.Unit.Name, Stages: plan.Unit.Stages}
	cmds := emit.Render(plan.Commands)

	out, err := e.svc.Execute(ctx, tool.Submission{
		RunID:    logger.RunIDFromContext(ctx),
		Unit:     plan.Unit.Name,
		Commands: cmds,
	})
	if err != nil {
		toolErr := errors.ToolExecution(plan.Unit.Name, 0, err.Error()).WithCause(err)
		res.Status = dag.StatusFailed
		res.Diagnostics = []string{err.Error()}
		res.Aborted = len(cmds)
		res.Err = toolErr
		return res
	}

	byIndex := make(map[int]tool.CommandOutcome, len(out.Results))
	for _, r := range out.Results {
		if _, seen := byIndex[r.Index]; !seen {
			byIndex[r.Index] = r
		}
	}

	for i, line := range cmds {
		r, ok := byIndex[i]
		if ok && r.OK {
			res.Completed++
			continue
		}

		diag := r.Diagnostic
		switch {
		case !ok:
			diag = fmt.Sprintf("tool reported no outcome for command %d", i)
		case diag == "":
			diag = fmt.Sprintf("command %d failed without diagnostic", i)
		}
		res.Status = dag.StatusFailed
		res.Diagnostics = []string{diag}
		res.Aborted = len(cmds) - i - 1
		res.Err = errors.ToolExecution(plan.Unit.Name, i, diag).
			WithDetail("line", line).
			WithDetail("stage", plan.Commands[i].Stage)
		return res
	}

	res.Status = dag.StatusSuccess
	res.Artifacts = append([]stage.Produced(nil), plan.Produces...)
	return res
}

// diagnostic returns the message carried by err: the bare AppError message
// when available, so tool text is passed through unchanged.
func diagnostic(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
