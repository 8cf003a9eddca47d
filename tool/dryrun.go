package tool

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	pferrors "github.com/kbukum/powerflow/errors"
)

// DryRun accepts every submission and reports all commands as successful
// without running anything. When ScriptDir is set the scripts are still
// written, so a run can be inspected or replayed by hand.
type DryRun struct {
	ScriptDir string

	mu          sync.Mutex
	submissions []Submission
}

var _ Service = (*DryRun)(nil)

// NewDryRun creates a DryRun service writing scripts to scriptDir (may be empty).
func NewDryRun(scriptDir string) *DryRun {
	return &DryRun{ScriptDir: scriptDir}
}

// Name returns "dry-run".
func (d *DryRun) Name() string { return "dry-run" }

// IsAvailable always returns true.
func (d *DryRun) IsAvailable(context.Context) bool { return true }

// Execute records the submission and reports success for every command.
func (d *DryRun) Execute(ctx context.Context, sub Submission) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, pferrors.Timeout("dry run").WithCause(err)
	}

	out := &Outcome{Results: make([]CommandOutcome, len(sub.Commands))}
	for i := range sub.Commands {
		out.Results[i] = CommandOutcome{Index: i, OK: true}
	}

	if d.ScriptDir != "" {
		if err := os.MkdirAll(d.ScriptDir, 0o755); err != nil {
			return nil, pferrors.Internal(err)
		}
		path := filepath.Join(d.ScriptDir, fileName(sub.Unit)+".tcl")
		if err := os.WriteFile(path, []byte(Script(sub)), 0o644); err != nil {
			return nil, pferrors.Internal(err)
		}
		out.Log = path
	}

	d.mu.Lock()
	d.submissions = append(d.submissions, sub)
	d.mu.Unlock()
	return out, nil
}

// Submissions returns the recorded submissions in order.
func (d *DryRun) Submissions() []Submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Submission(nil), d.submissions...)
}
