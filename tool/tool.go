// Package tool implements the command-executing service that drives the power
// analysis tool. A Submission carries one unit's rendered commands; the service
// runs them in one tool invocation and reports a per-command Outcome.
package tool

import (
	"github.com/kbukum/powerflow/provider"
)

// Submission is one unit's command batch.
type Submission struct {
	RunID    string
	Unit     string
	Commands []string
}

// Describe names the submission in logs and spans.
func (s Submission) Describe() map[string]any {
	return map[string]any{"run_id": s.RunID, "unit": s.Unit, "commands": len(s.Commands)}
}

// CommandOutcome is the tool's verdict on one submitted command.
type CommandOutcome struct {
	Index      int
	OK         bool
	Diagnostic string
}

// Outcome holds the per-command results of one invocation in submission
// order. Execution stops at the first failure, so Results never extends past
// the first entry with OK false.
type Outcome struct {
	Results  []CommandOutcome
	ExitCode int
	// Log is the path of the captured tool output, if one was written.
	Log string
}

// FirstFailure returns the first failed command outcome.
func (o *Outcome) FirstFailure() (CommandOutcome, bool) {
	if o == nil {
		return CommandOutcome{}, false
	}
	for _, r := range o.Results {
		if !r.OK {
			return r, true
		}
	}
	return CommandOutcome{}, false
}

// Service executes a submission and returns its outcome. A returned error
// means the tool could not be driven at all; command failures are reported in
// the Outcome.
type Service = provider.RequestResponse[Submission, *Outcome]
