package emit

import (
	"fmt"
	"path/filepath"

	"github.com/kbukum/powerflow/report"
	"github.com/kbukum/powerflow/stimulus"
	"github.com/kbukum/powerflow/validation"
)

// Inputs is everything the operations need besides the stage itself.
type Inputs struct {
	Design   Design
	Settings Settings
	Stimuli  *stimulus.Plan
	// Reports holds one report set per stimulus entry, in entry order.
	Reports []ReportSet
	// Warnings are non fatal notes produced while preparing inputs.
	Warnings []string
}

// ReportSet is the resolved reports for one stimulus entry.
type ReportSet struct {
	Alias string
	// Stem is the destination stem, frame info is written next to it.
	Stem  string
	Specs []report.Spec
}

// NewInputs validates the design, settings, stimuli and report
// configuration together, and resolves one report set per stimulus. All
// problems are returned as one configuration error.
func NewInputs(design Design, settings Settings, stimuli []stimulus.Stimulus, reports report.Config, baseDir string) (*Inputs, error) {
	v := validation.New()
	type section struct {
		prefix string
		value  any
	}
	for _, s := range []section{{"design", design}, {"settings", settings}} {
		if err := v.MergeError(s.prefix, validation.Validate(s.value)); err != nil {
			return nil, err
		}
	}

	specs, err := report.Resolve(reports)
	if err := v.MergeError("", err); err != nil {
		return nil, err
	}

	opts := stimulus.Options{BaseDir: baseDir, RequireTimeBased: report.RequiresTimeBased(specs)}
	if len(design.Clocks) > 0 {
		opts.DefaultToggleSignal = design.Clocks[0]
	}
	plan, err := stimulus.Build(stimuli, opts)
	if err := v.MergeError("", err); err != nil {
		return nil, err
	}
	if v.HasErrors() {
		return nil, v.Err()
	}

	in := &Inputs{Design: design, Settings: settings, Stimuli: plan, Warnings: plan.Warnings}
	owners := make(map[string]string)
	for _, e := range plan.Entries {
		set, err := report.ResolveStem(reports, e.ReportStem())
		if err != nil {
			return nil, err
		}
		for _, s := range set {
			if prev, dup := owners[s.Destination]; dup {
				v.AddError(report.FieldPrefix+".naming", fmt.Sprintf(
					"%s and %s both write %s", prev, e.Alias, s.Destination))
				continue
			}
			owners[s.Destination] = e.Alias
		}
		stem := e.ReportStem()
		if len(set) > 0 {
			stem = set[0].Stem
		} else if reports.Dir != "" {
			stem = filepath.Join(reports.Dir, stem)
		}
		in.Reports = append(in.Reports, ReportSet{Alias: e.Alias, Stem: stem, Specs: set})
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return in, nil
}
