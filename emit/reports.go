package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/powerflow/report"
	"github.com/kbukum/powerflow/stimulus"
)

// ReadArgs returns the read_stimulus arguments for an entry, without the
// alias.
func ReadArgs(entry stimulus.Entry, dut string) []string {
	args := []string{"-file " + word(entry.Path), "-dut_instance " + word(dut)}
	if entry.Start > 0 {
		args = append(args, "-start "+stimulus.Nanoseconds(entry.Start))
	}
	if entry.End > 0 {
		args = append(args, "-end "+stimulus.Nanoseconds(entry.End))
	}
	switch entry.Method() {
	case stimulus.MethodIntervalSize:
		args = append(args, "-interval_size "+stimulus.Nanoseconds(entry.IntervalSize))
	case stimulus.MethodIntervalList:
		args = append(args, "-interval_list "+entry.IntervalList)
	case stimulus.MethodCycles:
		args = append(args, "-cycles "+strconv.Itoa(entry.NumToggles)+" "+word(entry.ToggleSignal))
	case stimulus.MethodFrameCount:
		args = append(args, "-frame_count "+strconv.Itoa(entry.FrameCount))
	}
	return args
}

// Reports emits the commands for specs against one stimulus alias. Each spec
// maps to exactly one command, in spec order.
func (e *Emitter) Reports(stageName, alias string, specs []report.Spec) ([]Command, error) {
	cmds := make([]Command, 0, len(specs))
	for _, s := range specs {
		c, err := reportCommand(stageName, alias, s)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func reportCommand(stageName, alias string, s report.Spec) (Command, error) {
	o := s.Options
	stims := "-stims " + alias
	inst := flag("-inst", o.Inst)
	root := flag("-root", o.Inst)
	module := flag("-module", o.Module)
	levels := flag("-levels", o.Levels)
	format := ""
	if s.Format == report.FormatCSV || s.Format == report.FormatJSON {
		format = "-format " + string(s.Format)
	}
	c := Command{Stage: stageName, Output: s.Destination}

	switch s.Kind {
	case report.KindPower:
		c.Verb = "report_power"
		c.Args = []string{stims, inst, module, levels, "-unit mW", format, o.TclArgs}
	case report.KindHierPower:
		hier := levels
		if hier == "" {
			hier = "-levels all"
		}
		c.Verb = "report_power"
		c.Args = []string{stims, inst, module, "-by_hierarchy", hier, "-unit mW", format, o.TclArgs}
	case report.KindActivity:
		c.Verb = "report_activity"
		c.Args = []string{stims, inst, module, levels, format, o.TclArgs}
	case report.KindHierActivity:
		c.Verb = "report_activity"
		c.Args = []string{stims, "-by_hierarchy", levels, format, o.TclArgs}
	case report.KindPPA:
		c.Verb = "report_ppa"
		c.Args = []string{root, module, o.TclArgs}
		c.Redirect = true
	case report.KindArea:
		c.Verb = "report_area"
		c.Args = []string{o.TclArgs}
		c.Redirect = true
	case report.KindTiming:
		c.Verb = "report_timing"
		c.Args = []string{format, o.TclArgs}
		c.Redirect = s.Format == report.FormatRpt
	case report.KindProfile:
		types := "-types total"
		if o.PowerType != "" {
			types = "-types " + o.PowerType
		}
		switch s.Format {
		case report.FormatPNG:
			c.Verb = "plot_power_profile"
			c.Args = []string{stims, inst, module, levels, "-by_category {total}", types, "-unit mW", "-format png", o.TclArgs}
		case report.FormatFSDB:
			c.Verb = "write_power_profile"
			c.Args = []string{stims, root, levels, "-unit mW", "-format fsdb", o.TclArgs}
		}
	case report.KindCustom:
		c.Verb = strings.TrimSpace(o.Command)
		c.Args = []string{stims, o.TclArgs}
		c.Redirect = true
	}
	if c.Verb == "" {
		return Command{}, fmt.Errorf("emit: no command for %s/%s", s.Kind, s.Format)
	}
	return c, nil
}
