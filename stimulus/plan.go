package stimulus

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kbukum/powerflow/validation"
)

// FieldPrefix roots field paths in configuration errors.
const FieldPrefix = "stimuli"

// Entry is a stimulus with its session alias.
type Entry struct {
	Stimulus
	// Alias is the name the stimulus is read under, e.g. "stim0".
	Alias string
	// New is false when an earlier entry already reads the same data; the
	// read and compute commands are then emitted only once.
	New bool
	// ToggleSignal is the effective signal for MethodCycles.
	ToggleSignal string
}

// Options controls planning.
type Options struct {
	// BaseDir makes relative stimulus paths absolute.
	BaseDir string
	// DefaultToggleSignal is used for num_toggles without toggle_signal,
	// usually the first design clock.
	DefaultToggleSignal string
	// RequireTimeBased rejects average mode stimuli, needed for profile reports.
	RequireTimeBased bool
}

// Plan is the ordered set of stimulus entries for one run.
type Plan struct {
	Entries  []Entry
	Warnings []string
}

// Aliases returns the distinct aliases in first read order.
func (p *Plan) Aliases() []string {
	var out []string
	for _, e := range p.Entries {
		if e.New {
			out = append(out, e.Alias)
		}
	}
	return out
}

// Lookup returns the entry registered under alias.
func (p *Plan) Lookup(alias string) (Entry, bool) {
	for _, e := range p.Entries {
		if e.Alias == alias && e.New {
			return e, true
		}
	}
	return Entry{}, false
}

// aliasTable assigns stimN aliases to distinct reads.
type aliasTable struct {
	index map[readKey]int
}

// readKey is everything that makes two reads produce the same data.
type readKey struct {
	path         string
	start, end   int64
	method       Method
	intervalSize int64
	intervalList string
	numToggles   int
	toggleSignal string
	frameCount   int
}

func (t *aliasTable) assign(k readKey) (string, bool) {
	if t.index == nil {
		t.index = make(map[readKey]int)
	}
	if n, ok := t.index[k]; ok {
		return fmt.Sprintf("stim%d", n), false
	}
	n := len(t.index)
	t.index[k] = n
	return fmt.Sprintf("stim%d", n), true
}

// Build validates stimuli and assigns aliases in declaration order.
func Build(stimuli []Stimulus, opts Options) (*Plan, error) {
	v := validation.New()
	if len(stimuli) == 0 {
		v.AddError(FieldPrefix, "at least one stimulus is required")
		return nil, v.Err()
	}

	plan := &Plan{}
	table := &aliasTable{}
	stems := make(map[string]int)
	for i, s := range stimuli {
		field := fmt.Sprintf("%s[%d]", FieldPrefix, i)
		s.validate(v, field)
		if s.Path != "" && !filepath.IsAbs(s.Path) && opts.BaseDir != "" {
			s.Path = filepath.Join(opts.BaseDir, s.Path)
		}

		methods := s.configured()
		if len(methods) > 1 {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf(
				"%s: more than one time-based analysis specified (%s), using %s",
				field, joinMethods(methods), methods[0]))
		}
		if opts.RequireTimeBased && !s.TimeBased() {
			v.AddError(field, "profile reports need time-based analysis: set interval_size, interval_list, num_toggles or frame_count")
		}

		toggle := s.ToggleSignal
		if s.Method() == MethodCycles && toggle == "" {
			toggle = opts.DefaultToggleSignal
			if toggle == "" {
				v.AddError(field+".toggle_signal", "is required with num_toggles when the design declares no clock")
			} else {
				plan.Warnings = append(plan.Warnings, fmt.Sprintf(
					"%s: unspecified toggle_signal for num_toggles, using %s", field, toggle))
			}
		}

		if s.Path != "" {
			stem := s.ReportStem()
			if prev, dup := stems[stem]; dup {
				v.AddError(field+".stem", fmt.Sprintf("report stem %q already used by %s[%d]", stem, FieldPrefix, prev))
			} else {
				stems[stem] = i
			}
		}

		alias, isNew := table.assign(keyOf(s, toggle))
		plan.Entries = append(plan.Entries, Entry{
			Stimulus:     s,
			Alias:        alias,
			New:          isNew,
			ToggleSignal: toggle,
		})
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return plan, nil
}

func keyOf(s Stimulus, toggle string) readKey {
	k := readKey{
		path:   s.Path,
		start:  int64(s.Start),
		end:    int64(s.End),
		method: s.Method(),
	}
	switch k.method {
	case MethodIntervalSize:
		k.intervalSize = int64(s.IntervalSize)
	case MethodIntervalList:
		k.intervalList = s.IntervalList
	case MethodCycles:
		k.numToggles = s.NumToggles
		k.toggleSignal = toggle
	case MethodFrameCount:
		k.frameCount = s.FrameCount
	}
	return k
}

func joinMethods(ms []Method) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
