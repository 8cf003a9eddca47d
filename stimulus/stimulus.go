// Package stimulus models the waveform and SAIF inputs of a power run: their
// analysis window, the time based analysis mode, and the alias each distinct
// read is registered under inside the tool session.
package stimulus

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/powerflow/validation"
)

// Method is the time based analysis method of a stimulus.
type Method string

// Methods in precedence order. When several are configured the first wins.
const (
	MethodNone         Method = ""
	MethodIntervalSize Method = "interval_size"
	MethodIntervalList Method = "interval_list"
	MethodCycles       Method = "num_toggles"
	MethodFrameCount   Method = "frame_count"
)

// Stimulus is one waveform (VCD, FSDB, SHM) or SAIF file.
type Stimulus struct {
	Path string `yaml:"path" mapstructure:"path"`
	// Stem names the reports for this stimulus. Defaults to the file name.
	Stem string `yaml:"stem" mapstructure:"stem"`

	Start time.Duration `yaml:"start" mapstructure:"start"`
	End   time.Duration `yaml:"end" mapstructure:"end"`

	IntervalSize time.Duration `yaml:"interval_size" mapstructure:"interval_size"`
	IntervalList string        `yaml:"interval_list" mapstructure:"interval_list"`
	NumToggles   int           `yaml:"num_toggles" mapstructure:"num_toggles"`
	ToggleSignal string        `yaml:"toggle_signal" mapstructure:"toggle_signal"`
	FrameCount   int           `yaml:"frame_count" mapstructure:"frame_count"`
}

// configured returns the time based methods that are set, in precedence order.
func (s Stimulus) configured() []Method {
	var out []Method
	if s.IntervalSize > 0 {
		out = append(out, MethodIntervalSize)
	}
	if s.IntervalList != "" {
		out = append(out, MethodIntervalList)
	}
	if s.NumToggles > 0 {
		out = append(out, MethodCycles)
	}
	if s.FrameCount > 0 {
		out = append(out, MethodFrameCount)
	}
	return out
}

// Method returns the effective time based method.
func (s Stimulus) Method() Method {
	if m := s.configured(); len(m) > 0 {
		return m[0]
	}
	return MethodNone
}

// TimeBased reports whether the stimulus is analysed frame by frame.
func (s Stimulus) TimeBased() bool { return s.Method() != MethodNone }

// Mode is the compute_power mode for this stimulus.
func (s Stimulus) Mode() string {
	if s.TimeBased() {
		return "time_based"
	}
	return "average"
}

// ReportStem returns the report stem: Stem when set, else the file name.
func (s Stimulus) ReportStem() string {
	if s.Stem != "" {
		return s.Stem
	}
	return filepath.Base(s.Path)
}

// validate appends problems for this stimulus under field.
func (s Stimulus) validate(v *validation.Validator, field string) {
	v.Required(field+".path", s.Path)
	v.Custom(s.Start >= 0, field+".start", "must not be negative")
	v.Custom(s.End >= 0, field+".end", "must not be negative")
	if s.Start > 0 && s.End > 0 {
		v.Custom(s.End > s.Start, field+".end", "must be after start")
	}
	v.Custom(s.IntervalSize >= 0, field+".interval_size", "must not be negative")
	v.Min(field+".num_toggles", s.NumToggles, 0)
	v.Min(field+".frame_count", s.FrameCount, 0)
}

// Nanoseconds formats d in the tool's ns notation, e.g. "12.5ns".
func Nanoseconds(d time.Duration) string {
	ns := float64(d) / float64(time.Nanosecond)
	s := fmt.Sprintf("%g", ns)
	if strings.ContainsAny(s, "e") {
		s = fmt.Sprintf("%.0f", ns)
	}
	return s + "ns"
}
