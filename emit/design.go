package emit

import "strings"

// Level is the abstraction level analysed.
type Level string

const (
	LevelRTL Level = "rtl"
	LevelSyn Level = "syn"
)

// Library domains in preference order.
var libraryDomains = []string{"extra", "setup", "hold"}

// Design describes the design under analysis.
type Design struct {
	Level     Level    `yaml:"level" mapstructure:"level" validate:"required,oneof=rtl syn"`
	TopModule string   `yaml:"top_module" mapstructure:"top_module" validate:"required"`
	Files     []string `yaml:"input_files" mapstructure:"input_files" validate:"required,min=1"`
	Defines   []string `yaml:"defines" mapstructure:"defines"`
	// Libraries are timing libraries grouped by corner domain.
	Libraries []Library `yaml:"libraries" mapstructure:"libraries" validate:"required,min=1,dive"`
	PowerSpec PowerSpec `yaml:"power_spec" mapstructure:"power_spec"`
	// SDC files; generated constraints for RTL, post-synthesis ones for netlists.
	SDC    []string `yaml:"sdc" mapstructure:"sdc"`
	Clocks []string `yaml:"clocks" mapstructure:"clocks"`
	// TBName and TBDut locate the design inside the simulation waveform.
	TBName string `yaml:"tb_name" mapstructure:"tb_name" validate:"required"`
	TBDut  string `yaml:"tb_dut" mapstructure:"tb_dut" validate:"required"`
}

// Library is a set of timing libraries for one corner domain.
type Library struct {
	Domain string   `yaml:"domain" mapstructure:"domain" validate:"required,oneof=extra setup hold"`
	Files  []string `yaml:"files" mapstructure:"files" validate:"required,min=1"`
}

// PowerSpec is the power intent file.
type PowerSpec struct {
	Type string `yaml:"type" mapstructure:"type" validate:"omitempty,oneof=cpf upf"`
	File string `yaml:"file" mapstructure:"file" validate:"required_with=Type"`
}

// DUTInstance is the design's instance path in the waveform, with the dots
// a simulator may use replaced by slashes.
func (d Design) DUTInstance() string {
	return d.TBName + "/" + strings.ReplaceAll(d.TBDut, ".", "/")
}

// library picks the libraries of the preferred domain.
func (d Design) library() (Library, bool) {
	for _, domain := range libraryDomains {
		for _, l := range d.Libraries {
			if l.Domain == domain {
				return l, true
			}
		}
	}
	return Library{}, false
}

// Settings are reapplied at the start of every tool invocation.
type Settings struct {
	MaxThreads int `yaml:"max_threads" mapstructure:"max_threads" validate:"gte=1"`
	// MaxFrameCount raises the tool's default of 1000 frames.
	MaxFrameCount int `yaml:"max_frame_count" mapstructure:"max_frame_count" validate:"gte=1"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{MaxThreads: 8, MaxFrameCount: 100000000}
}
