package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kbukum/powerflow/config"
	"github.com/kbukum/powerflow/emit"
	"github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/fusion"
	"github.com/kbukum/powerflow/observability"
	"github.com/kbukum/powerflow/report"
	"github.com/kbukum/powerflow/stage"
	"github.com/kbukum/powerflow/stimulus"
	"github.com/kbukum/powerflow/tool"
	"github.com/kbukum/powerflow/validation"
)

// FlowConfig is the powerflow configuration file.
type FlowConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Flow is a YAML flow definition. Empty runs the built-in flow.
	Flow string `yaml:"flow" mapstructure:"flow"`
	// RunDir receives checkpoints, scripts and the artifact manifest.
	RunDir string `yaml:"run_dir" mapstructure:"run_dir"`

	Design   emit.Design         `yaml:"design" mapstructure:"design" validate:"-"`
	Settings emit.Settings       `yaml:"settings" mapstructure:"settings" validate:"-"`
	Stimuli  []stimulus.Stimulus `yaml:"stimuli" mapstructure:"stimuli" validate:"-"`
	Reports  report.Config       `yaml:"reports" mapstructure:"reports" validate:"-"`

	// Limitations override the built-in table. LimitationsFile (YAML or
	// TOML) wins over inline entries.
	Limitations     []fusion.Limitation `yaml:"limitations" mapstructure:"limitations" validate:"-"`
	LimitationsFile string              `yaml:"limitations_file" mapstructure:"limitations_file"`

	// Service selects the command service: script or dry-run.
	Service string      `yaml:"service" mapstructure:"service" validate:"omitempty,oneof=script dry-run"`
	Tool    tool.Config `yaml:"tool" mapstructure:"tool" validate:"-"`

	// ParseProfiles converts profile data after a successful reporting unit.
	ParseProfiles bool `yaml:"parse_profiles" mapstructure:"parse_profiles"`

	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// ObservabilityConfig selects trace and metric export.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Exporter   string  `yaml:"exporter" mapstructure:"exporter" validate:"omitempty,oneof=otlp stdout none"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	// File receives stdout-exported spans instead of standard output.
	File string `yaml:"file" mapstructure:"file"`
}

// MetricsConfig configures OTLP metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills unset fields.
func (c *FlowConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.RunDir == "" {
		c.RunDir = "build/power"
	}
	def := emit.DefaultSettings()
	if c.Settings.MaxThreads == 0 {
		c.Settings.MaxThreads = def.MaxThreads
	}
	if c.Settings.MaxFrameCount == 0 {
		c.Settings.MaxFrameCount = def.MaxFrameCount
	}
	if c.Service == "" {
		c.Service = tool.ServiceScript
	}
	if c.Tool.WorkDir == "" {
		c.Tool.WorkDir = c.RunDir
	}
	if c.Tool.ScriptDir == "" {
		c.Tool.ScriptDir = filepath.Join(c.RunDir, "scripts")
	}
	c.Tool.ApplyDefaults()

	t := observability.DefaultTracerConfig(c.Name)
	if c.Observability.Tracing.Exporter == "" {
		c.Observability.Tracing.Exporter = t.Exporter
	}
	if c.Observability.Tracing.Endpoint == "" {
		c.Observability.Tracing.Endpoint = t.Endpoint
	}
	if c.Observability.Tracing.SampleRate == 0 {
		c.Observability.Tracing.SampleRate = t.SampleRate
	}
	m := observability.DefaultMeterConfig(c.Name)
	if c.Observability.Metrics.Endpoint == "" {
		c.Observability.Metrics.Endpoint = m.Endpoint
	}
	if c.Observability.Metrics.Interval == 0 {
		c.Observability.Metrics.Interval = m.Interval
	}
}

// Validate checks the parts of the configuration that do not depend on the
// design inputs; those are checked together by Inputs.
func (c *FlowConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	v := validation.New()
	if err := v.MergeError("", validation.Validate(c)); err != nil {
		return err
	}
	if err := v.MergeError("", c.Tool.Validate()); err != nil {
		return err
	}
	return v.Err()
}

// Definition loads the configured flow definition.
func (c *FlowConfig) Definition() (*stage.Definition, error) {
	if c.Flow == "" {
		return stage.Canonical(), nil
	}
	return stage.Load(c.Flow)
}

// Table returns the limitation table in effect.
func (c *FlowConfig) Table() (*fusion.Table, error) {
	switch {
	case c.LimitationsFile != "":
		t, err := fusion.LoadTable(c.LimitationsFile)
		if err != nil {
			return nil, errors.Configuration("limitations_file", err.Error()).WithCause(err)
		}
		return t, nil
	case len(c.Limitations) > 0:
		t := &fusion.Table{Version: "config", Entries: c.Limitations}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return fusion.DefaultTable(), nil
	}
}

// Inputs validates the design, stimuli and reports together.
func (c *FlowConfig) Inputs() (*emit.Inputs, error) {
	return emit.NewInputs(c.Design, c.Settings, c.Stimuli, c.Reports, c.Tool.WorkDir)
}

// ManifestPath is where artifacts are recorded between invocations.
func (c *FlowConfig) ManifestPath() string {
	return filepath.Join(c.RunDir, "manifest.yaml")
}

// tracerConfig maps the config onto the observability package.
func (c *FlowConfig) tracerConfig() observability.TracerConfig {
	t := observability.DefaultTracerConfig(c.Name)
	t.ServiceVersion = versionString(c.Version)
	t.Environment = c.Environment
	t.Exporter = c.Observability.Tracing.Exporter
	t.Endpoint = c.Observability.Tracing.Endpoint
	t.Insecure = c.Observability.Tracing.Insecure
	t.SampleRate = c.Observability.Tracing.SampleRate
	return t
}

func (c *FlowConfig) meterConfig() observability.MeterConfig {
	m := observability.DefaultMeterConfig(c.Name)
	m.ServiceVersion = versionString(c.Version)
	m.Environment = c.Environment
	m.Endpoint = c.Observability.Metrics.Endpoint
	m.Insecure = c.Observability.Metrics.Insecure
	m.Interval = c.Observability.Metrics.Interval
	return m
}

// loadFlowConfig reads the configuration file and environment. Defaults and
// validation are applied by bootstrap.NewApp.
func loadFlowConfig(path, envFile string) (*FlowConfig, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg := &FlowConfig{}
	if err := config.LoadConfig("powerflow", cfg, opts...); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
