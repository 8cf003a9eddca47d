package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	pferrors "github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/logger"
	"github.com/kbukum/powerflow/observability"
	"github.com/kbukum/powerflow/process"
	"github.com/kbukum/powerflow/resilience"
	"github.com/kbukum/powerflow/validation"
)

// ScriptPlaceholder in Config.Args is replaced by the generated script path.
const ScriptPlaceholder = "{script}"

// DefaultArgs runs a script non-interactively in the tool's common UI.
var DefaultArgs = []string{"-files", ScriptPlaceholder, "-common_ui", "-no_gui", "-batch"}

// Config configures the batch script service.
type Config struct {
	// Name identifies the service in logs, spans and metrics.
	Name string `yaml:"name" mapstructure:"name"`
	// Binary is the tool executable.
	Binary string `yaml:"binary" mapstructure:"binary" validate:"required"`
	// Args are passed to Binary; ScriptPlaceholder marks the script path.
	Args []string `yaml:"args" mapstructure:"args"`
	// WorkDir is the tool's working directory.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
	// ScriptDir receives the generated scripts and logs. Defaults to WorkDir.
	ScriptDir string `yaml:"script_dir" mapstructure:"script_dir"`
	// Timeout bounds one invocation. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// GracePeriod is the wait between SIGTERM and SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
	// Env holds extra KEY=value pairs for the tool.
	Env []string `yaml:"env" mapstructure:"env"`
	// LaunchRetry retries invocations where the tool never started.
	LaunchRetry *resilience.RetryConfig `yaml:"launch_retry" mapstructure:"launch_retry"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "joules"
	}
	if c.Binary == "" {
		c.Binary = "joules"
	}
	if len(c.Args) == 0 {
		c.Args = append([]string(nil), DefaultArgs...)
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.ScriptDir == "" {
		c.ScriptDir = c.WorkDir
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = 10 * time.Second
	}
}

// Validate validates the service configuration.
func (c *Config) Validate() error {
	v := validation.New()
	v.Required("tool.binary", c.Binary)
	if !hasPlaceholder(c.Args) {
		v.Custom(false, "tool.args", fmt.Sprintf("must contain %s", ScriptPlaceholder))
	}
	if c.Timeout < 0 {
		v.Custom(false, "tool.timeout", "must not be negative")
	}
	return v.Err()
}

func hasPlaceholder(args []string) bool {
	for _, a := range args {
		if strings.Contains(a, ScriptPlaceholder) {
			return true
		}
	}
	return false
}

// ScriptService runs each submission as one batch script through the tool.
type ScriptService struct {
	cfg     Config
	adapter *process.Adapter
	log     *logger.Logger
}

var _ Service = (*ScriptService)(nil)

// NewScriptService creates a ScriptService. cfg defaults are applied first.
func NewScriptService(cfg Config) (*ScriptService, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ScriptService{
		cfg: cfg,
		adapter: process.NewAdapter(process.Config{
			Name:        cfg.Name,
			Binary:      cfg.Binary,
			GracePeriod: cfg.GracePeriod,
			Timeout:     cfg.Timeout,
		}),
		log: logger.WithComponent("tool"),
	}, nil
}

// Name returns the configured service name.
func (s *ScriptService) Name() string { return s.cfg.Name }

// IsAvailable reports whether the tool binary resolves.
func (s *ScriptService) IsAvailable(ctx context.Context) bool {
	return s.adapter.IsAvailable(ctx)
}

// CheckHealth reports the tool binary status.
func (s *ScriptService) CheckHealth(ctx context.Context) observability.Health {
	return binaryHealth(ctx, s)
}

// Execute writes the submission's script, runs the tool and parses the
// per-command markers from its output.
func (s *ScriptService) Execute(ctx context.Context, sub Submission) (*Outcome, error) {
	if err := os.MkdirAll(s.cfg.ScriptDir, 0o755); err != nil {
		return nil, pferrors.Internal(err)
	}
	base := filepath.Join(s.cfg.ScriptDir, fileName(sub.Unit))
	scriptPath, logPath := base+".tcl", base+".log"
	if err := os.WriteFile(scriptPath, []byte(Script(sub)), 0o644); err != nil {
		return nil, pferrors.Internal(err)
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, pferrors.Internal(err)
	}
	defer logFile.Close()

	s.log.WithContext(ctx).Debug("launching tool", logger.Fields(
		logger.FieldUnit, sub.Unit,
		"script", scriptPath,
		"commands", len(sub.Commands),
	))

	res, runErr := s.adapter.Run(ctx, process.Command{
		Binary: s.cfg.Binary,
		Args:   s.args(scriptPath),
		Dir:    s.cfg.WorkDir,
		Env:    s.cfg.Env,
		Log:    logFile,
	})
	if runErr != nil && !process.Started(runErr) {
		return nil, pferrors.ServiceUnavailable(s.cfg.Name).WithCause(runErr)
	}
	if runErr != nil && ctx.Err() != nil {
		return nil, pferrors.Timeout("tool run for unit " + sub.Unit).WithCause(runErr)
	}

	out := &Outcome{
		Results:  ParseMarkers(res.Stdout),
		ExitCode: res.ExitCode,
		Log:      logPath,
	}
	if _, failed := out.FirstFailure(); failed {
		return out, nil
	}

	switch {
	case res.TimedOut:
		out.Results = append(out.Results, CommandOutcome{
			Index:      len(out.Results),
			Diagnostic: fmt.Sprintf("tool timed out after %s (log: %s)", s.cfg.Timeout, logPath),
		})
	case runErr != nil || res.ExitCode != 0:
		out.Results = append(out.Results, CommandOutcome{
			Index:      len(out.Results),
			Diagnostic: exitDiagnostic(res, logPath),
		})
	}
	return out, nil
}

func (s *ScriptService) args(scriptPath string) []string {
	args := make([]string, len(s.cfg.Args))
	for i, a := range s.cfg.Args {
		args[i] = strings.ReplaceAll(a, ScriptPlaceholder, scriptPath)
	}
	return args
}

// exitDiagnostic describes an exit that printed no failure marker, e.g. a
// license checkout failure after the tool had started.
func exitDiagnostic(res *process.Result, logPath string) string {
	stderr := strings.TrimSpace(string(res.Stderr))
	if stderr != "" {
		return stderr
	}
	return fmt.Sprintf("tool exited with code %d (log: %s)", res.ExitCode, logPath)
}

func fileName(unit string) string {
	if unit == "" {
		return "unit"
	}
	return strings.NewReplacer("/", "_", string(filepath.Separator), "_", " ", "_").Replace(unit)
}
