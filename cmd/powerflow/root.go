package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kbukum/powerflow/bootstrap"
	"github.com/kbukum/powerflow/tool"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	dryRun     bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&g.configPath, "config", "c", "", "configuration file (default: search config.yml, powerflow.yml)")
	fs.StringVar(&g.envFile, "env-file", "", ".env file layered over the configuration")
	fs.StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	fs.StringVar(&g.logFormat, "log-format", "", "log format: console, pretty, json")
	fs.BoolVar(&g.dryRun, "dry-run", false, "write tool scripts without running the tool")
}

// app loads the configuration, applies flag overrides and builds the app.
func (g *globalFlags) app() (*bootstrap.App[*FlowConfig], error) {
	cfg, err := loadFlowConfig(g.configPath, g.envFile)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	if g.dryRun {
		cfg.Service = tool.ServiceDryRun
	}
	return bootstrap.NewApp(cfg)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "powerflow",
		Short: "Staged power analysis flow runner",
		Long: `powerflow runs RTL or gate-level power analysis in stages. Stages whose
results the tool cannot save and reload are fused into one tool invocation;
every other stage boundary is a checkpoint, so single stages can be re-run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.register(root.PersistentFlags())

	root.AddCommand(
		newRunCmd(g),
		newStageCmd(g),
		newPlanCmd(g),
		newReportsCmd(g),
		newParseCmd(g),
		newCheckCmd(g),
		newVersionCmd(),
	)
	return root
}
