package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/powerflow/bootstrap"
	"github.com/kbukum/powerflow/flow"
	"github.com/kbukum/powerflow/logger"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the whole flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFlow(cmd, g, nil)
		},
	}
}

func newStageCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stage NAME...",
		Short: "Run the units containing the named stages",
		Long: `Run only the executable units that contain the named stages. Their inputs
must have been produced by an earlier invocation and recorded in the run
directory's manifest; units whose inputs are missing are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, g, args)
		},
	}
}

// runFlow runs the whole flow, or the units of stages when given.
func runFlow(cmd *cobra.Command, g *globalFlags, stages []string) error {
	app, err := g.app()
	if err != nil {
		return err
	}
	tel := &telemetry{cfg: app.Cfg}
	tel.install(app)

	return app.RunTask(cmd.Context(), func(ctx context.Context) error {
		s, err := newSession(app.Cfg, app.Logger, tel.metrics)
		if err != nil {
			return err
		}
		return s.execute(ctx, app, cmd.OutOrStdout(), stages)
	})
}

func (s *session) execute(ctx context.Context, app *bootstrap.App[*FlowConfig], out io.Writer, stages []string) error {
	s.log.Info("flow starting", logger.Fields(
		"flow", s.req.Definition.Name,
		"service", s.cfg.Service,
		"run_dir", s.cfg.RunDir,
		"version", versionString(app.Version),
	))

	var (
		rep *flow.Report
		err error
	)
	if len(stages) == 0 {
		rep, err = s.ctl.Run(ctx, s.req)
	} else {
		rep, err = s.ctl.RunStages(ctx, s.req, stages)
	}
	if err != nil {
		return err
	}
	if err := printReport(out, rep); err != nil {
		return err
	}
	return rep.Err()
}

// printReport writes one row per unit, then each unit's diagnostics.
func printReport(out io.Writer, rep *flow.Report) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "UNIT\tSTATUS\tCOMPLETED\tABORTED\n")
	for _, r := range rep.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.Unit, r.Status, r.Completed, r.Aborted)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, r := range rep.Results {
		for _, d := range r.Diagnostics {
			fmt.Fprintf(out, "%s: %s\n", r.Unit, strings.TrimRight(d, "\n"))
		}
	}
	fmt.Fprintf(out, "run %s\n", rep.RunID)
	return nil
}
