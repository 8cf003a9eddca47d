package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/powerflow/parse"
)

func newParseCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [DATA...]",
		Short: "Convert power profile data to gzipped CSV",
		Long: `Convert profile data files to parsed/<name>.csv.gz next to each file. Without
arguments the profile reports of the configuration are converted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := g.app()
			if err != nil {
				return err
			}
			var targets []parse.Target
			if len(args) > 0 {
				targets = explicitTargets(args)
			} else {
				in, err := app.Cfg.Inputs()
				if err != nil {
					return err
				}
				targets = parse.Targets(in, app.Cfg.Tool.WorkDir)
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range parse.Run(targets, app.Logger.WithComponent("parse")) {
				switch {
				case r.Skipped:
					fmt.Fprintf(out, "missing  %s\n", r.Target.Data)
				case r.Err != nil:
					failed++
					fmt.Fprintf(out, "failed   %s: %v\n", r.Target.Data, r.Err)
				default:
					fmt.Fprintf(out, "parsed   %s -> %s (%d rows)\n", r.Target.Data, r.Target.Out, r.Rows)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d profiles failed to parse", failed, len(targets))
			}
			return nil
		},
	}
}

func explicitTargets(paths []string) []parse.Target {
	targets := make([]parse.Target, 0, len(paths))
	for _, p := range paths {
		targets = append(targets, parse.Target{
			Data:        p,
			FramePrefix: parse.FramePrefix(p),
			Out:         parse.OutputPath(p),
		})
	}
	return targets
}
