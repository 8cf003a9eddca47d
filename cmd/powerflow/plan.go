package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/powerflow/flow"
	"github.com/kbukum/powerflow/report"
	"github.com/kbukum/powerflow/stage"
)

func newPlanCmd(g *globalFlags) *cobra.Command {
	var showCommands, showDefinition bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the executable units and their commands without running anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := g.app()
			if err != nil {
				return err
			}
			s, err := newSession(app.Cfg, app.Logger, nil)
			if err != nil {
				return err
			}
			p, err := s.ctl.Plan(s.req)
			if err != nil {
				return err
			}
			if showDefinition {
				data, err := stage.Marshal(p.Definition)
				if err != nil {
					return err
				}
				if _, err := cmd.OutOrStdout().Write(data); err != nil {
					return err
				}
			}
			return printPlan(cmd.OutOrStdout(), p, showCommands)
		},
	}
	cmd.Flags().BoolVar(&showCommands, "commands", false, "print every unit's tool commands")
	cmd.Flags().BoolVar(&showDefinition, "definition", false, "print the effective flow definition as YAML first")
	return cmd
}

func printPlan(out io.Writer, p *flow.Plan, showCommands bool) error {
	levels, err := p.Levels()
	if err != nil {
		return err
	}
	level := make(map[string]int)
	for i, names := range levels {
		for _, n := range names {
			level[n] = i
		}
	}
	for i, up := range p.Units {
		fmt.Fprintf(out, "%d. %s (level %d)\n", i+1, up.Unit.Name, level[up.Unit.Name])
		if deps := p.Dependencies(up.Unit.Name); len(deps) > 0 {
			fmt.Fprintf(out, "   after: %s\n", strings.Join(deps, ", "))
		}
		for _, r := range up.Unit.Reasons {
			fmt.Fprintf(out, "   fused: %s\n", r)
		}
		if up.EmitErr != nil {
			fmt.Fprintf(out, "   error: %v\n", up.EmitErr)
			if down, _ := p.Downstream(up.Unit.Name); len(down) > 0 {
				fmt.Fprintf(out, "   blocks: %s\n", strings.Join(down, ", "))
			}
			continue
		}
		fmt.Fprintf(out, "   commands: %d\n", len(up.Commands))
		if showCommands {
			for _, c := range up.Commands {
				fmt.Fprintf(out, "     %s\n", c.Render())
			}
		}
	}
	return nil
}

func newReportsCmd(g *globalFlags) *cobra.Command {
	var catalog bool
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Resolve the report configuration into concrete report outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if catalog {
				printCatalog(out)
				return nil
			}
			app, err := g.app()
			if err != nil {
				return err
			}
			specs, err := report.Resolve(app.Cfg.Reports)
			if err != nil {
				return err
			}
			for _, s := range specs {
				fmt.Fprintf(out, "%s\t%s\t%s\n", s.Kind, s.Format, s.Destination)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&catalog, "catalog", false, "list the supported report kinds and formats instead")
	return cmd
}

func printCatalog(out io.Writer) {
	for _, e := range report.Catalog() {
		formats := make([]string, len(e.Formats))
		for i, f := range e.Formats {
			formats[i] = string(f)
		}
		line := fmt.Sprintf("%s\t%s", e.Kind, strings.Join(formats, ","))
		if e.TimeBased {
			line += "\ttime-based"
		}
		fmt.Fprintln(out, line)
	}
}
