package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/powerflow/observability"
	"github.com/kbukum/powerflow/tool"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the tool installation, run directory and flow configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := g.app()
			if err != nil {
				return err
			}
			cfg := app.Cfg
			checkers := []observability.HealthChecker{
				toolChecker(cfg),
				observability.HealthCheckFunc(func(context.Context) observability.Health {
					return runDirHealth(cfg.RunDir)
				}),
				observability.HealthCheckFunc(func(context.Context) observability.Health {
					return configHealth(cfg)
				}),
			}
			sh := observability.Check(cmd.Context(), cfg.Name, versionString(cfg.Version), checkers...)

			data, err := yaml.Marshal(sh)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(data); err != nil {
				return err
			}
			if !sh.Healthy() {
				return fmt.Errorf("%s is %s", cfg.Name, sh.Status)
			}
			return nil
		},
	}
}

// toolChecker probes the tool binary. The dry-run service needs none.
func toolChecker(cfg *FlowConfig) observability.HealthChecker {
	if cfg.Service == tool.ServiceDryRun {
		return observability.HealthCheckFunc(func(context.Context) observability.Health {
			return observability.Health{Name: "tool", Status: observability.HealthStatusUp, Message: "dry run"}
		})
	}
	svc, err := tool.NewScriptService(cfg.Tool)
	if err != nil {
		return observability.HealthCheckFunc(func(context.Context) observability.Health {
			return observability.Health{Name: "tool", Status: observability.HealthStatusDown, Message: err.Error()}
		})
	}
	return svc
}

func runDirHealth(dir string) observability.Health {
	h := observability.Health{Name: "run_dir", Status: observability.HealthStatusUp, Details: map[string]string{"path": dir}}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
		return h
	}
	probe, err := os.CreateTemp(dir, ".powerflow-check-*")
	if err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = "not writable: " + err.Error()
		return h
	}
	probe.Close()
	os.Remove(probe.Name())
	return h
}

// configHealth plans the flow; warnings degrade, errors are down.
func configHealth(cfg *FlowConfig) observability.Health {
	h := observability.Health{Name: "flow", Status: observability.HealthStatusUp}
	def, err := cfg.Definition()
	if err == nil {
		h.Details = map[string]string{"flow": def.Name}
		_, err = cfg.Table()
	}
	if err == nil {
		inputs, ierr := cfg.Inputs()
		if ierr != nil {
			err = ierr
		} else if len(inputs.Warnings) > 0 {
			h.Status = observability.HealthStatusDegraded
			h.Message = fmt.Sprintf("%d warning(s): %s", len(inputs.Warnings), inputs.Warnings[0])
		}
	}
	if err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h
}
