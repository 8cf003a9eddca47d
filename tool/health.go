package tool

import (
	"context"

	"github.com/kbukum/powerflow/observability"
)

func binaryHealth(ctx context.Context, s *ScriptService) observability.Health {
	h := observability.Health{
		Name:    "tool",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"binary": s.cfg.Binary, "work_dir": s.cfg.WorkDir},
	}
	if !s.IsAvailable(ctx) {
		h.Status = observability.HealthStatusDown
		h.Message = s.cfg.Binary + " not found on PATH"
	}
	return h
}
