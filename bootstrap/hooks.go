package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback run around the task.
type Hook func(ctx context.Context) error

// OnStart registers hooks run before the task, in order. A failing hook
// aborts the run; stop hooks still run.
func (a *App[C]) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnStop registers hooks run after the task, in reverse registration order.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
