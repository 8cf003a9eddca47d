package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/kbukum/powerflow/logger"
)

// App runs one finite task with typed configuration.
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger

	gracefulTimeout time.Duration
	signals         []os.Signal

	onStart []Hook
	onStop  []Hook
}

// NewApp applies defaults, validates the config and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.signalsSet {
		app.signals = o.signals
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	return app, nil
}

// RunTask runs start hooks, then task with a context canceled on the
// configured signals, then stop hooks. The task error wins over stop errors.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	a.Logger.Debug("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := runHooks(ctx, a.onStart); err != nil {
		return errors.Join(fmt.Errorf("start: %w", err), a.stop())
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	if len(a.signals) > 0 {
		signal.Notify(sigCh, a.signals...)
		defer signal.Stop(sigCh)
	}
	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Warn("received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)
	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// stop runs stop hooks within the graceful timeout. Every hook runs even if
// an earlier one fails.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var errs []error
	for _, h := range slices.Backward(a.onStop) {
		if err := h(ctx); err != nil {
			a.Logger.Error("stop hook failed", logger.ErrorFields("stop", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
