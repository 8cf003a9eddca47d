package bootstrap

import (
	"os"
	"time"

	"github.com/kbukum/powerflow/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	signals         []os.Signal
	signalsSet      bool
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger instead of one built from the config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout bounds the time stop hooks may take.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithSignals replaces the signals that cancel a running task. With no
// arguments the task is never canceled by a signal.
func WithSignals(sigs ...os.Signal) Option {
	return func(o *appOptions) {
		o.signals = sigs
		o.signalsSet = true
	}
}
