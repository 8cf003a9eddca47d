package tool

import (
	"github.com/kbukum/powerflow/logger"
	"github.com/kbukum/powerflow/observability"
	"github.com/kbukum/powerflow/provider"
)

// Service names accepted by NewService.
const (
	ServiceScript = "script"
	ServiceDryRun = "dry-run"
)

// DefaultRegistry returns the registry of built-in services.
func DefaultRegistry() *provider.Registry[Config, Service] {
	reg := provider.NewRegistry[Config, Service]()
	reg.RegisterFactory(ServiceScript, func(cfg Config) (Service, error) {
		svc, err := NewScriptService(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.LaunchRetry == nil {
			return svc, nil
		}
		return provider.WithResilience[Submission, *Outcome](svc, provider.ResilienceConfig{Retry: cfg.LaunchRetry}), nil
	})
	reg.RegisterFactory(ServiceDryRun, func(cfg Config) (Service, error) {
		return NewDryRun(cfg.ScriptDir), nil
	})
	return reg
}

// NewService creates the named service from the default registry.
func NewService(name string, cfg Config) (Service, error) {
	return DefaultRegistry().Create(name, cfg)
}

// Instrument traces, measures and logs every submission. metrics may be nil.
func Instrument(svc Service, log *logger.Logger, metrics *observability.Metrics) Service {
	return provider.Chain(
		provider.WithLogging[Submission, *Outcome](log),
		provider.WithMetrics[Submission, *Outcome](metrics),
		provider.WithTracing[Submission, *Outcome]("tool"),
	)(svc)
}
