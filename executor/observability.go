package executor

import (
	"context"
	"time"

	"github.com/kbukum/powerflow/logger"
	"github.com/kbukum/powerflow/observability"
)

// WithTracing wraps a Runner with one span per unit, named unit.execute.
func WithTracing(r Runner) Runner {
	return &tracingRunner{inner: r}
}

type tracingRunner struct {
	inner Runner
}

func (t *tracingRunner) Run(ctx context.Context, plan *Plan) ExecutionResult {
	uc := observability.NewUnitContext(logger.RunIDFromContext(ctx), plan.Unit.Name, plan.Unit.Stages, len(plan.Commands), nil)
	ctx, span := uc.StartSpan(ctx)
	res := t.inner.Run(ctx, plan)
	uc.End(ctx, span, string(res.Status), res.Err)
	return res
}

// WithMetrics wraps a Runner with unit and command metric recording.
// A nil metrics set returns r unchanged.
func WithMetrics(r Runner, metrics *observability.Metrics) Runner {
	if metrics == nil {
		return r
	}
	return &metricsRunner{inner: r, metrics: metrics}
}

type metricsRunner struct {
	inner   Runner
	metrics *observability.Metrics
}

func (m *metricsRunner) Run(ctx context.Context, plan *Plan) ExecutionResult {
	start := time.Now()
	res := m.inner.Run(ctx, plan)
	if res.Err != nil {
		m.metrics.RecordError(ctx, "unit", plan.Unit.Name)
	}
	m.metrics.RecordUnit(ctx, plan.Unit.Name, string(res.Status), res.Completed, time.Since(start))
	return res
}

// WithLogging wraps a Runner with per-unit logging.
// Logs: unit name, command counts, duration, and the failure diagnostic.
func WithLogging(r Runner, log *logger.Logger) Runner {
	return &loggingRunner{inner: r, log: log}
}

type loggingRunner struct {
	inner Runner
	log   *logger.Logger
}

func (l *loggingRunner) Run(ctx context.Context, plan *Plan) ExecutionResult {
	log := l.log.WithContext(ctx)
	log.Info("unit started", logger.Fields(
		logger.FieldUnit, plan.Unit.Name,
		"commands", len(plan.Commands),
	))

	start := time.Now()
	res := l.inner.Run(ctx, plan)

	fields := logger.Fields(
		logger.FieldUnit, plan.Unit.Name,
		logger.FieldStatus, string(res.Status),
		"completed", res.Completed,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	)
	if res.Err != nil {
		fields[logger.FieldError] = res.Err.Error()
		fields["aborted"] = res.Aborted
		log.Error("unit failed", fields)
	} else {
		log.Info("unit completed", fields)
	}
	return res
}
