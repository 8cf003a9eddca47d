package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UnitContext holds observability context for one unit execution.
type UnitContext struct {
	RunID     string
	Unit      string
	Stages    []string
	Commands  int
	StartTime time.Time
	Metrics   *Metrics
}

// NewUnitContext creates a unit context starting now.
// If metrics is nil, metric recording is silently skipped.
func NewUnitContext(runID, unit string, stages []string, commands int, metrics *Metrics) *UnitContext {
	return &UnitContext{
		RunID:     runID,
		Unit:      unit,
		Stages:    stages,
		Commands:  commands,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type unitContextKey struct{}

// WithUnitContext stores a UnitContext in the context.
func WithUnitContext(ctx context.Context, uc *UnitContext) context.Context {
	return context.WithValue(ctx, unitContextKey{}, uc)
}

// UnitContextFromContext retrieves the UnitContext from context, or nil.
func UnitContextFromContext(ctx context.Context) *UnitContext {
	if uc, ok := ctx.Value(unitContextKey{}).(*UnitContext); ok {
		return uc
	}
	return nil
}

// StartSpan starts the unit span and stores the unit context in the returned context.
func (uc *UnitContext) StartSpan(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanUnitExec)
	span.SetAttributes(
		attribute.String(AttrUnit, uc.Unit),
		attribute.StringSlice(AttrStages, uc.Stages),
		attribute.Int(AttrCommands, uc.Commands),
	)
	if uc.RunID != "" {
		span.SetAttributes(attribute.String(AttrRunID, uc.RunID))
	}
	return WithUnitContext(ctx, uc), span
}

// End ends the span and records the unit metrics.
func (uc *UnitContext) End(ctx context.Context, span trace.Span, status string, err error) {
	duration := time.Since(uc.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if uc.Metrics != nil {
		uc.Metrics.RecordUnit(ctx, uc.Unit, status, uc.Commands, duration)
	}
}

// Duration returns the elapsed time since the unit started.
func (uc *UnitContext) Duration() time.Duration {
	return time.Since(uc.StartTime)
}
