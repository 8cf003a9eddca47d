package provider

import (
	"context"
	"time"

	"github.com/kbukum/powerflow/observability"
)

// WithMetrics returns a Middleware that records operation count, duration
// and errors for each Execute call. A nil metrics set disables recording.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		if metrics == nil {
			return inner
		}
		return &metricsRR[I, O]{inner: inner, metrics: metrics}
	}
}

type metricsRR[I, O any] struct {
	inner   RequestResponse[I, O]
	metrics *observability.Metrics
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)

	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusError
		m.metrics.RecordError(ctx, "execute", m.inner.Name())
	}
	m.metrics.RecordOperation(ctx, m.inner.Name(), "execute", status, time.Since(start))
	return output, err
}
