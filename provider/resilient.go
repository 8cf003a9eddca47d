package provider

import (
	"context"
	"errors"

	pferrors "github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/resilience"
)

// WithResilience wraps a RequestResponse provider with the configured
// policies. Empty config returns the provider unchanged.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	return &resilientRR[I, O]{inner: p, cfg: cfg}
}

type resilientRR[I, O any] struct {
	inner RequestResponse[I, O]
	cfg   ResilienceConfig
}

func (r *resilientRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	out, err := resilience.Retry(ctx, *r.cfg.Retry, func() (O, error) {
		return r.inner.Execute(ctx, input)
	})
	return out, wrapResilienceError(err)
}

// wrapResilienceError converts context errors surfacing from the retry loop
// into AppErrors. Existing AppErrors are returned as-is.
func wrapResilienceError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := pferrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return pferrors.Timeout("request canceled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return pferrors.Timeout("deadline exceeded").WithCause(err)
	default:
		return err
	}
}
