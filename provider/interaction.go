package provider

import "context"

// RequestResponse represents a provider that takes one input and returns one output.
// The power tool service is one: a unit's command batch in, per-command outcomes out.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Func adapts a plain function into a RequestResponse provider.
func Func[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return &funcRR[I, O]{name: name, fn: fn}
}

type funcRR[I, O any] struct {
	name string
	fn   func(ctx context.Context, input I) (O, error)
}

func (f *funcRR[I, O]) Name() string                     { return f.name }
func (f *funcRR[I, O]) IsAvailable(context.Context) bool { return true }

func (f *funcRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.fn(ctx, input)
}
