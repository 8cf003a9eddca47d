package provider

import "slices"

// Middleware wraps a RequestResponse provider with cross-cutting behavior.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain composes middlewares. The first one is outermost:
// Chain(a, b, c)(p) is a(b(c(p))).
func Chain[I, O any](middlewares ...Middleware[I, O]) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		for _, mw := range slices.Backward(middlewares) {
			inner = mw(inner)
		}
		return inner
	}
}
