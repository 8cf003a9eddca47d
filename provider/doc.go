// Package provider defines the generic RequestResponse provider used for the
// power tool service, together with middlewares and a typed factory registry.
//
// # Middleware
//
// Middleware[I, O] is a function that wraps a RequestResponse provider.
// Use Chain to compose multiple middlewares:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	    provider.WithTracing[In, Out]("powerflow"),
//	)(rawProvider)
//
// Requests implementing Describer contribute their fields to log lines and
// span attributes.
//
// # Usage
//
//	reg := provider.NewRegistry[Config, Service]()
//	reg.RegisterFactory("script", newScriptService)
//	svc, err := reg.Create("script", cfg)
package provider
