package provider

import "context"

// Provider is the base interface all providers must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from a typed configuration.
type Factory[C any, T Provider] func(cfg C) (T, error)

// Describer is implemented by requests that identify themselves in logs and
// spans, e.g. the unit a tool submission belongs to.
type Describer interface {
	Describe() map[string]any
}

func describe(input any) map[string]any {
	if d, ok := input.(Describer); ok {
		return d.Describe()
	}
	return nil
}
