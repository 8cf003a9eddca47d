package provider

import (
	"github.com/kbukum/powerflow/resilience"
)

// ResilienceConfig bundles optional resilience policies for a provider.
// A nil Retry means pure passthrough.
type ResilienceConfig struct {
	// Retry re-executes calls that fail with a retryable error.
	Retry *resilience.RetryConfig
}

// IsEmpty returns true if no resilience policies are configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.Retry == nil
}
