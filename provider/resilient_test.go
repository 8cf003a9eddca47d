package provider_test

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/provider"
	"github.com/kbukum/powerflow/resilience"
)

func fastRetry(attempts int) *resilience.RetryConfig {
	return &resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestWithResilience_EmptyConfigPassthrough(t *testing.T) {
	p := &echoProvider{name: "plain"}
	if got := provider.WithResilience[string, string](p, provider.ResilienceConfig{}); got != provider.RequestResponse[string, string](p) {
		t.Error("empty config should return the provider unchanged")
	}
}

func TestWithResilience_RetriesLaunchFailures(t *testing.T) {
	p := &failingProvider{err: errors.ServiceUnavailable("joules")}
	wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{Retry: fastRetry(3)})

	_, err := wrapped.Execute(context.Background(), "x")
	if !errors.HasCode(err, errors.ErrCodeServiceUnavailable) {
		t.Errorf("got %v, want SERVICE_UNAVAILABLE", err)
	}
	if n := p.calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestWithResilience_ToolFailureIsFinal(t *testing.T) {
	p := &failingProvider{err: errors.ToolExecution("init_design", 0, "Error: cannot open file")}
	wrapped := provider.WithResilience[string, string](p, provider.ResilienceConfig{Retry: fastRetry(3)})

	_, err := wrapped.Execute(context.Background(), "x")
	if !errors.HasCode(err, errors.ErrCodeToolExecution) {
		t.Errorf("got %v, want TOOL_EXECUTION_ERROR", err)
	}
	if n := p.calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestWithResilience_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wrapped := provider.WithResilience[string, string](&echoProvider{name: "x"}, provider.ResilienceConfig{Retry: fastRetry(3)})

	_, err := wrapped.Execute(ctx, "x")
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Errorf("got %v, want TIMEOUT", err)
	}
}
