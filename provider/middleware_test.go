package provider_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kbukum/powerflow/logger"
	"github.com/kbukum/powerflow/observability"
	"github.com/kbukum/powerflow/provider"
)

type echoProvider struct {
	name  string
	calls atomic.Int32
}

func (p *echoProvider) Name() string                       { return p.name }
func (p *echoProvider) IsAvailable(_ context.Context) bool { return true }
func (p *echoProvider) Execute(_ context.Context, input string) (string, error) {
	p.calls.Add(1)
	return "echo:" + input, nil
}

type failingProvider struct {
	err   error
	calls atomic.Int32
}

func (p *failingProvider) Name() string                       { return "fail" }
func (p *failingProvider) IsAvailable(_ context.Context) bool { return false }
func (p *failingProvider) Execute(_ context.Context, _ string) (string, error) {
	p.calls.Add(1)
	return "", p.err
}

type orderTracker[I, O any] struct {
	inner provider.RequestResponse[I, O]
	tag   string
	order *[]string
}

func (o *orderTracker[I, O]) Name() string                         { return o.inner.Name() }
func (o *orderTracker[I, O]) IsAvailable(ctx context.Context) bool { return o.inner.IsAvailable(ctx) }
func (o *orderTracker[I, O]) Execute(ctx context.Context, input I) (O, error) {
	*o.order = append(*o.order, o.tag+":before")
	result, err := o.inner.Execute(ctx, input)
	*o.order = append(*o.order, o.tag+":after")
	return result, err
}

func TestChain_Empty(t *testing.T) {
	p := &echoProvider{name: "test"}
	wrapped := provider.Chain[string, string]()(p)
	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(tag string) provider.Middleware[string, string] {
		return func(inner provider.RequestResponse[string, string]) provider.RequestResponse[string, string] {
			return &orderTracker[string, string]{inner: inner, tag: tag, order: &order}
		}
	}

	wrapped := provider.Chain(mw("A"), mw("B"), mw("C"))(&echoProvider{name: "test"})
	if _, err := wrapped.Execute(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}

	want := []string{"A:before", "B:before", "C:before", "C:after", "B:after", "A:after"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	ok := provider.WithLogging[string, string](log)(&echoProvider{name: "joules"})
	if result, err := ok.Execute(context.Background(), "hello"); err != nil || result != "echo:hello" {
		t.Fatalf("got %q, %v", result, err)
	}
	failing := provider.WithLogging[string, string](log)(&failingProvider{err: errors.New("license denied")})
	if _, err := failing.Execute(logger.ContextWithRunID(context.Background(), "run-1"), "hello"); err == nil {
		t.Fatal("expected error")
	}

	out := buf.String()
	for _, want := range []string{"provider execute ok", "provider execute failed", "license denied", "run-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if failing.IsAvailable(context.Background()) {
		t.Error("IsAvailable should delegate to the inner provider")
	}
}

type unitRequest struct{ unit string }

func (r unitRequest) Describe() map[string]any { return map[string]any{"unit": r.unit} }

func TestWithLogging_Describer(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	inner := provider.Func("joules", func(_ context.Context, r unitRequest) (string, error) { return r.unit, nil })
	wrapped := provider.Chain(
		provider.WithLogging[unitRequest, string](log),
		provider.WithTracing[unitRequest, string]("powerflow"),
	)(inner)
	if _, err := wrapped.Execute(context.Background(), unitRequest{unit: "init_design"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"unit":"init_design"`) {
		t.Errorf("log output missing unit field:\n%s", buf.String())
	}
}

func TestWithTracing(t *testing.T) {
	p := &echoProvider{name: "trace-test"}
	wrapped := provider.WithTracing[string, string]("powerflow")(p)
	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("got %q, %v", result, err)
	}
	if wrapped.Name() != "trace-test" {
		t.Errorf("Name() = %q", wrapped.Name())
	}

	failing := provider.WithTracing[string, string]("powerflow")(&failingProvider{err: errors.New("boom")})
	if _, err := failing.Execute(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestWithMetrics(t *testing.T) {
	metrics, err := observability.NewMetrics(observability.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	wrapped := provider.WithMetrics[string, string](metrics)(&echoProvider{name: "metrics-test"})
	if result, err := wrapped.Execute(context.Background(), "hello"); err != nil || result != "echo:hello" {
		t.Fatalf("got %q, %v", result, err)
	}

	failing := provider.WithMetrics[string, string](metrics)(&failingProvider{err: errors.New("boom")})
	if _, err := failing.Execute(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestWithMetrics_NilIsPassthrough(t *testing.T) {
	p := &echoProvider{name: "plain"}
	wrapped := provider.WithMetrics[string, string](nil)(p)
	if wrapped != provider.RequestResponse[string, string](p) {
		t.Error("nil metrics should return the inner provider")
	}
}

func TestFunc(t *testing.T) {
	p := provider.Func("upper", func(_ context.Context, in string) (string, error) {
		return strings.ToUpper(in), nil
	})
	if p.Name() != "upper" || !p.IsAvailable(context.Background()) {
		t.Fatalf("unexpected identity %q", p.Name())
	}
	if out, _ := p.Execute(context.Background(), "abc"); out != "ABC" {
		t.Errorf("got %q", out)
	}
}
