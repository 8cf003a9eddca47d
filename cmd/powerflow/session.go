package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/powerflow/artifact"
	"github.com/kbukum/powerflow/bootstrap"
	"github.com/kbukum/powerflow/dag"
	"github.com/kbukum/powerflow/emit"
	"github.com/kbukum/powerflow/executor"
	"github.com/kbukum/powerflow/flow"
	"github.com/kbukum/powerflow/logger"
	"github.com/kbukum/powerflow/observability"
	"github.com/kbukum/powerflow/parse"
	"github.com/kbukum/powerflow/stage"
	"github.com/kbukum/powerflow/tool"
)

// telemetry owns the trace and metric providers of one invocation.
type telemetry struct {
	cfg     *FlowConfig
	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	spans   io.WriteCloser
	metrics *observability.Metrics
}

// install registers provider setup and shutdown on the app lifecycle.
func (t *telemetry) install(app *bootstrap.App[*FlowConfig]) {
	app.OnStart(t.start)
	app.OnStop(t.stop)
}

func (t *telemetry) start(ctx context.Context) error {
	tc := t.cfg.tracerConfig()
	if tc.Exporter == observability.ExporterStdout && t.cfg.Observability.Tracing.File != "" {
		if err := os.MkdirAll(filepath.Dir(t.cfg.Observability.Tracing.File), 0o755); err != nil {
			return err
		}
		f, err := os.Create(t.cfg.Observability.Tracing.File)
		if err != nil {
			return err
		}
		t.spans = f
		tc.Writer = f
	}
	tp, err := observability.InitTracer(ctx, &tc)
	if err != nil {
		return err
	}
	t.tp = tp

	if !t.cfg.Observability.Metrics.Enabled {
		return nil
	}
	mc := t.cfg.meterConfig()
	mp, err := observability.InitMeter(ctx, &mc)
	if err != nil {
		return err
	}
	t.mp = mp
	t.metrics, err = observability.NewMetrics(observability.Meter("powerflow"))
	return err
}

func (t *telemetry) stop(ctx context.Context) error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if t.tp != nil {
		keep(t.tp.Shutdown(ctx))
	}
	if t.mp != nil {
		keep(t.mp.Shutdown(ctx))
	}
	if t.spans != nil {
		keep(t.spans.Close())
	}
	return first
}

// session is everything one flow invocation needs.
type session struct {
	cfg      *FlowConfig
	log      *logger.Logger
	inputs   *emit.Inputs
	req      flow.Request
	manifest *artifact.ManifestStore
	service  tool.Service
	ctl      *flow.Controller
}

// newSession validates inputs and wires the controller. metrics may be nil.
func newSession(cfg *FlowConfig, log *logger.Logger, metrics *observability.Metrics) (*session, error) {
	def, err := cfg.Definition()
	if err != nil {
		return nil, err
	}
	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}
	inputs, err := cfg.Inputs()
	if err != nil {
		return nil, err
	}
	for _, w := range inputs.Warnings {
		log.Warn(w)
	}

	manifest, err := artifact.OpenManifest(cfg.ManifestPath())
	if err != nil {
		return nil, err
	}
	svc, err := tool.NewService(cfg.Service, cfg.Tool)
	if err != nil {
		return nil, err
	}
	svc = tool.Instrument(svc, log.WithComponent("tool"), metrics)

	s := &session{
		cfg:      cfg,
		log:      log,
		inputs:   inputs,
		manifest: manifest,
		service:  svc,
		req:      flow.Request{Definition: def, Inputs: inputs, Table: table, RunDir: cfg.RunDir},
	}

	var runner executor.Runner = executor.New(svc)
	runner = executor.WithTracing(runner)
	runner = executor.WithMetrics(runner, metrics)
	runner = executor.WithLogging(runner, log.WithComponent("executor"))

	opts := []flow.Option{
		flow.WithStore(manifest),
		flow.WithLogger(log.WithComponent("flow")),
	}
	if cfg.ParseProfiles {
		opts = append(opts, flow.OnUnitComplete(s.parseProfiles))
	}
	s.ctl = flow.New(runner, opts...)
	return s, nil
}

// parseProfiles converts profile data once a unit that reports power succeeds.
func (s *session) parseProfiles(_ context.Context, up flow.UnitPlan, res executor.ExecutionResult) {
	if res.Status != dag.StatusSuccess || !reportsPower(s.req.Definition, up.Unit.Stages) {
		return
	}
	targets := parse.Targets(s.inputs, s.cfg.Tool.WorkDir)
	if len(targets) == 0 {
		return
	}
	parse.Run(targets, s.log.WithComponent("parse"))
}

func reportsPower(def *stage.Definition, stages []string) bool {
	for _, name := range stages {
		if st, ok := def.Stage(name); ok && st.OperationOf() == stage.OpReportPower {
			return true
		}
	}
	return false
}
