// Package observability provides OpenTelemetry tracing and metrics for flow
// runs: one span per executed unit, unit and command counters, and a health
// report for the tool installation.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("powerflow")
//	cfg.Exporter = observability.ExporterStdout
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("powerflow"))
//	uc := observability.NewUnitContext(runID, "init_design", stages, 12, metrics)
//	ctx, span := uc.StartSpan(ctx)
//	defer uc.End(ctx, span, observability.StatusSuccess, nil)
package observability
