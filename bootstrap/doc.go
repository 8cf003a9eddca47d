// Package bootstrap runs a finite powerflow task with a uniform lifecycle:
// configuration defaults and validation, logger setup, start hooks, signal
// driven cancellation and stop hooks bounded by a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStart(initTracing)
//	app.OnStop(flushTracing)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return runFlow(ctx, app.Cfg)
//	})
package bootstrap
