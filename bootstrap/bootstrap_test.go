package bootstrap

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/kbukum/powerflow/config"
	"github.com/kbukum/powerflow/logger"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name string) *testConfig {
	return &testConfig{ServiceConfig: config.ServiceConfig{Name: name, Version: "1.0.0"}}
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestConfig("powerflow"), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if app.Name != "powerflow" || app.Version != "1.0.0" {
		t.Errorf("app = %s %s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("defaults not applied: %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("graceful timeout = %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := newTestConfig("powerflow")
	cfg.Environment = "lab"
	if _, err := NewApp(cfg, WithLogger(logger.Nop())); err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewAppInitializesLogger(t *testing.T) {
	app, err := NewApp(newTestConfig("powerflow"))
	if err != nil {
		t.Fatal(err)
	}
	if app.Logger == nil {
		t.Fatal("expected logger")
	}
}

func TestRunTaskLifecycle(t *testing.T) {
	app, _ := NewApp(newTestConfig("powerflow"), WithLogger(logger.Nop()), WithSignals())
	var order []string
	record := func(name string) Hook {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	app.OnStart(record("start-1"), record("start-2"))
	app.OnStop(record("stop-1"), record("stop-2"))

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	want := []string{"start-1", "start-2", "task", "stop-2", "stop-1"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestRunTaskStartFailure(t *testing.T) {
	app, _ := NewApp(newTestConfig("powerflow"), WithLogger(logger.Nop()), WithSignals())
	stopped := false
	ran := false
	app.OnStart(func(context.Context) error { return errors.New("exporter down") })
	app.OnStop(func(context.Context) error { stopped = true; return nil })

	err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
	if err == nil || !strings.Contains(err.Error(), "exporter down") {
		t.Fatalf("err = %v", err)
	}
	if ran {
		t.Error("task should not run after a failed start hook")
	}
	if !stopped {
		t.Error("stop hooks should still run")
	}
}

func TestRunTaskErrorPrecedence(t *testing.T) {
	taskErr := errors.New("unit failed")
	stopErr := errors.New("flush failed")
	tests := []struct {
		name    string
		task    error
		stop    error
		wantErr error
	}{
		{"task error wins", taskErr, stopErr, taskErr},
		{"stop error reported", nil, stopErr, stopErr},
		{"clean", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := NewApp(newTestConfig("powerflow"), WithLogger(logger.Nop()), WithSignals())
			app.OnStop(func(context.Context) error { return tt.stop })
			err := app.RunTask(context.Background(), func(context.Context) error { return tt.task })
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunTaskSignalCancels(t *testing.T) {
	app, _ := NewApp(newTestConfig("powerflow"), WithLogger(logger.Nop()), WithSignals(syscall.SIGUSR1))
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return errors.New("not canceled")
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestStopHonorsGracefulTimeout(t *testing.T) {
	app, _ := NewApp(newTestConfig("powerflow"), WithLogger(logger.Nop()), WithSignals(), WithGracefulTimeout(10*time.Millisecond))
	app.OnStop(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}
