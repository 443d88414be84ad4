package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-confres/logger"
	"github.com/KOMKZ/go-yogan-confres/pipeline"
	"github.com/KOMKZ/go-yogan-confres/provider"
	"github.com/KOMKZ/go-yogan-confres/remote"
	"github.com/KOMKZ/go-yogan-confres/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// layerFlags flags shared by every command
type layerFlags struct {
	Dir           string   `flag:"dir,d" usage:"configuration directory" default:"./configs"`
	Env           string   `flag:"env,e" usage:"environment name, APP_ENV > ENV > dev when empty"`
	EnvPrefix     string   `flag:"env-prefix,p" usage:"environment variable prefix, disables the env layer when empty"`
	RedisAddr     string   `flag:"redis-addr" usage:"redis address of the hash layer" default:"127.0.0.1:6379"`
	RedisKey      string   `flag:"redis-key" usage:"redis hash key, enables the redis layer"`
	EtcdEndpoints []string `flag:"etcd-endpoints" usage:"etcd endpoints" default:"127.0.0.1:2379"`
	EtcdPrefix    string   `flag:"etcd-prefix" usage:"etcd key prefix, enables the etcd layer"`
	LogLevel      string   `flag:"log-level" usage:"log level (debug, info, warn, error)" default:"warn"`
	Trace         bool     `flag:"trace" usage:"export spans and metrics to stderr"`
}

func (f layerFlags) options(workers int) provider.Options {
	opts := provider.Options{
		ConfigDir:         f.Dir,
		Env:               f.Env,
		EnvPrefix:         f.EnvPrefix,
		ValidationWorkers: workers,
	}
	if f.RedisKey != "" {
		opts.Redis = &remote.RedisConfig{Addr: f.RedisAddr, Key: f.RedisKey}
	}
	if f.EtcdPrefix != "" {
		opts.Etcd = &remote.EtcdConfig{Endpoints: f.EtcdEndpoints, Prefix: f.EtcdPrefix}
	}
	return opts
}

// cliApp resources of one command run
type cliApp struct {
	logs      *logger.Manager
	log       *logger.CtxZapLogger
	telemetry *telemetry.Providers
	provider  *provider.Provider
}

// runApp sets up logging, telemetry and the provider, runs fn, then shuts
// everything down whether fn succeeded or not
func runApp(cmd *cobra.Command, flags layerFlags, workers int, fn func(ctx context.Context, app *cliApp) error) error {
	ctx := cmd.Context()

	app, err := setup(ctx, cmd, flags, workers)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	runErr := fn(ctx, app)
	shutdownErr := app.shutdown()

	if runErr != nil {
		return runErr
	}
	return shutdownErr
}

func setup(ctx context.Context, cmd *cobra.Command, flags layerFlags, workers int) (*cliApp, error) {
	logCfg := logger.DefaultManagerConfig()
	logCfg.Level = flags.LogLevel
	logCfg.ConsoleTarget = "stderr"
	logCfg.EnableStacktrace = false
	if err := logCfg.Validate(); err != nil {
		return nil, err
	}

	app := &cliApp{logs: logger.NewManager(logCfg)}
	app.log = app.logs.GetLogger("confres")

	telCfg := telemetry.DefaultConfig()
	telCfg.Enabled = flags.Trace
	providers, err := telemetry.NewProviders(ctx, telCfg, cmd.ErrOrStderr())
	if err != nil {
		app.logs.CloseAll()
		return nil, err
	}
	app.telemetry = providers

	p, err := provider.NewFromOptions(ctx, flags.options(workers),
		provider.WithLogger(app.log),
		provider.WithTracerProvider(providers.TracerProvider),
		provider.WithPipelineOptions(pipeline.WithMeterProvider(providers.MeterProvider)),
	)
	if err != nil {
		app.shutdown()
		return nil, err
	}
	app.provider = p

	app.log.DebugCtx(ctx, "confres initialized", zap.String("dir", flags.Dir), zap.Bool("trace", flags.Trace))
	return app, nil
}

func (a *cliApp) shutdown() error {
	var errs []error
	if a.provider != nil {
		errs = append(errs, a.provider.Shutdown())
	}
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.telemetry.Shutdown(ctx))
	}
	a.logs.CloseAll()
	return errors.Join(errs...)
}
