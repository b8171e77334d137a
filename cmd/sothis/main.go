// Package main is the entry point for sothis.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fd1az/sothis/business/replay"
	"github.com/fd1az/sothis/business/tracker"
	"github.com/fd1az/sothis/internal/apm"
	"github.com/fd1az/sothis/internal/config"
	"github.com/fd1az/sothis/internal/health"
	"github.com/fd1az/sothis/internal/interrupt"
	"github.com/fd1az/sothis/internal/logger"
	"github.com/fd1az/sothis/internal/metrics"
	"github.com/fd1az/sothis/internal/monolith"
	"github.com/fd1az/sothis/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, mode config.Mode) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(mode); err != nil {
		return err
	}

	tok := interrupt.New()
	stopSignals := tok.Install()
	defer stopSignals()

	ctx, cancel := tok.Context(context.Background())
	defer cancel()

	log := newLogger(cfg)
	log.Info(ctx, "starting sothis", "version", version, "mode", mode, "environment", cfg.App.Environment)

	recorder, shutdown, err := startTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer shutdown()

	mono, err := monolith.New(ctx, cfg, mode, log, tok, recorder)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	if cfg.Health.Enabled {
		srv := health.NewServer(cfg.Health.Port, version, log)
		srv.RegisterCheck("source", health.NodeCheck(mono.Source()))
		if mode.IsReplay() {
			srv.RegisterCheck("replay", health.NodeCheck(mono.Replay()))
		}
		if err := srv.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			log.Info(ctx, "health server started", "port", cfg.Health.Port)
			defer srv.Stop(context.Background())
		}
	}

	var module monolith.Runner = &tracker.Module{}
	if mode.IsReplay() {
		module = &replay.Module{}
	}

	if err := mono.RegisterModules(module); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	session := func() error {
		if err := mono.StartModules(ctx, module); err != nil {
			return fmt.Errorf("failed to start modules: %w", err)
		}
		return module.Run(ctx, mono)
	}

	if cfg.App.TUI {
		return runTUI(ctx, tok, session)
	}
	return session()
}

func newLogger(cfg *config.Config) *logger.Logger {
	level := logger.ParseLevel(cfg.App.LogLevel)
	// In TUI mode, suppress logs (discard output)
	var w io.Writer = os.Stderr
	if cfg.App.TUI {
		w = io.Discard
	}
	if cfg.App.LogFormat == "json" {
		return logger.New(w, level, cfg.App.Name, apm.TraceIDFromContext)
	}
	return logger.NewText(w, level, cfg.App.Name, apm.TraceIDFromContext)
}

// startTelemetry installs tracing and metrics when enabled. The returned
// recorder is nil when telemetry is off; every Recorder method accepts nil.
func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*metrics.Recorder, func(), error) {
	if !cfg.Telemetry.Enabled {
		return nil, func() {}, nil
	}

	traceProvider, err := apm.NewTraceProvider(log, apm.Settings{
		Provider:    apm.Provider(cfg.Telemetry.TraceProvider),
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	})
	if err != nil {
		return nil, nil, err
	}

	meterProvider, err := metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.NewPrometheusConfig()),
	)
	if err != nil {
		traceProvider.Stop()
		return nil, nil, err
	}

	recorder, err := metrics.NewRecorder(meterProvider)
	if err != nil {
		traceProvider.Stop()
		return nil, nil, err
	}

	promCtx, stopProm := context.WithCancel(ctx)
	port := strconv.Itoa(cfg.Telemetry.PrometheusPort)
	go func() {
		if err := metrics.ServePrometheusMetrics(promCtx, metrics.WithPort(port)); err != nil {
			log.Warn(ctx, "prometheus server stopped", "error", err)
		}
	}()
	log.Info(ctx, "prometheus metrics server started", "port", port)

	return recorder, func() {
		stopProm()
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Warn(ctx, "failed to shut down meter provider", "error", err)
		}
		if err := traceProvider.Stop(); err != nil {
			log.Warn(ctx, "failed to shut down trace provider", "error", err)
		}
	}, nil
}

// runTUI shows the dashboard immediately and starts the session once the
// welcome screen completes. Quitting the dashboard interrupts the session.
func runTUI(ctx context.Context, tok *interrupt.Token, session func() error) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}
	ui.OnQuit = tok.Set

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		err := session()
		if err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
		}
		errCh <- err
	}()

	if err := ui.Run(); err != nil {
		tok.Set()
		return fmt.Errorf("TUI error: %w", err)
	}

	// the session may still be running if the operator quit early
	tok.Set()
	return <-errCh
}
