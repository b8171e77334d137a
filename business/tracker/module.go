// Package tracker implements the tracking bounded context: recording how a
// storage slot or a read-only call result changes over blocks.
package tracker

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/fd1az/sothis/business/tracker/app"
	trackerDI "github.com/fd1az/sothis/business/tracker/di"
	"github.com/fd1az/sothis/business/tracker/domain"
	"github.com/fd1az/sothis/business/tracker/infra/output"
	"github.com/fd1az/sothis/business/tracker/infra/probe"
	"github.com/fd1az/sothis/business/tracker/infra/reporter"
	"github.com/fd1az/sothis/internal/config"
	"github.com/fd1az/sothis/internal/di"
	"github.com/fd1az/sothis/internal/interrupt"
	"github.com/fd1az/sothis/internal/jsonrpc"
	"github.com/fd1az/sothis/internal/logger"
	"github.com/fd1az/sothis/internal/metrics"
	"github.com/fd1az/sothis/internal/monolith"
)

// Module implements the tracking bounded context.
type Module struct{}

// Settings maps the loaded configuration onto the engine's settings.
// Validate has already checked every field parsed here.
func Settings(cfg *config.Config, mode config.Mode) (app.Settings, error) {
	s := app.Settings{
		QueryInterval:  cfg.Tracker.QueryInterval,
		ListenInterval: cfg.Session.BlockListenInterval,
		Output: domain.OutputTarget{
			Path:     cfg.Output.Path,
			Filename: cfg.Output.Filename,
			Decimal:  cfg.Output.Decimal,
		},
	}

	terminal, ok, err := cfg.Tracker.Terminal()
	if err != nil {
		return app.Settings{}, err
	}
	s.Terminal, s.HasTerminal = terminal, ok

	if mode != config.ModeTrack {
		if s.Origin, err = cfg.Tracker.Origin(); err != nil {
			return app.Settings{}, err
		}
	}
	return s, nil
}

// NewList starts the empty history the mode records into.
func NewList(cfg *config.Config, mode config.Mode) (*domain.ChangeList, error) {
	if mode == config.ModeCallTrack {
		calldata, err := cfg.Tracker.CalldataHex()
		if err != nil {
			return nil, err
		}
		return domain.NewCallList(cfg.Tracker.Address(), calldata), nil
	}
	slot, err := cfg.Tracker.Slot()
	if err != nil {
		return nil, err
	}
	return domain.NewSlotList(cfg.Tracker.Address(), slot), nil
}

// RegisterServices registers all tracker services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, trackerDI.Probe, func(sr di.ServiceRegistry) app.Probe {
		cfg := sr.Get("config").(*config.Config)
		mode := sr.Get("mode").(config.Mode)
		conn := sr.Get("source").(jsonrpc.Connection)

		if mode == config.ModeCallTrack {
			calldata, err := cfg.Tracker.CalldataHex()
			if err != nil {
				panic("failed to create call probe: " + err.Error())
			}
			return probe.NewCall(conn, cfg.Tracker.Address(), calldata)
		}
		slot, err := cfg.Tracker.Slot()
		if err != nil {
			panic("failed to create storage probe: " + err.Error())
		}
		return probe.NewStorage(conn, cfg.Tracker.Address(), slot)
	})

	di.RegisterToken(c, trackerDI.Sink, func(sr di.ServiceRegistry) app.Sink {
		return output.NewWriter(afero.NewOsFs())
	})

	di.RegisterToken(c, trackerDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		mode := string(sr.Get("mode").(config.Mode))
		if cfg.App.TUI {
			return reporter.NewTUI(mode, cfg.Source.URL)
		}
		return reporter.NewConsole(mode)
	})

	di.RegisterToken(c, trackerDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		mode := sr.Get("mode").(config.Mode)
		settings, err := Settings(cfg, mode)
		if err != nil {
			panic("failed to create tracking engine: " + err.Error())
		}
		return app.NewEngine(
			sr.Get("source").(jsonrpc.Connection),
			trackerDI.GetSink(sr),
			trackerDI.GetReporter(sr),
			settings,
			sr.Get("logger").(logger.LoggerInterface),
			app.WithInterrupt(sr.Get("interrupt").(*interrupt.Token)),
			app.WithRecorder(sr.Get("recorder").(*metrics.Recorder)),
		)
	})

	return nil
}

func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	mono.Logger().Info(ctx, "tracker module started",
		"source", mono.Source().URL(),
		"contract", cfg.Tracker.Address().Hex(),
		"mode", mono.Mode(),
	)
	return nil
}

// Run executes the tracking session selected by the monolith's mode.
func (m *Module) Run(ctx context.Context, mono monolith.Monolith) error {
	sr := mono.Services()
	engine := trackerDI.GetEngine(sr)
	p := trackerDI.GetProbe(sr)

	list, err := NewList(mono.Config(), mono.Mode())
	if err != nil {
		return err
	}

	start := time.Now()
	var path string
	switch mono.Mode() {
	case config.ModeTrack:
		path, err = engine.Watch(ctx, list, p)
	case config.ModeFastTrack:
		path, err = engine.FastScan(ctx, list, p)
	default:
		path, err = engine.CallScan(ctx, list, p)
	}

	mono.Logger().Info(ctx, "tracking session finished",
		"mode", mono.Mode(),
		"changes", list.Len(),
		"path", path,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"error", err,
	)
	return err
}
