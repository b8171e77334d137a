// Package replay implements the replay bounded context: re-executing source
// chain history on a sandbox node.
package replay

import (
	"context"
	"time"

	"github.com/fd1az/sothis/business/replay/app"
	replayDI "github.com/fd1az/sothis/business/replay/di"
	"github.com/fd1az/sothis/business/replay/domain"
	"github.com/fd1az/sothis/business/replay/infra/node"
	"github.com/fd1az/sothis/business/replay/infra/reporter"
	"github.com/fd1az/sothis/business/replay/infra/setup"
	"github.com/fd1az/sothis/business/replay/infra/txcodec"
	"github.com/fd1az/sothis/internal/config"
	"github.com/fd1az/sothis/internal/di"
	"github.com/fd1az/sothis/internal/interrupt"
	"github.com/fd1az/sothis/internal/jsonrpc"
	"github.com/fd1az/sothis/internal/logger"
	"github.com/fd1az/sothis/internal/metrics"
	"github.com/fd1az/sothis/internal/monolith"
)

// Module implements the replay bounded context.
type Module struct{}

// SessionConfig maps the loaded configuration onto the engine's session value.
func SessionConfig(cfg *config.Config) domain.SessionConfig {
	return domain.SessionConfig{
		EntropyThreshold:    cfg.Session.EntropyThresholdDecimal(),
		ExitOnTxFail:        cfg.Session.ExitOnTxFail,
		SubmissionMode:      domain.SubmissionMode(cfg.Session.SubmissionMode),
		ReplayDelay:         cfg.Session.ReplayDelay,
		BlockListenInterval: cfg.Session.BlockListenInterval,
	}
}

// promptsOperator reports whether the interactive setup step replaces the
// engine's own mode setup. The TUI owns stdin, so it never prompts.
func promptsOperator(cfg *config.Config) bool {
	return !cfg.Session.SkipSetup && !cfg.App.TUI
}

// RegisterServices registers all replay services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, replayDI.SourceNode, func(sr di.ServiceRegistry) *node.Source {
		return node.NewSource(sr.Get("source").(jsonrpc.Connection))
	})

	di.RegisterToken(c, replayDI.ReplayNode, func(sr di.ServiceRegistry) *node.Replay {
		return node.NewReplay(sr.Get("replay").(jsonrpc.Connection))
	})

	di.RegisterToken(c, replayDI.Submitter, func(sr di.ServiceRegistry) app.Submitter {
		cfg := sr.Get("config").(*config.Config)
		sub, err := txcodec.NewSubmitter(domain.SubmissionMode(cfg.Session.SubmissionMode), replayDI.GetReplayNode(sr))
		if err != nil {
			panic("failed to create submitter: " + err.Error())
		}
		return sub
	})

	di.RegisterToken(c, replayDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		mode := string(sr.Get("mode").(config.Mode))
		if cfg.App.TUI {
			return reporter.NewTUI(mode, cfg.Source.URL, cfg.Replay.URL)
		}
		return reporter.NewConsole(mode)
	})

	di.RegisterToken(c, replayDI.Prompter, func(sr di.ServiceRegistry) *setup.Prompter {
		return setup.NewPrompter()
	})

	di.RegisterToken(c, replayDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		opts := []app.EngineOption{
			app.WithInterrupt(sr.Get("interrupt").(*interrupt.Token)),
			app.WithRecorder(sr.Get("recorder").(*metrics.Recorder)),
		}

		// The prompt runs inside the engine so the chain id and head checks
		// reject a bad node pair before any evm_* call reaches it.
		var engine *app.Engine
		if promptsOperator(cfg) {
			prompter := replayDI.GetPrompter(sr)
			opts = append(opts, app.WithOperatorSetup(func(ctx context.Context) error {
				return prompter.Run(ctx, engine)
			}))
		}

		engine = app.NewEngine(
			replayDI.GetSourceNode(sr),
			replayDI.GetReplayNode(sr),
			replayDI.GetSubmitter(sr),
			replayDI.GetReporter(sr),
			SessionConfig(cfg),
			log,
			opts...,
		)
		return engine
	})

	return nil
}

// Startup logs the replay node flavor so unsigned-mode sessions can be diagnosed early.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	flavor := mono.Replay().NodeFlavor(ctx)
	log.Info(ctx, "replay module started",
		"source", mono.Source().URL(),
		"replay", mono.Replay().URL(),
		"flavor", flavor,
		"submission_mode", mono.Config().Session.SubmissionMode,
	)
	return nil
}

// Run executes the replay session selected by the monolith's mode.
func (m *Module) Run(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	sr := mono.Services()
	engine := replayDI.GetEngine(sr)
	rep := replayDI.GetReporter(sr)

	if err := rep.Start(ctx); err != nil {
		return err
	}
	defer rep.Stop()

	start := time.Now()
	var err error
	switch mono.Mode() {
	case config.ModeLive:
		err = engine.Live(ctx)
	default:
		var until uint64
		until, err = cfg.Session.UntilBlock()
		if err == nil {
			err = engine.Historic(ctx, until)
		}
	}

	submitted, failed := engine.Monitor().Totals()
	mono.Logger().Info(ctx, "replay session finished",
		"mode", mono.Mode(),
		"submitted", submitted,
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"error", err,
	)
	return err
}
