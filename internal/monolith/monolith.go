// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"

	"github.com/fd1az/sothis/internal/config"
	"github.com/fd1az/sothis/internal/di"
	"github.com/fd1az/sothis/internal/interrupt"
	"github.com/fd1az/sothis/internal/jsonrpc"
	"github.com/fd1az/sothis/internal/logger"
	"github.com/fd1az/sothis/internal/metrics"
	"github.com/fd1az/sothis/internal/ratelimit"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Mode() config.Mode
	Logger() logger.LoggerInterface
	Source() jsonrpc.Connection
	// Replay is the zero Connection for tracking sessions.
	Replay() jsonrpc.Connection
	Interrupt() *interrupt.Token
	Recorder() *metrics.Recorder
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Runner is a module that owns the session loop for its modes.
type Runner interface {
	Module
	Run(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config    *config.Config
	mode      config.Mode
	logger    logger.LoggerInterface
	source    jsonrpc.Connection
	replay    jsonrpc.Connection
	hasReplay bool
	stop      *interrupt.Token
	recorder  *metrics.Recorder
	container di.Container
}

// New dials the nodes the mode needs and registers the shared services.
func New(ctx context.Context, cfg *config.Config, mode config.Mode, log logger.LoggerInterface,
	stop *interrupt.Token, recorder *metrics.Recorder) (*app, error) {
	source, err := jsonrpc.Dial(ctx, cfg.Source.URL, cfg.Source.Timeout,
		jsonrpc.WithName("source"),
		jsonrpc.WithLogger(log),
		jsonrpc.WithRecorder(recorder),
		jsonrpc.WithLimiter(ratelimit.New(cfg.Source.RequestsPerMinute)),
	)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:    cfg,
		mode:      mode,
		logger:    log,
		source:    source,
		stop:      stop,
		recorder:  recorder,
		container: di.NewContainer(),
	}

	if mode.IsReplay() {
		a.replay, err = jsonrpc.Dial(ctx, cfg.Replay.URL, cfg.Replay.Timeout,
			jsonrpc.WithName("replay"),
			jsonrpc.WithLogger(log),
			jsonrpc.WithRecorder(recorder),
			jsonrpc.WithLimiter(ratelimit.New(cfg.Replay.RequestsPerMinute)),
		)
		if err != nil {
			source.Close()
			return nil, err
		}
		a.hasReplay = true
	}

	// Register global services
	a.container.Register("config", cfg)
	a.container.Register("mode", mode)
	a.container.Register("logger", log)
	a.container.Register("interrupt", stop)
	a.container.Register("recorder", recorder)
	a.container.Register("source", a.source)
	if a.hasReplay {
		a.container.Register("replay", a.replay)
	}

	return a, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Mode() config.Mode {
	return a.mode
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Source() jsonrpc.Connection {
	return a.source
}

func (a *app) Replay() jsonrpc.Connection {
	return a.replay
}

func (a *app) Interrupt() *interrupt.Token {
	return a.stop
}

func (a *app) Recorder() *metrics.Recorder {
	return a.recorder
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all node connections.
func (a *app) Close() error {
	var errs []error
	if err := a.source.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.hasReplay {
		if err := a.replay.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
