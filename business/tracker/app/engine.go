package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/fd1az/sothis/business/tracker/domain"
	"github.com/fd1az/sothis/internal/apperror"
	"github.com/fd1az/sothis/internal/interrupt"
	"github.com/fd1az/sothis/internal/jsonrpc"
	"github.com/fd1az/sothis/internal/logger"
	"github.com/fd1az/sothis/internal/metrics"
)

// Settings bound one tracking session.
type Settings struct {
	Origin         uint64
	Terminal       uint64
	HasTerminal    bool
	QueryInterval  uint64 // 0 or 1 reads every block
	ListenInterval time.Duration
	Output         domain.OutputTarget
}

// Engine polls a value over blocks and records each change.
type Engine struct {
	head     HeadSource
	sink     Sink
	reporter Reporter
	settings Settings
	log      logger.LoggerInterface
	stop     *interrupt.Token
	recorder *metrics.Recorder
}

// EngineOption configures optional collaborators.
type EngineOption func(*Engine)

// WithInterrupt ends the loop early once tok is set; partial results are still written.
func WithInterrupt(tok *interrupt.Token) EngineOption {
	return func(e *Engine) { e.stop = tok }
}

func WithRecorder(r *metrics.Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

func NewEngine(head HeadSource, sink Sink, reporter Reporter, settings Settings, log logger.LoggerInterface, opts ...EngineOption) *Engine {
	e := &Engine{
		head:     head,
		sink:     sink,
		reporter: reporter,
		settings: settings,
		log:      log,
		stop:     interrupt.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// cursor yields the next block to observe and the tag to read it at.
// ok is false once the range is exhausted.
type cursor interface {
	next(ctx context.Context) (block uint64, tag string, ok bool, err error)
	terminal() uint64
}

// liveCursor advances with the source head and reads at latest.
type liveCursor struct {
	head     HeadSource
	interval time.Duration
	end      uint64
	bounded  bool
	done     bool
}

func (c *liveCursor) next(ctx context.Context) (uint64, string, bool, error) {
	if c.done {
		return 0, "", false, nil
	}
	n, err := c.head.ListenForBlocks(ctx, c.interval)
	if err != nil {
		return 0, "", false, err
	}
	if c.bounded && n >= c.end {
		c.done = true
	}
	return n, jsonrpc.BlockTagLatest, true, nil
}

func (c *liveCursor) terminal() uint64 {
	if c.bounded {
		return c.end
	}
	return 0
}

// rangeCursor walks [origin, end) historically.
type rangeCursor struct {
	current uint64
	end     uint64
	step    uint64
}

func (c *rangeCursor) next(ctx context.Context) (uint64, string, bool, error) {
	if c.current >= c.end {
		return 0, "", false, nil
	}
	n := c.current
	c.current += c.step
	return n, jsonrpc.BlockTag(n), true, nil
}

func (c *rangeCursor) terminal() uint64 {
	return c.end
}

// Watch records the value at every new source head until the terminal block
// or an interrupt.
func (e *Engine) Watch(ctx context.Context, list *domain.ChangeList, probe Probe) (string, error) {
	ctx, cancel := e.stop.Context(ctx)
	defer cancel()

	cur := &liveCursor{
		head:     e.head,
		interval: e.settings.ListenInterval,
		end:      e.settings.Terminal,
		bounded:  e.settings.HasTerminal,
	}
	return e.run(ctx, list, probe, cur)
}

// FastScan reads a storage slot at each historical block in [origin, terminal).
func (e *Engine) FastScan(ctx context.Context, list *domain.ChangeList, probe Probe) (string, error) {
	return e.scan(ctx, list, probe)
}

// CallScan reads an eth_call result at each historical block in [origin, terminal).
func (e *Engine) CallScan(ctx context.Context, list *domain.ChangeList, probe Probe) (string, error) {
	return e.scan(ctx, list, probe)
}

func (e *Engine) scan(ctx context.Context, list *domain.ChangeList, probe Probe) (string, error) {
	terminal := e.settings.Terminal
	if !e.settings.HasTerminal {
		head, err := e.head.BlockNumber(ctx)
		if err != nil {
			return "", err
		}
		terminal = head
		e.log.Info(ctx, "no terminal block set, using current head", "terminal", terminal)
	}

	if e.settings.Origin >= terminal {
		return "", apperror.Precondition(fmt.Sprintf(
			"origin block %d must be below the terminal block %d", e.settings.Origin, terminal))
	}

	step := e.settings.QueryInterval
	if step > 1 {
		e.log.Warn(ctx, "query interval is set, intermediate blocks are skipped and changes between them are lost",
			"interval", step, "probe", probe.Describe())
	}
	if step == 0 {
		step = 1
	}

	ctx, cancel := e.stop.Context(ctx)
	defer cancel()

	return e.run(ctx, list, probe, &rangeCursor{current: e.settings.Origin, end: terminal, step: step})
}

// run is the loop shared by every tracking variant. Errors after an interrupt
// end the loop gracefully; any other error aborts without writing.
func (e *Engine) run(ctx context.Context, list *domain.ChangeList, probe Probe, cur cursor) (string, error) {
	if err := e.reporter.Start(ctx, list); err != nil {
		return "", err
	}
	defer e.reporter.Stop()

	for !e.stop.Load() {
		block, tag, ok, err := cur.next(ctx)
		if err != nil {
			if e.stop.Load() {
				break
			}
			return "", err
		}
		if !ok {
			break
		}

		value, err := probe.Value(ctx, tag)
		if err != nil {
			if e.stop.Load() {
				break
			}
			return "", err
		}

		change := domain.StateChange{BlockNumber: hexutil.Uint64(block), Value: value}
		added, err := list.Append(change)
		if err != nil {
			// the live head can move backwards on a reorg
			e.log.Warn(ctx, "skipping out-of-order observation", "block", block, "error", err)
			continue
		}
		if added {
			e.recorder.StateChange(ctx)
			e.reporter.Changed(change)
			e.log.Info(ctx, "new "+probe.Describe()+" value", "block", block, "value", value)
		}
		e.reporter.Progress(block, cur.terminal())
	}

	if e.stop.Load() {
		e.log.Info(ctx, "tracking interrupted, writing partial results", "changes", list.Len())
	}

	path, err := e.sink.Write(list, e.settings.Output)
	if err != nil {
		return "", err
	}
	e.reporter.Done(list, path)
	return path, nil
}
