package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fd1az/sothis/business/replay/domain"
	"github.com/fd1az/sothis/internal/apperror"
	"github.com/fd1az/sothis/internal/interrupt"
	"github.com/fd1az/sothis/internal/logger"
	"github.com/fd1az/sothis/internal/metrics"
)

// unreachableIntervalMs keeps interval mining from ever firing, so blocks
// appear only through evm_mine.
const unreachableIntervalMs = math.MaxUint32

var errInterrupted = errors.New("replay interrupted")

// Engine replays source blocks onto the replay node.
type Engine struct {
	source    SourceNode
	dest      ReplayNode
	submitter Submitter
	monitor   *Monitor
	reporter  Reporter
	cfg       domain.SessionConfig
	log       logger.LoggerInterface
	stop      *interrupt.Token
	recorder  *metrics.Recorder
	setup     func(ctx context.Context) error
}

// EngineOption configures optional collaborators.
type EngineOption func(*Engine)

// WithInterrupt stops the loops between blocks once tok is set.
func WithInterrupt(tok *interrupt.Token) EngineOption {
	return func(e *Engine) { e.stop = tok }
}

// WithOperatorSetup replaces the built-in mode setup with step. step runs
// after the chain id and head checks pass and must call Setup itself.
func WithOperatorSetup(step func(ctx context.Context) error) EngineOption {
	return func(e *Engine) { e.setup = step }
}

func WithRecorder(r *metrics.Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

func NewEngine(
	source SourceNode,
	dest ReplayNode,
	submitter Submitter,
	reporter Reporter,
	cfg domain.SessionConfig,
	log logger.LoggerInterface,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		source:    source,
		dest:      dest,
		submitter: submitter,
		monitor:   NewMonitor(cfg.EntropyThreshold, cfg.ExitOnTxFail),
		reporter:  reporter,
		cfg:       cfg,
		log:       log,
		stop:      interrupt.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Monitor exposes the session failure totals.
func (e *Engine) Monitor() *Monitor {
	return e.monitor
}

// Setup disables automine and pushes interval mining out of reach.
func (e *Engine) Setup(ctx context.Context) error {
	if err := e.dest.SetAutomine(ctx, false); err != nil {
		return err
	}
	return e.dest.SetIntervalMining(ctx, unreachableIntervalMs)
}

// Historic replays blocks until the replay node head reaches until.
func (e *Engine) Historic(ctx context.Context, until uint64) error {
	chainID, err := e.checkChainID(ctx)
	if err != nil {
		return err
	}

	head, err := e.dest.BlockNumber(ctx)
	if err != nil {
		return err
	}
	if head > until {
		return apperror.Precondition(fmt.Sprintf(
			"replay node head %d is past the terminal block %d", head, until))
	}

	if err := e.modeSetup(ctx); err != nil {
		return err
	}

	head, err = e.catchUp(ctx, chainID, head, until)
	if errors.Is(err, errInterrupted) || (err != nil && e.stop.Load()) {
		e.log.Info(ctx, "replay interrupted", "head", head, "error", err)
	} else if err != nil {
		return err
	}

	e.reporter.Done(head)
	return nil
}

// Live follows the source head and replays each new block.
// It returns nil when interrupted.
func (e *Engine) Live(ctx context.Context) error {
	chainID, err := e.checkChainID(ctx)
	if err != nil {
		return err
	}
	if err := e.modeSetup(ctx); err != nil {
		return err
	}

	ctx, cancel := e.stop.Context(ctx)
	defer cancel()

	var head uint64
	for !e.stop.Load() {
		latest, err := e.source.ListenForBlocks(ctx, e.cfg.BlockListenInterval)
		if err != nil {
			if e.stop.Load() {
				break
			}
			return err
		}

		current, err := e.dest.BlockNumber(ctx)
		if err != nil {
			if e.stop.Load() {
				break
			}
			return err
		}
		head = current
		if latest == head {
			continue
		}
		if head > latest {
			return apperror.Precondition(fmt.Sprintf(
				"replay node head %d is past the source head %d", head, latest))
		}

		e.log.Info(ctx, "new block detected, replaying", "source_head", latest, "replay_head", head)
		head, err = e.catchUp(ctx, chainID, head, latest)
		if err != nil {
			if e.stop.Load() || errors.Is(err, errInterrupted) {
				break
			}
			return err
		}
	}

	e.log.Info(ctx, "live replay interrupted", "head", head)
	e.reporter.Done(head)
	return nil
}

// checkChainID fails before any state-changing call when the nodes disagree.
func (e *Engine) checkChainID(ctx context.Context) (uint64, error) {
	sourceID, err := e.source.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	destID, err := e.dest.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	if sourceID != destID {
		return 0, apperror.Precondition(fmt.Sprintf(
			"chain ids do not match: source %d, replay %d", sourceID, destID))
	}

	if e.submitter.Mode() == domain.SubmissionUnsignedUnsafe && !e.dest.SupportsUnsigned(ctx) {
		e.log.Warn(ctx, "replay node may not support eth_sendUnsignedTransaction", "mode", e.submitter.Mode())
	}
	return destID, nil
}

func (e *Engine) modeSetup(ctx context.Context) error {
	if e.setup != nil {
		return e.setup(ctx)
	}
	return e.Setup(ctx)
}

// catchUp replays head+1..until and returns the last observed replay head.
func (e *Engine) catchUp(ctx context.Context, chainID, head, until uint64) (uint64, error) {
	for head < until {
		if e.stop.Load() {
			return head, errInterrupted
		}

		next := head + 1
		block, err := e.source.BlockByNumber(ctx, next)
		if err != nil {
			return head, err
		}

		res, err := e.submitBatch(ctx, block, chainID)
		if err != nil {
			return head, err
		}

		if err := e.dest.SetNextBlockTimestamp(ctx, uint64(block.Timestamp)); err != nil {
			return head, err
		}
		if err := e.dest.Mine(ctx); err != nil {
			return head, err
		}

		e.recorder.BlockReplayed(ctx)
		e.reporter.BlockReplayed(next, res.Submitted, res.Failed)
		e.log.Debug(ctx, "replayed block", "block", next, "txs", res.Submitted, "failed", res.Failed)

		if err := e.pause(ctx); err != nil {
			return head, err
		}

		current, err := e.dest.BlockNumber(ctx)
		if err != nil {
			return next, err
		}
		head = current
	}
	return head, nil
}

// submitBatch sends every transaction of block in order. Node rejections and
// encoding errors count as failures; transport errors abort.
func (e *Engine) submitBatch(ctx context.Context, block *domain.Block, chainID uint64) (BatchResult, error) {
	failed := 0
	for _, tx := range block.Transactions {
		_, err := e.submitter.Submit(ctx, tx, chainID)
		e.recorder.TxSubmitted(ctx, err)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return BatchResult{}, ctx.Err()
		}
		if apperror.GetCode(err) == apperror.CodeTransportFailure {
			return BatchResult{}, err
		}

		if e.monitor.AbortOnFailure() {
			e.reporter.TxFailed(tx.Hash, err)
			return BatchResult{}, apperror.New(apperror.CodeTransactionSubmissionFailure,
				apperror.WithMessage("transaction submission failed: "+err.Error()),
				apperror.WithContext(tx.Hash.Hex()),
				apperror.WithCause(err))
		}

		failed++
		e.reporter.TxFailed(tx.Hash, err)
		e.log.Warn(ctx, "error sending transaction", "tx", tx.Hash.Hex(), "block", uint64(block.Number), "error", err)
	}

	res := e.monitor.Observe(len(block.Transactions), failed)
	if res.HighEntropy {
		e.reporter.HighEntropy(res.Ratio)
	}
	return res, nil
}

func (e *Engine) pause(ctx context.Context) error {
	if e.cfg.ReplayDelay <= 0 {
		return nil
	}
	t := time.NewTimer(e.cfg.ReplayDelay)
	defer t.Stop()

	select {
	case <-t.C:
	case <-e.stop.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
