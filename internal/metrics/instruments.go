package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/fd1az/sothis"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder holds the application instruments.
type Recorder struct {
	rpcRequests    metric.Int64Counter
	rpcLatency     metric.Float64Histogram
	blocksReplayed metric.Int64Counter
	txSubmitted    metric.Int64Counter
	stateChanges   metric.Int64Counter
}

// NewRecorder creates instruments on mp, or on the global provider when mp is nil.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	var (
		r   Recorder
		err error
	)
	if r.rpcRequests, err = meter.Int64Counter("sothis_rpc_requests_total",
		metric.WithDescription("JSON-RPC requests by method and outcome")); err != nil {
		return nil, err
	}
	if r.rpcLatency, err = meter.Float64Histogram("sothis_rpc_latency_ms",
		metric.WithDescription("JSON-RPC round trip latency"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if r.blocksReplayed, err = meter.Int64Counter("sothis_blocks_replayed_total"); err != nil {
		return nil, err
	}
	if r.txSubmitted, err = meter.Int64Counter("sothis_tx_submitted_total"); err != nil {
		return nil, err
	}
	if r.stateChanges, err = meter.Int64Counter("sothis_state_changes_total"); err != nil {
		return nil, err
	}
	return &r, nil
}

// RPC records one request. Safe on a nil Recorder.
func (r *Recorder) RPC(ctx context.Context, method string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	)
	r.rpcRequests.Add(ctx, 1, attrs)
	r.rpcLatency.Record(ctx, float64(elapsed.Microseconds())/1000.0, metric.WithAttributes(attribute.String("method", method)))
}

// BlockReplayed counts one mined replay block.
func (r *Recorder) BlockReplayed(ctx context.Context) {
	if r == nil {
		return
	}
	r.blocksReplayed.Add(ctx, 1)
}

// TxSubmitted counts one submission attempt.
func (r *Recorder) TxSubmitted(ctx context.Context, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.txSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// StateChange counts one recorded tracking change.
func (r *Recorder) StateChange(ctx context.Context) {
	if r == nil {
		return
	}
	r.stateChanges.Add(ctx, 1)
}
