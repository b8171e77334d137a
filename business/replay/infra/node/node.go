// Package node adapts jsonrpc connections to the replay ports.
package node

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/fd1az/sothis/business/replay/domain"
	"github.com/fd1az/sothis/internal/apperror"
	"github.com/fd1az/sothis/internal/jsonrpc"
)

// Source reads history from the source node.
type Source struct {
	conn jsonrpc.Connection
}

func NewSource(conn jsonrpc.Connection) *Source {
	return &Source{conn: conn}
}

func (s *Source) ChainID(ctx context.Context) (uint64, error) {
	return s.conn.ChainID(ctx)
}

func (s *Source) BlockNumber(ctx context.Context) (uint64, error) {
	return s.conn.BlockNumber(ctx)
}

// BlockByNumber fetches a block with full transaction objects.
func (s *Source) BlockByNumber(ctx context.Context, number uint64) (*domain.Block, error) {
	raw, err := s.conn.GetBlockByNumber(ctx, number, true)
	if err != nil {
		return nil, err
	}
	return DecodeBlock(raw, number)
}

func (s *Source) ListenForBlocks(ctx context.Context, interval time.Duration) (uint64, error) {
	return s.conn.ListenForBlocks(ctx, interval)
}

// DecodeBlock parses an eth_getBlockByNumber result. A null result is BlockNotFound.
func DecodeBlock(raw json.RawMessage, number uint64) (*domain.Block, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, apperror.New(apperror.CodeBlockNotFound, apperror.WithContext(strconv.FormatUint(number, 10)))
	}

	var block domain.Block
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, apperror.Deserialization("eth_getBlockByNumber", err)
	}
	return &block, nil
}

// Replay drives the sandbox node.
type Replay struct {
	conn jsonrpc.Connection
}

func NewReplay(conn jsonrpc.Connection) *Replay {
	return &Replay{conn: conn}
}

func (r *Replay) ChainID(ctx context.Context) (uint64, error) {
	return r.conn.ChainID(ctx)
}

func (r *Replay) BlockNumber(ctx context.Context) (uint64, error) {
	return r.conn.BlockNumber(ctx)
}

func (r *Replay) SetAutomine(ctx context.Context, enabled bool) error {
	return r.conn.EvmSetAutomine(ctx, enabled)
}

func (r *Replay) SetIntervalMining(ctx context.Context, intervalMs uint64) error {
	return r.conn.EvmSetIntervalMining(ctx, intervalMs)
}

func (r *Replay) SetNextBlockTimestamp(ctx context.Context, unixSeconds uint64) error {
	return r.conn.EvmSetNextBlockTimestamp(ctx, unixSeconds)
}

func (r *Replay) Mine(ctx context.Context) error {
	return r.conn.EvmMine(ctx)
}

// SupportsUnsigned treats a hardhat-flavored node as supporting unsigned submission.
func (r *Replay) SupportsUnsigned(ctx context.Context) bool {
	return r.conn.NodeFlavor(ctx) == jsonrpc.FlavorHardhat
}

func (r *Replay) SendRawTransaction(ctx context.Context, raw string) (string, error) {
	return r.conn.SendRawTransaction(ctx, raw)
}

func (r *Replay) SendUnsignedTransaction(ctx context.Context, params any) (string, error) {
	return r.conn.SendUnsignedTransaction(ctx, params)
}
