package txcodec

import (
	"context"

	"github.com/fd1az/sothis/business/replay/domain"
	"github.com/fd1az/sothis/internal/apperror"
)

// RawSender is satisfied by jsonrpc.Connection.
type RawSender interface {
	SendRawTransaction(ctx context.Context, raw string) (string, error)
}

// UnsignedSender is satisfied by jsonrpc.Connection.
type UnsignedSender interface {
	SendUnsignedTransaction(ctx context.Context, params any) (string, error)
}

// Sender covers both submission paths.
type Sender interface {
	RawSender
	UnsignedSender
}

// Submitter is the session submission strategy.
type Submitter interface {
	Submit(ctx context.Context, tx domain.Transaction, chainID uint64) (string, error)
	Mode() domain.SubmissionMode
}

// RawSubmitter re-encodes signed envelopes for eth_sendRawTransaction.
type RawSubmitter struct {
	sender RawSender
}

func NewRawSubmitter(sender RawSender) *RawSubmitter {
	return &RawSubmitter{sender: sender}
}

func (s *RawSubmitter) Submit(ctx context.Context, tx domain.Transaction, chainID uint64) (string, error) {
	raw, err := EncodeRaw(tx, chainID)
	if err != nil {
		return "", err
	}
	return s.sender.SendRawTransaction(ctx, raw)
}

func (s *RawSubmitter) Mode() domain.SubmissionMode { return domain.SubmissionRaw }

// UnsignedSubmitter submits without a signature. The replay node must skip
// signature checks, so this is only for trusted sandbox nodes.
type UnsignedSubmitter struct {
	sender UnsignedSender
}

func NewUnsignedSubmitter(sender UnsignedSender) *UnsignedSubmitter {
	return &UnsignedSubmitter{sender: sender}
}

func (s *UnsignedSubmitter) Submit(ctx context.Context, tx domain.Transaction, chainID uint64) (string, error) {
	params, err := EncodeUnsigned(tx, chainID)
	if err != nil {
		return "", err
	}
	return s.sender.SendUnsignedTransaction(ctx, params)
}

func (s *UnsignedSubmitter) Mode() domain.SubmissionMode { return domain.SubmissionUnsignedUnsafe }

// NewSubmitter resolves the strategy for mode. Unknown modes are rejected
// so the unsafe path is never chosen implicitly.
func NewSubmitter(mode domain.SubmissionMode, sender Sender) (Submitter, error) {
	switch mode {
	case domain.SubmissionRaw, "":
		return NewRawSubmitter(sender), nil
	case domain.SubmissionUnsignedUnsafe:
		return NewUnsignedSubmitter(sender), nil
	}
	return nil, apperror.New(apperror.CodeConfigurationError,
		apperror.WithMessage("unknown submission mode"), apperror.WithContext(string(mode)))
}
