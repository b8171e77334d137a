package jsonrpc

import (
	"context"
	"time"
)

// ListenForBlocks polls eth_blockNumber every interval until the head differs
// from the one seen on entry, then returns the new head. After 20s without a
// change it logs one heartbeat and keeps waiting. Only ctx or an RPC error ends it early.
func (c Connection) ListenForBlocks(ctx context.Context, interval time.Duration) (uint64, error) {
	if interval <= 0 {
		interval = defaultListenInterval
	}

	start, err := c.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	since := time.Now()
	warned := false

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}

		head, err := c.BlockNumber(ctx)
		if err != nil {
			return 0, err
		}
		if head != start {
			return head, nil
		}

		if !warned && time.Since(since) >= c.heartbeatAfter {
			c.log.Info(ctx, HeartbeatMessage, "node", c.name, "head", head)
			warned = true
		}
	}
}
