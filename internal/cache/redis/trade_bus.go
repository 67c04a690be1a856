package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// tradeStreamMaxLen is the approximate maximum length for the trade stream,
// enforced via XADD MAXLEN ~.
const tradeStreamMaxLen int64 = 10000

const (
	tradeChannel = "trades"
	tradeStream  = "stream:trades"
)

// TradeBus implements domain.TradePublisher on Redis. Committed trades are
// published to a Pub/Sub channel for live consumers and appended to a capped
// stream for consumers that need replay.
type TradeBus struct {
	rdb *redis.Client
}

// NewTradeBus creates a TradeBus backed by the given Client.
func NewTradeBus(c *Client) *TradeBus {
	return &TradeBus{rdb: c.Underlying()}
}

// PublishTrade broadcasts a committed trade as JSON.
func (tb *TradeBus) PublishTrade(ctx context.Context, trade domain.TradeRecord) error {
	payload, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("redis: marshal trade %s: %w", trade.ID, err)
	}

	if err := tb.rdb.Publish(ctx, tradeChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish trade %s: %w", trade.ID, err)
	}

	args := &redis.XAddArgs{
		Stream: tradeStream,
		MaxLen: tradeStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"payload": payload,
		},
	}
	if err := tb.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append trade %s: %w", trade.ID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.TradePublisher = (*TradeBus)(nil)
