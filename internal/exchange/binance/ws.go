package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// DefaultStreamURL is the Binance combined-stream WebSocket endpoint.
const DefaultStreamURL = "wss://stream.binance.com:9443/stream"

const (
	// wsPongWait is the time allowed between messages before the
	// connection is considered dead. Binance pings roughly every 3
	// minutes.
	wsPongWait = 5 * time.Minute

	// wsReconnectDelay is the pause before attempting to reconnect.
	wsReconnectDelay = 2 * time.Second

	// wsHandshakeTimeout bounds the dial.
	wsHandshakeTimeout = 15 * time.Second
)

// PriceStream subscribes to the miniTicker stream for a set of symbols and
// publishes each tick into the price cache. It reconnects on disconnect and
// runs until the context is cancelled.
type PriceStream struct {
	streamURL string
	symbols   map[string]string // exchange form -> configured form
	cache     domain.PriceCache
	logger    *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewPriceStream creates a PriceStream for the given symbols in "BTC/USDT"
// form. streamURL defaults to DefaultStreamURL when empty.
func NewPriceStream(streamURL string, symbols []string, cache domain.PriceCache, logger *slog.Logger) *PriceStream {
	if streamURL == "" {
		streamURL = DefaultStreamURL
	}
	byExchange := make(map[string]string, len(symbols))
	for _, s := range symbols {
		byExchange[marketSymbol(s)] = s
	}
	return &PriceStream{
		streamURL: streamURL,
		symbols:   byExchange,
		cache:     cache,
		logger:    logger.With(slog.String("component", "binance_ws")),
		done:      make(chan struct{}),
	}
}

// Run connects and consumes ticker messages until ctx is cancelled or Close
// is called. Disconnects are retried with a fixed delay.
func (ps *PriceStream) Run(ctx context.Context) error {
	if len(ps.symbols) == 0 {
		ps.logger.Info("no symbols to stream, exiting")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ps.done:
			return nil
		default:
		}

		err := ps.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			ps.logger.Warn("stream disconnected, reconnecting", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ps.done:
			return nil
		case <-time.After(wsReconnectDelay):
		}
	}
}

// Close stops the stream.
func (ps *PriceStream) Close() {
	ps.closeOnce.Do(func() { close(ps.done) })
}

func (ps *PriceStream) streamAddr() string {
	streams := make([]string, 0, len(ps.symbols))
	for exch := range ps.symbols {
		streams = append(streams, strings.ToLower(exch)+"@miniTicker")
	}
	return ps.streamURL + "?streams=" + strings.Join(streams, "/")
}

func (ps *PriceStream) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, ps.streamAddr(), nil)
	if err != nil {
		return fmt.Errorf("binance/ws: connect: %w", err)
	}
	defer conn.Close()

	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	ps.logger.Info("stream connected", slog.Int("symbols", len(ps.symbols)))

	// Unblock ReadMessage when the context ends.
	go func() {
		select {
		case <-ctx.Done():
		case <-ps.done:
		}
		_ = conn.Close()
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("binance/ws: read: %w", err)
		}
		ps.handleMessage(ctx, msg)
	}
}

// miniTickerEvent is the payload of a combined-stream miniTicker message.
type miniTickerEvent struct {
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

func (ps *PriceStream) handleMessage(ctx context.Context, msg []byte) {
	var envelope struct {
		Stream string          `json:"stream"`
		Data   miniTickerEvent `json:"data"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		ps.logger.Warn("undecodable stream message", slog.Any("error", err))
		return
	}

	symbol, ok := ps.symbols[envelope.Data.Symbol]
	if !ok {
		return
	}
	price, err := strconv.ParseFloat(envelope.Data.Close, 64)
	if err != nil {
		ps.logger.Warn("bad ticker price",
			slog.String("symbol", symbol),
			slog.String("value", envelope.Data.Close),
		)
		return
	}

	ts := time.UnixMilli(envelope.Data.EventTime).UTC()
	if err := ps.cache.SetPrice(ctx, symbol, price, ts); err != nil {
		ps.logger.Warn("price cache publish failed",
			slog.String("symbol", symbol),
			slog.Any("error", err),
		)
	}
}
