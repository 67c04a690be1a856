// Package binance implements the Binance spot REST and WebSocket clients
// used for market data and live order execution.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/cryptocore/internal/crypto"
	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// DefaultBaseURL is the Binance spot REST API root.
const DefaultBaseURL = "https://api.binance.com"

// Client is the REST client for the Binance spot API. It fetches klines for
// market data and places HMAC-signed market orders.
type Client struct {
	baseURL    string
	auth       *crypto.HMACAuth
	interval   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Binance REST client.
//
// baseURL defaults to DefaultBaseURL when empty. interval is the kline
// timeframe, e.g. "1m". Credentials are only required for order placement;
// a client with empty credentials can still fetch market data.
func NewClient(baseURL, apiKey, apiSecret, interval string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if interval == "" {
		interval = "1m"
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		auth:     &crypto.HMACAuth{Key: apiKey, Secret: apiSecret},
		interval: interval,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "binance")),
	}
}

// marketSymbol converts "BTC/USDT" to Binance's "BTCUSDT" form.
func marketSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// FetchCandles returns up to limit recent klines for the symbol, oldest
// first.
func (c *Client) FetchCandles(ctx context.Context, symbol string, limit int) ([]domain.Candle, error) {
	params := url.Values{}
	params.Set("symbol", marketSymbol(symbol))
	params.Set("interval", c.interval)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doRequest(ctx, http.MethodGet, "/api/v3/klines", params, false)
	if err != nil {
		return nil, fmt.Errorf("binance: get klines %s: %w", symbol, err)
	}

	// Each kline is a mixed-type array:
	// [openTime, "open", "high", "low", "close", "volume", closeTime, ...]
	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("binance: decode klines %s: %w", symbol, err)
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		var openMs int64
		if err := json.Unmarshal(k[0], &openMs); err != nil {
			return nil, fmt.Errorf("binance: decode kline open time: %w", err)
		}
		fields := make([]float64, 5)
		for i := 0; i < 5; i++ {
			var s string
			if err := json.Unmarshal(k[i+1], &s); err != nil {
				return nil, fmt.Errorf("binance: decode kline field: %w", err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("binance: parse kline field %q: %w", s, err)
			}
			fields[i] = v
		}
		candles = append(candles, domain.Candle{
			Timestamp: time.UnixMilli(openMs).UTC(),
			Open:      fields[0],
			High:      fields[1],
			Low:       fields[2],
			Close:     fields[3],
			Volume:    fields[4],
		})
	}
	return candles, nil
}

// orderResponse is the subset of the Binance order response the adapter
// needs.
type orderResponse struct {
	OrderID      int64  `json:"orderId"`
	Status       string `json:"status"`
	ExecutedQty  string `json:"executedQty"`
	CumQuoteQty  string `json:"cummulativeQuoteQty"`
	TransactTime int64  `json:"transactTime"`
	Fills        []struct {
		Price           string `json:"price"`
		Qty             string `json:"qty"`
		Commission      string `json:"commission"`
		CommissionAsset string `json:"commissionAsset"`
	} `json:"fills"`
}

// PlaceOrder submits a market order. The price argument is the decision
// price; the actual fill price comes back from the exchange. A rejected or
// unfilled order returns (nil, nil).
func (c *Client) PlaceOrder(ctx context.Context, symbol string, side domain.Side, amount, price float64) (*domain.Fill, error) {
	if c.auth.Key == "" || c.auth.Secret == "" {
		return nil, fmt.Errorf("binance: place order: missing API credentials")
	}
	if amount <= 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("symbol", marketSymbol(symbol))
	params.Set("side", string(side))
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(amount, 'f', -1, 64))
	params.Set("newOrderRespType", "FULL")

	body, err := c.doRequest(ctx, http.MethodPost, "/api/v3/order", params, true)
	if err != nil {
		return nil, fmt.Errorf("binance: place order %s: %w", symbol, err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("binance: decode order response: %w", err)
	}

	executed, err := strconv.ParseFloat(resp.ExecutedQty, 64)
	if err != nil {
		return nil, fmt.Errorf("binance: parse executed qty %q: %w", resp.ExecutedQty, err)
	}
	if resp.Status == "REJECTED" || resp.Status == "EXPIRED" || executed <= 0 {
		c.logger.Warn("order not filled",
			slog.String("symbol", symbol),
			slog.String("status", resp.Status),
		)
		return nil, nil
	}

	quote, err := strconv.ParseFloat(resp.CumQuoteQty, 64)
	if err != nil {
		return nil, fmt.Errorf("binance: parse quote qty %q: %w", resp.CumQuoteQty, err)
	}
	avgPrice := quote / executed

	var fee float64
	for _, f := range resp.Fills {
		commission, err := strconv.ParseFloat(f.Commission, 64)
		if err != nil {
			continue
		}
		fee += commission
	}

	fill := &domain.Fill{
		OrderID:   strconv.FormatInt(resp.OrderID, 10),
		Symbol:    symbol,
		Side:      side,
		Amount:    executed,
		Price:     avgPrice,
		FeeQuote:  fee,
		Timestamp: time.UnixMilli(resp.TransactTime).UTC(),
	}

	c.logger.Info("order filled",
		slog.String("order_id", fill.OrderID),
		slog.String("symbol", symbol),
		slog.String("side", string(side)),
		slog.Float64("amount", executed),
		slog.Float64("price", avgPrice),
	)
	return fill, nil
}

// Ping checks REST connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/v3/ping", nil, false); err != nil {
		return fmt.Errorf("binance: ping: %w", err)
	}
	return nil
}

// doRequest builds, optionally signs, sends, and reads an HTTP request. For
// signed requests the timestamp and HMAC signature are appended to the query
// string and the API key is sent in the X-MBX-APIKEY header.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, signed bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	query := params.Encode()
	if signed {
		params.Set("timestamp", crypto.TimestampMillis())
		query = params.Encode()
		query += "&signature=" + c.auth.SignHex(query)
	}

	fullURL := c.baseURL + path
	if query != "" {
		fullURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if signed {
		req.Header.Set("X-MBX-APIKEY", c.auth.Key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Msg != "" {
			return nil, fmt.Errorf("http %d: %s (code %d)", resp.StatusCode, apiErr.Msg, apiErr.Code)
		}
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// Compile-time interface check.
var _ domain.ExchangeAdapter = (*Client)(nil)
