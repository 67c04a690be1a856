package binance

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cryptocore/internal/crypto"
	"github.com/alanyoungcy/cryptocore/internal/domain"
)

func TestMarketSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", marketSymbol("BTC/USDT"))
	assert.Equal(t, "ETHUSDT", marketSymbol("eth/usdt"))
	assert.Equal(t, "BTCUSDT", marketSymbol("BTCUSDT"))
}

func TestFetchCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			[1735689600000,"94000.0","94100.5","93900.0","94050.0","12.5",1735689659999,"0","0","0","0","0"],
			[1735689660000,"94050.0","94200.0","94000.0","94150.0","8.25",1735689719999,"0","0","0","0","0"]
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", "1m", slog.New(slog.NewTextHandler(io.Discard, nil)))
	candles, err := c.FetchCandles(context.Background(), "BTC/USDT", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	first := candles[0]
	assert.Equal(t, time.UnixMilli(1735689600000).UTC(), first.Timestamp)
	assert.Equal(t, 94000.0, first.Open)
	assert.Equal(t, 94100.5, first.High)
	assert.Equal(t, 93900.0, first.Low)
	assert.Equal(t, 94050.0, first.Close)
	assert.Equal(t, 12.5, first.Volume)

	assert.Equal(t, 94150.0, candles[1].Close)
}

func TestFetchCandlesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.FetchCandles(context.Background(), "NOPE/USDT", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid symbol")
}

func TestPlaceOrderSignsRequest(t *testing.T) {
	const (
		apiKey    = "test-key"
		apiSecret = "test-secret"
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v3/order", r.URL.Path)
		assert.Equal(t, apiKey, r.Header.Get("X-MBX-APIKEY"))

		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "BUY", q.Get("side"))
		assert.Equal(t, "MARKET", q.Get("type"))
		assert.NotEmpty(t, q.Get("timestamp"))

		// The signature covers the raw query string minus the trailing
		// signature parameter.
		raw := r.URL.RawQuery
		idx := len(raw) - len("&signature=") - len(q.Get("signature"))
		require.Greater(t, idx, 0)
		auth := &crypto.HMACAuth{Key: apiKey, Secret: apiSecret}
		assert.Equal(t, auth.SignHex(raw[:idx]), q.Get("signature"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"orderId": 28,
			"status": "FILLED",
			"executedQty": "0.10000000",
			"cummulativeQuoteQty": "9405.00000000",
			"transactTime": 1735689700000,
			"fills": [
				{"price": "94050.0", "qty": "0.1", "commission": "0.94", "commissionAsset": "USDT"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, apiKey, apiSecret, "1m", slog.New(slog.NewTextHandler(io.Discard, nil)))
	fill, err := c.PlaceOrder(context.Background(), "BTC/USDT", domain.SideBuy, 0.1, 94000)
	require.NoError(t, err)
	require.NotNil(t, fill)

	assert.Equal(t, "28", fill.OrderID)
	assert.Equal(t, 0.1, fill.Amount)
	assert.InDelta(t, 94050.0, fill.Price, 1e-9)
	assert.InDelta(t, 0.94, fill.FeeQuote, 1e-9)
	assert.Equal(t, domain.SideBuy, fill.Side)
}

func TestPlaceOrderUnfilled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orderId": 29, "status": "EXPIRED", "executedQty": "0.00000000", "cummulativeQuoteQty": "0.00000000", "transactTime": 0, "fills": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "s", "1m", slog.New(slog.NewTextHandler(io.Discard, nil)))
	fill, err := c.PlaceOrder(context.Background(), "BTC/USDT", domain.SideSell, 0.1, 94000)
	require.NoError(t, err)
	assert.Nil(t, fill)
}

func TestPlaceOrderRequiresCredentials(t *testing.T) {
	c := NewClient("http://unused", "", "", "1m", slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.PlaceOrder(context.Background(), "BTC/USDT", domain.SideBuy, 0.1, 94000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
}
