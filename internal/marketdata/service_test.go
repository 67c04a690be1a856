package marketdata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

type fakeFetcher struct {
	candles map[string][]domain.Candle
	errs    map[string]error
	calls   int
}

func (f *fakeFetcher) FetchCandles(_ context.Context, symbol string, _ int) ([]domain.Candle, error) {
	f.calls++
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.candles[symbol], nil
}

type recordingCache struct {
	prices map[string]float64
	err    error
}

func (c *recordingCache) SetPrice(_ context.Context, symbol string, price float64, _ time.Time) error {
	if c.err != nil {
		return c.err
	}
	if c.prices == nil {
		c.prices = make(map[string]float64)
	}
	c.prices[symbol] = price
	return nil
}

func (c *recordingCache) GetPrice(context.Context, string) (float64, time.Time, error) {
	return 0, time.Time{}, domain.ErrNotFound
}

func (c *recordingCache) GetPrices(context.Context, []string) (map[string]float64, error) {
	return nil, nil
}

func candleSeries(closes ...float64) []domain.Candle {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{Timestamp: ts.Add(time.Duration(i) * time.Minute), Close: c}
	}
	return out
}

func TestRefreshUpdatesSnapshotAndCache(t *testing.T) {
	fetcher := &fakeFetcher{candles: map[string][]domain.Candle{
		"BTC/USDT": candleSeries(100, 101, 102),
		"ETH/USDT": candleSeries(10, 11),
	}}
	cache := &recordingCache{}
	svc := New(fetcher, []string{"BTC/USDT", "ETH/USDT"}, 500, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, svc.Refresh(context.Background()))

	price, ok := svc.LatestPrice("BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, 102.0, price)

	snap := svc.Latest()
	assert.Len(t, snap["ETH/USDT"], 2)

	assert.Equal(t, 102.0, cache.prices["BTC/USDT"])
	assert.Equal(t, 11.0, cache.prices["ETH/USDT"])
}

func TestRefreshPartialFailureKeepsOldSeries(t *testing.T) {
	fetcher := &fakeFetcher{candles: map[string][]domain.Candle{
		"BTC/USDT": candleSeries(100),
		"ETH/USDT": candleSeries(10),
	}}
	svc := New(fetcher, []string{"BTC/USDT", "ETH/USDT"}, 500, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, svc.Refresh(context.Background()))

	fetcher.errs = map[string]error{"ETH/USDT": errors.New("timeout")}
	fetcher.candles["BTC/USDT"] = candleSeries(100, 105)

	// One symbol failing is not a refresh error.
	require.NoError(t, svc.Refresh(context.Background()))

	price, ok := svc.LatestPrice("BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, 105.0, price)

	// The failed symbol keeps its previous data.
	price, ok = svc.LatestPrice("ETH/USDT")
	require.True(t, ok)
	assert.Equal(t, 10.0, price)
}

func TestRefreshAllSymbolsFailing(t *testing.T) {
	fetchErr := errors.New("exchange down")
	fetcher := &fakeFetcher{errs: map[string]error{
		"BTC/USDT": fetchErr,
		"ETH/USDT": fetchErr,
	}}
	svc := New(fetcher, []string{"BTC/USDT", "ETH/USDT"}, 500, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)
}

func TestLatestPriceUnknownSymbol(t *testing.T) {
	svc := New(&fakeFetcher{}, nil, 500, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, ok := svc.LatestPrice("DOGE/USDT")
	assert.False(t, ok)
}

func TestCacheFailureDoesNotFailRefresh(t *testing.T) {
	fetcher := &fakeFetcher{candles: map[string][]domain.Candle{
		"BTC/USDT": candleSeries(100),
	}}
	cache := &recordingCache{err: errors.New("redis down")}
	svc := New(fetcher, []string{"BTC/USDT"}, 500, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, svc.Refresh(context.Background()))

	price, ok := svc.LatestPrice("BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, 100.0, price)
}
