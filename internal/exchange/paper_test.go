package exchange

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

func TestPaperFillsAtRequestedPrice(t *testing.T) {
	p := NewPaper(0.001, slog.New(slog.NewTextHandler(io.Discard, nil)))

	fill, err := p.PlaceOrder(context.Background(), "BTC/USDT", domain.SideBuy, 0.1, 30000)
	require.NoError(t, err)
	require.NotNil(t, fill)

	assert.NotEmpty(t, fill.OrderID)
	assert.Equal(t, "BTC/USDT", fill.Symbol)
	assert.Equal(t, domain.SideBuy, fill.Side)
	assert.Equal(t, 0.1, fill.Amount)
	assert.Equal(t, 30000.0, fill.Price)
	assert.InDelta(t, 3.0, fill.FeeQuote, 1e-9)
	assert.False(t, fill.Timestamp.IsZero())
}

func TestPaperRejectsInvalidOrders(t *testing.T) {
	p := NewPaper(0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name   string
		amount float64
		price  float64
	}{
		{"zero amount", 0, 100},
		{"negative amount", -1, 100},
		{"zero price", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fill, err := p.PlaceOrder(context.Background(), "BTC/USDT", domain.SideSell, tt.amount, tt.price)
			require.NoError(t, err)
			assert.Nil(t, fill)
		})
	}
}

func TestPaperNegativeFeeRateClamped(t *testing.T) {
	p := NewPaper(-0.5, slog.New(slog.NewTextHandler(io.Discard, nil)))

	fill, err := p.PlaceOrder(context.Background(), "ETH/USDT", domain.SideSell, 2, 1000)
	require.NoError(t, err)
	require.NotNil(t, fill)
	assert.Zero(t, fill.FeeQuote)
}
