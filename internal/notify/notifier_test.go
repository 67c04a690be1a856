package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	name   string
	titles []string
	err    error
}

func (s *recordingSender) Send(_ context.Context, title, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.titles = append(s.titles, title)
	return nil
}

func (s *recordingSender) Name() string { return s.name }

func TestNotifyFiltersByEventType(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, []string{"trade_executed"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, n.Notify(context.Background(), "trade_executed", "Trade", "filled"))
	require.NoError(t, n.Notify(context.Background(), "order_failed", "Order", "rejected"))

	assert.Equal(t, []string{"Trade"}, sender.titles)
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, n.Notify(context.Background(), "anything", "A", "m"))
	require.NoError(t, n.Notify(context.Background(), "else", "B", "m"))

	assert.Equal(t, []string{"A", "B"}, sender.titles)
}

func TestNotifyAllBypassesFilter(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, []string{"drawdown"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, n.NotifyAll(context.Background(), "Shutdown", "bye"))
	assert.Equal(t, []string{"Shutdown"}, sender.titles)
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	broken := &recordingSender{name: "broken", err: errors.New("api down")}
	working := &recordingSender{name: "working"}
	n := NewNotifier([]Sender{broken, working}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := n.Notify(context.Background(), "trade_executed", "Trade", "filled")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, []string{"Trade"}, working.titles)
}

func TestNoSendersIsNoop(t *testing.T) {
	n := NewNotifier(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, n.Notify(context.Background(), "trade_executed", "T", "m"))
}
