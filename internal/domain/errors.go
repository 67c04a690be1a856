package domain

import "errors"

var (
	// ErrInsufficientFunds is returned when a BUY would overdraw the cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientPosition is returned when a SELL exceeds the held quantity.
	ErrInsufficientPosition = errors.New("insufficient position")
	// ErrStrategyNotFound is returned by the registry for an unknown strategy name.
	ErrStrategyNotFound = errors.New("strategy not found")
	// ErrNoPrice is returned when no price is available for a symbol.
	ErrNoPrice = errors.New("no price available")
	// ErrEngineRunning is returned when Run is called on an already-running engine.
	ErrEngineRunning = errors.New("engine already running")
	// ErrNotFound is the generic missing-record error for stores and caches.
	ErrNotFound = errors.New("not found")
)
