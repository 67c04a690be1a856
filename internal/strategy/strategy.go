// Package strategy defines the trading-strategy contract, the registry that
// builds strategies by name, and the built-in strategy implementations.
package strategy

import (
	"context"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// Strategy is the contract a trading strategy must satisfy to plug into the
// engine. GenerateSignals is called once per evaluation cycle with the latest
// market snapshot and returns zero or more proposed trades. Implementations
// hold their own parameters and indicator state and must not mutate the
// snapshot.
type Strategy interface {
	Name() string
	Init(ctx context.Context) error
	GenerateSignals(ctx context.Context, snap domain.Snapshot) ([]domain.Signal, error)
	Close() error
}

// Params is the free-form parameter map a strategy is configured with.
type Params map[string]any

// Float reads a float64 parameter, accepting TOML integer decoding, and falls
// back to def when absent or mistyped.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return def
	}
}

// Int reads an integer parameter with a default.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

// String reads a string parameter with a default.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return def
}
