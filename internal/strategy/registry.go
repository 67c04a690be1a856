package strategy

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/alanyoungcy/cryptocore/internal/domain"
)

// Factory constructs a strategy instance from its configured parameters.
type Factory func(params Params, logger *slog.Logger) (Strategy, error)

// Registry maps strategy names to factories so the engine can build the
// strategies named in the configuration. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry returns a Registry with the built-in strategies registered.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		logger:    logger.With(slog.String("component", "strategy_registry")),
	}
	r.Register("momentum", func(params Params, logger *slog.Logger) (Strategy, error) {
		return NewMomentum(params, logger), nil
	})
	r.Register("rsi_reversal", func(params Params, logger *slog.Logger) (Strategy, error) {
		return NewRSIReversal(params, logger), nil
	})
	return r
}

// Register adds a factory under the given name. An existing factory with the
// same name is replaced.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build constructs the strategy registered under name with the given
// parameters. It returns domain.ErrStrategyNotFound when the name is unknown.
func (r *Registry) Build(name string, params Params) (Strategy, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("strategy %q: %w", name, domain.ErrStrategyNotFound)
	}

	s, err := f(params, r.logger)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: build: %w", name, err)
	}
	r.logger.Info("strategy built", slog.String("strategy", name))
	return s, nil
}

// List returns the names of all registered strategies in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
