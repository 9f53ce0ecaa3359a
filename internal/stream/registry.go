package stream

import (
	"sync"

	"streamfolio/internal/model"
)

// Registry is the set of symbols the session currently cares about.
// Membership is independent of connection state: it survives disconnects and
// is the source of truth for what gets replayed after a reconnect.
type Registry struct {
	mu      sync.Mutex
	symbols map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		symbols: make(map[string]struct{}),
	}
}

// Add tracks a symbol. Returns true if the symbol was newly added.
func (r *Registry) Add(symbol string) bool {
	sym := model.NormalizeSymbol(symbol)
	if sym == "" {
		return false
	}
	r.mu.Lock()
	_, exists := r.symbols[sym]
	if !exists {
		r.symbols[sym] = struct{}{}
	}
	r.mu.Unlock()
	return !exists
}

// Remove untracks a symbol. Returns true if the symbol was tracked.
func (r *Registry) Remove(symbol string) bool {
	sym := model.NormalizeSymbol(symbol)
	r.mu.Lock()
	_, exists := r.symbols[sym]
	if exists {
		delete(r.symbols, sym)
	}
	r.mu.Unlock()
	return exists
}

// Contains reports whether a symbol is tracked.
func (r *Registry) Contains(symbol string) bool {
	sym := model.NormalizeSymbol(symbol)
	r.mu.Lock()
	_, exists := r.symbols[sym]
	r.mu.Unlock()
	return exists
}

// Symbols returns the tracked symbols in unspecified order.
func (r *Registry) Symbols() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.symbols))
	for sym := range r.symbols {
		out = append(out, sym)
	}
	r.mu.Unlock()
	return out
}

// Count returns the number of tracked symbols.
func (r *Registry) Count() int {
	r.mu.Lock()
	n := len(r.symbols)
	r.mu.Unlock()
	return n
}
