package agent

import (
	"fmt"
	"sync"

	"github.com/atzentis/atzentis/internal/domain/port"
)

// Registry resolves a configured variant name to a port.Engine, a
// plugin-style lookup table populated at construction time rather than
// by reflection.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]port.Engine
}

// NewRegistry builds an empty registry; call Register to populate it.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]port.Engine)}
}

// Register adds or replaces the engine available under its own Name().
func (r *Registry) Register(engine port.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[engine.Name()] = engine
}

// Resolve looks up an engine by variant name.
func (r *Registry) Resolve(variant string) (port.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engine, ok := r.engines[variant]
	if !ok {
		return nil, fmt.Errorf("agent registry: unknown variant %q", variant)
	}
	return engine, nil
}

// Variants lists the names of every registered engine.
func (r *Registry) Variants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	return names
}
