package effectchain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Factory builds one adapted effect from its JSON parameters. params may
// be empty, in which case defaults apply.
type Factory func(ctx Context, params json.RawMessage) (Adapter, error)

// Registry maps effect IDs to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var (
	ErrUnknownEffect   = errors.New("effectchain: unknown effect type")
	errDuplicateEffect = errors.New("effectchain: duplicate effect type")
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for id.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" {
		return errors.New("effectchain: empty effect type")
	}

	if factory == nil {
		return errors.New("effectchain: nil factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("%w: %s", errDuplicateEffect, id)
	}

	r.factories[id] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err.Error())
	}
}

// Lookup returns the factory for id, or nil.
func (r *Registry) Lookup(id string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.factories[id]
}

// IDs lists the registered effect IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Build instantiates the effect registered as id.
func (r *Registry) Build(ctx Context, id string, params json.RawMessage) (Adapter, error) {
	f := r.Lookup(id)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEffect, id)
	}

	a, err := f(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("effectchain: build %s: %w", id, err)
	}

	return a, nil
}

// BuiltinInfo returns the static Info of a built-in effect ID.
func BuiltinInfo(id string) (Info, bool) {
	info, ok := builtinInfo[id]
	return info, ok
}
