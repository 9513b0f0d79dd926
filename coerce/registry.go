package coerce

import (
	"fmt"
	"sync"
)

// Registry maps type identifiers to coercion functions.
//
// Lookups never fail: identifiers without an entry resolve to Identity.
// A Registry is safe for concurrent use; registrations are expected to
// happen during start-up, before schemas are compiled against it.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// Default holds the built-in identifiers. It is not exposed for
// registration; use NewRegistry to extend the set.
var Default = NewRegistry()

// NewRegistry returns a registry seeded with the built-in identifiers.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func, len(kindByID))}
	for id, k := range kindByID {
		r.funcs[id] = k.Func()
	}
	return r
}

// Register associates id with fn. Registering an identifier twice,
// built-ins included, returns an error.
func (r *Registry) Register(id string, fn Func) error {
	if fn == nil {
		return fmt.Errorf("coerce: nil function for type %q", id)
	}
	if r == Default {
		return fmt.Errorf("coerce: default registry is read-only")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funcs[id]; ok {
		return fmt.Errorf("coerce: type %q already registered", id)
	}
	r.funcs[id] = fn
	return nil
}

// Resolve returns the coercion function for id, or Identity.
func (r *Registry) Resolve(id string) Func {
	r.mu.RLock()
	fn, ok := r.funcs[id]
	r.mu.RUnlock()
	if !ok {
		return Identity
	}
	return fn
}

// Known reports whether id has a registered function.
func (r *Registry) Known(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[id]
	return ok
}

// Resolve looks id up in the Default registry.
func Resolve(id string) Func {
	return Default.Resolve(id)
}
