// Package registry keeps ordered collections of pluggable strategies keyed by
// a stable string identifier.
package registry

import (
	"fmt"
	"sort"
)

// Registry holds strategies in registration order. Lower priorities are
// consulted first; equal priorities keep registration order.
type Registry[T any] struct {
	entries []entry[T]
}

type entry[T any] struct {
	id       string
	priority int
	value    T
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Register adds value under id with priority 0.
func (r *Registry[T]) Register(id string, value T) error {
	return r.RegisterWithPriority(id, 0, value)
}

// RegisterWithPriority adds value under id. Identifiers must be unique.
func (r *Registry[T]) RegisterWithPriority(id string, priority int, value T) error {
	for _, e := range r.entries {
		if e.id == id {
			return fmt.Errorf("registry: duplicate id %q", id)
		}
	}
	r.entries = append(r.entries, entry[T]{id: id, priority: priority, value: value})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].priority < r.entries[j].priority
	})
	return nil
}

// MustRegister is Register that panics on duplicates.
func (r *Registry[T]) MustRegister(id string, value T) {
	if err := r.Register(id, value); err != nil {
		panic(err)
	}
}

// Unregister removes id. It reports whether id was present.
func (r *Registry[T]) Unregister(id string) bool {
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the strategy registered under id.
func (r *Registry[T]) Get(id string) (T, bool) {
	for _, e := range r.entries {
		if e.id == id {
			return e.value, true
		}
	}
	var zero T
	return zero, false
}

// All returns the strategies in consultation order.
func (r *Registry[T]) All() []T {
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.value
	}
	return out
}

// IDs returns the identifiers in consultation order.
func (r *Registry[T]) IDs() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.id
	}
	return out
}

// Len returns the number of registered strategies.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}
