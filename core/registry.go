package core

import "sync"

// Registry maps symbolic names to values, typically PIDs of well-known
// services. It is a convenience for service discovery and plays no part in
// dispatch.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]any)}
}

// Add inserts or replaces a name-to-value mapping.
func (r *Registry) Add(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
}

// Get retrieves a value by name.
func (r *Registry) Get(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Whereis retrieves a registered PID by name. It returns "" when the name
// is unknown or not bound to a string.
func (r *Registry) Whereis(name string) (string, bool) {
	v, ok := r.Get(name)
	if !ok {
		return "", false
	}
	pid, ok := v.(string)
	return pid, ok
}

// Remove deletes a mapping, reporting whether it existed.
func (r *Registry) Remove(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	delete(r.entries, key)
	return ok
}

// Len returns the number of mappings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
