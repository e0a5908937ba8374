package core

import "sync"

// TypeAllocator assigns numeric ids to signal, timer, and process kinds from
// a single monotonic counter, and tracks per-kind instance counters. Each
// System owns its own allocator, so ids never leak between System instances
// or between tests.
type TypeAllocator struct {
	mu        sync.Mutex
	next      int
	ids       map[string]int
	instances map[string]int
}

// NewTypeAllocator creates an empty allocator.
func NewTypeAllocator() *TypeAllocator {
	return &TypeAllocator{
		ids:       make(map[string]int),
		instances: make(map[string]int),
	}
}

// TypeID returns the numeric id for a kind, assigning the next id from the
// shared counter on first use. Two lookups of the same kind always return
// the same id.
func (a *TypeAllocator) TypeID(kind string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id, ok := a.ids[kind]; ok {
		return id
	}
	a.next++
	a.ids[kind] = a.next
	return a.next
}

// SignalID resolves the numeric id of a signal's concrete type.
func (a *TypeAllocator) SignalID(sig Signal) int {
	return a.TypeID(sig.Type().Kind())
}

// NextInstance advances and returns the instance counter for a process
// kind. The first instance of a kind is numbered 1; instance 0 is reserved
// for singletons.
func (a *TypeAllocator) NextInstance(kind string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.instances[kind]++
	return a.instances[kind]
}

// Current returns the last id handed out.
func (a *TypeAllocator) Current() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
