package core

// Child is an entry in a ChildrenManager: a child process plus arbitrary
// metadata keys.
type Child struct {
	// Process is the tracked child
	Process *Process

	// PID is the child's address, recorded at registration time
	PID string

	// Keys holds arbitrary metadata for predicate lookup
	Keys map[string]any
}

// ChildrenManager tracks a process's children in order, with metadata-based
// filtering. The runtime never calls into it; it is a bookkeeping
// convenience layered on top of PIDs.
type ChildrenManager struct {
	children []*Child
}

// NewChildrenManager creates an empty manager.
func NewChildrenManager() *ChildrenManager {
	return &ChildrenManager{}
}

// Register appends a child with optional metadata keys and returns it.
func (m *ChildrenManager) Register(p *Process, keys map[string]any) *Process {
	m.children = append(m.children, newChild(p, keys))
	return p
}

// AddToFront registers a child at the front of the list, useful for
// priority ordering during iteration.
func (m *ChildrenManager) AddToFront(p *Process, keys map[string]any) {
	m.children = append([]*Child{newChild(p, keys)}, m.children...)
}

func newChild(p *Process, keys map[string]any) *Child {
	if keys == nil {
		keys = make(map[string]any)
	}
	return &Child{Process: p, PID: p.PID(), Keys: keys}
}

// GetByPID finds a child by PID.
func (m *ChildrenManager) GetByPID(pid string) (*Child, bool) {
	for _, c := range m.children {
		if c.PID == pid {
			return c, true
		}
	}
	return nil, false
}

// SetKeysByPID merges metadata keys into the child with the given PID,
// reporting whether it was found.
func (m *ChildrenManager) SetKeysByPID(pid string, keys map[string]any) bool {
	c, ok := m.GetByPID(pid)
	if !ok {
		return false
	}
	for k, v := range keys {
		c.Keys[k] = v
	}
	return true
}

// KeysByPID returns the metadata for the child with the given PID.
func (m *ChildrenManager) KeysByPID(pid string) (map[string]any, bool) {
	c, ok := m.GetByPID(pid)
	if !ok {
		return nil, false
	}
	return c.Keys, true
}

// RemoveByPID deletes the child with the given PID, reporting whether a
// removal occurred.
func (m *ChildrenManager) RemoveByPID(pid string) bool {
	for i, c := range m.children {
		if c.PID == pid {
			m.children = append(m.children[:i], m.children[i+1:]...)
			return true
		}
	}
	return false
}

// FirstWithKeys finds the first child whose metadata contains every given
// key-value pair.
func (m *ChildrenManager) FirstWithKeys(keys map[string]any) (*Child, bool) {
	for _, c := range m.children {
		if matchesKeys(c, keys) {
			return c, true
		}
	}
	return nil, false
}

// ListWithKeys returns every child whose metadata contains every given
// key-value pair.
func (m *ChildrenManager) ListWithKeys(keys map[string]any) []*Child {
	var out []*Child
	for _, c := range m.children {
		if matchesKeys(c, keys) {
			out = append(out, c)
		}
	}
	return out
}

// List returns all children in order.
func (m *ChildrenManager) List() []*Child {
	out := make([]*Child, len(m.children))
	copy(out, m.children)
	return out
}

// Len returns the number of tracked children.
func (m *ChildrenManager) Len() int {
	return len(m.children)
}

func matchesKeys(c *Child, keys map[string]any) bool {
	for k, v := range keys {
		have, ok := c.Keys[k]
		if !ok || have != v {
			return false
		}
	}
	return true
}
