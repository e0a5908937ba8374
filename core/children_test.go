package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnChild(t *testing.T, sys *System, kind string) *Process {
	t.Helper()
	p, err := Spawn(sys, "", nil, &stubBehavior{kind: kind})
	require.NoError(t, err)
	return p
}

func TestChildrenManagerRegisterAndLookup(t *testing.T) {
	sys := NewSystem()
	m := NewChildrenManager()

	a := m.Register(spawnChild(t, sys, "Worker"), map[string]any{"role": "reader"})
	b := m.Register(spawnChild(t, sys, "Worker"), nil)

	assert.Equal(t, 2, m.Len())

	c, ok := m.GetByPID(a.PID())
	require.True(t, ok)
	assert.Equal(t, a, c.Process)
	assert.Equal(t, "reader", c.Keys["role"])

	_, ok = m.GetByPID("Ghost(9.9)")
	assert.False(t, ok)

	keys, ok := m.KeysByPID(b.PID())
	require.True(t, ok)
	assert.Empty(t, keys)
}

func TestChildrenManagerOrdering(t *testing.T) {
	sys := NewSystem()
	m := NewChildrenManager()

	first := m.Register(spawnChild(t, sys, "Worker"), nil)
	second := m.Register(spawnChild(t, sys, "Worker"), nil)
	m.AddToFront(spawnChild(t, sys, "Worker"), map[string]any{"priority": true})

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, true, list[0].Keys["priority"])
	assert.Equal(t, first.PID(), list[1].PID)
	assert.Equal(t, second.PID(), list[2].PID)
}

func TestChildrenManagerKeyPredicates(t *testing.T) {
	sys := NewSystem()
	m := NewChildrenManager()

	reader := m.Register(spawnChild(t, sys, "Worker"), map[string]any{"role": "reader", "shard": 1})
	m.Register(spawnChild(t, sys, "Worker"), map[string]any{"role": "writer", "shard": 1})
	writer2 := m.Register(spawnChild(t, sys, "Worker"), map[string]any{"role": "writer", "shard": 2})

	c, ok := m.FirstWithKeys(map[string]any{"role": "reader"})
	require.True(t, ok)
	assert.Equal(t, reader.PID(), c.PID)

	_, ok = m.FirstWithKeys(map[string]any{"role": "admin"})
	assert.False(t, ok)

	writers := m.ListWithKeys(map[string]any{"role": "writer"})
	assert.Len(t, writers, 2)

	narrow := m.ListWithKeys(map[string]any{"role": "writer", "shard": 2})
	require.Len(t, narrow, 1)
	assert.Equal(t, writer2.PID(), narrow[0].PID)
}

func TestChildrenManagerSetKeysAndRemove(t *testing.T) {
	sys := NewSystem()
	m := NewChildrenManager()

	p := m.Register(spawnChild(t, sys, "Worker"), map[string]any{"role": "reader"})

	assert.True(t, m.SetKeysByPID(p.PID(), map[string]any{"ready": true}))
	keys, _ := m.KeysByPID(p.PID())
	assert.Equal(t, "reader", keys["role"])
	assert.Equal(t, true, keys["ready"])

	assert.False(t, m.SetKeysByPID("Ghost(9.9)", map[string]any{"x": 1}))

	assert.True(t, m.RemoveByPID(p.PID()))
	assert.False(t, m.RemoveByPID(p.PID()))
	assert.Equal(t, 0, m.Len())
}
