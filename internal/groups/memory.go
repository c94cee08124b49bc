package groups

import (
	"context"
	"sync"
)

// Memory is an in-process Groups implementation for single-node deployments.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]map[string]struct{}
}

var _ Groups = (*Memory)(nil)

// NewMemory creates an empty in-memory group table.
func NewMemory() *Memory {
	return &Memory{
		groups: make(map[string]map[string]struct{}),
	}
}

// Create implements Groups.
func (m *Memory) Create(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[key]; !ok {
		m.groups[key] = make(map[string]struct{})
	}
	return nil
}

// Exists implements Groups.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.groups[key]
	return ok, nil
}

// Delete implements Groups.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.groups[key]
	if !ok {
		return nil
	}
	if len(members) > 0 {
		return ErrNotEmpty
	}
	delete(m.groups, key)
	return nil
}

// Join implements Groups.
func (m *Memory) Join(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.groups[key]
	if !ok {
		return ErrNoGroup
	}
	members[member] = struct{}{}
	return nil
}

// Leave implements Groups.
func (m *Memory) Leave(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if members, ok := m.groups[key]; ok {
		delete(members, member)
	}
	return nil
}

// Members implements Groups.
func (m *Memory) Members(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := m.groups[key]
	out := make([]string, 0, len(members))
	for member := range members {
		out = append(out, member)
	}
	return out, nil
}

// All implements Groups.
func (m *Memory) All(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.groups))
	for key := range m.groups {
		keys = append(keys, key)
	}
	return keys, nil
}
