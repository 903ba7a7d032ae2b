// internal/store/memory.go
//
// In-memory KV. Concurrency-safe via RWMutex; state is lost when the process
// restarts.
package store

import (
	"context"
	"sync"
)

type memoryData struct {
	mu sync.RWMutex      // guards m
	m  map[string]string // keyed by namespace + "\x00" + key
}

// Memory is an in-memory Namespaced store. Views returned by For share the
// same map.
type Memory struct {
	data *memoryData
	ns   string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: &memoryData{m: make(map[string]string)}}
}

func (m *Memory) For(namespace string) KV {
	return &Memory{data: m.data, ns: namespace}
}

func (m *Memory) key(k string) string { return m.ns + "\x00" + k }

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	v, ok := m.data.m[m.key(key)]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	m.data.m[m.key(key)] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	delete(m.data.m, m.key(key))
	return nil
}

// Len reports the number of keys across all namespaces.
func (m *Memory) Len() int {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	return len(m.data.m)
}
