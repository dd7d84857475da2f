// Package store provides the durable key-value primitive backing the session
// authority. The authority treats it as best-effort: a write failure is
// logged and the in-memory cache stays authoritative until the next restart.
package store

import (
	"sort"
	"strings"
	"sync"
)

// KV is a namespaced key-to-string durable store. Implementations must be
// safe for concurrent use; the authority sequences writes per player but
// different players write in parallel.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	// List returns all pairs whose key starts with prefix, sorted by key.
	List(prefix string) ([]Pair, error)
	Close() error
}

// Pair is one stored entry.
type Pair struct {
	Key   string
	Value string
}

// Memory is an in-process KV used by tests and as a fallback backend.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) List(prefix string) ([]Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pairs := make([]Pair, 0)
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, nil
}

func (m *Memory) Close() error {
	return nil
}
