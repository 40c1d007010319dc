package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/Seednode/papelito/games/papelito"
)

// Memory keeps records in process memory. Everything is lost on exit.
type Memory struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]map[string][]byte),
	}
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// Scope returns a Persister whose keys live under scope.
func (m *Memory) Scope(scope string) papelito.Persister {
	return &memoryScope{m: m, scope: scope}
}

type memoryScope struct {
	m     *Memory
	scope string
}

func (s *memoryScope) Load(_ context.Context, key string) ([]byte, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	value, ok := s.m.records[s.scope][key]
	if !ok {
		return nil, papelito.ErrNotFound
	}
	return slices.Clone(value), nil
}

func (s *memoryScope) Save(_ context.Context, key string, data []byte) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if s.m.records[s.scope] == nil {
		s.m.records[s.scope] = make(map[string][]byte)
	}
	s.m.records[s.scope][key] = slices.Clone(data)
	return nil
}

func (s *memoryScope) Delete(_ context.Context, key string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	delete(s.m.records[s.scope], key)
	return nil
}
