package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryStore mantém as janelas no próprio processo.
// O mutex serializa Take, então a sequência ler-verificar-incrementar é atômica entre goroutines.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

func (m *MemoryStore) Get(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	return entry, ok
}

// Set sobrescreve a entrada incondicionalmente
func (m *MemoryStore) Set(key string, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry
}

func (m *MemoryStore) Take(_ context.Context, key string, policy Policy, now time.Time) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, found := m.entries[key]
	next, admitted := Advance(current, found, policy, now)
	if admitted {
		m.entries[key] = next
	}

	return next, admitted, nil
}

// Sweep remove as entradas cujo ResetAt já passou e retorna quantas foram removidas
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if entry.Expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

func (m *MemoryStore) Close() error {
	return nil
}
