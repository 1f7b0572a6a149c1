package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore хранит данные в памяти процесса. Используется по умолчанию и в тестах.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get возвращает копию значения ключа.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Keys возвращает отсортированные ключи с указанным префиксом.
func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Apply применяет пакет под одной блокировкой.
func (m *MemoryStore) Apply(ctx context.Context, b *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range b.Ops() {
		if op.Delete {
			delete(m.data, op.Key)
			continue
		}
		m.data[op.Key] = append([]byte(nil), op.Value...)
	}
	return nil
}

// Close ничего не делает.
func (m *MemoryStore) Close() error {
	return nil
}
