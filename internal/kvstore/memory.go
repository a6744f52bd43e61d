package kvstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Store used for dev runs and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var (
	_ Store      = (*Memory)(nil)
	_ Transactor = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0)
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// WithTx buffers writes made through tx and applies them under a single lock
// when fn returns nil.
func (m *Memory) WithTx(ctx context.Context, fn func(tx Store) error) error {
	tx := &memoryTx{parent: m, writes: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range tx.writes {
		if v == nil {
			delete(m.data, k)
			continue
		}
		m.data[k] = v
	}
	return nil
}

type memoryTx struct {
	parent *Memory
	// nil value marks a pending delete.
	writes map[string][]byte
}

func (t *memoryTx) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := t.writes[key]; ok {
		if v == nil {
			return nil, ErrNotFound
		}
		return append([]byte(nil), v...), nil
	}
	return t.parent.Get(ctx, key)
}

func (t *memoryTx) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

func (t *memoryTx) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.writes[key] = nil
	return nil
}

func (t *memoryTx) Keys(ctx context.Context, prefix string) ([]string, error) {
	base, err := t.parent.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(base))
	keys := make([]string, 0, len(base))
	for _, k := range base {
		seen[k] = true
		if v, ok := t.writes[k]; ok && v == nil {
			continue
		}
		keys = append(keys, k)
	}
	for k, v := range t.writes {
		if v != nil && !seen[k] && strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
