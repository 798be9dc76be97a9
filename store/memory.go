package store

import (
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned when no item is stored under an id.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when inserting an id that is already stored.
	ErrExists = errors.New("already exists")
)

// Memory is an insertion-ordered map guarded by a RWMutex.
type Memory[T any] struct {
	mu    sync.RWMutex
	key   func(T) string
	items map[string]T
	order []string
}

// NewMemory returns an empty store that identifies items by key.
func NewMemory[T any](key func(T) string) *Memory[T] {
	return &Memory[T]{
		key:   key,
		items: make(map[string]T),
	}
}

func (m *Memory[T]) Find(id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return item, nil
}

func (m *Memory[T]) Insert(item T) error {
	id := m.key(item)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; ok {
		return ErrExists
	}
	m.items[id] = item
	m.order = append(m.order, id)
	return nil
}

// Update applies fn to a copy of the stored item and stores the result if
// fn returns nil. The write lock is held for the duration of fn.
func (m *Memory[T]) Update(id string, fn func(*T) error) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	if err := fn(&item); err != nil {
		var zero T
		return zero, err
	}
	m.items[id] = item
	return item, nil
}

// List returns a snapshot of all items in insertion order.
func (m *Memory[T]) List() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out
}

func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
