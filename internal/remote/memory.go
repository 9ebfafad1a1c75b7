package remote

import (
	"context"
	"sync"
)

// Hook runs before a memory store operation; a non-nil error fails it.
type Hook func(ctx context.Context, op, collection, id string) error

// MemoryStore implements DocumentStore with in-memory storage. Set replaces
// each top-level field it is given and leaves the others alone, as the
// Firestore store does.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
	sets int

	hook Hook
}

// NewMemoryStore creates a new in-memory document store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]any),
	}
}

// SetHook installs a hook run before every Get and Set.
func (m *MemoryStore) SetHook(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = h
}

func docKey(collection, id string) string {
	return collection + "/" + id
}

func (m *MemoryStore) runHook(ctx context.Context, op, collection, id string) error {
	m.mu.RLock()
	h := m.hook
	m.mu.RUnlock()
	if h == nil {
		return nil
	}
	if err := h(ctx, op, collection, id); err != nil {
		return &Error{Op: op, Collection: collection, ID: id, Cause: err}
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	if err := m.runHook(ctx, "get", collection, id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "get", Collection: collection, ID: id, Cause: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[docKey(collection, id)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMap(doc), nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if err := m.runHook(ctx, "set", collection, id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &Error{Op: "set", Collection: collection, ID: id, Cause: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := docKey(collection, id)
	doc, ok := m.docs[key]
	if !ok {
		doc = make(map[string]any)
		m.docs[key] = doc
	}
	for k, v := range data {
		doc[k] = cloneValue(v)
	}
	m.sets++
	return nil
}

// Put replaces a document outright, bypassing hooks. Intended for seeding.
func (m *MemoryStore) Put(collection, id string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[docKey(collection, id)] = cloneMap(data)
}

// Peek returns a copy of a document without running hooks.
func (m *MemoryStore) Peek(collection, id string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[docKey(collection, id)]
	if !ok {
		return nil, false
	}
	return cloneMap(doc), true
}

// SetCount is the number of successful Set calls.
func (m *MemoryStore) SetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
