package db

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemoryStore keeps documents in process. It backs memory:// and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	seq     int
	colls   map[string][]map[string]any
	uniques map[string]map[string]bool

	// FailWith, when set, is returned by every operation.
	FailWith error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		colls:   make(map[string][]map[string]any),
		uniques: make(map[string]map[string]bool),
	}
}

func (m *MemoryStore) Insert(ctx context.Context, collection string, doc map[string]any) (string, error) {
	if m.FailWith != nil {
		return "", m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for field := range m.uniques[collection] {
		for _, existing := range m.colls[collection] {
			if v, ok := doc[field]; ok && reflect.DeepEqual(existing[field], v) {
				return "", fmt.Errorf("memory: duplicate value for unique field %q", field)
			}
		}
	}

	m.seq++
	id := strconv.Itoa(m.seq)
	stored := copyDoc(doc)
	stored["_id"] = id
	m.colls[collection] = append(m.colls[collection], stored)
	return id, nil
}

func (m *MemoryStore) Find(ctx context.Context, collection string, query map[string]any, opts FindOptions) ([]map[string]any, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	matched := m.match(collection, query)
	m.mu.RUnlock()

	if opts.Sort != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i][opts.Sort], matched[j][opts.Sort]
			if opts.Desc {
				return less(b, a)
			}
			return less(a, b)
		})
	}

	if opts.Skip >= len(matched) {
		return []map[string]any{}, nil
	}
	matched = matched[opts.Skip:]
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (m *MemoryStore) FindOne(ctx context.Context, collection string, query map[string]any) (map[string]any, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.match(collection, query)
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (m *MemoryStore) Count(ctx context.Context, collection string, query map[string]any) (int, error) {
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.match(collection, query)), nil
}

func (m *MemoryStore) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	if !unique {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uniques[collection] == nil {
		m.uniques[collection] = make(map[string]bool)
	}
	m.uniques[collection][field] = true
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return m.FailWith
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// match returns copies of the documents equal to query on every key.
// Callers hold m.mu.
func (m *MemoryStore) match(collection string, query map[string]any) []map[string]any {
	out := make([]map[string]any, 0)
	for _, doc := range m.colls[collection] {
		ok := true
		for k, v := range query {
			if !reflect.DeepEqual(doc[k], v) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, copyDoc(doc))
		}
	}
	return out
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// less orders the value types the service stores; anything else
// compares by its string form.
func less(a, b any) bool {
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Before(y)
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	case int:
		if y, ok := b.(int); ok {
			return x < y
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
