package docstore

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type entry struct {
	seq  int64
	data map[string]any
}

type inMemoryStore struct {
	mu          sync.RWMutex
	seq         int64
	collections map[string]map[string]entry
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit tests
// and local development.
func NewInMemory() Store {
	return &inMemoryStore{collections: make(map[string]map[string]entry)}
}

func (s *inMemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: clone(e.data)}, nil
}

func (s *inMemoryStore) Insert(_ context.Context, collection, id string, data map[string]any) (string, error) {
	normalized, err := normalize(data)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]entry)
		s.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return "", ErrDuplicate
	}
	s.seq++
	docs[id] = entry{seq: s.seq, data: normalized}
	return id, nil
}

func (s *inMemoryStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	normalized, err := normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	merged := clone(e.data)
	for k, v := range normalized {
		merged[k] = v
	}
	e.data = merged
	s.collections[collection][id] = e
	return nil
}

func (s *inMemoryStore) Query(_ context.Context, collection string, filters ...Filter) ([]Document, error) {
	want := make(map[string]any, len(filters))
	for _, f := range filters {
		want[f.Field] = f.Value
	}
	want, err := normalize(want)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	type hit struct {
		seq int64
		doc Document
	}
	var hits []hit
	for id, e := range s.collections[collection] {
		if !matches(e.data, want) {
			continue
		}
		hits = append(hits, hit{seq: e.seq, doc: Document{ID: id, Data: clone(e.data)}})
	}

	// insertion order stands in for created_at
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })
	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.doc)
	}
	return docs, nil
}

func matches(data, want map[string]any) bool {
	for field, value := range want {
		if !reflect.DeepEqual(data[field], value) {
			return false
		}
	}
	return true
}

// normalize round-trips values through JSON so the in-memory store sees the
// same shapes (json.Number values, []any slices) the Postgres store returns.
func normalize(data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func clone(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
