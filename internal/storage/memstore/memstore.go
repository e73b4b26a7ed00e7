// Package memstore provides an in-memory storage backend. It backs the
// tertiary cache when no sqlite file is configured and doubles as the
// test backend.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/craftedcrochet/storefront/internal/storage"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
}

func New() *Store {
	return &Store{collections: make(map[string]map[string]json.RawMessage)}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Read(_ context.Context, collection string) ([]storage.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.collections[collection]
	docs := make([]storage.Document, 0, len(col))
	for id, data := range col {
		docs = append(docs, storage.Document{ID: id, Data: data})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *Store) Get(_ context.Context, collection, id string) (storage.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return storage.Document{}, storage.ErrNotFound
	}
	return storage.Document{ID: id, Data: data}, nil
}

func (s *Store) Write(_ context.Context, collection, id string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]json.RawMessage)
		s.collections[collection] = col
	}
	col[id] = append(json.RawMessage(nil), data...)
	return nil
}

func (s *Store) Update(_ context.Context, collection, id string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collections[collection]
	if _, ok := col[id]; !ok {
		return storage.ErrNotFound
	}
	col[id] = append(json.RawMessage(nil), data...)
	return nil
}

func (s *Store) Remove(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collections[collection]
	if _, ok := col[id]; !ok {
		return storage.ErrNotFound
	}
	delete(col, id)
	return nil
}

func (s *Store) Replace(_ context.Context, collection string, docs []storage.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := make(map[string]json.RawMessage, len(docs))
	for _, d := range docs {
		col[d.ID] = append(json.RawMessage(nil), d.Data...)
	}
	s.collections[collection] = col
	return nil
}
