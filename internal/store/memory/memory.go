// Package memory is an in-process Store used by tests and the memory driver.
package memory

import (
	"context"
	"sync"

	"dealer_crm_backend/internal/store"
)

type collection struct {
	order []string
	docs  map[string]map[string]any
}

// Store keeps documents in memory behind a single mutex.
type Store struct {
	mu          sync.RWMutex
	collections map[store.Collection]*collection
}

// New returns an empty store.
func New() *Store {
	return &Store{collections: make(map[store.Collection]*collection)}
}

// emptyCollection stands in for a collection that has never been written.
var emptyCollection = &collection{docs: map[string]map[string]any{}}

// lookup is for read paths; the caller holds at least the read lock.
func (s *Store) lookup(name store.Collection) *collection {
	if c, ok := s.collections[name]; ok {
		return c
	}
	return emptyCollection
}

// coll creates the collection on first use; the caller holds the write lock.
func (s *Store) coll(name store.Collection) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]map[string]any)}
		s.collections[name] = c
	}
	return c
}

// Get implements store.Store.
func (s *Store) Get(_ context.Context, coll store.Collection, id string, dst any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.lookup(coll).docs[id]
	if !ok {
		return store.ErrNotFound
	}
	return store.Decode(doc, dst)
}

// FindFirst implements store.Store.
func (s *Store) FindFirst(_ context.Context, coll store.Collection, field, value string, dst any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.lookup(coll)
	for _, id := range c.order {
		if store.MatchesField(c.docs[id], field, value) {
			return store.Decode(c.docs[id], dst)
		}
	}
	return store.ErrNotFound
}

// Insert implements store.Store.
func (s *Store) Insert(_ context.Context, coll store.Collection, id string, doc any) error {
	m, err := store.ToDocument(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(coll)
	if _, exists := c.docs[id]; exists {
		return store.ErrDuplicateID
	}
	c.docs[id] = m
	c.order = append(c.order, id)
	return nil
}

// Patch implements store.Store.
func (s *Store) Patch(_ context.Context, coll store.Collection, id string, fields map[string]any) error {
	patch, err := store.ToDocument(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.lookup(coll).docs[id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range patch {
		doc[k] = v
	}
	return nil
}

// ListAll implements store.Store.
func (s *Store) ListAll(_ context.Context, coll store.Collection, dst any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.lookup(coll)
	docs := make([]map[string]any, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, c.docs[id])
	}
	return store.Decode(docs, dst)
}

var _ store.Store = (*Store)(nil)
