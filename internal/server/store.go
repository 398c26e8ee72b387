package server

import (
	"fmt"
	"sync"
)

// Persister saves and restores the whole resource document. Save always
// receives the complete document; there are no partial writes.
type Persister interface {
	Load() (Document, error)
	Save(Document) error
}

// ResourceStore is the single owner of the resource document. Reads share
// the lock; every mutation is applied to a copy, persisted, and only then
// published, so a failed save leaves the previous state in place.
type ResourceStore struct {
	mu        sync.RWMutex
	doc       Document
	persister Persister
}

func OpenResourceStore(p Persister) (*ResourceStore, error) {
	doc, err := p.Load()
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &ResourceStore{doc: doc, persister: p}, nil
}

func (s *ResourceStore) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Category returns the category's list; an unknown category is empty.
func (s *ResourceStore) Category(cat string) []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.list(cat)
}

func (s *ResourceStore) Item(cat string, id int64) (Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.doc.get(cat, id)
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *ResourceStore) Create(cat string, r Resource) (Resource, error) {
	var out Resource
	err := s.mutate(func(d Document) error {
		var err error
		out, err = d.add(cat, r)
		return err
	})
	return out, err
}

func (s *ResourceStore) ReplaceCategory(cat string, items []Resource) ([]Resource, error) {
	var out []Resource
	err := s.mutate(func(d Document) error {
		var err error
		out, err = d.replace(cat, items)
		return err
	})
	return out, err
}

func (s *ResourceStore) Update(cat string, id int64, fields Resource) (Resource, error) {
	var out Resource
	err := s.mutate(func(d Document) error {
		var ok bool
		if out, ok = d.update(cat, id, fields); !ok {
			return ErrNotFound
		}
		return nil
	})
	return out, err
}

func (s *ResourceStore) Delete(cat string, id int64) (Resource, error) {
	var out Resource
	err := s.mutate(func(d Document) error {
		var ok bool
		if out, ok = d.remove(cat, id); !ok {
			return ErrNotFound
		}
		return nil
	})
	return out, err
}

func (s *ResourceStore) mutate(fn func(Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.persister.Save(next); err != nil {
		return fmt.Errorf("persist resources: %w", err)
	}
	s.doc = next
	return nil
}
