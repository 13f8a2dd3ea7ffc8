// Package entity provides the entity stores: an in-memory store for tests and
// single-process tools, and PostgreSQL and SQLite document stores.
package entity

import (
	"context"
	"sync"

	"neom/internal/repository"
	"neom/pkg/ddd"
	"neom/pkg/platform/sentinel"
)

// InMemory keeps a snapshot of each saved entity per schema, keyed by
// repository.IdentityKey like the SQL stores. Callers never share an instance
// with the store: Save copies in and Find copies out.
type InMemory struct {
	mu      sync.RWMutex
	schemas map[*ddd.Schema]map[string]*ddd.Instance
}

func NewInMemory() *InMemory {
	return &InMemory{schemas: make(map[*ddd.Schema]map[string]*ddd.Instance)}
}

func (s *InMemory) Save(_ context.Context, e *ddd.Instance) error {
	id, err := e.Identity()
	if err != nil {
		return err
	}
	key, err := repository.IdentityKey(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entities, ok := s.schemas[e.Schema()]
	if !ok {
		entities = make(map[string]*ddd.Instance)
		s.schemas[e.Schema()] = entities
	}
	entities[key] = e.Clone()
	return nil
}

func (s *InMemory) Find(_ context.Context, schema *ddd.Schema, identity any) (*ddd.Instance, error) {
	key, err := repository.IdentityKey(identity)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.schemas[schema][key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.Clone(), nil
}

func (s *InMemory) Delete(_ context.Context, schema *ddd.Schema, identity any) error {
	key, err := repository.IdentityKey(identity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schemas[schema][key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.schemas[schema], key)
	return nil
}

func (s *InMemory) Count(_ context.Context, schema *ddd.Schema) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.schemas[schema]), nil
}
