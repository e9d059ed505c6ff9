package store

import (
	"context"
	"sync"

	"kitties/internal/kitty/models"
	id "kitties/pkg/domain"
	"kitties/pkg/platform/sentinel"
)

// InMemoryStore keeps the registry in a map keyed by DNA.
// Suitable for tests and single-instance deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	kitties map[id.DNA]models.Kitty
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{kitties: make(map[id.DNA]models.Kitty)}
}

// FindByDNA returns a copy of the stored record or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByDNA(_ context.Context, dna id.DNA) (*models.Kitty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.kitties[dna]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &k, nil
}

func (s *InMemoryStore) Contains(_ context.Context, dna id.DNA) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.kitties[dna]
	return ok, nil
}

// Insert adds the record under its own DNA. Existing entries are never
// overwritten: a taken key yields sentinel.ErrAlreadyUsed.
func (s *InMemoryStore) Insert(_ context.Context, kitty *models.Kitty) error {
	if kitty == nil {
		return sentinel.ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kitties[kitty.DNA]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.kitties[kitty.DNA] = *kitty
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.kitties), nil
}
