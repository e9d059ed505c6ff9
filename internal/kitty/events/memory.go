package events

import (
	"context"
	"sync"

	"kitties/internal/kitty/models"
)

// MemorySink records events in order. Used by tests and the memory backend.
type MemorySink struct {
	mu     sync.RWMutex
	events []models.Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(_ context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (s *MemorySink) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Event{}, s.events...)
}

func (s *MemorySink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
