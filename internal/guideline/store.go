// Package guideline holds the append-only store of user-taught response
// overrides.
package guideline

import (
	"sync"
	"time"

	"github.com/tidewater/inboxpilot/internal/model"
)

// Store is append-only: guidelines are never reordered or deleted, and the
// full list is handed to the classifier in insertion order.
type Store struct {
	list []model.Guideline
	mu   sync.Mutex
}

// NewStore creates a store seeded with existing guidelines.
func NewStore(existing []model.Guideline) *Store {
	s := &Store{list: make([]model.Guideline, len(existing))}
	copy(s.list, existing)
	return s
}

// Teach appends a new guideline and returns it. No dedup.
func (s *Store) Teach(trigger, reply string) model.Guideline {
	g := model.Guideline{
		Trigger:   trigger,
		Reply:     reply,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.list = append(s.list, g)
	s.mu.Unlock()

	return g
}

// All returns a copy of the guidelines in insertion order.
func (s *Store) All() []model.Guideline {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Guideline, len(s.list))
	copy(out, s.list)
	return out
}

// Len returns the number of guidelines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}
