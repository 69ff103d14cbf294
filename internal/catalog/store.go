// Package catalog holds the in-memory product store and the fulfillment
// ledger that is its sole writer.
package catalog

import (
	"fmt"
	"sync"

	"github.com/tidewater/inboxpilot/internal/common"
	"github.com/tidewater/inboxpilot/internal/model"
)

// Store is the product catalog. Read-mostly; stock mutations go through
// Decrement and are serialized by the store's lock.
type Store struct {
	byID     map[string]int
	products []model.Product
	mu       sync.RWMutex
}

// NewStore creates a store from a catalog snapshot. The snapshot is copied.
func NewStore(products []model.Product) *Store {
	s := &Store{
		products: make([]model.Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	copy(s.products, products)
	for i, p := range s.products {
		s.byID[p.ID] = i
	}
	return s
}

// Snapshot returns a copy of the current catalog.
func (s *Store) Snapshot() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Get returns the product with the given id.
func (s *Store) Get(id string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return model.Product{}, false
	}
	return s.products[i], true
}

// Add inserts a product, replacing any existing entry with the same id.
func (s *Store) Add(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Quantity < 0 {
		p.Quantity = 0
	}
	if i, ok := s.byID[p.ID]; ok {
		s.products[i] = p
		return
	}
	s.byID[p.ID] = len(s.products)
	s.products = append(s.products, p)
}

// SetQuantity overwrites a product's stock count.
func (s *Store) SetQuantity(id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrProductNotFound, id)
	}
	if qty < 0 {
		qty = 0
	}
	s.products[i].Quantity = qty
	return nil
}

// Decrement reduces a product's stock by qty, floored at 0, and returns
// the quantity actually applied. Unknown products apply 0.
func (s *Store) Decrement(id string, qty int) int {
	if qty <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return 0
	}

	applied := qty
	if applied > s.products[i].Quantity {
		applied = s.products[i].Quantity
	}
	s.products[i].Quantity -= applied
	return applied
}
