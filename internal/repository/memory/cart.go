// Package memory provides map-backed repositories. Stored values are deep
// copies, so callers never share state with the store.
package memory

import (
	"context"
	"sync"

	"github.com/utafrali/cartql/internal/domain"
	apperrors "github.com/utafrali/cartql/pkg/errors"
)

// CartRepository implements repository.CartRepository in memory.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

// NewCartRepository creates an empty in-memory cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]*domain.Cart)}
}

// Get returns a copy of the stored cart.
func (r *CartRepository) Get(_ context.Context, id string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[id]
	if !ok {
		return nil, apperrors.NotFound("cart", id)
	}
	return c.Clone(), nil
}

// SaveIfVersion stores a copy of cart when the stored version matches.
func (r *CartRepository) SaveIfVersion(_ context.Context, cart *domain.Cart, expectedVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var current int64
	if c, ok := r.carts[cart.ID]; ok {
		current = c.Version
	}
	if current != expectedVersion {
		return false, nil
	}

	stored := cart.Clone()
	stored.Version = expectedVersion + 1
	r.carts[cart.ID] = stored
	cart.Version = stored.Version
	return true, nil
}

// Delete removes the cart.
func (r *CartRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[id]; !ok {
		return apperrors.NotFound("cart", id)
	}
	delete(r.carts, id)
	return nil
}

// Len returns the number of stored carts.
func (r *CartRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carts)
}
