package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/repository"
	apperrors "github.com/utafrali/cartql/pkg/errors"
)

// OrderRepository implements repository.OrderRepository in memory.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

// NewOrderRepository creates an empty in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*domain.Order)}
}

// Create stores a copy of o. Duplicate ids are rejected.
func (r *OrderRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[o.ID]; ok {
		return apperrors.Conflict(fmt.Sprintf("order %s already exists", o.ID))
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

// GetByID returns a copy of the stored order.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return o.Clone(), nil
}

// List returns matching orders, newest first.
func (r *OrderRepository) List(_ context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	r.mu.RLock()
	matched := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.Matches(o) {
			matched = append(matched, o)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	limit, offset := filter.Limit()
	if offset >= total {
		return []domain.Order{}, total, nil
	}
	end := min(offset+limit, total)

	out := make([]domain.Order, 0, end-offset)
	for _, o := range matched[offset:end] {
		out = append(out, *o.Clone())
	}
	return out, total, nil
}

// UpdateStatus applies the status change when the current status is from.
func (r *OrderRepository) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return apperrors.NotFound("order", id)
	}
	if o.Status != from {
		return apperrors.Conflict(fmt.Sprintf("order %s is %s, expected %s", id, o.Status, from))
	}

	updated := o.Clone()
	updated.Status = to
	updated.UpdatedAt = at
	r.orders[id] = updated
	return nil
}
