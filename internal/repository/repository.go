package repository

import (
	"context"
	"time"

	"github.com/utafrali/cartql/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves a cart by id. A missing cart yields apperrors.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Cart, error)

	// SaveIfVersion stores cart only if the stored version equals
	// expectedVersion, where 0 means the cart must not exist yet. On success
	// cart.Version is set to expectedVersion+1. A version mismatch returns
	// false with a nil error.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int64) (bool, error)

	// Delete removes a cart. A missing cart yields apperrors.ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	CartID  *string
	Email   *string
	Status  *domain.OrderStatus
	Page    int
	PerPage int
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its items atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by id, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the filter, newest first, along with the
	// total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus moves an order from one status to another. It fails with
	// NotFound when the order is missing and Conflict when its current status
	// is not from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error
}

// Limit returns the page size and offset for a filter, defaulting to 20 per
// page.
func (f OrderFilter) Limit() (limit, offset int) {
	limit = f.PerPage
	if limit <= 0 {
		limit = 20
	}
	if f.Page > 1 {
		offset = (f.Page - 1) * limit
	}
	return limit, offset
}

// Matches reports whether o satisfies every set filter field.
func (f OrderFilter) Matches(o *domain.Order) bool {
	if f.CartID != nil && o.CartID != *f.CartID {
		return false
	}
	if f.Email != nil && o.Email != *f.Email {
		return false
	}
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	return true
}
