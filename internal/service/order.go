package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/event"
	"github.com/utafrali/cartql/internal/repository"
	apperrors "github.com/utafrali/cartql/pkg/errors"
	"github.com/utafrali/cartql/pkg/pagination"
)

// OrderService implements order reads and the payment transition.
type OrderService struct {
	repo      repository.OrderRepository
	publisher event.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, publisher event.Publisher, logger *slog.Logger, opts ...Option) *OrderService {
	o := applyOptions(opts)
	return &OrderService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       o.now,
	}
}

// GetOrder returns an order by id. Ids that are not UUIDs cannot exist and
// yield NotFound.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("order", id)
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders returns a page of orders matching filter and the total count.
// Page sizes are clamped the same way as REST pagination.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Status != nil && !domain.ValidOrderStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", *filter.Status))
	}
	p := pagination.New(filter.Page, filter.PerPage)
	filter.Page, filter.PerPage = p.Page, p.PerPage

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// MarkPaid moves an UNPAID order to PAID. Paying an order twice is a
// Conflict.
func (s *OrderService) MarkPaid(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(domain.OrderStatusPaid) {
		return nil, apperrors.Conflict(fmt.Sprintf("order %s is already %s", id, order.Status))
	}

	from := order.Status
	now := s.now()
	if err := s.repo.UpdateStatus(ctx, id, from, domain.OrderStatusPaid, now); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = domain.OrderStatusPaid
	order.UpdatedAt = now
	orderStatusTransitionsTotal.WithLabelValues(string(order.Status)).Inc()

	if err := s.publisher.PublishOrderStatusChanged(ctx, order, from); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order marked as paid", slog.String("order_id", id))
	return order, nil
}
