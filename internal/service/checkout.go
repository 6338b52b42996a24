package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/event"
	"github.com/utafrali/cartql/internal/notify"
	"github.com/utafrali/cartql/internal/repository"
	apperrors "github.com/utafrali/cartql/pkg/errors"
)

// CheckoutService converts carts into orders.
type CheckoutService struct {
	carts     repository.CartRepository
	orders    repository.OrderRepository
	publisher event.Publisher
	notifier  notify.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts repository.CartRepository,
	orders repository.OrderRepository,
	publisher event.Publisher,
	notifier notify.Notifier,
	logger *slog.Logger,
	opts ...Option,
) *CheckoutService {
	o := applyOptions(opts)
	return &CheckoutService{
		carts:     carts,
		orders:    orders,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
		now:       o.now,
	}
}

// Checkout freezes the cart into a new UNPAID order. The cart itself is
// left untouched. Event publishing and webhook delivery are best effort.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (_ *domain.Order, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = apperrors.Code(err)
		}
		checkoutsTotal.WithLabelValues(result).Inc()
	}()

	in.normalize()
	if err := validate(&in); err != nil {
		return nil, err
	}
	if err := validateMetadata(in.Metadata); err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, in.CartID)
	if err != nil {
		return nil, fmt.Errorf("get cart for checkout: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.InvalidInput("cannot checkout an empty cart")
	}

	details := domain.CheckoutDetails{
		Email:    in.Email,
		Shipping: in.Shipping.toDomain(),
		Notes:    in.Notes,
		Metadata: in.Metadata,
	}
	if in.Billing != nil {
		billing := in.Billing.toDomain()
		details.Billing = &billing
	}

	order := domain.NewOrderFromCart(uuid.NewString(), cart, details, s.now())
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.notifier.NotifyOrderCreated(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "order webhook failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("cart_id", order.CartID),
		slog.Int64("grand_total", order.GrandTotal),
		slog.String("currency", order.Currency.Code),
	)

	return order, nil
}
