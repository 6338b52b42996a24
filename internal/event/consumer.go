package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/cartql/internal/domain"
	apperrors "github.com/utafrali/cartql/pkg/errors"
	pkgkafka "github.com/utafrali/cartql/pkg/kafka"
)

// TopicPaymentCompleted is consumed to mark orders as paid.
var TopicPaymentCompleted = pkgkafka.Topic("payment", "completed")

// OrderPayer defines the order operation required by the payment consumer.
type OrderPayer interface {
	MarkPaid(ctx context.Context, orderID string) (*domain.Order, error)
}

// PaymentCompletedData is the expected payload of a payment.completed event.
type PaymentCompletedData struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

// PaymentConsumer processes payment events.
type PaymentConsumer struct {
	orders OrderPayer
	logger *slog.Logger
}

// NewPaymentConsumer creates a new payment event consumer.
func NewPaymentConsumer(orders OrderPayer, logger *slog.Logger) *PaymentConsumer {
	return &PaymentConsumer{
		orders: orders,
		logger: logger,
	}
}

// HandlePaymentCompleted marks the referenced order as paid. Orders that are
// already paid are acknowledged. Malformed payloads and unknown orders are
// permanent failures.
func (c *PaymentConsumer) HandlePaymentCompleted(ctx context.Context, event *pkgkafka.Event) error {
	var data PaymentCompletedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal payment.completed data: %w: %w", pkgkafka.ErrPermanent, err)
	}
	if data.OrderID == "" {
		return fmt.Errorf("payment.completed without order_id: %w", pkgkafka.ErrPermanent)
	}

	c.logger.InfoContext(ctx, "processing payment.completed event",
		slog.String("order_id", data.OrderID),
		slog.String("payment_id", data.PaymentID),
	)

	_, err := c.orders.MarkPaid(ctx, data.OrderID)
	switch {
	case err == nil:
		c.logger.InfoContext(ctx, "order marked as paid", slog.String("order_id", data.OrderID))
		return nil
	case errors.Is(err, apperrors.ErrConflict):
		c.logger.InfoContext(ctx, "order already paid, acknowledging",
			slog.String("order_id", data.OrderID),
		)
		return nil
	case errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("mark order %s paid: %w: %w", data.OrderID, pkgkafka.ErrPermanent, err)
	default:
		return fmt.Errorf("mark order %s paid: %w", data.OrderID, err)
	}
}
