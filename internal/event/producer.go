package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/cartql/internal/domain"
	pkgkafka "github.com/utafrali/cartql/pkg/kafka"
)

// Kafka topics produced by the service.
var (
	TopicCartUpdated        = pkgkafka.Topic("cart", "updated")
	TopicCartDeleted        = pkgkafka.Topic("cart", "deleted")
	TopicOrderCreated       = pkgkafka.Topic("order", "created")
	TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")
)

// Metadata keys set on outgoing events.
const (
	MetaCurrency = "currency"
	MetaCartID   = "cart_id"
)

// Aggregate type constants.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceCartQL identifies events originating from this service.
const SourceCartQL = "cartql"

// Publisher publishes cart and order domain events.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart) error
	PublishCartDeleted(ctx context.Context, cartID string) error
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus) error
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	CartID           string         `json:"cart_id"`
	Currency         string         `json:"currency"`
	Email            string         `json:"email,omitempty"`
	Items            []CartItemData `json:"items"`
	TotalItems       int            `json:"total_items"`
	TotalUniqueItems int            `json:"total_unique_items"`
	SubTotal         int64          `json:"sub_total"`
	GrandTotal       int64          `json:"grand_total"`
	Version          int64          `json:"version"`
}

// CartItemData is the item payload within cart and order events.
type CartItemData struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type"`
	UnitTotal int64  `json:"unit_total"`
	Quantity  int    `json:"quantity"`
}

// CartDeletedData is the payload for a cart.deleted event.
type CartDeletedData struct {
	CartID string `json:"cart_id"`
}

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID    string         `json:"order_id"`
	CartID     string         `json:"cart_id"`
	Email      string         `json:"email"`
	Currency   string         `json:"currency"`
	Items      []CartItemData `json:"items"`
	GrandTotal int64          `json:"grand_total"`
	Status     string         `json:"status"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// Sink is the transport events are written to. *pkgkafka.Producer
// satisfies it.
type Sink interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes domain events to Kafka.
type Producer struct {
	sink   Sink
	logger *slog.Logger
}

var _ Publisher = (*Producer)(nil)

// NewProducer creates a new event producer.
func NewProducer(sink Sink, logger *slog.Logger) *Producer {
	return &Producer{
		sink:   sink,
		logger: logger,
	}
}

func itemData(items []domain.CartItem) []CartItemData {
	out := make([]CartItemData, len(items))
	for i, item := range items {
		out[i] = CartItemData{
			ID:        item.ID,
			Name:      item.Name,
			Type:      string(item.Type),
			UnitTotal: item.UnitTotal,
			Quantity:  item.Quantity,
		}
	}
	return out
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	data := CartUpdatedData{
		CartID:           cart.ID,
		Currency:         cart.Currency.Code,
		Email:            cart.Email,
		Items:            itemData(cart.Items),
		TotalItems:       cart.TotalItems(),
		TotalUniqueItems: cart.TotalUniqueItems(),
		SubTotal:         cart.SubTotal(),
		GrandTotal:       cart.GrandTotal(),
		Version:          cart.Version,
	}
	if err := p.publish(ctx, TopicCartUpdated, cart.ID, AggregateTypeCart, data, MetaCurrency, cart.Currency.Code); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("cart_id", cart.ID),
		slog.Int("total_items", data.TotalItems),
	)
	return nil
}

// PublishCartDeleted publishes a cart.deleted event.
func (p *Producer) PublishCartDeleted(ctx context.Context, cartID string) error {
	if err := p.publish(ctx, TopicCartDeleted, cartID, AggregateTypeCart, CartDeletedData{CartID: cartID}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.deleted event", slog.String("cart_id", cartID))
	return nil
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		OrderID:    order.ID,
		CartID:     order.CartID,
		Email:      order.Email,
		Currency:   order.Currency.Code,
		Items:      itemData(order.Items),
		GrandTotal: order.GrandTotal,
		Status:     string(order.Status),
	}
	if err := p.publish(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, data,
		MetaCurrency, order.Currency.Code, MetaCartID, order.CartID); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "published order.created event",
		slog.String("order_id", order.ID),
		slog.String("cart_id", order.CartID),
	)
	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus) error {
	data := OrderStatusChangedData{
		OrderID:   order.ID,
		OldStatus: string(from),
		NewStatus: string(order.Status),
	}
	if err := p.publish(ctx, TopicOrderStatusChanged, order.ID, AggregateTypeOrder, data, MetaCartID, order.CartID); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "published order.status_changed event",
		slog.String("order_id", order.ID),
		slog.String("old_status", data.OldStatus),
		slog.String("new_status", data.NewStatus),
	)
	return nil
}

// publish wraps data in the shared envelope. meta holds key/value pairs.
func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any, meta ...string) error {
	event, err := pkgkafka.NewEvent(ctx, topic, aggregateID, aggregateType, SourceCartQL, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	for i := 0; i+1 < len(meta); i += 2 {
		event.WithMetadata(meta[i], meta[i+1])
	}
	if err := p.sink.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// NoopPublisher discards every event. It is used when Kafka is disabled.
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

func (NoopPublisher) PublishCartUpdated(context.Context, *domain.Cart) error { return nil }
func (NoopPublisher) PublishCartDeleted(context.Context, string) error       { return nil }
func (NoopPublisher) PublishOrderCreated(context.Context, *domain.Order) error {
	return nil
}
func (NoopPublisher) PublishOrderStatusChanged(context.Context, *domain.Order, domain.OrderStatus) error {
	return nil
}
