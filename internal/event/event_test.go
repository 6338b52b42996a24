package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/money"
	apperrors "github.com/utafrali/cartql/pkg/errors"
	pkgkafka "github.com/utafrali/cartql/pkg/kafka"
	"github.com/utafrali/cartql/pkg/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSink struct {
	mu     sync.Mutex
	topics []string
	events []*pkgkafka.Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.topics = append(s.topics, topic)
	s.events = append(s.events, event)
	return nil
}

func sampleCart() *domain.Cart {
	c := domain.NewCart("c1", money.MustLookup("GBP"), time.Now())
	c.Items = []domain.CartItem{
		{ID: "sku1", Name: "Tea", Type: domain.ItemTypeSKU, UnitTotal: 350, Quantity: 2},
		{ID: "post", Type: domain.ItemTypeShipping, UnitTotal: 200, Quantity: 1},
	}
	c.Version = 4
	return c
}

// ---------------------------------------------------------------------------
// Producer
// ---------------------------------------------------------------------------

func TestProducer_PublishCartUpdated(t *testing.T) {
	sink := &recordingSink{}
	p := NewProducer(sink, discardLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	require.NoError(t, p.PublishCartUpdated(ctx, sampleCart()))

	require.Len(t, sink.events, 1)
	assert.Equal(t, TopicCartUpdated, sink.topics[0])
	ev := sink.events[0]
	assert.Equal(t, "c1", ev.AggregateID)
	assert.Equal(t, AggregateTypeCart, ev.AggregateType)
	assert.Equal(t, SourceCartQL, ev.Source)
	assert.Equal(t, "corr-1", ev.CorrelationID)
	assert.Equal(t, "cartql.cart.updated", TopicCartUpdated)
	assert.Equal(t, map[string]string{MetaCurrency: "GBP"}, ev.Metadata)

	var data CartUpdatedData
	require.NoError(t, ev.UnmarshalData(&data))
	assert.Equal(t, "GBP", data.Currency)
	assert.Equal(t, 3, data.TotalItems)
	assert.Equal(t, 2, data.TotalUniqueItems)
	assert.Equal(t, int64(700), data.SubTotal)
	assert.Equal(t, int64(900), data.GrandTotal)
	assert.Equal(t, int64(4), data.Version)
	require.Len(t, data.Items, 2)
	assert.Equal(t, "SHIPPING", data.Items[1].Type)
}

func TestProducer_PublishCartDeleted(t *testing.T) {
	sink := &recordingSink{}
	p := NewProducer(sink, discardLogger())

	require.NoError(t, p.PublishCartDeleted(context.Background(), "c9"))

	require.Len(t, sink.events, 1)
	assert.Equal(t, TopicCartDeleted, sink.topics[0])
	var data CartDeletedData
	require.NoError(t, sink.events[0].UnmarshalData(&data))
	assert.Equal(t, "c9", data.CartID)
}

func TestProducer_PublishOrderEvents(t *testing.T) {
	sink := &recordingSink{}
	p := NewProducer(sink, discardLogger())
	order := domain.NewOrderFromCart("o1", sampleCart(), domain.CheckoutDetails{Email: "a@example.com"}, time.Now())

	require.NoError(t, p.PublishOrderCreated(context.Background(), order))
	order.Status = domain.OrderStatusPaid
	require.NoError(t, p.PublishOrderStatusChanged(context.Background(), order, domain.OrderStatusUnpaid))

	require.Len(t, sink.events, 2)
	assert.Equal(t, []string{TopicOrderCreated, TopicOrderStatusChanged}, sink.topics)
	assert.Equal(t, map[string]string{MetaCurrency: "GBP", MetaCartID: "c1"}, sink.events[0].Metadata)
	assert.Equal(t, map[string]string{MetaCartID: "c1"}, sink.events[1].Metadata)

	var created OrderCreatedData
	require.NoError(t, sink.events[0].UnmarshalData(&created))
	assert.Equal(t, "o1", created.OrderID)
	assert.Equal(t, "c1", created.CartID)
	assert.Equal(t, "UNPAID", created.Status)
	assert.Equal(t, int64(900), created.GrandTotal)

	var changed OrderStatusChangedData
	require.NoError(t, sink.events[1].UnmarshalData(&changed))
	assert.Equal(t, "UNPAID", changed.OldStatus)
	assert.Equal(t, "PAID", changed.NewStatus)
}

func TestProducer_SinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	p := NewProducer(sink, discardLogger())

	err := p.PublishCartDeleted(context.Background(), "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish cartql.cart.deleted event")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.PublishCartUpdated(context.Background(), sampleCart()))
	assert.NoError(t, p.PublishCartDeleted(context.Background(), "c1"))
	assert.NoError(t, p.PublishOrderCreated(context.Background(), &domain.Order{}))
	assert.NoError(t, p.PublishOrderStatusChanged(context.Background(), &domain.Order{}, domain.OrderStatusUnpaid))
}

// ---------------------------------------------------------------------------
// PaymentConsumer
// ---------------------------------------------------------------------------

type mockPayer struct {
	mock.Mock
}

func (m *mockPayer) MarkPaid(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func paymentEvent(t *testing.T, data any) *pkgkafka.Event {
	t.Helper()
	ev, err := pkgkafka.NewEvent(context.Background(), TopicPaymentCompleted, "pay-1", "payment", "payments", data)
	require.NoError(t, err)
	return ev
}

func TestPaymentConsumer_MarksOrderPaid(t *testing.T) {
	payer := &mockPayer{}
	payer.On("MarkPaid", mock.Anything, "o1").Return(&domain.Order{ID: "o1", Status: domain.OrderStatusPaid}, nil)
	c := NewPaymentConsumer(payer, discardLogger())

	err := c.HandlePaymentCompleted(context.Background(), paymentEvent(t, PaymentCompletedData{OrderID: "o1", PaymentID: "p1"}))
	require.NoError(t, err)
	payer.AssertExpectations(t)
}

func TestPaymentConsumer_AlreadyPaidIsAcknowledged(t *testing.T) {
	payer := &mockPayer{}
	payer.On("MarkPaid", mock.Anything, "o1").Return(nil, apperrors.Conflict("order o1 is already PAID"))
	c := NewPaymentConsumer(payer, discardLogger())

	err := c.HandlePaymentCompleted(context.Background(), paymentEvent(t, PaymentCompletedData{OrderID: "o1"}))
	assert.NoError(t, err)
}

func TestPaymentConsumer_UnknownOrderIsPermanent(t *testing.T) {
	payer := &mockPayer{}
	payer.On("MarkPaid", mock.Anything, "missing").Return(nil, apperrors.NotFound("order", "missing"))
	c := NewPaymentConsumer(payer, discardLogger())

	err := c.HandlePaymentCompleted(context.Background(), paymentEvent(t, PaymentCompletedData{OrderID: "missing"}))
	assert.ErrorIs(t, err, pkgkafka.ErrPermanent)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPaymentConsumer_TransientErrorIsRetryable(t *testing.T) {
	payer := &mockPayer{}
	payer.On("MarkPaid", mock.Anything, "o1").Return(nil, errors.New("db timeout"))
	c := NewPaymentConsumer(payer, discardLogger())

	err := c.HandlePaymentCompleted(context.Background(), paymentEvent(t, PaymentCompletedData{OrderID: "o1"}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, pkgkafka.ErrPermanent)
}

func TestPaymentConsumer_MalformedPayload(t *testing.T) {
	c := NewPaymentConsumer(&mockPayer{}, discardLogger())

	err := c.HandlePaymentCompleted(context.Background(), paymentEvent(t, map[string]any{"payment_id": "p1"}))
	assert.ErrorIs(t, err, pkgkafka.ErrPermanent)

	ev := paymentEvent(t, nil)
	ev.Data = []byte(`"not an object"`)
	err = c.HandlePaymentCompleted(context.Background(), ev)
	assert.ErrorIs(t, err, pkgkafka.ErrPermanent)
}

func TestPaymentConsumer_DuplicateDeliveryHandledOnce(t *testing.T) {
	payer := &mockPayer{}
	payer.On("MarkPaid", mock.Anything, "o1").Return(&domain.Order{ID: "o1"}, nil).Once()
	c := NewPaymentConsumer(payer, discardLogger())

	handler := pkgkafka.IdempotentHandler(pkgkafka.NewMemoryIdempotencyStore(time.Hour), c.HandlePaymentCompleted, discardLogger())
	ev := paymentEvent(t, PaymentCompletedData{OrderID: "o1"})

	require.NoError(t, handler(context.Background(), ev))
	require.NoError(t, handler(context.Background(), ev))
	payer.AssertNumberOfCalls(t, "MarkPaid", 1)
}
