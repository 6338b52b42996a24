package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/cartql/pkg/logger"
)

type cartPayload struct {
	CartID     string `json:"cart_id"`
	TotalItems int    `json:"total_items"`
}

func TestNewEvent_Fields(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	event, err := NewEvent(ctx, "cart.updated", "c1", "cart", "cartql", cartPayload{CartID: "c1", TotalItems: 3})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "cart.updated", event.EventType)
	assert.Equal(t, "c1", event.AggregateID)
	assert.Equal(t, "cart", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.False(t, event.Timestamp.IsZero())

	var got cartPayload
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, 3, got.TotalItems)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent(context.Background(), "x", "1", "cart", "cartql", make(chan int))
	assert.Error(t, err)
}

func TestEvent_RoundTrip(t *testing.T) {
	event, err := NewEvent(context.Background(), "order.created", "o1", "order", "cartql", map[string]int{"grand_total": 5000})
	require.NoError(t, err)
	event.WithMetadata("schema", "v1")

	data, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "v1", decoded.Metadata["schema"])
	assert.Empty(t, decoded.CorrelationID)
}

func TestUnmarshalEvent_InvalidJSON(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{nope"))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "cartql.cart.updated", Topic("cart", "updated"))
	assert.Equal(t, "cartql.dlq.cartql.payment.completed", DLQTopic(Topic("payment", "completed")))
}
