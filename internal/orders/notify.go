package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "resto-pos/internal/kafka"
)

// EventNotifier publishes the two post-commit invalidation signals:
// "orders changed" and "inventory changed". Consumers (cmd/invalidator)
// react by dropping cached views.
type EventNotifier struct {
	Orders    *kafkax.Producer // pos.orders.changed
	Inventory *kafkax.Producer // pos.inventory.changed
	Service   string
}

func (n *EventNotifier) OrderCompleted(ctx context.Context, o *Order) {
	n.publish(n.Orders, EventOrderCompleted, o.ID, kafkax.MustMarshal(OrderCompletedPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Total:         o.Total.String(),
		PaymentMethod: string(o.PaymentMethod),
		Day:           o.CreatedAt.Format("2006-01-02"),
	}))
}

func (n *EventNotifier) InventoryChanged(ctx context.Context, orderID string) {
	n.publish(n.Inventory, EventInventoryChanged, orderID, kafkax.MustMarshal(InventoryChangedPayload{
		OrderID: orderID,
	}))
}

func (n *EventNotifier) publish(p *kafkax.Producer, eventType, orderID string, payload []byte) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      n.Service,
		CorrelationID: orderID,
		Payload:       payload,
	}
	p.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
