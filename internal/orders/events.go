package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCompleted   = "OrderCompleted"
	EventInventoryChanged = "InventoryChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCompletedPayload struct {
	OrderID       string `json:"order_id"`
	UserID        string `json:"user_id"`
	Total         string `json:"total"`
	PaymentMethod string `json:"payment_method"`
	Day           string `json:"day"` // YYYY-MM-DD, for sales-view invalidation
}

type InventoryChangedPayload struct {
	OrderID string `json:"order_id"`
}
