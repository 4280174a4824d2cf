package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order code
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload in a version 1 envelope with a fresh event id.
func NewEnvelope(eventType, producer, traceID, orderID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       b,
	}, nil
}

type ItemSummary struct {
	BookID   *int64          `json:"book_id,omitempty"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID       string          `json:"order_id"`
	UserID        *int64          `json:"user_id,omitempty"`
	Items         []ItemSummary   `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Status        Status          `json:"status"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	UserID  *int64 `json:"user_id,omitempty"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

func CreatedPayload(o *Order) OrderCreatedPayload {
	items := make([]ItemSummary, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemSummary{BookID: it.BookID, Title: it.BookTitle, Quantity: it.Quantity, Price: it.Price})
	}
	return OrderCreatedPayload{
		OrderID:       o.OrderID,
		UserID:        o.UserID,
		Items:         items,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
	}
}
