package orders

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order number
	Payload       json.RawMessage `json:"payload"`
}

type ItemLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPlacedPayload struct {
	OrderNumber    string          `json:"order_number"`
	Owner          int64           `json:"owner"`
	Email          string          `json:"email"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountCode   string          `json:"discount_code,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Items          []ItemLine      `json:"items"`
}

type OrderCancelledPayload struct {
	OrderNumber    string `json:"order_number"`
	Owner          int64  `json:"owner"`
	Email          string `json:"email"`
	PreviousStatus Status `json:"previous_status"`
}

// Topic maps an event type to the topic it is published on.
func Topic(eventType string) string {
	if eventType == EventOrderCancelled {
		return TopicOrderCancelled
	}
	return TopicOrderPlaced
}

// NewEnvelope wraps payload in a version 1 envelope correlated by order number.
func NewEnvelope(eventType, producer, orderNumber, traceID string, payload any, at time.Time) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    at.UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: orderNumber,
		Payload:       b,
	}, nil
}

func PlacedPayload(o *Order) OrderPlacedPayload {
	items := make([]ItemLine, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return OrderPlacedPayload{
		OrderNumber:    o.Number,
		Owner:          o.Owner,
		Email:          o.Shipping.Email,
		Subtotal:       o.Subtotal,
		ShippingCost:   o.ShippingCost,
		DiscountAmount: o.DiscountAmount,
		DiscountCode:   o.DiscountCode,
		Total:          o.Total,
		Items:          items,
	}
}
