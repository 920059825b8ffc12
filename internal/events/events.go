// Package events defines the domain events published to Kafka after a
// transaction commits, and the envelope they travel in.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Entity types carried in the envelope.
const (
	EntityOrder   = "order"
	EntityCart    = "cart"
	EntityProduct = "product"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderValidated = "OrderValidated"
	EventOrderShipped   = "OrderShipped"
	EventOrderDelivered = "OrderDelivered"
	EventOrderCancelled = "OrderCancelled"

	EventCartCheckedOut    = "CartCheckedOut"
	EventCartItemValidated = "CartItemValidated"
	EventCartItemCancelled = "CartItemCancelled"

	EventStockAdjusted = "StockAdjusted"
)

// Envelope wraps an event payload with its routing metadata.
type Envelope struct {
	ID         string          `json:"id"`
	EntityID   string          `json:"entity_id"`
	EntityType string          `json:"entity_type"`
	EventType  string          `json:"event_type"`
	Data       json.RawMessage `json:"data"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewEnvelope marshals payload into a fresh envelope.
func NewEnvelope(entityType, entityID, eventType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:         uuid.New().String(),
		EntityID:   entityID,
		EntityType: entityType,
		EventType:  eventType,
		Data:       data,
		Timestamp:  time.Now(),
	}, nil
}

// Publisher sends an event keyed for partitioning. The Kafka producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Nop discards events; used where no broker is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, key string, event any) error { return nil }

// Recorder collects published envelopes; test helper.
type Recorder struct {
	Published []Envelope
}

func (r *Recorder) Publish(ctx context.Context, key string, event any) error {
	env, ok := event.(Envelope)
	if !ok {
		return errors.New("expected events.Envelope")
	}
	r.Published = append(r.Published, env)
	return nil
}

// Decode unmarshals the envelope payload into out.
func (e Envelope) Decode(out any) error {
	return json.Unmarshal(e.Data, out)
}

type OrderLine struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type OrderCreated struct {
	OrderID           string      `json:"order_id"`
	UserID            string      `json:"user_id"`
	Items             []OrderLine `json:"items"`
	TotalCents        int64       `json:"total_cents"`
	ShippingAddress   string      `json:"shipping_address"`
	EstimatedDelivery time.Time   `json:"estimated_delivery"`
	CreatedAt         time.Time   `json:"created_at"`
}

type OrderValidated struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	ValidatedAt time.Time `json:"validated_at"`
}

type OrderShipped struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	ShippedAt time.Time `json:"shipped_at"`
}

type OrderDelivered struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

type OrderCancelled struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	Restocked   bool      `json:"restocked"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type CartCheckedOut struct {
	CartID       string    `json:"cart_id"`
	UserID       string    `json:"user_id"`
	ItemIDs      []string  `json:"item_ids"`
	CheckedOutAt time.Time `json:"checked_out_at"`
}

type CartItemValidated struct {
	ItemID      string    `json:"item_id"`
	CartID      string    `json:"cart_id"`
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	ValidatedAt time.Time `json:"validated_at"`
}

type CartItemCancelled struct {
	ItemID      string    `json:"item_id"`
	CartID      string    `json:"cart_id"`
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	Restocked   bool      `json:"restocked"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type StockAdjusted struct {
	ProductID  string    `json:"product_id"`
	Delta      int       `json:"delta"`
	StockAfter int       `json:"stock_after"`
	Threshold  int       `json:"threshold"`
	Reason     string    `json:"reason"`
	RefID      string    `json:"ref_id"`
	AdjustedAt time.Time `json:"adjusted_at"`
}
