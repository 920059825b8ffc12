// Package notification turns order events into customer emails.
package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/veststore/internal/email"
	"github.com/example/veststore/internal/events"
	"github.com/example/veststore/internal/store"
)

// Mailer is the slice of the email service the handler needs.
type Mailer interface {
	SendOrderConfirmation(to, orderID string, totalCents int64, delivery time.Time, items []email.OrderItem) error
	SendOrderShipped(to, orderID string) error
	SendOrderCancelled(to, orderID string) error
}

type Handler struct {
	mailer Mailer
	store  store.Store
}

func NewHandler(mailer Mailer, st store.Store) *Handler {
	return &Handler{mailer: mailer, store: st}
}

// HandleEvent is the Kafka consumer callback. Email failures are logged, not
// returned: a broken mail relay must not wedge the consumer group.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[Notifier] Skipping undecodable message: %v", err)
		return nil
	}

	switch env.EventType {
	case events.EventOrderCreated:
		var e events.OrderCreated
		if err := env.Decode(&e); err != nil {
			return err
		}
		h.orderCreated(ctx, e)
	case events.EventOrderShipped:
		var e events.OrderShipped
		if err := env.Decode(&e); err != nil {
			return err
		}
		h.orderShipped(ctx, e)
	case events.EventOrderCancelled:
		var e events.OrderCancelled
		if err := env.Decode(&e); err != nil {
			return err
		}
		h.orderCancelled(ctx, e)
	}
	return nil
}

func (h *Handler) orderCreated(ctx context.Context, e events.OrderCreated) {
	to, ok := h.recipient(ctx, e.UserID)
	if !ok {
		return
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, line := range e.Items {
		items[i] = email.OrderItem{
			ProductID:  line.ProductID,
			Name:       line.Name,
			Quantity:   line.Quantity,
			PriceCents: line.PriceCents,
		}
	}

	log.Printf("[Notifier] Sending confirmation for order %s to %s", e.OrderID, to)
	if err := h.mailer.SendOrderConfirmation(to, e.OrderID, e.TotalCents, e.EstimatedDelivery, items); err != nil {
		log.Printf("[Notifier] Failed to send confirmation for order %s: %v", e.OrderID, err)
	}
}

func (h *Handler) orderShipped(ctx context.Context, e events.OrderShipped) {
	to, ok := h.recipient(ctx, e.UserID)
	if !ok {
		return
	}
	log.Printf("[Notifier] Sending shipped notice for order %s to %s", e.OrderID, to)
	if err := h.mailer.SendOrderShipped(to, e.OrderID); err != nil {
		log.Printf("[Notifier] Failed to send shipped notice for order %s: %v", e.OrderID, err)
	}
}

func (h *Handler) orderCancelled(ctx context.Context, e events.OrderCancelled) {
	to, ok := h.recipient(ctx, e.UserID)
	if !ok {
		return
	}
	log.Printf("[Notifier] Sending cancellation notice for order %s to %s", e.OrderID, to)
	if err := h.mailer.SendOrderCancelled(to, e.OrderID); err != nil {
		log.Printf("[Notifier] Failed to send cancellation notice for order %s: %v", e.OrderID, err)
	}
}

func (h *Handler) recipient(ctx context.Context, userID string) (string, bool) {
	u, err := h.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("[Notifier] Unknown user %s: %v", userID, err)
		return "", false
	}
	return u.Email, true
}
