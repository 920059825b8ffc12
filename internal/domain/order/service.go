// Package order implements order creation from carts and the order status
// lifecycle.
package order

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/veststore/internal/domain/inventory"
	"github.com/example/veststore/internal/domain/status"
	"github.com/example/veststore/internal/events"
	"github.com/example/veststore/internal/store"
)

var ErrEmptyCart = errors.New("cannot create order from empty cart")

// EstimatedDeliveryDelay is added to the creation time to produce the
// estimated delivery date.
const EstimatedDeliveryDelay = 5 * 24 * time.Hour

type Service struct {
	store     store.Store
	publisher events.Publisher
	now       func() time.Time
}

func NewService(st store.Store, pub events.Publisher) *Service {
	return &Service{store: st, publisher: pub, now: time.Now}
}

// View is an order with its frozen lines.
type View struct {
	Order *store.Order       `json:"order"`
	Items []*store.OrderItem `json:"items"`
}

// CreateFromCart snapshots the user's cart into a new pending order and
// clears the cart. Each line freezes the product's current price; later
// price changes do not touch existing orders. Stock is checked but not
// decremented here; that happens at validation.
func (s *Service) CreateFromCart(ctx context.Context, userID, shippingAddress string) (*View, error) {
	var (
		o     *store.Order
		lines []*store.OrderItem
		evt   events.OrderCreated
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		c, err := tx.GetCartByUser(ctx, userID)
		if err != nil {
			return err
		}
		items, err := tx.ListCartItems(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		now := s.now()
		o = &store.Order{
			ID:                uuid.New().String(),
			UserID:            userID,
			Status:            status.Pending,
			ShippingAddress:   shippingAddress,
			CreatedAt:         now,
			EstimatedDelivery: now.Add(EstimatedDeliveryDelay),
			UpdatedAt:         now,
		}

		var eventLines []events.OrderLine
		for _, item := range items {
			p, err := tx.GetProduct(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := inventory.Check(p.ID, p.Name, p.Stock, item.Quantity); err != nil {
				return err
			}
			lines = append(lines, &store.OrderItem{
				OrderID:    o.ID,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				PriceCents: p.PriceCents,
				Size:       item.Size,
				Color:      item.Color,
			})
			eventLines = append(eventLines, events.OrderLine{
				ProductID:  item.ProductID,
				Name:       p.Name,
				Quantity:   item.Quantity,
				PriceCents: p.PriceCents,
			})
			o.TotalCents += p.PriceCents * int64(item.Quantity)
		}

		if err := tx.CreateOrder(ctx, o, lines); err != nil {
			return err
		}
		if err := tx.ClearCart(ctx, c.ID); err != nil {
			return err
		}

		evt = events.OrderCreated{
			OrderID:           o.ID,
			UserID:            userID,
			Items:             eventLines,
			TotalCents:        o.TotalCents,
			ShippingAddress:   shippingAddress,
			EstimatedDelivery: o.EstimatedDelivery,
			CreatedAt:         now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[OrderService] Created order %s for user %s, total %d cents", o.ID, userID, o.TotalCents)
	s.publish(ctx, events.EntityOrder, o.ID, events.EventOrderCreated, evt)
	return &View{Order: o, Items: lines}, nil
}

// Validate moves a pending order to validated, decrementing stock for every
// line in one transaction. If any line lacks stock the whole validation rolls
// back and no stock is touched.
func (s *Service) Validate(ctx context.Context, orderID string) (*store.Order, error) {
	var (
		o       *store.Order
		adjusts []events.StockAdjusted
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		o, err = tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := status.Check(o.Status, status.Validated); err != nil {
			return err
		}

		items, err := tx.ListOrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		for _, item := range items {
			evt, err := s.adjust(ctx, tx, item.ProductID, -item.Quantity, inventory.ReasonOrderValidation, orderID)
			if err != nil {
				return err
			}
			adjusts = append(adjusts, *evt)
		}
		o.Status = status.Validated
		return tx.UpdateOrderStatus(ctx, orderID, status.Validated)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[OrderService] Validated order %s (%d lines)", orderID, len(adjusts))
	s.publish(ctx, events.EntityOrder, orderID, events.EventOrderValidated, events.OrderValidated{
		OrderID: orderID,
		UserID:  o.UserID,
	})
	for _, adj := range adjusts {
		s.publish(ctx, events.EntityProduct, adj.ProductID, events.EventStockAdjusted, adj)
	}
	return o, nil
}

// Ship moves a validated order to shipped. No stock change.
func (s *Service) Ship(ctx context.Context, orderID string) (*store.Order, error) {
	o, err := s.updateStatus(ctx, orderID, status.Shipped)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EntityOrder, orderID, events.EventOrderShipped, events.OrderShipped{
		OrderID: orderID,
		UserID:  o.UserID,
	})
	return o, nil
}

// Deliver moves a shipped order to delivered. No stock change.
func (s *Service) Deliver(ctx context.Context, orderID string) (*store.Order, error) {
	o, err := s.updateStatus(ctx, orderID, status.Delivered)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EntityOrder, orderID, events.EventOrderDelivered, events.OrderDelivered{
		OrderID: orderID,
		UserID:  o.UserID,
	})
	return o, nil
}

// Cancel moves a pending or validated order to cancelled. A validated order
// restocks every line; a pending one never touched stock.
func (s *Service) Cancel(ctx context.Context, orderID string) (*store.Order, error) {
	var (
		o       *store.Order
		adjusts []events.StockAdjusted
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		o, err = tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := status.Check(o.Status, status.Cancelled); err != nil {
			return err
		}

		if o.Status == status.Validated {
			items, err := tx.ListOrderItems(ctx, orderID)
			if err != nil {
				return err
			}
			for _, item := range items {
				evt, err := s.adjust(ctx, tx, item.ProductID, item.Quantity, inventory.ReasonCancellation, orderID)
				if err != nil {
					return err
				}
				adjusts = append(adjusts, *evt)
			}
		}
		o.Status = status.Cancelled
		return tx.UpdateOrderStatus(ctx, orderID, status.Cancelled)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[OrderService] Cancelled order %s (restocked %d lines)", orderID, len(adjusts))
	s.publish(ctx, events.EntityOrder, orderID, events.EventOrderCancelled, events.OrderCancelled{
		OrderID:   orderID,
		UserID:    o.UserID,
		Restocked: len(adjusts) > 0,
	})
	for _, adj := range adjusts {
		s.publish(ctx, events.EntityProduct, adj.ProductID, events.EventStockAdjusted, adj)
	}
	return o, nil
}

// Transition dispatches one status change by target.
func (s *Service) Transition(ctx context.Context, orderID string, target status.Status) (*store.Order, error) {
	switch target {
	case status.Validated:
		return s.Validate(ctx, orderID)
	case status.Shipped:
		return s.Ship(ctx, orderID)
	case status.Delivered:
		return s.Deliver(ctx, orderID)
	case status.Cancelled:
		return s.Cancel(ctx, orderID)
	default:
		o, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, &status.TransitionError{From: o.Status, To: target}
	}
}

func (s *Service) Get(ctx context.Context, orderID string) (*View, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &View{Order: o, Items: items}, nil
}

func (s *Service) List(ctx context.Context) ([]*store.Order, error) {
	return s.store.ListOrders(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*store.Order, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListOrdersByUser(ctx, userID)
}

func (s *Service) ListByStatus(ctx context.Context, st status.Status) ([]*store.Order, error) {
	return s.store.ListOrdersByStatus(ctx, st)
}

func (s *Service) ListByUserAndStatus(ctx context.Context, userID string, st status.Status) ([]*store.Order, error) {
	orders, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	filtered := orders[:0]
	for _, o := range orders {
		if o.Status == st {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// updateStatus handles the transitions with no stock side effect.
func (s *Service) updateStatus(ctx context.Context, orderID string, target status.Status) (*store.Order, error) {
	var o *store.Order
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		o, err = tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := status.Check(o.Status, target); err != nil {
			return err
		}
		o.Status = target
		return tx.UpdateOrderStatus(ctx, orderID, target)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[OrderService] Order %s is now %s", orderID, target)
	return o, nil
}

func (s *Service) adjust(ctx context.Context, tx store.Tx, productID string, delta int, reason, refID string) (*events.StockAdjusted, error) {
	p, err := tx.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	after, err := tx.AdjustStock(ctx, productID, delta, reason, refID)
	if err != nil {
		return nil, err
	}
	return &events.StockAdjusted{
		ProductID:  productID,
		Delta:      delta,
		StockAfter: after,
		Threshold:  p.LowStockThreshold,
		Reason:     reason,
		RefID:      refID,
	}, nil
}

func (s *Service) publish(ctx context.Context, entityType, entityID, eventType string, payload any) {
	env, err := events.NewEnvelope(entityType, entityID, eventType, payload)
	if err != nil {
		log.Printf("[OrderService] Failed to build %s event: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish(ctx, entityID, env); err != nil {
		log.Printf("[OrderService] Failed to publish %s event: %v", eventType, err)
	}
}
