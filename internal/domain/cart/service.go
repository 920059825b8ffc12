// Package cart implements the shopping cart and the per-line-item status
// lifecycle, including bulk checkout.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/veststore/internal/domain/inventory"
	"github.com/example/veststore/internal/domain/status"
	"github.com/example/veststore/internal/events"
	"github.com/example/veststore/internal/store"
)

var (
	// ErrForbidden means the item does not belong to the requesting user's cart.
	ErrForbidden = errors.New("cart item belongs to another user")
	// ErrInvalidTarget means a user asked for a status only admins may set.
	ErrInvalidTarget = errors.New("users may only request validated or cancelled")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

type Service struct {
	store     store.Store
	publisher events.Publisher
}

func NewService(st store.Store, pub events.Publisher) *Service {
	return &Service{store: st, publisher: pub}
}

// View is a cart with its items.
type View struct {
	Cart  *store.Cart       `json:"cart"`
	Items []*store.CartItem `json:"items"`
}

// Get returns the user's cart and items. The cart is created lazily on the
// first add, so a user who never added anything gets ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	c, err := s.store.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListCartItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &View{Cart: c, Items: items}, nil
}

// AddItem puts quantity units of a product variant into the user's cart,
// creating the cart on first use. Adding an already-present variant merges
// into the existing line instead of creating a second one. The merged
// quantity must not exceed available stock.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int, size, color string) (*View, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("product %s: %w", productID, err)
		}

		c, err := tx.GetCartByUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			c = &store.Cart{UserID: userID}
			if err := tx.CreateCart(ctx, c); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		item, err := tx.FindCartItemVariant(ctx, c.ID, productID, size, color)
		switch {
		case errors.Is(err, store.ErrNotFound):
			item = &store.CartItem{
				CartID:    c.ID,
				ProductID: productID,
				Quantity:  quantity,
				Size:      size,
				Color:     color,
				Status:    status.Pending,
			}
		case err != nil:
			return err
		default:
			item.Quantity += quantity
		}

		// Stock is not reserved yet, so the whole line must fit.
		if err := inventory.Check(p.ID, p.Name, p.Stock, item.Quantity); err != nil {
			return err
		}
		return tx.SaveCartItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// UpdateItemQuantity sets the quantity of a cart line. Zero removes the line.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*View, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		item, err := s.ownedItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		if quantity == 0 {
			return tx.DeleteCartItem(ctx, item.ID)
		}
		if quantity > item.Quantity {
			p, err := tx.GetProduct(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := inventory.Check(p.ID, p.Name, p.Stock, quantity); err != nil {
				return err
			}
		}
		item.Quantity = quantity
		return tx.SaveCartItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	return s.store.WithinTx(ctx, func(tx store.Tx) error {
		item, err := s.ownedItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		return tx.DeleteCartItem(ctx, item.ID)
	})
}

// Clear removes every item from the user's cart. The cart itself stays.
func (s *Service) Clear(ctx context.Context, userID string) error {
	c, err := s.store.GetCartByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.store.ClearCart(ctx, c.ID)
}

// PlaceOrder promotes every pending item in the user's cart to validated as
// one unit, decrementing stock per line. If any line lacks stock the whole
// transaction rolls back: no status flips, no stock changes.
func (s *Service) PlaceOrder(ctx context.Context, userID string) (*View, error) {
	var (
		cartID  string
		itemIDs []string
		adjusts []events.StockAdjusted
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		c, err := tx.GetCartByUser(ctx, userID)
		if err != nil {
			return err
		}
		cartID = c.ID

		items, err := tx.ListCartItemsByStatus(ctx, c.ID, status.Pending)
		if err != nil {
			return err
		}
		for _, item := range items {
			evt, err := s.validateItem(ctx, tx, item)
			if err != nil {
				return err
			}
			itemIDs = append(itemIDs, item.ID)
			adjusts = append(adjusts, *evt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[CartService] Checked out cart %s for user %s (%d items)", cartID, userID, len(itemIDs))
	s.publish(ctx, events.EntityCart, cartID, events.EventCartCheckedOut, events.CartCheckedOut{
		CartID:  cartID,
		UserID:  userID,
		ItemIDs: itemIDs,
	})
	for _, adj := range adjusts {
		s.publish(ctx, events.EntityProduct, adj.ProductID, events.EventStockAdjusted, adj)
	}
	return s.Get(ctx, userID)
}

// TransitionItemAsUser lets the owning user validate or cancel their own cart
// line. Any other target is rejected before the transition table is consulted.
func (s *Service) TransitionItemAsUser(ctx context.Context, userID, itemID string, target status.Status) error {
	if target != status.Validated && target != status.Cancelled {
		return ErrInvalidTarget
	}

	var pending []pendingEvent
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		item, err := tx.GetCartItem(ctx, itemID)
		if err != nil {
			return err
		}
		c, err := tx.GetCartByUser(ctx, userID)
		if err != nil || c.ID != item.CartID {
			return ErrForbidden
		}
		pending, err = s.transitionItem(ctx, tx, item, target)
		return err
	})
	if err != nil {
		return err
	}
	s.publishAll(ctx, pending)
	return nil
}

// TransitionItemAsAdmin applies any valid transition to a cart line.
func (s *Service) TransitionItemAsAdmin(ctx context.Context, itemID string, target status.Status) error {
	var pending []pendingEvent
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		item, err := tx.GetCartItem(ctx, itemID)
		if err != nil {
			return err
		}
		pending, err = s.transitionItem(ctx, tx, item, target)
		return err
	})
	if err != nil {
		return err
	}
	s.publishAll(ctx, pending)
	return nil
}

// ListItemsByStatus returns the user's cart items in a given status. An empty
// userID means all carts (admin view).
func (s *Service) ListItemsByStatus(ctx context.Context, userID string, st status.Status) ([]*store.CartItem, error) {
	cartID := ""
	if userID != "" {
		c, err := s.store.GetCartByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		cartID = c.ID
	}
	return s.store.ListCartItemsByStatus(ctx, cartID, st)
}

// transitionItem applies one transition with its stock side effect. Stock
// moves only on pending→validated (decrement) and validated→cancelled
// (restock); every other legal transition leaves stock alone.
func (s *Service) transitionItem(ctx context.Context, tx store.Tx, item *store.CartItem, target status.Status) ([]pendingEvent, error) {
	if err := status.Check(item.Status, target); err != nil {
		return nil, err
	}

	var pending []pendingEvent
	switch {
	case item.Status == status.Pending && target == status.Validated:
		evt, err := s.validateItem(ctx, tx, item)
		if err != nil {
			return nil, err
		}
		pending = append(pending,
			pendingEvent{events.EntityCart, item.CartID, events.EventCartItemValidated, events.CartItemValidated{
				ItemID:    item.ID,
				CartID:    item.CartID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			}},
			pendingEvent{events.EntityProduct, evt.ProductID, events.EventStockAdjusted, *evt},
		)

	case target == status.Cancelled:
		restocked := item.Status == status.Validated
		if restocked {
			evt, err := s.adjust(ctx, tx, item.ProductID, item.Quantity, inventory.ReasonCancellation, item.ID)
			if err != nil {
				return nil, err
			}
			pending = append(pending, pendingEvent{events.EntityProduct, evt.ProductID, events.EventStockAdjusted, *evt})
		}
		item.Status = status.Cancelled
		if err := tx.SaveCartItem(ctx, item); err != nil {
			return nil, err
		}
		pending = append(pending, pendingEvent{events.EntityCart, item.CartID, events.EventCartItemCancelled, events.CartItemCancelled{
			ItemID:    item.ID,
			CartID:    item.CartID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Restocked: restocked,
		}})

	default:
		item.Status = target
		if err := tx.SaveCartItem(ctx, item); err != nil {
			return nil, err
		}
	}
	return pending, nil
}

// validateItem decrements stock for the line and flips it to validated.
func (s *Service) validateItem(ctx context.Context, tx store.Tx, item *store.CartItem) (*events.StockAdjusted, error) {
	evt, err := s.adjust(ctx, tx, item.ProductID, -item.Quantity, inventory.ReasonCheckout, item.ID)
	if err != nil {
		return nil, err
	}
	item.Status = status.Validated
	if err := tx.SaveCartItem(ctx, item); err != nil {
		return nil, err
	}
	return evt, nil
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

// ownedItem loads a cart item scoped to the user's cart. An item in another
// user's cart reads as not found, so item IDs cannot be probed across users.
func (s *Service) ownedItem(ctx context.Context, tx store.Tx, userID, itemID string) (*store.CartItem, error) {
	c, err := tx.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := tx.GetCartItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CartID != c.ID {
		return nil, store.ErrNotFound
	}
	return item, nil
}

type pendingEvent struct {
	entityType string
	entityID   string
	eventType  string
	payload    any
}

func (s *Service) publishAll(ctx context.Context, pending []pendingEvent) {
	for _, p := range pending {
		s.publish(ctx, p.entityType, p.entityID, p.eventType, p.payload)
	}
}

func (s *Service) publish(ctx context.Context, entityType, entityID, eventType string, payload any) {
	env, err := events.NewEnvelope(entityType, entityID, eventType, payload)
	if err != nil {
		log.Printf("[CartService] Failed to build %s event: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish(ctx, entityID, env); err != nil {
		log.Printf("[CartService] Failed to publish %s event: %v", eventType, err)
	}
}
