// Package product implements catalog management: products, categories and
// manual stock adjustments.
package product

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/veststore/internal/domain/inventory"
	"github.com/example/veststore/internal/events"
	"github.com/example/veststore/internal/store"
)

var (
	ErrInvalidName  = errors.New("product name is required")
	ErrInvalidPrice = errors.New("product price must not be negative")
	ErrInvalidStock = errors.New("product stock must not be negative")
)

// DefaultLowStockThreshold applies when a product is created without one.
const DefaultLowStockThreshold = 5

type Service struct {
	store     store.Store
	publisher events.Publisher
}

func NewService(st store.Store, pub events.Publisher) *Service {
	return &Service{store: st, publisher: pub}
}

type CreateInput struct {
	Name              string
	Description       string
	PriceCents        int64
	Stock             int
	Size              string
	Color             string
	LowStockThreshold int
	CategoryID        string
	ImageURL          string
}

type UpdateInput struct {
	Name              string
	Description       string
	PriceCents        int64
	Size              string
	Color             string
	LowStockThreshold int
	CategoryID        string
	ImageURL          string
}

// Create inserts the product and books its initial stock as a movement, so
// the ledger covers the product from day one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*store.Product, error) {
	if in.Name == "" {
		return nil, ErrInvalidName
	}
	if in.PriceCents < 0 {
		return nil, ErrInvalidPrice
	}
	if in.Stock < 0 {
		return nil, ErrInvalidStock
	}
	threshold := in.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	p := &store.Product{
		Name:              in.Name,
		Description:       in.Description,
		PriceCents:        in.PriceCents,
		Size:              in.Size,
		Color:             in.Color,
		LowStockThreshold: threshold,
		CategoryID:        in.CategoryID,
		ImageURL:          in.ImageURL,
	}

	var evt *events.StockAdjusted
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		if p.CategoryID != "" {
			if _, err := tx.GetCategory(ctx, p.CategoryID); err != nil {
				return fmt.Errorf("category %s: %w", p.CategoryID, err)
			}
		}
		if err := tx.CreateProduct(ctx, p); err != nil {
			return err
		}
		if in.Stock > 0 {
			after, err := tx.AdjustStock(ctx, p.ID, in.Stock, inventory.ReasonManual, p.ID)
			if err != nil {
				return err
			}
			p.Stock = after
			evt = &events.StockAdjusted{
				ProductID:  p.ID,
				Delta:      in.Stock,
				StockAfter: after,
				Threshold:  p.LowStockThreshold,
				Reason:     inventory.ReasonManual,
				RefID:      p.ID,
				AdjustedAt: p.CreatedAt,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ProductService] Created product %s (%s), stock %d", p.ID, p.Name, p.Stock)
	if evt != nil {
		s.publish(ctx, p.ID, events.EventStockAdjusted, *evt)
	}
	return p, nil
}

// Update changes the catalog fields of a product. Stock is untouched; use
// AdjustStock for that.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*store.Product, error) {
	if in.Name == "" {
		return nil, ErrInvalidName
	}
	if in.PriceCents < 0 {
		return nil, ErrInvalidPrice
	}

	var updated *store.Product
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		p.Name = in.Name
		p.Description = in.Description
		p.PriceCents = in.PriceCents
		p.Size = in.Size
		p.Color = in.Color
		if in.LowStockThreshold > 0 {
			p.LowStockThreshold = in.LowStockThreshold
		}
		p.CategoryID = in.CategoryID
		p.ImageURL = in.ImageURL
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	log.Printf("[ProductService] Deleted product %s", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*store.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) List(ctx context.Context, filter store.ProductFilter) ([]*store.Product, error) {
	return s.store.ListProducts(ctx, filter)
}

// ListLowStock reports products at or under their low-stock threshold.
func (s *Service) ListLowStock(ctx context.Context) ([]*store.Product, error) {
	return s.store.ListLowStockProducts(ctx)
}

// AdjustStock applies a manual stock correction. Negative deltas fail with
// *inventory.InsufficientStockError when they would take stock below zero.
func (s *Service) AdjustStock(ctx context.Context, productID string, delta int) (*store.Product, error) {
	var (
		p     *store.Product
		after int
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		p, err = tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		after, err = tx.AdjustStock(ctx, productID, delta, inventory.ReasonManual, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.Stock = after

	log.Printf("[ProductService] Adjusted stock for product %s by %+d, now %d", productID, delta, after)
	s.publish(ctx, productID, events.EventStockAdjusted, events.StockAdjusted{
		ProductID:  productID,
		Delta:      delta,
		StockAfter: after,
		Threshold:  p.LowStockThreshold,
		Reason:     inventory.ReasonManual,
		RefID:      productID,
		AdjustedAt: p.UpdatedAt,
	})
	return p, nil
}

// ListMovements returns the stock movement history of a product.
func (s *Service) ListMovements(ctx context.Context, productID string) ([]*store.StockMovement, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.ListStockMovements(ctx, productID)
}

func (s *Service) CreateCategory(ctx context.Context, name, description string) (*store.Category, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	c := &store.Category{Name: name, Description: description}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*store.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) publish(ctx context.Context, entityID, eventType string, payload any) {
	env, err := events.NewEnvelope(events.EntityProduct, entityID, eventType, payload)
	if err != nil {
		log.Printf("[ProductService] Failed to build %s event: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish(ctx, entityID, env); err != nil {
		log.Printf("[ProductService] Failed to publish %s event: %v", eventType, err)
	}
}
