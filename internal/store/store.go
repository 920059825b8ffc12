// Package store is the relational persistence layer. All state transitions
// run through WithinTx so a failing step rolls back every mutation made in
// the same call.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/example/veststore/internal/domain/status"
)

var (
	ErrNotFound  = errors.New("resource not found")
	ErrDuplicate = errors.New("duplicate resource")
)

// Product is a catalog entry. Stock is the shared mutable counter; it is
// only ever changed through Tx.AdjustStock.
type Product struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	PriceCents        int64         `json:"price_cents"`
	Size              string        `json:"size"`
	Color             string        `json:"color"`
	Stock             int           `json:"stock"`
	LowStockThreshold int           `json:"low_stock_threshold"`
	CategoryID        string        `json:"category_id,omitempty"`
	ImageURL          string        `json:"image_url,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// LowStock reports whether the product is at or below its threshold.
func (p *Product) LowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// HasEnoughStock reports whether quantity can be taken from stock.
func (p *Product) HasEnoughStock(quantity int) bool {
	return p.Stock >= quantity
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Cart is created lazily on first add-to-cart and never deleted, only
// cleared.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem is one line of a cart. At most one item exists per
// (cart, product, size, color).
type CartItem struct {
	ID        string        `json:"id"`
	CartID    string        `json:"cart_id"`
	ProductID string        `json:"product_id"`
	Quantity  int           `json:"quantity"`
	Size      string        `json:"size"`
	Color     string        `json:"color"`
	Status    status.Status `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Order is an immutable snapshot of cart contents.
type Order struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	Status            status.Status `json:"status"`
	TotalCents        int64         `json:"total_cents"`
	ShippingAddress   string        `json:"shipping_address"`
	CreatedAt         time.Time     `json:"created_at"`
	EstimatedDelivery time.Time     `json:"estimated_delivery"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// OrderItem freezes quantity, variant and price at order time.
type OrderItem struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
	Size       string `json:"size"`
	Color      string `json:"color"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StockMovement is the in-store ledger row written by every AdjustStock call,
// in the same transaction as the stock change itself.
type StockMovement struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Delta      int       `json:"delta"`
	StockAfter int       `json:"stock_after"`
	Reason     string    `json:"reason"`
	RefID      string    `json:"ref_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// StockAlert is the projector-maintained low-stock view.
type StockAlert struct {
	ProductID string    `json:"product_id"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductFilter narrows ListProducts results. Zero values mean "any".
type ProductFilter struct {
	CategoryID    string
	Size          string
	Color         string
	MinPriceCents int64
	MaxPriceCents int64
}

// Tx is the operation set available inside a transaction. The same set is
// available on Store for single-statement use.
type Tx interface {
	// Products and categories.
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]*Product, error)
	ListLowStockProducts(ctx context.Context) ([]*Product, error)
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)

	// AdjustStock applies stock += delta as one atomic conditional update
	// and records a stock movement. It returns the resulting stock level.
	// A delta that would take stock negative fails with
	// *inventory.InsufficientStockError and changes nothing.
	AdjustStock(ctx context.Context, productID string, delta int, reason, refID string) (int, error)

	// Carts.
	CreateCart(ctx context.Context, c *Cart) error
	GetCartByUser(ctx context.Context, userID string) (*Cart, error)
	GetCartItem(ctx context.Context, itemID string) (*CartItem, error)
	FindCartItemVariant(ctx context.Context, cartID, productID, size, color string) (*CartItem, error)
	ListCartItems(ctx context.Context, cartID string) ([]*CartItem, error)
	ListCartItemsByStatus(ctx context.Context, cartID string, st status.Status) ([]*CartItem, error)
	SaveCartItem(ctx context.Context, item *CartItem) error
	DeleteCartItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context, cartID string) error

	// Orders.
	CreateOrder(ctx context.Context, o *Order, items []*OrderItem) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrderItems(ctx context.Context, orderID string) ([]*OrderItem, error)
	ListOrders(ctx context.Context) ([]*Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error)
	ListOrdersByStatus(ctx context.Context, st status.Status) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, st status.Status) error

	// Users.
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Stock alerts (maintained by the projector).
	UpsertStockAlert(ctx context.Context, a *StockAlert) error
	DeleteStockAlert(ctx context.Context, productID string) error
	ListStockAlerts(ctx context.Context) ([]*StockAlert, error)
	ListStockMovements(ctx context.Context, productID string) ([]*StockMovement, error)
}

// Store is a Tx plus a transaction boundary.
type Store interface {
	Tx

	// WithinTx runs fn inside one transaction. Any error from fn rolls back
	// every change fn made; a nil return commits them.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
