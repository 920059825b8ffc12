package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/veststore/internal/api/middleware"
	"github.com/example/veststore/internal/domain/cart"
	"github.com/example/veststore/internal/domain/order"
	"github.com/example/veststore/internal/domain/product"
	"github.com/example/veststore/internal/domain/status"
	"github.com/example/veststore/internal/store"
)

// ProductReader serves catalog reads; either the product service directly or
// the Redis cache wrapped around it.
type ProductReader interface {
	Get(ctx context.Context, id string) (*store.Product, error)
	List(ctx context.Context, filter store.ProductFilter) ([]*store.Product, error)
}

// Invalidator drops cache entries after catalog mutations.
type Invalidator interface {
	Invalidate(ctx context.Context, productID string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(ctx context.Context, productID string) {}

type Handlers struct {
	products    *product.Service
	carts       *cart.Service
	orders      *order.Service
	reader      ProductReader
	invalidator Invalidator
	store       store.Store
	validate    *validator.Validate
}

func NewHandlers(products *product.Service, carts *cart.Service, orders *order.Service, st store.Store) *Handlers {
	return &Handlers{
		products:    products,
		carts:       carts,
		orders:      orders,
		reader:      products,
		invalidator: noopInvalidator{},
		store:       st,
		validate:    validator.New(),
	}
}

// WithProductCache routes catalog reads through the cache and invalidates it
// on writes.
func (h *Handlers) WithProductCache(reader ProductReader, inv Invalidator) *Handlers {
	h.reader = reader
	h.invalidator = inv
	return h
}

// Request DTOs

type createProductRequest struct {
	Name              string `json:"name" validate:"required"`
	Description       string `json:"description"`
	PriceCents        int64  `json:"price_cents" validate:"gte=0"`
	Stock             int    `json:"stock" validate:"gte=0"`
	Size              string `json:"size"`
	Color             string `json:"color"`
	LowStockThreshold int    `json:"low_stock_threshold" validate:"gte=0"`
	CategoryID        string `json:"category_id"`
	ImageURL          string `json:"image_url" validate:"omitempty,url"`
}

type updateProductRequest struct {
	Name              string `json:"name" validate:"required"`
	Description       string `json:"description"`
	PriceCents        int64  `json:"price_cents" validate:"gte=0"`
	Size              string `json:"size"`
	Color             string `json:"color"`
	LowStockThreshold int    `json:"low_stock_threshold" validate:"gte=0"`
	CategoryID        string `json:"category_id"`
	ImageURL          string `json:"image_url" validate:"omitempty,url"`
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type createOrderRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// Product Handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.products.Create(r.Context(), product.CreateInput{
		Name:              req.Name,
		Description:       req.Description,
		PriceCents:        req.PriceCents,
		Stock:             req.Stock,
		Size:              req.Size,
		Color:             req.Color,
		LowStockThreshold: req.LowStockThreshold,
		CategoryID:        req.CategoryID,
		ImageURL:          req.ImageURL,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.invalidator.Invalidate(r.Context(), p.ID)
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ProductFilter{
		CategoryID: q.Get("category_id"),
		Size:       q.Get("size"),
		Color:      q.Get("color"),
	}
	if v := q.Get("min_price_cents"); v != "" {
		if cents, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinPriceCents = cents
		}
	}
	if v := q.Get("max_price_cents"); v != "" {
		if cents, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxPriceCents = cents
		}
	}

	products, err := h.reader.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if products == nil {
		products = []*store.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	p, err := h.reader.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	var req updateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.products.Update(r.Context(), id, product.UpdateInput{
		Name:              req.Name,
		Description:       req.Description,
		PriceCents:        req.PriceCents,
		Size:              req.Size,
		Color:             req.Color,
		LowStockThreshold: req.LowStockThreshold,
		CategoryID:        req.CategoryID,
		ImageURL:          req.ImageURL,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.invalidator.Invalidate(r.Context(), id)
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	if err := h.products.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	h.invalidator.Invalidate(r.Context(), id)
	respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *Handlers) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/products/"), "/stock")

	var req adjustStockRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.products.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.invalidator.Invalidate(r.Context(), id)
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) ListStockMovements(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/products/"), "/movements")
	movements, err := h.products.ListMovements(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if movements == nil {
		movements = []*store.StockMovement{}
	}
	respondJSON(w, http.StatusOK, movements)
}

func (h *Handlers) ListLowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListLowStock(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if products == nil {
		products = []*store.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) ListStockAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.store.ListStockAlerts(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if alerts == nil {
		alerts = []*store.StockAlert{}
	}
	respondJSON(w, http.StatusOK, alerts)
}

// Category Handlers

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.products.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.ListCategories(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []*store.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.carts.AddItem(r.Context(), middleware.GetUserID(r.Context()), req.ProductID, req.Quantity, req.Size, req.Color)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) UpdateCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/cart/items/")

	var req updateQuantityRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.carts.UpdateItemQuantity(r.Context(), middleware.GetUserID(r.Context()), itemID, req.Quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/cart/items/")
	if err := h.carts.RemoveItem(r.Context(), middleware.GetUserID(r.Context()), itemID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "item removed"})
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.PlaceOrder(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) TransitionCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/cart/items/"), "/status")

	var req transitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, err := status.Parse(req.Status)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if middleware.IsAdmin(ctx) {
		err = h.carts.TransitionItemAsAdmin(ctx, itemID, target)
	} else {
		err = h.carts.TransitionItemAsUser(ctx, middleware.GetUserID(ctx), itemID, target)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "item updated", "status": string(target)})
}

func (h *Handlers) ListCartItemsByStatus(w http.ResponseWriter, r *http.Request) {
	st, err := status.Parse(r.URL.Query().Get("status"))
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if middleware.IsAdmin(ctx) && r.URL.Query().Get("all") == "true" {
		userID = ""
	}

	items, err := h.carts.ListItemsByStatus(ctx, userID, st)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if items == nil {
		items = []*store.CartItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

// Order Handlers

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.orders.CreateFromCart(r.Context(), middleware.GetUserID(r.Context()), req.ShippingAddress)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*store.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*store.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) ListOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	st, err := status.Parse(extractPathParam(r.URL.Path, "/orders/status/"))
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	orders, err := h.orders.ListByStatus(r.Context(), st)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*store.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) ListUserOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	st, err := status.Parse(extractPathParam(r.URL.Path, "/orders/user/status/"))
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	orders, err := h.orders.ListByUserAndStatus(r.Context(), middleware.GetUserID(r.Context()), st)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*store.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")
	view, err := h.orders.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !h.canAccessOrder(r, view.Order) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) ValidateOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, "/validate", h.orders.Validate)
}

func (h *Handlers) ShipOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, "/ship", h.orders.Ship)
}

func (h *Handlers) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, "/deliver", h.orders.Deliver)
}

// CancelOrder is open to the owning user as well as admins.
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/cancel")

	view, err := h.orders.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !h.canAccessOrder(r, view.Order) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	o, err := h.orders.Cancel(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// TransitionOrder applies an arbitrary target status; admin only.
func (h *Handlers) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/status")

	var req transitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	target, err := status.Parse(req.Status)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, err := h.orders.Transition(r.Context(), id, target)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) orderAction(w http.ResponseWriter, r *http.Request, suffix string, action func(context.Context, string) (*store.Order, error)) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), suffix)
	o, err := action(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) canAccessOrder(r *http.Request, o *store.Order) bool {
	if middleware.IsAdmin(r.Context()) {
		return true
	}
	return o.UserID == middleware.GetUserID(r.Context())
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
