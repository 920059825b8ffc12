// Package mocks provides an in-memory Store for tests. WithinTx works on a
// copy of the state and swaps it in only on success, mirroring the rollback
// behavior of the Postgres store.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/veststore/internal/domain/inventory"
	"github.com/example/veststore/internal/domain/status"
	"github.com/example/veststore/internal/store"
)

type state struct {
	products   map[string]*store.Product
	categories map[string]*store.Category
	carts      map[string]*store.Cart
	cartItems  map[string]*store.CartItem
	orders     map[string]*store.Order
	orderItems map[string]*store.OrderItem
	users      map[string]*store.User
	movements  []*store.StockMovement
	alerts     map[string]*store.StockAlert
	seq        int
}

func newState() *state {
	return &state{
		products:   make(map[string]*store.Product),
		categories: make(map[string]*store.Category),
		carts:      make(map[string]*store.Cart),
		cartItems:  make(map[string]*store.CartItem),
		orders:     make(map[string]*store.Order),
		orderItems: make(map[string]*store.OrderItem),
		users:      make(map[string]*store.User),
		alerts:     make(map[string]*store.StockAlert),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range s.categories {
		cp := *v
		c.categories[k] = &cp
	}
	for k, v := range s.carts {
		cp := *v
		c.carts[k] = &cp
	}
	for k, v := range s.cartItems {
		cp := *v
		c.cartItems[k] = &cp
	}
	for k, v := range s.orders {
		cp := *v
		c.orders[k] = &cp
	}
	for k, v := range s.orderItems {
		cp := *v
		c.orderItems[k] = &cp
	}
	for k, v := range s.users {
		cp := *v
		c.users[k] = &cp
	}
	for _, m := range s.movements {
		cp := *m
		c.movements = append(c.movements, &cp)
	}
	for k, v := range s.alerts {
		cp := *v
		c.alerts[k] = &cp
	}
	c.seq = s.seq
	return c
}

// MemoryStore is an in-memory store.Store implementation.
type MemoryStore struct {
	mu sync.Mutex
	st *state
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{st: newState()}
}

// WithinTx runs fn against a copy of the state; the copy replaces the live
// state only when fn succeeds.
func (m *MemoryStore) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.st.clone()
	if err := fn(&memTx{st: next}); err != nil {
		return err
	}
	m.st = next
	return nil
}

// memTx applies operations to one state instance.
type memTx struct {
	st *state
}

func (m *MemoryStore) tx() *memTx { return &memTx{st: m.st} }

// Direct (non-transactional) Store methods delegate to a single-use tx.

func (m *MemoryStore) CreateProduct(ctx context.Context, p *store.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateProduct(ctx, p)
}

func (m *MemoryStore) UpdateProduct(ctx context.Context, p *store.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().UpdateProduct(ctx, p)
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().DeleteProduct(ctx, id)
}

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*store.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetProduct(ctx, id)
}

func (m *MemoryStore) ListProducts(ctx context.Context, f store.ProductFilter) ([]*store.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListProducts(ctx, f)
}

func (m *MemoryStore) ListLowStockProducts(ctx context.Context) ([]*store.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListLowStockProducts(ctx)
}

func (m *MemoryStore) CreateCategory(ctx context.Context, c *store.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateCategory(ctx, c)
}

func (m *MemoryStore) GetCategory(ctx context.Context, id string) (*store.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetCategory(ctx, id)
}

func (m *MemoryStore) ListCategories(ctx context.Context) ([]*store.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListCategories(ctx)
}

func (m *MemoryStore) AdjustStock(ctx context.Context, productID string, delta int, reason, refID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().AdjustStock(ctx, productID, delta, reason, refID)
}

func (m *MemoryStore) CreateCart(ctx context.Context, c *store.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateCart(ctx, c)
}

func (m *MemoryStore) GetCartByUser(ctx context.Context, userID string) (*store.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetCartByUser(ctx, userID)
}

func (m *MemoryStore) GetCartItem(ctx context.Context, itemID string) (*store.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetCartItem(ctx, itemID)
}

func (m *MemoryStore) FindCartItemVariant(ctx context.Context, cartID, productID, size, color string) (*store.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().FindCartItemVariant(ctx, cartID, productID, size, color)
}

func (m *MemoryStore) ListCartItems(ctx context.Context, cartID string) ([]*store.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListCartItems(ctx, cartID)
}

func (m *MemoryStore) ListCartItemsByStatus(ctx context.Context, cartID string, st status.Status) ([]*store.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListCartItemsByStatus(ctx, cartID, st)
}

func (m *MemoryStore) SaveCartItem(ctx context.Context, item *store.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SaveCartItem(ctx, item)
}

func (m *MemoryStore) DeleteCartItem(ctx context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().DeleteCartItem(ctx, itemID)
}

func (m *MemoryStore) ClearCart(ctx context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ClearCart(ctx, cartID)
}

func (m *MemoryStore) CreateOrder(ctx context.Context, o *store.Order, items []*store.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateOrder(ctx, o, items)
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*store.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetOrder(ctx, id)
}

func (m *MemoryStore) ListOrderItems(ctx context.Context, orderID string) ([]*store.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListOrderItems(ctx, orderID)
}

func (m *MemoryStore) ListOrders(ctx context.Context) ([]*store.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListOrders(ctx)
}

func (m *MemoryStore) ListOrdersByUser(ctx context.Context, userID string) ([]*store.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListOrdersByUser(ctx, userID)
}

func (m *MemoryStore) ListOrdersByStatus(ctx context.Context, st status.Status) ([]*store.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListOrdersByStatus(ctx, st)
}

func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, orderID string, st status.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().UpdateOrderStatus(ctx, orderID, st)
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *store.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().CreateUser(ctx, u)
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetUser(ctx, id)
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetUserByEmail(ctx, email)
}

func (m *MemoryStore) UpsertStockAlert(ctx context.Context, a *store.StockAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().UpsertStockAlert(ctx, a)
}

func (m *MemoryStore) DeleteStockAlert(ctx context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().DeleteStockAlert(ctx, productID)
}

func (m *MemoryStore) ListStockAlerts(ctx context.Context) ([]*store.StockAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListStockAlerts(ctx)
}

func (m *MemoryStore) ListStockMovements(ctx context.Context, productID string) ([]*store.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListStockMovements(ctx, productID)
}

// Tx implementation

func (t *memTx) CreateProduct(ctx context.Context, p *store.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.LowStockThreshold == 0 {
		p.LowStockThreshold = 5
	}
	cp := *p
	t.st.products[p.ID] = &cp
	return nil
}

func (t *memTx) UpdateProduct(ctx context.Context, p *store.Product) error {
	existing, ok := t.st.products[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	p.Stock = existing.Stock // stock changes only through AdjustStock
	p.UpdatedAt = time.Now()
	cp := *p
	t.st.products[p.ID] = &cp
	return nil
}

func (t *memTx) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := t.st.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.products, id)
	return nil
}

func (t *memTx) GetProduct(ctx context.Context, id string) (*store.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) ListProducts(ctx context.Context, f store.ProductFilter) ([]*store.Product, error) {
	var out []*store.Product
	for _, p := range t.st.products {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.Size != "" && p.Size != f.Size {
			continue
		}
		if f.Color != "" && p.Color != f.Color {
			continue
		}
		if f.MinPriceCents > 0 && p.PriceCents < f.MinPriceCents {
			continue
		}
		if f.MaxPriceCents > 0 && p.PriceCents > f.MaxPriceCents {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sortByID(out, func(p *store.Product) string { return p.ID })
	return out, nil
}

func (t *memTx) ListLowStockProducts(ctx context.Context) ([]*store.Product, error) {
	var out []*store.Product
	for _, p := range t.st.products {
		if p.LowStock() {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortByID(out, func(p *store.Product) string { return p.ID })
	return out, nil
}

func (t *memTx) CreateCategory(ctx context.Context, c *store.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()
	cp := *c
	t.st.categories[c.ID] = &cp
	return nil
}

func (t *memTx) GetCategory(ctx context.Context, id string) (*store.Category, error) {
	c, ok := t.st.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (t *memTx) ListCategories(ctx context.Context) ([]*store.Category, error) {
	var out []*store.Category
	for _, c := range t.st.categories {
		cp := *c
		out = append(out, &cp)
	}
	sortByID(out, func(c *store.Category) string { return c.ID })
	return out, nil
}

func (t *memTx) AdjustStock(ctx context.Context, productID string, delta int, reason, refID string) (int, error) {
	p, ok := t.st.products[productID]
	if !ok {
		return 0, store.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return 0, &inventory.InsufficientStockError{
			ProductID:   productID,
			ProductName: p.Name,
			Requested:   -delta,
			Available:   p.Stock,
		}
	}
	p.Stock += delta
	p.UpdatedAt = time.Now()
	t.st.movements = append(t.st.movements, &store.StockMovement{
		ID:         uuid.New().String(),
		ProductID:  productID,
		Delta:      delta,
		StockAfter: p.Stock,
		Reason:     reason,
		RefID:      refID,
		CreatedAt:  time.Now(),
	})
	return p.Stock, nil
}

func (t *memTx) CreateCart(ctx context.Context, c *store.Cart) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()
	cp := *c
	t.st.carts[c.ID] = &cp
	return nil
}

func (t *memTx) GetCartByUser(ctx context.Context, userID string) (*store.Cart, error) {
	for _, c := range t.st.carts {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *memTx) GetCartItem(ctx context.Context, itemID string) (*store.CartItem, error) {
	it, ok := t.st.cartItems[itemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (t *memTx) FindCartItemVariant(ctx context.Context, cartID, productID, size, color string) (*store.CartItem, error) {
	for _, it := range t.st.cartItems {
		if it.CartID == cartID && it.ProductID == productID && it.Size == size && it.Color == color {
			cp := *it
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *memTx) ListCartItems(ctx context.Context, cartID string) ([]*store.CartItem, error) {
	var out []*store.CartItem
	for _, it := range t.st.cartItems {
		if it.CartID == cartID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sortByID(out, func(it *store.CartItem) string { return it.ID })
	return out, nil
}

func (t *memTx) ListCartItemsByStatus(ctx context.Context, cartID string, st status.Status) ([]*store.CartItem, error) {
	var out []*store.CartItem
	for _, it := range t.st.cartItems {
		if it.Status != st {
			continue
		}
		if cartID != "" && it.CartID != cartID {
			continue
		}
		cp := *it
		out = append(out, &cp)
	}
	sortByID(out, func(it *store.CartItem) string { return it.ID })
	return out, nil
}

func (t *memTx) SaveCartItem(ctx context.Context, item *store.CartItem) error {
	now := time.Now()
	item.UpdatedAt = now
	if item.ID == "" {
		item.ID = uuid.New().String()
		item.CreatedAt = now
	} else if _, ok := t.st.cartItems[item.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *item
	t.st.cartItems[item.ID] = &cp
	return nil
}

func (t *memTx) DeleteCartItem(ctx context.Context, itemID string) error {
	if _, ok := t.st.cartItems[itemID]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.cartItems, itemID)
	return nil
}

func (t *memTx) ClearCart(ctx context.Context, cartID string) error {
	for id, it := range t.st.cartItems {
		if it.CartID == cartID {
			delete(t.st.cartItems, id)
		}
	}
	return nil
}

func (t *memTx) CreateOrder(ctx context.Context, o *store.Order, items []*store.OrderItem) error {
	cp := *o
	t.st.orders[o.ID] = &cp
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.OrderID = o.ID
		icp := *it
		t.st.orderItems[it.ID] = &icp
	}
	return nil
}

func (t *memTx) GetOrder(ctx context.Context, id string) (*store.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (t *memTx) ListOrderItems(ctx context.Context, orderID string) ([]*store.OrderItem, error) {
	var out []*store.OrderItem
	for _, it := range t.st.orderItems {
		if it.OrderID == orderID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sortByID(out, func(it *store.OrderItem) string { return it.ID })
	return out, nil
}

func (t *memTx) ListOrders(ctx context.Context) ([]*store.Order, error) {
	var out []*store.Order
	for _, o := range t.st.orders {
		cp := *o
		out = append(out, &cp)
	}
	sortByID(out, func(o *store.Order) string { return o.ID })
	return out, nil
}

func (t *memTx) ListOrdersByUser(ctx context.Context, userID string) ([]*store.Order, error) {
	var out []*store.Order
	for _, o := range t.st.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sortByID(out, func(o *store.Order) string { return o.ID })
	return out, nil
}

func (t *memTx) ListOrdersByStatus(ctx context.Context, st status.Status) ([]*store.Order, error) {
	var out []*store.Order
	for _, o := range t.st.orders {
		if o.Status == st {
			cp := *o
			out = append(out, &cp)
		}
	}
	sortByID(out, func(o *store.Order) string { return o.ID })
	return out, nil
}

func (t *memTx) UpdateOrderStatus(ctx context.Context, orderID string, st status.Status) error {
	o, ok := t.st.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = st
	o.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) CreateUser(ctx context.Context, u *store.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	for _, existing := range t.st.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	t.st.users[u.ID] = &cp
	return nil
}

func (t *memTx) GetUser(ctx context.Context, id string) (*store.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (t *memTx) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	for _, u := range t.st.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *memTx) UpsertStockAlert(ctx context.Context, a *store.StockAlert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	cp := *a
	t.st.alerts[a.ProductID] = &cp
	return nil
}

func (t *memTx) DeleteStockAlert(ctx context.Context, productID string) error {
	delete(t.st.alerts, productID)
	return nil
}

func (t *memTx) ListStockAlerts(ctx context.Context) ([]*store.StockAlert, error) {
	var out []*store.StockAlert
	for _, a := range t.st.alerts {
		cp := *a
		out = append(out, &cp)
	}
	sortByID(out, func(a *store.StockAlert) string { return a.ProductID })
	return out, nil
}

func (t *memTx) ListStockMovements(ctx context.Context, productID string) ([]*store.StockMovement, error) {
	var out []*store.StockMovement
	for _, m := range t.st.movements {
		if m.ProductID == productID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func sortByID[T any](items []T, id func(T) string) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
