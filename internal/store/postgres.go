package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/example/veststore/internal/domain/inventory"
	"github.com/example/veststore/internal/domain/status"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore implements Store on PostgreSQL via lib/pq.
type PostgresStore struct {
	queries
	db *sql.DB
}

type pgTx struct {
	queries
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{queries: queries{db: db}, db: db}
}

// WithinTx runs fn in one transaction, rolling back on any error.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&pgTx{queries: queries{db: sqlTx}}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ConnectPostgres establishes a pooled connection to PostgreSQL.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// queries holds every statement; it runs against either the pool or a tx.
type queries struct {
	db dbtx
}

// Products

func (q queries) CreateProduct(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.LowStockThreshold == 0 {
		p.LowStockThreshold = 5
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price_cents, size, color, stock,
			low_stock_threshold, category_id, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Size, p.Color, p.Stock,
		p.LowStockThreshold, nullString(p.CategoryID), nullString(p.ImageURL),
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (q queries) UpdateProduct(ctx context.Context, p *Product) error {
	p.UpdatedAt = time.Now()
	res, err := q.db.ExecContext(ctx, `
		UPDATE products SET name = $2, description = $3, price_cents = $4, size = $5,
			color = $6, low_stock_threshold = $7, category_id = $8, image_url = $9,
			updated_at = $10
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Size, p.Color,
		p.LowStockThreshold, nullString(p.CategoryID), nullString(p.ImageURL),
		p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return checkAffected(res)
}

func (q queries) DeleteProduct(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return checkAffected(res)
}

const productColumns = `id, name, description, price_cents, size, color, stock,
	low_stock_threshold, category_id, image_url, created_at, updated_at`

func (q queries) scanProduct(row *sql.Row) (*Product, error) {
	var p Product
	var categoryID, imageURL sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Size, &p.Color,
		&p.Stock, &p.LowStockThreshold, &categoryID, &imageURL, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.CategoryID = categoryID.String
	p.ImageURL = imageURL.String
	return &p, nil
}

func (q queries) GetProduct(ctx context.Context, id string) (*Product, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return q.scanProduct(row)
}

func (q queries) ListProducts(ctx context.Context, filter ProductFilter) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var conditions []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.CategoryID != "" {
		add("category_id = $%d", filter.CategoryID)
	}
	if filter.Size != "" {
		add("size = $%d", filter.Size)
	}
	if filter.Color != "" {
		add("color = $%d", filter.Color)
	}
	if filter.MinPriceCents > 0 {
		add("price_cents >= $%d", filter.MinPriceCents)
	}
	if filter.MaxPriceCents > 0 {
		add("price_cents <= $%d", filter.MaxPriceCents)
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (q queries) ListLowStockProducts(ctx context.Context) ([]*Product, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE stock <= low_stock_threshold
		 ORDER BY stock ASC`)
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]*Product, error) {
	var products []*Product
	for rows.Next() {
		var p Product
		var categoryID, imageURL sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Size,
			&p.Color, &p.Stock, &p.LowStockThreshold, &categoryID, &imageURL,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.CategoryID = categoryID.String
		p.ImageURL = imageURL.String
		products = append(products, &p)
	}
	return products, rows.Err()
}

// AdjustStock is the single stock-mutation primitive. The WHERE clause makes
// the check and the adjustment one atomic statement, so concurrent callers
// can never drive stock negative.
func (q queries) AdjustStock(ctx context.Context, productID string, delta int, reason, refID string) (int, error) {
	var stockAfter int
	err := q.db.QueryRowContext(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING stock`,
		productID, delta).Scan(&stockAfter)
	if err == sql.ErrNoRows {
		// Either the product is missing or the decrement would go negative.
		var name string
		var available int
		err := q.db.QueryRowContext(ctx,
			`SELECT name, stock FROM products WHERE id = $1`, productID).
			Scan(&name, &available)
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("adjust stock: %w", err)
		}
		return 0, &inventory.InsufficientStockError{
			ProductID:   productID,
			ProductName: name,
			Requested:   -delta,
			Available:   available,
		}
	}
	if err != nil {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO stock_movements (id, product_id, delta, stock_after, reason, ref_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), productID, delta, stockAfter, reason, nullString(refID), time.Now())
	if err != nil {
		return 0, fmt.Errorf("record stock movement: %w", err)
	}
	return stockAfter, nil
}

// Categories

func (q queries) CreateCategory(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Description, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (q queries) GetCategory(ctx context.Context, id string) (*Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (q queries) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// Carts

func (q queries) CreateCart(ctx context.Context, c *Cart) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO carts (id, user_id, created_at) VALUES ($1, $2, $3)`,
		c.ID, c.UserID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

func (q queries) GetCartByUser(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := q.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM carts WHERE user_id = $1`, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &c, nil
}

const cartItemColumns = `id, cart_id, product_id, quantity, size, color, status, created_at, updated_at`

func (q queries) GetCartItem(ctx context.Context, itemID string) (*CartItem, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE id = $1`, itemID)
	return scanCartItemRow(row)
}

func (q queries) FindCartItemVariant(ctx context.Context, cartID, productID, size, color string) (*CartItem, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE cart_id = $1 AND product_id = $2 AND size = $3 AND color = $4`,
		cartID, productID, size, color)
	return scanCartItemRow(row)
}

func scanCartItemRow(row *sql.Row) (*CartItem, error) {
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.Size,
		&it.Color, &it.Status, &it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan cart item: %w", err)
	}
	return &it, nil
}

func (q queries) ListCartItems(ctx context.Context, cartID string) ([]*CartItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 ORDER BY created_at`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()
	return scanCartItems(rows)
}

// ListCartItemsByStatus filters by status; an empty cartID spans all carts
// (admin view).
func (q queries) ListCartItemsByStatus(ctx context.Context, cartID string, st status.Status) ([]*CartItem, error) {
	var rows *sql.Rows
	var err error
	if cartID == "" {
		rows, err = q.db.QueryContext(ctx,
			`SELECT `+cartItemColumns+` FROM cart_items WHERE status = $1 ORDER BY created_at`,
			st)
	} else {
		rows, err = q.db.QueryContext(ctx,
			`SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 AND status = $2 ORDER BY created_at`,
			cartID, st)
	}
	if err != nil {
		return nil, fmt.Errorf("list cart items by status: %w", err)
	}
	defer rows.Close()
	return scanCartItems(rows)
}

func scanCartItems(rows *sql.Rows) ([]*CartItem, error) {
	var items []*CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity,
			&it.Size, &it.Color, &it.Status, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (q queries) SaveCartItem(ctx context.Context, item *CartItem) error {
	now := time.Now()
	item.UpdatedAt = now
	if item.ID == "" {
		item.ID = uuid.New().String()
		item.CreatedAt = now
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, quantity, size, color, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, item.CartID, item.ProductID, item.Quantity, item.Size,
			item.Color, item.Status, item.CreatedAt, item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
		return nil
	}

	res, err := q.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $2, status = $3, updated_at = $4 WHERE id = $1`,
		item.ID, item.Quantity, item.Status, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return checkAffected(res)
}

func (q queries) DeleteCartItem(ctx context.Context, itemID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return checkAffected(res)
}

func (q queries) ClearCart(ctx context.Context, cartID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Orders

func (q queries) CreateOrder(ctx context.Context, o *Order, items []*OrderItem) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, total_cents, shipping_address,
			created_at, estimated_delivery, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.UserID, o.Status, o.TotalCents, o.ShippingAddress,
		o.CreatedAt, o.EstimatedDelivery, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.OrderID = o.ID
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price_cents, size, color)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.PriceCents, it.Size, it.Color)
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}
	return nil
}

const orderColumns = `id, user_id, status, total_cents, shipping_address,
	created_at, estimated_delivery, updated_at`

func (q queries) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := q.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.ShippingAddress,
			&o.CreatedAt, &o.EstimatedDelivery, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (q queries) ListOrderItems(ctx context.Context, orderID string) ([]*OrderItem, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price_cents, size, color
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []*OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity,
			&it.PriceCents, &it.Size, &it.Color); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (q queries) ListOrders(ctx context.Context) ([]*Order, error) {
	return q.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (q queries) ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error) {
	return q.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
}

func (q queries) ListOrdersByStatus(ctx context.Context, st status.Status) ([]*Order, error) {
	return q.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC`,
		st)
}

func (q queries) queryOrders(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents,
			&o.ShippingAddress, &o.CreatedAt, &o.EstimatedDelivery, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

func (q queries) UpdateOrderStatus(ctx context.Context, orderID string, st status.Status) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, st)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return checkAffected(res)
}

// Users

func (q queries) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

const userColumns = `id, email, password_hash, name, role, is_active, created_at, updated_at`

func (q queries) GetUser(ctx context.Context, id string) (*User, error) {
	return q.scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (q queries) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return q.scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (q queries) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// Stock alerts and movements

func (q queries) UpsertStockAlert(ctx context.Context, a *StockAlert) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO stock_alerts (product_id, stock, threshold, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id) DO UPDATE SET
			stock = EXCLUDED.stock,
			threshold = EXCLUDED.threshold`,
		a.ProductID, a.Stock, a.Threshold, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert stock alert: %w", err)
	}
	return nil
}

func (q queries) DeleteStockAlert(ctx context.Context, productID string) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM stock_alerts WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete stock alert: %w", err)
	}
	return nil
}

func (q queries) ListStockAlerts(ctx context.Context) ([]*StockAlert, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT product_id, stock, threshold, created_at FROM stock_alerts ORDER BY stock ASC`)
	if err != nil {
		return nil, fmt.Errorf("list stock alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*StockAlert
	for rows.Next() {
		var a StockAlert
		if err := rows.Scan(&a.ProductID, &a.Stock, &a.Threshold, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

func (q queries) ListStockMovements(ctx context.Context, productID string) ([]*StockMovement, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, product_id, delta, stock_after, reason, ref_id, created_at
		FROM stock_movements WHERE product_id = $1 ORDER BY created_at`, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var movements []*StockMovement
	for rows.Next() {
		var m StockMovement
		var refID sql.NullString
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &m.StockAfter,
			&m.Reason, &refID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.RefID = refID.String
		movements = append(movements, &m)
	}
	return movements, rows.Err()
}

// Helpers

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
