package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/veststore/internal/auth"
	"github.com/example/veststore/internal/domain/cart"
	"github.com/example/veststore/internal/domain/inventory"
	"github.com/example/veststore/internal/domain/order"
	"github.com/example/veststore/internal/domain/product"
	"github.com/example/veststore/internal/domain/user"
	"github.com/example/veststore/internal/events"
	"github.com/example/veststore/internal/store"
	"github.com/example/veststore/internal/store/mocks"
)

// ============================================
// Test Setup
// ============================================

type testAPI struct {
	router http.Handler
	store  *mocks.MemoryStore
	jwt    *auth.JWTService
	users  *user.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	st := mocks.NewMemoryStore()
	pub := events.Nop{}
	products := product.NewService(st, pub)
	carts := cart.NewService(st, pub)
	orders := order.NewService(st, pub)
	users := user.NewService(st)

	jwtService := auth.NewJWTService("test-secret-key-for-handler-tests!!", 15*time.Minute, 7*24*time.Hour)
	router := NewRouter(RouterConfig{
		Handlers:     NewHandlers(products, carts, orders, st),
		AuthHandlers: NewAuthHandlers(users, jwtService),
		JWTService:   jwtService,
	})

	return &testAPI{router: router, store: st, jwt: jwtService, users: users}
}

func (a *testAPI) registerUser(t *testing.T, email, role string) (string, string) {
	t.Helper()
	u, err := a.users.RegisterWithRole(context.Background(), email, "password123", "Test User", role)
	require.NoError(t, err)
	token, _, err := a.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return u.ID, token
}

func (a *testAPI) seedProduct(t *testing.T, name string, priceCents int64, stock int) *store.Product {
	t.Helper()
	ctx := context.Background()
	created := &store.Product{Name: name, PriceCents: priceCents, LowStockThreshold: 5}
	err := a.store.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.CreateProduct(ctx, created); err != nil {
			return err
		}
		if stock > 0 {
			_, err := tx.AdjustStock(ctx, created.ID, stock, inventory.ReasonManual, created.ID)
			return err
		}
		return nil
	})
	require.NoError(t, err)
	return created
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

// ============================================
// Auth Tests
// ============================================

func TestAPI_RegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "shopper@example.com",
		"password": "password123",
		"name":     "Shopper",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	cookies := w.Result().Cookies()
	var names []string
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "access_token")
	assert.Contains(t, names, "refresh_token")

	w = api.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "shopper@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[AuthResponse](t, w)
	assert.Equal(t, "shopper@example.com", resp.User.Email)
	assert.Equal(t, "customer", resp.User.Role)
}

func TestAPI_LoginWrongPassword(t *testing.T) {
	api := newTestAPI(t)
	api.registerUser(t, "shopper@example.com", "customer")

	w := api.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "shopper@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_RegisterDuplicateEmail(t *testing.T) {
	api := newTestAPI(t)
	api.registerUser(t, "shopper@example.com", "customer")

	w := api.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "shopper@example.com",
		"password": "password123",
		"name":     "Shopper",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAPI_Me(t *testing.T) {
	api := newTestAPI(t)
	userID, token := api.registerUser(t, "shopper@example.com", "customer")

	w := api.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[UserResponse](t, w)
	assert.Equal(t, userID, resp.ID)

	w = api.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ============================================
// Product Tests
// ============================================

func TestAPI_CreateProduct_AdminOnly(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.registerUser(t, "admin@example.com", "admin")
	_, userToken := api.registerUser(t, "shopper@example.com", "customer")

	body := map[string]any{"name": "Puffer Vest", "price_cents": 4999, "stock": 10}

	w := api.do(t, http.MethodPost, "/products", userToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/products", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeBody[store.Product](t, w)
	assert.Equal(t, "Puffer Vest", created.Name)
	assert.Equal(t, 10, created.Stock)
}

func TestAPI_GetProduct_NotFound(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_ListProducts_PublicWithFilter(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, "Cheap Vest", 1999, 5)
	api.seedProduct(t, "Fancy Vest", 9999, 5)

	w := api.do(t, http.MethodGet, "/products?max_price_cents=5000", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	products := decodeBody[[]store.Product](t, w)
	require.Len(t, products, 1)
	assert.Equal(t, "Cheap Vest", products[0].Name)
}

func TestAPI_AdjustStock_Insufficient(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.registerUser(t, "admin@example.com", "admin")
	p := api.seedProduct(t, "Puffer Vest", 4999, 3)

	w := api.do(t, http.MethodPost, "/products/"+p.ID+"/stock", adminToken, map[string]int{"delta": -5})
	require.Equal(t, http.StatusConflict, w.Code)

	resp := decodeBody[map[string]any](t, w)
	assert.Equal(t, p.ID, resp["product_id"])
	assert.Equal(t, float64(3), resp["available"])
}

// ============================================
// Cart Tests
// ============================================

func TestAPI_CartFlow(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.registerUser(t, "shopper@example.com", "customer")
	p := api.seedProduct(t, "Puffer Vest", 4999, 10)

	w := api.do(t, http.MethodPost, "/cart/items", token, map[string]any{
		"product_id": p.ID,
		"quantity":   2,
		"size":       "M",
	})
	require.Equal(t, http.StatusOK, w.Code)

	view := decodeBody[cart.View](t, w)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)

	w = api.do(t, http.MethodPost, "/cart/checkout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	view = decodeBody[cart.View](t, w)
	assert.Equal(t, "validated", string(view.Items[0].Status))
}

func TestAPI_CartRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_AddToCart_InsufficientStock(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.registerUser(t, "shopper@example.com", "customer")
	p := api.seedProduct(t, "Puffer Vest", 4999, 1)

	w := api.do(t, http.MethodPost, "/cart/items", token, map[string]any{
		"product_id": p.ID,
		"quantity":   3,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// ============================================
// Order Tests
// ============================================

func orderFixture(t *testing.T) (*testAPI, *store.Product, string, string) {
	t.Helper()
	api := newTestAPI(t)
	_, userToken := api.registerUser(t, "shopper@example.com", "customer")
	_, adminToken := api.registerUser(t, "admin@example.com", "admin")
	p := api.seedProduct(t, "Puffer Vest", 4999, 10)

	w := api.do(t, http.MethodPost, "/cart/items", userToken, map[string]any{
		"product_id": p.ID,
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	return api, p, userToken, adminToken
}

func TestAPI_OrderLifecycle(t *testing.T) {
	api, _, userToken, adminToken := orderFixture(t)

	w := api.do(t, http.MethodPost, "/orders", userToken, map[string]string{
		"shipping_address": "1 Rue de la Paix, Paris",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	view := decodeBody[order.View](t, w)
	orderID := view.Order.ID
	assert.Equal(t, int64(9998), view.Order.TotalCents)

	// customers cannot drive fulfillment transitions
	w = api.do(t, http.MethodPost, fmt.Sprintf("/orders/%s/validate", orderID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	for _, action := range []string{"validate", "ship", "deliver"} {
		w = api.do(t, http.MethodPost, fmt.Sprintf("/orders/%s/%s", orderID, action), adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code, action)
	}

	w = api.do(t, http.MethodGet, "/orders/"+orderID, userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeBody[order.View](t, w)
	assert.Equal(t, "delivered", string(view.Order.Status))
}

func TestAPI_OrderIllegalTransition(t *testing.T) {
	api, _, userToken, adminToken := orderFixture(t)

	w := api.do(t, http.MethodPost, "/orders", userToken, map[string]string{
		"shipping_address": "1 Rue de la Paix, Paris",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeBody[order.View](t, w)

	// pending orders cannot ship
	w = api.do(t, http.MethodPost, fmt.Sprintf("/orders/%s/ship", view.Order.ID), adminToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	resp := decodeBody[map[string]any](t, w)
	assert.Equal(t, "pending", resp["from"])
	assert.Equal(t, "shipped", resp["to"])
}

func TestAPI_OrderOwnership(t *testing.T) {
	api, _, userToken, _ := orderFixture(t)
	_, otherToken := api.registerUser(t, "other@example.com", "customer")

	w := api.do(t, http.MethodPost, "/orders", userToken, map[string]string{
		"shipping_address": "1 Rue de la Paix, Paris",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeBody[order.View](t, w)

	w = api.do(t, http.MethodGet, "/orders/"+view.Order.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, fmt.Sprintf("/orders/%s/cancel", view.Order.ID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, fmt.Sprintf("/orders/%s/cancel", view.Order.ID), userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_ListOrders_AdminOnly(t *testing.T) {
	api, _, userToken, adminToken := orderFixture(t)

	w := api.do(t, http.MethodGet, "/orders", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodGet, "/orders", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_ListUserOrdersByStatus(t *testing.T) {
	api, _, userToken, _ := orderFixture(t)

	w := api.do(t, http.MethodPost, "/orders", userToken, map[string]string{
		"shipping_address": "1 Rue de la Paix, Paris",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodGet, "/orders/user/status/pending", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orders := decodeBody[[]store.Order](t, w)
	assert.Len(t, orders, 1)

	w = api.do(t, http.MethodGet, "/orders/user/status/shipped", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orders = decodeBody[[]store.Order](t, w)
	assert.Empty(t, orders)

	w = api.do(t, http.MethodGet, "/orders/user/status/bogus", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
