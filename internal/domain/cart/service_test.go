package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/veststore/internal/domain/inventory"
	"github.com/example/veststore/internal/domain/status"
	"github.com/example/veststore/internal/events"
	"github.com/example/veststore/internal/store"
	"github.com/example/veststore/internal/store/mocks"
)

func newTestCartService() (*Service, *mocks.MemoryStore, *events.Recorder) {
	st := mocks.NewMemoryStore()
	rec := &events.Recorder{}
	return NewService(st, rec), st, rec
}

func seedProduct(t *testing.T, st *mocks.MemoryStore, name string, stock int, priceCents int64) *store.Product {
	t.Helper()
	p := &store.Product{Name: name, PriceCents: priceCents, LowStockThreshold: 5}
	require.NoError(t, st.CreateProduct(context.Background(), p))
	if stock > 0 {
		_, err := st.AdjustStock(context.Background(), p.ID, stock, inventory.ReasonManual, p.ID)
		require.NoError(t, err)
	}
	p.Stock = stock
	return p
}

// ============================================
// Add Item Tests
// ============================================

func TestService_AddItem_CreatesCartLazily(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	_, err := service.Get(ctx, "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	view, err := service.AddItem(ctx, "user-1", p.ID, 2, "M", "blue")

	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, status.Pending, view.Items[0].Status)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, "user-1", view.Cart.UserID)
}

func TestService_AddItem_MergesSameVariant(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	_, err := service.AddItem(ctx, "user-1", p.ID, 2, "M", "blue")
	require.NoError(t, err)
	view, err := service.AddItem(ctx, "user-1", p.ID, 3, "M", "blue")
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestService_AddItem_DifferentVariantsStaySeparate(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	_, err := service.AddItem(ctx, "user-1", p.ID, 1, "M", "blue")
	require.NoError(t, err)
	view, err := service.AddItem(ctx, "user-1", p.ID, 1, "L", "blue")
	require.NoError(t, err)

	assert.Len(t, view.Items, 2)
}

func TestService_AddItem_InsufficientStock(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 3, 4999)

	_, err := service.AddItem(ctx, "user-1", p.ID, 2, "M", "blue")
	require.NoError(t, err)

	// 2 already in the line; merging 2 more would exceed stock 3.
	_, err = service.AddItem(ctx, "user-1", p.ID, 2, "M", "blue")

	var insufficientErr *inventory.InsufficientStockError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, p.ID, insufficientErr.ProductID)
	assert.Equal(t, 4, insufficientErr.Requested)
	assert.Equal(t, 3, insufficientErr.Available)

	// The merge was rolled back.
	view, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestService_AddItem_UnknownProduct(t *testing.T) {
	service, _, _ := newTestCartService()

	_, err := service.AddItem(context.Background(), "user-1", "missing", 1, "M", "blue")

	assert.ErrorIs(t, err, store.ErrNotFound)
}

// ============================================
// Update Quantity Tests
// ============================================

func TestService_UpdateItemQuantity_ZeroRemovesLine(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 2, "M", "blue")
	require.NoError(t, err)

	view, err = service.UpdateItemQuantity(ctx, "user-1", view.Items[0].ID, 0)

	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestService_UpdateItemQuantity_IncreaseChecksStock(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 3, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 2, "M", "blue")
	require.NoError(t, err)
	itemID := view.Items[0].ID

	_, err = service.UpdateItemQuantity(ctx, "user-1", itemID, 5)
	var insufficientErr *inventory.InsufficientStockError
	assert.True(t, errors.As(err, &insufficientErr))

	view, err = service.UpdateItemQuantity(ctx, "user-1", itemID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Items[0].Quantity)

	// Decreasing never needs a stock check.
	view, err = service.UpdateItemQuantity(ctx, "user-1", itemID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Items[0].Quantity)
}

func TestService_UpdateItemQuantity_OtherUsersItem(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 2, "M", "blue")
	require.NoError(t, err)
	_, err = service.AddItem(ctx, "user-2", p.ID, 1, "M", "blue")
	require.NoError(t, err)

	_, err = service.UpdateItemQuantity(ctx, "user-2", view.Items[0].ID, 3)

	assert.ErrorIs(t, err, store.ErrNotFound)
}

// ============================================
// Place Order (bulk checkout) Tests
// ============================================

func TestService_PlaceOrder_ValidatesAllAndDecrementsStock(t *testing.T) {
	service, st, rec := newTestCartService()
	ctx := context.Background()
	p1 := seedProduct(t, st, "Denim Vest", 10, 4999)
	p2 := seedProduct(t, st, "Wool Vest", 8, 5999)

	_, err := service.AddItem(ctx, "user-1", p1.ID, 3, "M", "blue")
	require.NoError(t, err)
	_, err = service.AddItem(ctx, "user-1", p2.ID, 2, "L", "grey")
	require.NoError(t, err)

	view, err := service.PlaceOrder(ctx, "user-1")

	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	for _, item := range view.Items {
		assert.Equal(t, status.Validated, item.Status)
	}

	stored1, err := st.GetProduct(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored1.Stock)
	stored2, err := st.GetProduct(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored2.Stock)

	// One checkout event plus one stock event per line.
	var types []string
	for _, env := range rec.Published {
		types = append(types, env.EventType)
	}
	assert.Contains(t, types, events.EventCartCheckedOut)
	assert.Equal(t, 2, countOf(types, events.EventStockAdjusted))
}

func TestService_PlaceOrder_AllOrNothing(t *testing.T) {
	service, st, rec := newTestCartService()
	ctx := context.Background()
	p1 := seedProduct(t, st, "Denim Vest", 10, 4999)
	p2 := seedProduct(t, st, "Wool Vest", 1, 5999)

	_, err := service.AddItem(ctx, "user-1", p1.ID, 3, "M", "blue")
	require.NoError(t, err)
	// Second line is addable now but the stock drains before checkout.
	_, err = service.AddItem(ctx, "user-1", p2.ID, 1, "L", "grey")
	require.NoError(t, err)
	_, err = st.AdjustStock(ctx, p2.ID, -1, inventory.ReasonManual, "shrinkage")
	require.NoError(t, err)
	rec.Published = nil

	_, err = service.PlaceOrder(ctx, "user-1")

	var insufficientErr *inventory.InsufficientStockError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, p2.ID, insufficientErr.ProductID)

	// Line one's tentative decrement and status flip were rolled back.
	stored1, err := st.GetProduct(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored1.Stock)
	view, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	for _, item := range view.Items {
		assert.Equal(t, status.Pending, item.Status)
	}
	assert.Empty(t, rec.Published)
}

// ============================================
// User Transition Tests
// ============================================

func TestService_TransitionItemAsUser_CancelRestocksValidated(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 3, "M", "blue")
	require.NoError(t, err)
	itemID := view.Items[0].ID

	_, err = service.PlaceOrder(ctx, "user-1")
	require.NoError(t, err)
	stored, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 7, stored.Stock)

	err = service.TransitionItemAsUser(ctx, "user-1", itemID, status.Cancelled)
	require.NoError(t, err)

	item, err := st.GetCartItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, status.Cancelled, item.Status)
	stored, err = st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Stock)
}

func TestService_TransitionItemAsUser_CancelPendingNoRestock(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 3, "M", "blue")
	require.NoError(t, err)

	err = service.TransitionItemAsUser(ctx, "user-1", view.Items[0].ID, status.Cancelled)
	require.NoError(t, err)

	stored, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Stock)
}

func TestService_TransitionItemAsUser_RestrictedTargets(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 1, "M", "blue")
	require.NoError(t, err)
	itemID := view.Items[0].ID

	for _, target := range []status.Status{status.Shipped, status.Delivered, status.Pending} {
		err := service.TransitionItemAsUser(ctx, "user-1", itemID, target)
		assert.ErrorIs(t, err, ErrInvalidTarget)
	}

	// State untouched by the rejected requests.
	item, err := st.GetCartItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, status.Pending, item.Status)
}

func TestService_TransitionItemAsUser_Forbidden(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 1, "M", "blue")
	require.NoError(t, err)
	_, err = service.AddItem(ctx, "user-2", p.ID, 1, "M", "blue")
	require.NoError(t, err)

	err = service.TransitionItemAsUser(ctx, "user-2", view.Items[0].ID, status.Validated)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_TransitionItemAsUser_InsufficientStockLeavesStateAlone(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 5, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 5, "M", "blue")
	require.NoError(t, err)
	itemID := view.Items[0].ID

	_, err = st.AdjustStock(ctx, p.ID, -3, inventory.ReasonManual, "shrinkage")
	require.NoError(t, err)

	err = service.TransitionItemAsUser(ctx, "user-1", itemID, status.Validated)

	var insufficientErr *inventory.InsufficientStockError
	require.True(t, errors.As(err, &insufficientErr))
	item, err := st.GetCartItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, status.Pending, item.Status)
	stored, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Stock)
}

// ============================================
// Admin Transition Tests
// ============================================

func TestService_TransitionItemAsAdmin_FullLifecycle(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 2, "M", "blue")
	require.NoError(t, err)
	itemID := view.Items[0].ID

	require.NoError(t, service.TransitionItemAsAdmin(ctx, itemID, status.Validated))
	require.NoError(t, service.TransitionItemAsAdmin(ctx, itemID, status.Shipped))
	require.NoError(t, service.TransitionItemAsAdmin(ctx, itemID, status.Delivered))

	item, err := st.GetCartItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, status.Delivered, item.Status)

	// Stock moved once, on validation only.
	stored, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.Stock)
}

func TestService_TransitionItemAsAdmin_InvalidTransition(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 2, "M", "blue")
	require.NoError(t, err)
	itemID := view.Items[0].ID

	err = service.TransitionItemAsAdmin(ctx, itemID, status.Shipped)

	var transitionErr *status.TransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, status.Pending, transitionErr.From)
	assert.Equal(t, status.Shipped, transitionErr.To)
}

// ============================================
// Status Query Tests
// ============================================

func TestService_ListItemsByStatus(t *testing.T) {
	service, st, _ := newTestCartService()
	ctx := context.Background()
	p := seedProduct(t, st, "Denim Vest", 10, 4999)

	view, err := service.AddItem(ctx, "user-1", p.ID, 1, "M", "blue")
	require.NoError(t, err)
	_, err = service.AddItem(ctx, "user-1", p.ID, 1, "L", "blue")
	require.NoError(t, err)
	_, err = service.AddItem(ctx, "user-2", p.ID, 1, "M", "red")
	require.NoError(t, err)

	require.NoError(t, service.TransitionItemAsAdmin(ctx, view.Items[0].ID, status.Validated))

	pending, err := service.ListItemsByStatus(ctx, "user-1", status.Pending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	validated, err := service.ListItemsByStatus(ctx, "user-1", status.Validated)
	require.NoError(t, err)
	assert.Len(t, validated, 1)

	// Admin view spans carts.
	allPending, err := service.ListItemsByStatus(ctx, "", status.Pending)
	require.NoError(t, err)
	assert.Len(t, allPending, 2)
}

func countOf(values []string, want string) int {
	n := 0
	for _, v := range values {
		if v == want {
			n++
		}
	}
	return n
}
