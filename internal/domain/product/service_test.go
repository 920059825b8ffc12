package product

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/veststore/internal/domain/inventory"
	"github.com/example/veststore/internal/events"
	"github.com/example/veststore/internal/store"
	"github.com/example/veststore/internal/store/mocks"
)

func newTestProductService() (*Service, *mocks.MemoryStore, *events.Recorder) {
	st := mocks.NewMemoryStore()
	rec := &events.Recorder{}
	return NewService(st, rec), st, rec
}

// ============================================
// Create Tests
// ============================================

func TestService_Create_Success(t *testing.T) {
	service, st, rec := newTestProductService()
	ctx := context.Background()

	p, err := service.Create(ctx, CreateInput{
		Name:       "Denim Vest",
		PriceCents: 4999,
		Stock:      10,
		Size:       "M",
		Color:      "blue",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, DefaultLowStockThreshold, p.LowStockThreshold)

	stored, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Stock)

	// Initial stock is booked as one movement.
	movements, err := st.ListStockMovements(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 10, movements[0].Delta)
	assert.Equal(t, inventory.ReasonManual, movements[0].Reason)

	require.Len(t, rec.Published, 1)
	assert.Equal(t, events.EventStockAdjusted, rec.Published[0].EventType)
}

func TestService_Create_ZeroStockSkipsMovement(t *testing.T) {
	service, st, rec := newTestProductService()
	ctx := context.Background()

	p, err := service.Create(ctx, CreateInput{Name: "Wool Vest", PriceCents: 5999})

	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)

	movements, err := st.ListStockMovements(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
	assert.Empty(t, rec.Published)
}

func TestService_Create_Invalid(t *testing.T) {
	service, _, _ := newTestProductService()
	ctx := context.Background()

	tests := []struct {
		name    string
		input   CreateInput
		wantErr error
	}{
		{"empty name", CreateInput{PriceCents: 100}, ErrInvalidName},
		{"negative price", CreateInput{Name: "x", PriceCents: -1}, ErrInvalidPrice},
		{"negative stock", CreateInput{Name: "x", PriceCents: 1, Stock: -3}, ErrInvalidStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Create_UnknownCategory(t *testing.T) {
	service, _, _ := newTestProductService()
	ctx := context.Background()

	_, err := service.Create(ctx, CreateInput{Name: "x", PriceCents: 100, CategoryID: "missing"})

	assert.ErrorIs(t, err, store.ErrNotFound)
}

// ============================================
// Update Tests
// ============================================

func TestService_Update_Success(t *testing.T) {
	service, _, _ := newTestProductService()
	ctx := context.Background()

	p, err := service.Create(ctx, CreateInput{Name: "Denim Vest", PriceCents: 4999, Stock: 3})
	require.NoError(t, err)

	updated, err := service.Update(ctx, p.ID, UpdateInput{Name: "Denim Vest v2", PriceCents: 5499})

	require.NoError(t, err)
	assert.Equal(t, "Denim Vest v2", updated.Name)
	assert.Equal(t, int64(5499), updated.PriceCents)
	// Stock is not a catalog field.
	assert.Equal(t, 3, updated.Stock)
}

func TestService_Update_NotFound(t *testing.T) {
	service, _, _ := newTestProductService()
	ctx := context.Background()

	_, err := service.Update(ctx, "missing", UpdateInput{Name: "x", PriceCents: 1})

	assert.ErrorIs(t, err, store.ErrNotFound)
}

// ============================================
// AdjustStock Tests
// ============================================

func TestService_AdjustStock_Decrement(t *testing.T) {
	service, st, rec := newTestProductService()
	ctx := context.Background()

	p, err := service.Create(ctx, CreateInput{Name: "Denim Vest", PriceCents: 4999, Stock: 10})
	require.NoError(t, err)
	rec.Published = nil

	updated, err := service.AdjustStock(ctx, p.ID, -4)

	require.NoError(t, err)
	assert.Equal(t, 6, updated.Stock)

	movements, err := st.ListStockMovements(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, -4, movements[1].Delta)
	assert.Equal(t, 6, movements[1].StockAfter)

	require.Len(t, rec.Published, 1)
	var evt events.StockAdjusted
	require.NoError(t, rec.Published[0].Decode(&evt))
	assert.Equal(t, -4, evt.Delta)
	assert.Equal(t, 6, evt.StockAfter)
	assert.Equal(t, inventory.ReasonManual, evt.Reason)
}

func TestService_AdjustStock_InsufficientStock(t *testing.T) {
	service, st, rec := newTestProductService()
	ctx := context.Background()

	p, err := service.Create(ctx, CreateInput{Name: "Denim Vest", PriceCents: 4999, Stock: 2})
	require.NoError(t, err)
	rec.Published = nil

	_, err = service.AdjustStock(ctx, p.ID, -5)

	var insufficientErr *inventory.InsufficientStockError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, p.ID, insufficientErr.ProductID)
	assert.Equal(t, 5, insufficientErr.Requested)
	assert.Equal(t, 2, insufficientErr.Available)

	// Nothing changed and nothing was published.
	stored, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Stock)
	assert.Empty(t, rec.Published)
}

// ============================================
// Low Stock Tests
// ============================================

func TestService_ListLowStock(t *testing.T) {
	service, _, _ := newTestProductService()
	ctx := context.Background()

	low, err := service.Create(ctx, CreateInput{Name: "Low", PriceCents: 100, Stock: 3})
	require.NoError(t, err)
	_, err = service.Create(ctx, CreateInput{Name: "High", PriceCents: 100, Stock: 50})
	require.NoError(t, err)

	products, err := service.ListLowStock(ctx)

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, low.ID, products[0].ID)
}

// ============================================
// Filter Tests
// ============================================

func TestService_List_Filters(t *testing.T) {
	service, _, _ := newTestProductService()
	ctx := context.Background()

	cat, err := service.CreateCategory(ctx, "vests", "")
	require.NoError(t, err)

	_, err = service.Create(ctx, CreateInput{Name: "A", PriceCents: 1000, Size: "M", Color: "blue", CategoryID: cat.ID})
	require.NoError(t, err)
	_, err = service.Create(ctx, CreateInput{Name: "B", PriceCents: 3000, Size: "L", Color: "red"})
	require.NoError(t, err)

	byCategory, err := service.List(ctx, store.ProductFilter{CategoryID: cat.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "A", byCategory[0].Name)

	bySize, err := service.List(ctx, store.ProductFilter{Size: "L"})
	require.NoError(t, err)
	require.Len(t, bySize, 1)
	assert.Equal(t, "B", bySize[0].Name)

	byPrice, err := service.List(ctx, store.ProductFilter{MinPriceCents: 500, MaxPriceCents: 2000})
	require.NoError(t, err)
	require.Len(t, byPrice, 1)
	assert.Equal(t, "A", byPrice[0].Name)

	all, err := service.List(ctx, store.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
