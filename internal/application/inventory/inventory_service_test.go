package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
)

// MockProductRepository mocks the product lookups the inventory service needs
type MockProductRepository struct {
	catalog.ProductRepository
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func newInventoryService(t *testing.T, f *riceFixture) (*InventoryService, *MockProductRepository) {
	t.Helper()
	products := new(MockProductRepository)
	products.On("FindByID", mock.Anything, f.productID).Return(&catalog.Product{}, nil)
	svc := NewInventoryService(f.scope, f.ledger, f.store.Inventory(), f.store.MovementLog(), f.store.Units(), products, zaptest.NewLogger(t))
	return svc, products
}

func TestInventoryService_Setup(t *testing.T) {
	ctx := context.Background()

	t.Run("opening balance in another unit with a stock limit", func(t *testing.T) {
		f := newRiceFixture(t)
		svc, _ := newInventoryService(t, f)

		resp, err := svc.Setup(ctx, SetupInventoryRequest{
			ProductID:     f.productID,
			ShopID:        f.shopID,
			UnitID:        f.kg.ID,
			InitialStock:  decimal.NewFromInt(1),
			InitialUnitID: &f.bag.ID,
			StockLimit:    decimal.NewFromInt(2),
			LimitUnitID:   &f.bag.ID,
		})
		require.NoError(t, err)
		assertDecimal(t, "50", resp.CurrentStock)
		assert.Equal(t, "kg", resp.UnitType)
		assert.Equal(t, f.bag.ID, resp.StockLimitUnitID)
		assert.True(t, resp.IsLowStock)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newRiceFixture(t)
		svc, products := newInventoryService(t, f)
		missing := uuid.New()
		products.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)

		_, err := svc.Setup(ctx, SetupInventoryRequest{ProductID: missing, ShopID: f.shopID, UnitID: f.kg.ID})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("inventory unit must belong to the product", func(t *testing.T) {
		f := newRiceFixture(t)
		svc, _ := newInventoryService(t, f)

		_, err := svc.Setup(ctx, SetupInventoryRequest{ProductID: f.productID, ShopID: f.shopID, UnitID: uuid.New()})
		assert.ErrorIs(t, err, shared.ErrUnitNotDefined)
	})
}

func TestInventoryService_ListLowStock(t *testing.T) {
	ctx := context.Background()
	f := newRiceFixture(t)
	svc, _ := newInventoryService(t, f)

	otherShop := uuid.New()
	_, err := svc.Setup(ctx, SetupInventoryRequest{
		ProductID: f.productID, ShopID: f.shopID, UnitID: f.kg.ID,
		InitialStock: decimal.NewFromInt(70),
		StockLimit:   decimal.NewFromInt(1), LimitUnitID: &f.bag.ID,
	})
	require.NoError(t, err)
	low, err := svc.Setup(ctx, SetupInventoryRequest{
		ProductID: f.productID, ShopID: otherShop, UnitID: f.kg.ID,
		InitialStock: decimal.NewFromInt(30),
		StockLimit:   decimal.NewFromInt(1), LimitUnitID: &f.bag.ID,
	})
	require.NoError(t, err)

	all, total, err := svc.List(ctx, InventoryListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	lowOnly, total, err := svc.List(ctx, InventoryListFilter{LowStock: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, lowOnly, 1)
	assert.Equal(t, low.ID, lowOnly[0].ID)

	byShop, total, err := svc.List(ctx, InventoryListFilter{ShopID: &f.shopID, LowStock: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, byShop)
}

func TestInventoryService_ConvertDisplayUnit(t *testing.T) {
	ctx := context.Background()
	f := newRiceFixture(t)
	svc, _ := newInventoryService(t, f)

	record, err := svc.Setup(ctx, SetupInventoryRequest{
		ProductID: f.productID, ShopID: f.shopID, UnitID: f.kg.ID,
		InitialStock: decimal.NewFromInt(70),
	})
	require.NoError(t, err)

	display, err := svc.ConvertDisplayUnit(ctx, record.ID, f.bag.ID)
	require.NoError(t, err)
	assertDecimal(t, "1.4", display.DisplayStock)
	assert.Equal(t, "bag", display.DisplayUnitType)
	assert.Equal(t, "kg", display.UnitType)

	// Display conversion is never persisted
	stored, err := svc.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assertDecimal(t, "70", stored.CurrentStock)
	assert.Equal(t, f.kg.ID, stored.UnitID)

	stranger, err := catalog.NewUnit(uuid.New(), "crate", catalog.UnitCategoryBuying, false)
	require.NoError(t, err)
	f.store.AddUnits(stranger)
	_, err = svc.ConvertDisplayUnit(ctx, record.ID, stranger.ID)
	assert.ErrorIs(t, err, shared.ErrUnitNotDefined)
}

func TestInventoryService_ReconcileAndMovements(t *testing.T) {
	ctx := context.Background()
	f := newRiceFixture(t)
	svc, _ := newInventoryService(t, f)

	record, err := svc.Setup(ctx, SetupInventoryRequest{
		ProductID: f.productID, ShopID: f.shopID, UnitID: f.kg.ID,
		InitialStock: decimal.NewFromInt(70),
	})
	require.NoError(t, err)

	reconciled, err := svc.Reconcile(ctx, record.ID, ReconcileRequest{ActualStock: decimal.NewFromInt(65)})
	require.NoError(t, err)
	assertDecimal(t, "65", reconciled.CurrentStock)

	movements, total, err := svc.Movements(ctx, record.ID, MovementListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, movements, 2)
	assert.Equal(t, "reconcile", movements[0].Kind)
	assertDecimal(t, "-5", movements[0].Delta)
	assert.Equal(t, "setup", movements[1].Kind)

	_, _, err = svc.Movements(ctx, uuid.New(), MovementListFilter{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInventoryService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newRiceFixture(t)
	svc, _ := newInventoryService(t, f)

	record, err := svc.Setup(ctx, SetupInventoryRequest{ProductID: f.productID, ShopID: f.shopID, UnitID: f.kg.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, record.ID))
	assert.Empty(t, f.store.Movements(record.ID))

	_, err = svc.GetByID(ctx, record.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, record.ID), shared.ErrNotFound)
}
