package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/domain/trade"
	"github.com/shopledger/backend/tests/testutil"
)

// MockProductRepository mocks the product lookups of the profit service
type MockProductRepository struct {
	catalog.ProductRepository
	mock.Mock
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

type profitFixture struct {
	store   *testutil.LedgerStore
	service *ProfitService
	shopID  uuid.UUID
	rice    *catalog.Product
	bag     *catalog.Unit
	kg      *catalog.Unit
}

// Wednesday of the week starting Monday 2026-03-02
var profitNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func newProfitFixture(t *testing.T) *profitFixture {
	t.Helper()
	rice, err := catalog.NewProduct("Rice", "Jasmine", "", "")
	require.NoError(t, err)
	bag, kg, err := catalog.NewUnitPair(rice.ID, "bag", "kg", decimal.NewFromInt(50), true, false)
	require.NoError(t, err)

	store := testutil.NewLedgerStore()
	store.AddUnits(bag, kg)

	shopID := uuid.New()
	record, err := inventory.NewInventoryRecord(rice.ID, shopID, kg.ID)
	require.NoError(t, err)
	require.NoError(t, store.Inventory().Create(context.Background(), record))

	products := new(MockProductRepository)
	products.On("FindByIDs", mock.Anything, mock.Anything).Return([]catalog.Product{*rice}, nil)

	service := NewProfitService(products, store.Units(), store.Inventory(), store.Purchases(), store.Sales(), zaptest.NewLogger(t))
	return &profitFixture{store: store, service: service, shopID: shopID, rice: rice, bag: bag, kg: kg}
}

func (f *profitFixture) purchase(t *testing.T, productID uuid.UUID, unit *catalog.Unit, qty, price string, at time.Time) {
	t.Helper()
	p, err := trade.NewPurchase(trade.Posting{
		ProductID: productID,
		ShopID:    f.shopID,
		UnitID:    unit.ID,
		Quantity:  decimal.RequireFromString(qty),
		Price:     decimal.RequireFromString(price),
		Date:      at,
	}, "", "")
	require.NoError(t, err)
	require.NoError(t, f.store.Purchases().Save(context.Background(), p))
}

func (f *profitFixture) sale(t *testing.T, productID uuid.UUID, unit *catalog.Unit, qty, price string, at time.Time) {
	t.Helper()
	s, err := trade.NewSale(trade.Posting{
		ProductID: productID,
		ShopID:    f.shopID,
		UnitID:    unit.ID,
		Quantity:  decimal.RequireFromString(qty),
		Price:     decimal.RequireFromString(price),
		Date:      at,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Sales().Save(context.Background(), s))
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestProfitService_Overview(t *testing.T) {
	f := newProfitFixture(t)

	// One bag bought for 100, 40 kg sold at 2: a loss of 20 this week
	f.purchase(t, f.rice.ID, f.bag, "1", "100", profitNow.Add(-24*time.Hour))
	f.sale(t, f.rice.ID, f.kg, "40", "2", profitNow.Add(-time.Hour))
	// Previous week
	f.sale(t, f.rice.ID, f.kg, "5", "3", profitNow.AddDate(0, 0, -7))

	overview, err := f.service.Overview(context.Background(), f.shopID, profitNow)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), overview.ThisWeek.Window.Start)
	require.Len(t, overview.ThisWeek.Entries, 1)
	week := overview.ThisWeek.Entries[0]
	assertDecimal(t, "80", week.Revenue)
	assertDecimal(t, "100", week.Cost)
	assertDecimal(t, "-20", week.Profit)
	assertDecimal(t, "50", week.PurchasedQuantity)
	assertDecimal(t, "40", week.SoldQuantity)
	assertDecimal(t, "-20", overview.ThisWeek.TotalProfit)

	require.Len(t, overview.PreviousWeek.Entries, 1)
	assertDecimal(t, "15", overview.PreviousWeek.Entries[0].Profit)

	require.Len(t, overview.Totals, 1)
	assert.Equal(t, f.kg.ID, overview.Totals[0].InventoryUnitID)
	assertDecimal(t, "50", overview.Totals[0].PurchasedQuantity)
	assertDecimal(t, "45", overview.Totals[0].SoldQuantity)
	assert.Empty(t, overview.Errors)
}

func TestProfitService_OverviewReportsUnstockedProducts(t *testing.T) {
	f := newProfitFixture(t)

	flourID := uuid.New()
	sack, cup, err := catalog.NewUnitPair(flourID, "sack", "cup", decimal.NewFromInt(100), true, false)
	require.NoError(t, err)
	f.store.AddUnits(sack, cup)
	f.sale(t, flourID, cup, "3", "1", profitNow)
	f.sale(t, f.rice.ID, f.kg, "1", "2", profitNow)

	overview, err := f.service.Overview(context.Background(), f.shopID, profitNow)
	require.NoError(t, err)

	require.Len(t, overview.ThisWeek.Entries, 1)
	assert.Equal(t, f.rice.ID, overview.ThisWeek.Entries[0].ProductID)
	require.Len(t, overview.Errors, 1)
	assert.Equal(t, flourID, overview.Errors[0].ProductID)
	assert.Equal(t, shared.CodeUnitNotDefined, overview.Errors[0].Code)
}

func TestProfitService_EmptyShop(t *testing.T) {
	store := testutil.NewLedgerStore()
	service := NewProfitService(new(MockProductRepository), store.Units(), store.Inventory(), store.Purchases(), store.Sales(), nil)

	overview, err := service.Overview(context.Background(), uuid.New(), profitNow)
	require.NoError(t, err)
	assert.Empty(t, overview.ThisWeek.Entries)
	assert.Empty(t, overview.Totals)
	assertDecimal(t, "0", overview.ThisWeek.TotalProfit)
}

func TestProfitService_WeekStartsOnConfiguredDay(t *testing.T) {
	f := newProfitFixture(t)
	f.service.WithCalendar(time.Sunday, time.UTC)

	overview, err := f.service.Overview(context.Background(), f.shopID, profitNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), overview.ThisWeek.Window.Start)
	assert.Equal(t, time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC), overview.PreviousWeek.Window.Start)
}

func TestProfitService_ConvertProfitToUnit(t *testing.T) {
	f := newProfitFixture(t)
	ctx := context.Background()

	resp, err := f.service.ConvertProfitToUnit(ctx, ProfitConversionQuery{
		Profit:          decimal.RequireFromString("-0.5"),
		InventoryUnitID: f.kg.ID,
		TargetUnitID:    f.bag.ID,
	})
	require.NoError(t, err)
	assertDecimal(t, "-25", resp.ConvertedProfit)

	otherProduct := uuid.New()
	stranger, err := catalog.NewUnit(otherProduct, "crate", catalog.UnitCategoryBuying, false)
	require.NoError(t, err)
	f.store.AddUnits(stranger)

	_, err = f.service.ConvertProfitToUnit(ctx, ProfitConversionQuery{
		Profit:          decimal.NewFromInt(1),
		InventoryUnitID: f.kg.ID,
		TargetUnitID:    stranger.ID,
	})
	assert.ErrorIs(t, err, shared.ErrUnitNotDefined)
}
