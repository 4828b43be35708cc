package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/tests/testutil"
)

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type riceFixture struct {
	store     *testutil.LedgerStore
	scope     *NoOpTransactionScope
	ledger    *LedgerService
	publisher *recordingPublisher
	productID uuid.UUID
	shopID    uuid.UUID
	bag       *catalog.Unit
	kg        *catalog.Unit
}

func newRiceFixture(t *testing.T) *riceFixture {
	t.Helper()
	productID := uuid.New()
	bag, kg, err := catalog.NewUnitPair(productID, "bag", "kg", decimal.NewFromInt(50), true, false)
	require.NoError(t, err)

	store := testutil.NewLedgerStore()
	store.AddUnits(bag, kg)

	publisher := &recordingPublisher{}
	ledger := NewLedgerService(DefaultMaxRetries, zaptest.NewLogger(t))
	ledger.SetEventPublisher(publisher)

	return &riceFixture{
		store:     store,
		scope:     NewNoOpTransactionScope(store.Inventory(), store.MovementLog(), store.Units(), store.Purchases(), store.Sales()),
		ledger:    ledger,
		publisher: publisher,
		productID: productID,
		shopID:    uuid.New(),
		bag:       bag,
		kg:        kg,
	}
}

func (f *riceFixture) setupIn(t *testing.T, unit *catalog.Unit) *inventory.InventoryRecord {
	t.Helper()
	record, err := f.ledger.Setup(context.Background(), f.scope, SetupInput{
		ProductID: f.productID,
		ShopID:    f.shopID,
		UnitID:    unit.ID,
	})
	require.NoError(t, err)
	return record
}

func (f *riceFixture) setupInKg(t *testing.T) *inventory.InventoryRecord {
	t.Helper()
	return f.setupIn(t, f.kg)
}

func (f *riceFixture) sell(qty int64, unit *catalog.Unit) (*inventory.InventoryRecord, error) {
	return f.ledger.ApplySale(context.Background(), f.scope, ApplySaleInput{
		ProductID: f.productID,
		ShopID:    f.shopID,
		UnitID:    unit.ID,
		Quantity:  decimal.NewFromInt(qty),
		SourceID:  uuid.New(),
	})
}

func (f *riceFixture) buy(qty int64, unit *catalog.Unit) (*inventory.InventoryRecord, error) {
	return f.ledger.ApplyPurchase(context.Background(), f.scope, ApplyPurchaseInput{
		ProductID: f.productID,
		ShopID:    f.shopID,
		UnitID:    unit.ID,
		Quantity:  decimal.NewFromInt(qty),
		SourceID:  uuid.New(),
	})
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestLedger_RiceScenario(t *testing.T) {
	f := newRiceFixture(t)
	ctx := context.Background()
	record := f.setupInKg(t)

	_, err := f.buy(2, f.bag)
	require.NoError(t, err)

	after, err := f.sell(30, f.kg)
	require.NoError(t, err)
	assertDecimal(t, "70", after.CurrentStock)

	_, err = f.sell(100, f.kg)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	current, err := f.store.Inventory().FindByID(ctx, record.ID)
	require.NoError(t, err)
	assertDecimal(t, "70", current.CurrentStock)

	reconciled, err := f.ledger.Reconcile(ctx, f.scope, record.ID, decimal.NewFromInt(65), nil)
	require.NoError(t, err)
	assertDecimal(t, "65", reconciled.CurrentStock)

	movements := f.store.Movements(record.ID)
	require.Len(t, movements, 4)
	kinds := []inventory.MovementKind{movements[0].Kind, movements[1].Kind, movements[2].Kind, movements[3].Kind}
	assert.Equal(t, []inventory.MovementKind{
		inventory.MovementSetup, inventory.MovementPurchase, inventory.MovementSale, inventory.MovementReconcile,
	}, kinds)
	assertDecimal(t, "100", movements[1].Delta)
	assertDecimal(t, "-30", movements[2].Delta)
	assertDecimal(t, "-5", movements[3].Delta)
	assertDecimal(t, "65", movements[3].BalanceAfter)
}

func TestLedger_ApplyPurchase(t *testing.T) {
	t.Run("without a record there is no inventory unit", func(t *testing.T) {
		f := newRiceFixture(t)
		_, err := f.buy(2, f.bag)
		assert.ErrorIs(t, err, shared.ErrUnitNotDefined)

		_, err = f.store.Inventory().FindByProductAndShop(context.Background(), f.productID, f.shopID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Empty(t, f.publisher.types())
	})

	t.Run("adds in the inventory unit", func(t *testing.T) {
		f := newRiceFixture(t)
		f.setupIn(t, f.bag)
		record, err := f.buy(2, f.bag)
		require.NoError(t, err)
		assert.Equal(t, f.bag.ID, record.UnitID)
		assertDecimal(t, "2", record.CurrentStock)
	})

	t.Run("unit of another product", func(t *testing.T) {
		f := newRiceFixture(t)
		stranger, err := catalog.NewUnit(uuid.New(), "crate", catalog.UnitCategoryBuying, false)
		require.NoError(t, err)
		f.store.AddUnits(stranger)

		_, err = f.buy(1, stranger)
		assert.ErrorIs(t, err, shared.ErrUnitNotDefined)
	})

	t.Run("publishes received event only after Publish", func(t *testing.T) {
		f := newRiceFixture(t)
		f.setupIn(t, f.bag)
		record, err := f.buy(1, f.bag)
		require.NoError(t, err)
		assert.Empty(t, f.publisher.types())

		f.ledger.Publish(context.Background(), record)
		assert.Equal(t, []string{inventory.EventTypeStockReceived}, f.publisher.types())
		assert.Empty(t, record.GetDomainEvents())
	})
}

func TestLedger_ApplySale(t *testing.T) {
	t.Run("without a record there is no inventory unit", func(t *testing.T) {
		f := newRiceFixture(t)
		_, err := f.sell(1, f.kg)
		assert.ErrorIs(t, err, shared.ErrUnitNotDefined)
	})

	t.Run("converts selling units into a bag-based record", func(t *testing.T) {
		f := newRiceFixture(t)
		f.setupIn(t, f.bag)
		_, err := f.buy(2, f.bag)
		require.NoError(t, err)

		record, err := f.sell(25, f.kg)
		require.NoError(t, err)
		assertDecimal(t, "1.5", record.CurrentStock)
	})

	t.Run("stock never goes negative", func(t *testing.T) {
		f := newRiceFixture(t)
		f.setupIn(t, f.bag)
		_, err := f.buy(1, f.bag)
		require.NoError(t, err)

		_, err = f.sell(51, f.kg)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		record, err := f.sell(50, f.kg)
		require.NoError(t, err)
		assert.True(t, record.CurrentStock.IsZero())
	})
}

func TestLedger_RetriesOnConcurrentWrite(t *testing.T) {
	f := newRiceFixture(t)
	ctx := context.Background()
	record := f.setupInKg(t)
	_, err := f.buy(2, f.bag)
	require.NoError(t, err)

	// Another sale commits between our read and our write
	f.store.Interfere(func(stored *inventory.InventoryRecord) {
		stored.CurrentStock = stored.CurrentStock.Sub(decimal.NewFromInt(10))
		stored.Version++
	})

	after, err := f.sell(30, f.kg)
	require.NoError(t, err)
	assertDecimal(t, "60", after.CurrentStock)
	assert.Equal(t, 1, f.store.Conflicts())

	current, err := f.store.Inventory().FindByID(ctx, record.ID)
	require.NoError(t, err)
	assertDecimal(t, "60", current.CurrentStock)
}

func TestLedger_GivesUpAfterMaxRetries(t *testing.T) {
	f := newRiceFixture(t)
	f.ledger = NewLedgerService(1, zaptest.NewLogger(t))
	f.setupInKg(t)

	f.store.Interfere(func(stored *inventory.InventoryRecord) { stored.Version++ })

	_, err := f.buy(1, f.bag)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestLedger_Revert(t *testing.T) {
	f := newRiceFixture(t)
	ctx := context.Background()
	record := f.setupInKg(t)
	purchaseID := uuid.New()

	_, err := f.ledger.ApplyPurchase(ctx, f.scope, ApplyPurchaseInput{
		ProductID: f.productID, ShopID: f.shopID, UnitID: f.bag.ID,
		Quantity: decimal.NewFromInt(2), SourceID: purchaseID,
	})
	require.NoError(t, err)
	saleID := uuid.New()
	_, err = f.ledger.ApplySale(ctx, f.scope, ApplySaleInput{
		ProductID: f.productID, ShopID: f.shopID, UnitID: f.kg.ID,
		Quantity: decimal.NewFromInt(80), SourceID: saleID,
	})
	require.NoError(t, err)

	t.Run("reversal that would go negative is refused", func(t *testing.T) {
		_, err := f.ledger.Revert(ctx, f.scope, RevertInput{
			ProductID: f.productID, ShopID: f.shopID, UnitID: f.bag.ID,
			Delta: decimal.NewFromInt(-2), SourceID: purchaseID,
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		current, err := f.store.Inventory().FindByID(ctx, record.ID)
		require.NoError(t, err)
		assertDecimal(t, "20", current.CurrentStock)
	})

	t.Run("reversal of a sale returns stock", func(t *testing.T) {
		reverted, err := f.ledger.Revert(ctx, f.scope, RevertInput{
			ProductID: f.productID, ShopID: f.shopID, UnitID: f.kg.ID,
			Delta: decimal.NewFromInt(80), SourceID: saleID,
		})
		require.NoError(t, err)
		assertDecimal(t, "100", reverted.CurrentStock)

		movements := f.store.Movements(record.ID)
		last := movements[len(movements)-1]
		assert.Equal(t, inventory.MovementReversal, last.Kind)
		assertDecimal(t, "80", last.Delta)
	})

	t.Run("posting the record never took is not reverted", func(t *testing.T) {
		reverted, err := f.ledger.Revert(ctx, f.scope, RevertInput{
			ProductID: f.productID, ShopID: f.shopID, UnitID: f.bag.ID,
			Delta: decimal.NewFromInt(-1), SourceID: uuid.New(),
		})
		require.NoError(t, err)
		assert.Nil(t, reverted)

		current, err := f.store.Inventory().FindByID(ctx, record.ID)
		require.NoError(t, err)
		assertDecimal(t, "100", current.CurrentStock)
	})

	t.Run("without a record nothing is reverted", func(t *testing.T) {
		reverted, err := f.ledger.Revert(ctx, f.scope, RevertInput{
			ProductID: f.productID, ShopID: uuid.New(), UnitID: f.kg.ID,
			Delta: decimal.NewFromInt(-5), SourceID: uuid.New(),
		})
		require.NoError(t, err)
		assert.Nil(t, reverted)
	})
}

func TestLedger_Reconcile(t *testing.T) {
	f := newRiceFixture(t)
	ctx := context.Background()
	record := f.setupInKg(t)

	t.Run("count taken in another unit is converted", func(t *testing.T) {
		reconciled, err := f.ledger.Reconcile(ctx, f.scope, record.ID, decimal.RequireFromString("1.3"), &f.bag.ID)
		require.NoError(t, err)
		assertDecimal(t, "65", reconciled.CurrentStock)
	})

	t.Run("negative count is rejected", func(t *testing.T) {
		_, err := f.ledger.Reconcile(ctx, f.scope, record.ID, decimal.NewFromInt(-1), nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := f.ledger.Reconcile(ctx, f.scope, uuid.New(), decimal.NewFromInt(1), nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestLedger_StockLimit(t *testing.T) {
	f := newRiceFixture(t)
	ctx := context.Background()
	record := f.setupInKg(t)
	_, err := f.buy(2, f.bag)
	require.NoError(t, err)

	_, err = f.ledger.SetStockLimit(ctx, f.scope, record.ID, decimal.NewFromInt(1), &f.bag.ID)
	require.NoError(t, err)

	above, err := f.sell(40, f.kg)
	require.NoError(t, err)
	f.ledger.Publish(ctx, above)
	assert.NotContains(t, f.publisher.types(), inventory.EventTypeStockBelowLimit)

	below, err := f.sell(20, f.kg)
	require.NoError(t, err)
	f.ledger.Publish(ctx, below)
	assert.Contains(t, f.publisher.types(), inventory.EventTypeStockBelowLimit)

	t.Run("limit in a unit of another product", func(t *testing.T) {
		stranger, err := catalog.NewUnit(uuid.New(), "crate", catalog.UnitCategoryBuying, false)
		require.NoError(t, err)
		f.store.AddUnits(stranger)

		_, err = f.ledger.SetStockLimit(ctx, f.scope, record.ID, decimal.NewFromInt(1), &stranger.ID)
		assert.ErrorIs(t, err, shared.ErrUnitNotDefined)
	})
}

func TestLedger_HoldsOnlyPostingsOfTheCurrentRecord(t *testing.T) {
	f := newRiceFixture(t)
	ctx := context.Background()
	record := f.setupInKg(t)
	purchaseID := uuid.New()
	_, err := f.ledger.ApplyPurchase(ctx, f.scope, ApplyPurchaseInput{
		ProductID: f.productID, ShopID: f.shopID, UnitID: f.bag.ID,
		Quantity: decimal.NewFromInt(1), SourceID: purchaseID,
	})
	require.NoError(t, err)

	held, err := f.ledger.Holds(ctx, f.scope, f.productID, f.shopID, purchaseID)
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, f.store.Inventory().Delete(ctx, record.ID))
	held, err = f.ledger.Holds(ctx, f.scope, f.productID, f.shopID, purchaseID)
	require.NoError(t, err)
	assert.False(t, held)

	f.setupInKg(t)
	held, err = f.ledger.Holds(ctx, f.scope, f.productID, f.shopID, purchaseID)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestLedger_SetupRejectsDuplicate(t *testing.T) {
	f := newRiceFixture(t)
	f.setupInKg(t)

	_, err := f.ledger.Setup(context.Background(), f.scope, SetupInput{
		ProductID: f.productID,
		ShopID:    f.shopID,
		UnitID:    f.bag.ID,
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}
