package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appinv "github.com/shopledger/backend/internal/application/inventory"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/domain/trade"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopledger/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGormTransactionScope_RiceScenario(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t, models.AllModels()...)
	scope := NewGormTransactionScope(db)
	ledger := appinv.NewLedgerService(3, zap.NewNop())

	productID := uuid.New()
	shopID := testutil.TestShopID()
	bag, kg, err := catalog.NewUnitPair(productID, "bag", "kg", decimal.NewFromInt(50), true, false)
	require.NoError(t, err)
	require.NoError(t, NewGormUnitRepository(db).SaveBatch(ctx, []*catalog.Unit{bag, kg}))

	// a purchase needs the record first
	err = scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		_, err := ledger.ApplyPurchase(ctx, repos, appinv.ApplyPurchaseInput{
			ProductID: productID, ShopID: shopID, UnitID: bag.ID,
			Quantity: decimal.NewFromInt(2), SourceID: uuid.New(),
		})
		return err
	})
	require.ErrorIs(t, err, shared.ErrUnitNotDefined)

	err = scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		_, err := ledger.Setup(ctx, repos, appinv.SetupInput{ProductID: productID, ShopID: shopID, UnitID: bag.ID})
		return err
	})
	require.NoError(t, err)

	// 2 bags received are tracked as 100 kg
	err = scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		record, err := ledger.ApplyPurchase(ctx, repos, appinv.ApplyPurchaseInput{
			ProductID: productID, ShopID: shopID, UnitID: bag.ID,
			Quantity: decimal.NewFromInt(2), SourceID: uuid.New(),
		})
		if err != nil {
			return err
		}
		assert.Equal(t, bag.ID, record.UnitID)
		return nil
	})
	require.NoError(t, err)

	records := NewGormInventoryRecordRepository(db)
	stock := func() decimal.Decimal {
		r, err := records.FindByProductAndShop(ctx, productID, shopID)
		require.NoError(t, err)
		graph := catalog.NewUnitGraph([]catalog.Unit{*bag, *kg})
		q, err := graph.ConvertQuantity(r.CurrentStock, r.UnitID, kg.ID)
		require.NoError(t, err)
		return q
	}
	assert.True(t, stock().Equal(decimal.NewFromInt(100)), "got %s", stock())

	sellKg := func(qty int64, before func(repos appinv.TransactionalRepositories) error) error {
		return scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
			if before != nil {
				if err := before(repos); err != nil {
					return err
				}
			}
			_, err := ledger.ApplySale(ctx, repos, appinv.ApplySaleInput{
				ProductID: productID, ShopID: shopID, UnitID: kg.ID,
				Quantity: decimal.NewFromInt(qty), SourceID: uuid.New(),
			})
			return err
		})
	}

	require.NoError(t, sellKg(30, nil))
	assert.True(t, stock().Equal(decimal.NewFromInt(70)))

	// an oversell rolls back everything written in the same transaction
	err = sellKg(100, func(repos appinv.TransactionalRepositories) error {
		sale, err := trade.NewSale(trade.Posting{
			ProductID: productID, ShopID: shopID, UnitID: kg.ID,
			Quantity: decimal.NewFromInt(100), Price: decimal.NewFromInt(12), Date: tradeDay,
		})
		if err != nil {
			return err
		}
		return repos.SaleRepo().Save(ctx, sale)
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, stock().Equal(decimal.NewFromInt(70)))

	sales, err := NewGormSaleRepository(db).FindByShop(ctx, shopID)
	require.NoError(t, err)
	assert.Empty(t, sales)

	record, err := records.FindByProductAndShop(ctx, productID, shopID)
	require.NoError(t, err)
	_, total, err := NewGormMovementRepository(db).FindByInventory(ctx, record.ID, shared.DefaultFilter())
	require.NoError(t, err)
	// setup, purchase and the first sale
	assert.Equal(t, int64(3), total)
}
