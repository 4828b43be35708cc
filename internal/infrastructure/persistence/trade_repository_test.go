package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/domain/trade"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopledger/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tradeDay = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func posting(productID, unitID uuid.UUID, qty, price int64, date time.Time) trade.Posting {
	return trade.Posting{
		ProductID: productID,
		ShopID:    testutil.TestShopID(),
		UnitID:    unitID,
		Quantity:  decimal.NewFromInt(qty),
		Price:     decimal.NewFromInt(price),
		Date:      date,
	}
}

func TestGormPurchaseRepository(t *testing.T) {
	ctx := context.Background()
	productID, bagID := uuid.New(), uuid.New()

	t.Run("round trip with supplier", func(t *testing.T) {
		repo := NewGormPurchaseRepository(testutil.NewSQLiteDB(t, models.AllModels()...))

		p, err := trade.NewPurchase(posting(productID, bagID, 2, 500, tradeDay), "Acme Mills", "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, p))

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Mills", found.SupplierName)
		assert.Empty(t, found.MarketName)
		assert.True(t, found.Quantity.Equal(decimal.NewFromInt(2)))
		assert.True(t, found.Price.Equal(decimal.NewFromInt(500)))
		assert.True(t, found.Date.Equal(tradeDay))
		assert.Empty(t, found.IdempotencyKey)
	})

	t.Run("idempotency key lookup and uniqueness", func(t *testing.T) {
		repo := NewGormPurchaseRepository(testutil.NewSQLiteDB(t, models.AllModels()...))

		first, err := trade.NewPurchase(posting(productID, bagID, 1, 10, tradeDay), "", "Central")
		require.NoError(t, err)
		first.IdempotencyKey = "req-1"
		require.NoError(t, repo.Save(ctx, first))

		found, err := repo.FindByIdempotencyKey(ctx, "req-1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)

		_, err = repo.FindByIdempotencyKey(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		again, err := trade.NewPurchase(posting(productID, bagID, 1, 10, tradeDay), "", "Central")
		require.NoError(t, err)
		again.IdempotencyKey = "req-1"
		assert.ErrorIs(t, repo.Save(ctx, again), shared.ErrAlreadyExists)

		// empty keys are stored as NULL and never collide
		for range 2 {
			p, err := trade.NewPurchase(posting(productID, bagID, 1, 10, tradeDay), "", "")
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, p))
		}
	})

	t.Run("date range is half open", func(t *testing.T) {
		repo := NewGormPurchaseRepository(testutil.NewSQLiteDB(t, models.AllModels()...))

		for i := range 3 {
			p, err := trade.NewPurchase(posting(productID, bagID, 1, 10, tradeDay.AddDate(0, 0, i)), "", "")
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, p))
		}

		from := tradeDay
		to := tradeDay.AddDate(0, 0, 2)
		between, err := repo.FindByShopBetween(ctx, testutil.TestShopID(), from, to)
		require.NoError(t, err)
		assert.Len(t, between, 2)

		filter := shared.DefaultFilter()
		filter.Filters["shop_id"] = testutil.TestShopID()
		filter.Filters["from"] = from.AddDate(0, 0, 1)
		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		all, err := repo.FindByShop(ctx, testutil.TestShopID())
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.True(t, all[0].Date.Before(all[2].Date))
	})

	t.Run("sources are distinct per type", func(t *testing.T) {
		repo := NewGormPurchaseRepository(testutil.NewSQLiteDB(t, models.AllModels()...))
		otherShop := uuid.New()

		for _, src := range []struct {
			shop             uuid.UUID
			supplier, market string
		}{
			{testutil.TestShopID(), "Zeta Foods", ""},
			{testutil.TestShopID(), "Acme Mills", ""},
			{testutil.TestShopID(), "Acme Mills", ""},
			{testutil.TestShopID(), "", "Central"},
			{testutil.TestShopID(), "", ""},
			{otherShop, "Harbor Traders", ""},
		} {
			entry := posting(productID, bagID, 1, 10, tradeDay)
			entry.ShopID = src.shop
			p, err := trade.NewPurchase(entry, src.supplier, src.market)
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, p))
		}

		shopID := testutil.TestShopID()
		sources, err := repo.FindSources(ctx, &shopID)
		require.NoError(t, err)
		assert.Equal(t, []trade.PurchaseSource{
			{Name: "Acme Mills", Type: trade.SourceSupplier},
			{Name: "Zeta Foods", Type: trade.SourceSupplier},
			{Name: "Central", Type: trade.SourceMarket},
		}, sources)

		all, err := repo.FindSources(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 4)

		none, err := repo.FindSources(ctx, &otherShop)
		require.NoError(t, err)
		assert.Equal(t, []trade.PurchaseSource{{Name: "Harbor Traders", Type: trade.SourceSupplier}}, none)
	})
}

func TestGormSaleRepository(t *testing.T) {
	ctx := context.Background()
	productID, kgID, gramID := uuid.New(), uuid.New(), uuid.New()

	t.Run("latest sale per product and unit", func(t *testing.T) {
		repo := NewGormSaleRepository(testutil.NewSQLiteDB(t, models.AllModels()...))

		for i, price := range []int64{12, 14} {
			s, err := trade.NewSale(posting(productID, kgID, 1, price, tradeDay.AddDate(0, 0, i)))
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, s))
		}
		other, err := trade.NewSale(posting(productID, gramID, 500, 1, tradeDay.AddDate(0, 0, 5)))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, other))

		latest, err := repo.FindLatestByProductAndUnit(ctx, productID, kgID)
		require.NoError(t, err)
		assert.True(t, latest.Price.Equal(decimal.NewFromInt(14)))

		_, err = repo.FindLatestByProductAndUnit(ctx, uuid.New(), kgID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("paged listing newest first", func(t *testing.T) {
		repo := NewGormSaleRepository(testutil.NewSQLiteDB(t, models.AllModels()...))

		for i := range 5 {
			s, err := trade.NewSale(posting(productID, kgID, 1, int64(10+i), tradeDay.AddDate(0, 0, i)))
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, s))
		}

		filter := shared.DefaultFilter()
		filter.OrderBy = "sale_date"
		filter.PageSize = 2
		filter.Page = 2
		filter.Filters["product_id"] = productID

		sales, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, sales, 2)
		assert.True(t, sales[0].Price.Equal(decimal.NewFromInt(12)))
		assert.True(t, sales[1].Price.Equal(decimal.NewFromInt(11)))
	})

	t.Run("amend and delete", func(t *testing.T) {
		repo := NewGormSaleRepository(testutil.NewSQLiteDB(t, models.AllModels()...))

		s, err := trade.NewSale(posting(productID, kgID, 3, 12, tradeDay))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, s))

		require.NoError(t, s.Amend(posting(productID, kgID, 4, 12, tradeDay)))
		require.NoError(t, repo.Save(ctx, s))

		found, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.True(t, found.Quantity.Equal(decimal.NewFromInt(4)))
		assert.Equal(t, 2, found.Version)

		require.NoError(t, repo.Delete(ctx, s.ID))
		assert.ErrorIs(t, repo.Delete(ctx, s.ID), shared.ErrNotFound)
	})
}
