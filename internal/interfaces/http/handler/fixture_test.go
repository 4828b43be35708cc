package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	catalogapp "github.com/shopledger/backend/internal/application/catalog"
	inventoryapp "github.com/shopledger/backend/internal/application/inventory"
	reportapp "github.com/shopledger/backend/internal/application/report"
	tradeapp "github.com/shopledger/backend/internal/application/trade"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"github.com/shopledger/backend/tests/testutil"
)

// ledgerAPI is a gin engine serving every handler on top of an in-memory
// sqlite database
type ledgerAPI struct {
	engine *gin.Engine
	shopID uuid.UUID
}

func newLedgerAPI(t *testing.T) *ledgerAPI {
	t.Helper()

	db := testutil.NewSQLiteDB(t, models.AllModels()...)
	log := zap.NewNop()

	productRepo := persistence.NewGormProductRepository(db)
	unitRepo := persistence.NewGormUnitRepository(db)
	inventoryRepo := persistence.NewGormInventoryRecordRepository(db)
	movementRepo := persistence.NewGormMovementRepository(db)
	purchaseRepo := persistence.NewGormPurchaseRepository(db)
	saleRepo := persistence.NewGormSaleRepository(db)
	refs := persistence.NewGormReferenceChecker(db)
	scope := persistence.NewGormTransactionScope(db)
	ledger := inventoryapp.NewLedgerService(3, log)

	products := NewProductHandler(catalogapp.NewProductService(productRepo, refs, log))
	units := NewUnitHandler(catalogapp.NewUnitService(unitRepo, productRepo, refs, log))
	conversions := NewConversionHandler(catalogapp.NewConversionService(unitRepo))
	inventories := NewInventoryHandler(inventoryapp.NewInventoryService(scope, ledger, inventoryRepo, movementRepo, unitRepo, productRepo, log))
	purchases := NewPurchaseHandler(tradeapp.NewPurchaseService(scope, ledger, purchaseRepo, unitRepo, log))
	sales := NewSaleHandler(tradeapp.NewSaleService(scope, ledger, saleRepo, unitRepo, log))
	overview := NewOverviewHandler(reportapp.NewProfitService(productRepo, unitRepo, inventoryRepo, purchaseRepo, saleRepo, log))

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")

	api.POST("/products", products.Create)
	api.GET("/products", products.List)
	api.GET("/products/search", products.Search)
	api.GET("/products/:id", products.GetByID)
	api.PUT("/products/:id", products.Update)
	api.DELETE("/products/:id", products.Delete)

	api.POST("/units", units.CreatePair)
	api.POST("/units/linked", units.AddLinked)
	api.GET("/units", units.List)
	api.GET("/units/:id", units.GetByID)
	api.GET("/units/:id/paired", units.Paired)
	api.PUT("/units/:id", units.Update)
	api.DELETE("/units/:id", units.Delete)
	api.GET("/units/product/:product_id", units.ListByProduct)
	api.GET("/units/product/:product_id/info", units.Info)
	api.POST("/conversions", conversions.Convert)

	api.POST("/inventories", inventories.Setup)
	api.GET("/inventories", inventories.List)
	api.GET("/inventories/:id", inventories.GetByID)
	api.POST("/inventories/:id/reconcile", inventories.Reconcile)
	api.PUT("/inventories/:id/stock-limit", inventories.SetStockLimit)
	api.GET("/inventories/:id/display", inventories.Display)
	api.GET("/inventories/:id/movements", inventories.Movements)
	api.DELETE("/inventories/:id", inventories.Delete)

	api.POST("/purchases", purchases.Create)
	api.GET("/purchases", purchases.List)
	api.GET("/purchases/sources", purchases.Sources)
	api.GET("/purchases/:id", purchases.GetByID)
	api.PUT("/purchases/:id", purchases.Update)
	api.DELETE("/purchases/:id", purchases.Delete)

	api.POST("/sales", sales.Create)
	api.GET("/sales", sales.List)
	api.GET("/sales/price-suggestion", sales.PriceSuggestion)
	api.GET("/sales/:id", sales.GetByID)
	api.PUT("/sales/:id", sales.Update)
	api.DELETE("/sales/:id", sales.Delete)

	api.GET("/overview", overview.Overview)
	api.GET("/overview/profit", overview.Profit)
	api.GET("/overview/profit-conversion", overview.ProfitConversion)

	return &ledgerAPI{engine: engine, shopID: testutil.TestShopID()}
}

func (a *ledgerAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.PerformRequest(t, a.engine, method, "/api/v1"+path, body, nil)
}

func (a *ledgerAPI) doWithKey(t *testing.T, method, path string, body any, key string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.PerformRequest(t, a.engine, method, "/api/v1"+path, body,
		map[string]string{middleware.IdempotencyKeyHeader: key})
}

// riceFixture is a product sold by the kilogram and bought in 50 kg bags,
// with an empty inventory kept in kilograms
type riceFixture struct {
	productID   uuid.UUID
	bagID       uuid.UUID
	kgID        uuid.UUID
	inventoryID uuid.UUID
}

func (a *ledgerAPI) setupRice(t *testing.T) riceFixture {
	t.Helper()

	w := a.do(t, http.MethodPost, "/products", gin.H{"name": "Rice", "variety": "Basmati"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := testutil.ResponseData[catalogapp.ProductResponse](t, w)

	w = a.do(t, http.MethodPost, "/units", gin.H{
		"product_id":        product.ID,
		"buying_unit_type":  "bag",
		"selling_unit_type": "kg",
		"conversion_factor": "50",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pair := testutil.ResponseData[catalogapp.UnitPairResponse](t, w)

	w = a.do(t, http.MethodPost, "/inventories", gin.H{
		"product_id": product.ID,
		"shop_id":    a.shopID,
		"unit_id":    pair.SellingUnit.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	record := testutil.ResponseData[inventoryapp.InventoryResponse](t, w)

	return riceFixture{
		productID:   product.ID,
		bagID:       pair.BuyingUnit.ID,
		kgID:        pair.SellingUnit.ID,
		inventoryID: record.ID,
	}
}

func (a *ledgerAPI) stock(t *testing.T, inventoryID uuid.UUID) decimal.Decimal {
	t.Helper()
	w := a.do(t, http.MethodGet, "/inventories/"+inventoryID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return testutil.ResponseData[inventoryapp.InventoryResponse](t, w).CurrentStock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
