package router

import (
	"github.com/shopledger/backend/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers mounted under the versioned API
type Handlers struct {
	Products    *handler.ProductHandler
	Units       *handler.UnitHandler
	Conversions *handler.ConversionHandler
	Inventories *handler.InventoryHandler
	Purchases   *handler.PurchaseHandler
	Sales       *handler.SaleHandler
	Overview    *handler.OverviewHandler
	System      *handler.SystemHandler
}

// APIGroups builds the resource route groups of the ledger API
func APIGroups(h Handlers) []*DomainGroup {
	products := NewDomainGroup("products", "/products")
	products.POST("", h.Products.Create)
	products.GET("", h.Products.List)
	products.GET("/search", h.Products.Search)
	products.GET("/:id", h.Products.GetByID)
	products.PUT("/:id", h.Products.Update)
	products.DELETE("/:id", h.Products.Delete)

	units := NewDomainGroup("units", "/units")
	units.POST("", h.Units.CreatePair)
	units.POST("/linked", h.Units.AddLinked)
	units.GET("", h.Units.List)
	units.GET("/:id", h.Units.GetByID)
	units.GET("/:id/paired", h.Units.Paired)
	units.PUT("/:id", h.Units.Update)
	units.DELETE("/:id", h.Units.Delete)
	byProduct := units.Group("units-by-product", "/product/:product_id")
	byProduct.GET("", h.Units.ListByProduct)
	byProduct.GET("/info", h.Units.Info)

	conversions := NewDomainGroup("conversions", "/conversions")
	conversions.POST("", h.Conversions.Convert)

	inventories := NewDomainGroup("inventories", "/inventories")
	inventories.POST("", h.Inventories.Setup)
	inventories.GET("", h.Inventories.List)
	inventories.GET("/:id", h.Inventories.GetByID)
	inventories.POST("/:id/reconcile", h.Inventories.Reconcile)
	inventories.PUT("/:id/stock-limit", h.Inventories.SetStockLimit)
	inventories.GET("/:id/display", h.Inventories.Display)
	inventories.GET("/:id/movements", h.Inventories.Movements)
	inventories.DELETE("/:id", h.Inventories.Delete)

	purchases := NewDomainGroup("purchases", "/purchases")
	purchases.POST("", h.Purchases.Create)
	purchases.GET("", h.Purchases.List)
	purchases.GET("/sources", h.Purchases.Sources)
	purchases.GET("/:id", h.Purchases.GetByID)
	purchases.PUT("/:id", h.Purchases.Update)
	purchases.DELETE("/:id", h.Purchases.Delete)

	sales := NewDomainGroup("sales", "/sales")
	sales.POST("", h.Sales.Create)
	sales.GET("", h.Sales.List)
	sales.GET("/price-suggestion", h.Sales.PriceSuggestion)
	sales.GET("/:id", h.Sales.GetByID)
	sales.PUT("/:id", h.Sales.Update)
	sales.DELETE("/:id", h.Sales.Delete)

	overview := NewDomainGroup("overview", "/overview")
	overview.GET("", h.Overview.Overview)
	overview.GET("/profit", h.Overview.Profit)
	overview.GET("/profit-conversion", h.Overview.ProfitConversion)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	return []*DomainGroup{products, units, conversions, inventories, purchases, sales, overview, system}
}
