package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// CreatePurchaseRequest records stock bought in one of the product's buying units
type CreatePurchaseRequest struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	ShopID       uuid.UUID       `json:"shop_id" binding:"required"`
	UnitID       uuid.UUID       `json:"unit_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required,decimal_gt0"`
	OrderPrice   decimal.Decimal `json:"order_price" binding:"decimal_gte0"`
	PurchaseDate *time.Time      `json:"purchase_date"`
	SupplierName string          `json:"supplier_name" binding:"max=200"`
	MarketName   string          `json:"market_name" binding:"max=200"`
}

// UpdatePurchaseRequest replaces the details of a purchase. Product and
// shop are fixed once recorded.
type UpdatePurchaseRequest struct {
	UnitID       uuid.UUID       `json:"unit_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required,decimal_gt0"`
	OrderPrice   decimal.Decimal `json:"order_price" binding:"decimal_gte0"`
	PurchaseDate *time.Time      `json:"purchase_date"`
	SupplierName string          `json:"supplier_name" binding:"max=200"`
	MarketName   string          `json:"market_name" binding:"max=200"`
}

// PurchaseResponse represents a purchase in API responses
type PurchaseResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ShopID       uuid.UUID       `json:"shop_id"`
	UnitID       uuid.UUID       `json:"unit_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	OrderPrice   decimal.Decimal `json:"order_price"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	PurchaseDate time.Time       `json:"purchase_date"`
	SupplierName string          `json:"supplier_name,omitempty"`
	MarketName   string          `json:"market_name,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
}

// PurchaseSourceResponse is a supplier or market offered when recording a purchase
type PurchaseSourceResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CreateSaleRequest records stock sold in one of the product's selling units
type CreateSaleRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ShopID      uuid.UUID       `json:"shop_id" binding:"required"`
	UnitID      uuid.UUID       `json:"unit_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,decimal_gt0"`
	RetailPrice decimal.Decimal `json:"retail_price" binding:"decimal_gte0"`
	SaleDate    *time.Time      `json:"sale_date"`
}

// UpdateSaleRequest replaces the details of a sale
type UpdateSaleRequest struct {
	UnitID      uuid.UUID       `json:"unit_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,decimal_gt0"`
	RetailPrice decimal.Decimal `json:"retail_price" binding:"decimal_gte0"`
	SaleDate    *time.Time      `json:"sale_date"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ShopID      uuid.UUID       `json:"shop_id"`
	UnitID      uuid.UUID       `json:"unit_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	RetailPrice decimal.Decimal `json:"retail_price"`
	Revenue     decimal.Decimal `json:"revenue"`
	SaleDate    time.Time       `json:"sale_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// PostingListFilter represents filter options for purchase and sale lists.
// The date range is half-open: From <= date < To.
type PostingListFilter struct {
	ShopID    *uuid.UUID `form:"-"`
	ProductID *uuid.UUID `form:"-"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PriceSuggestionQuery asks for the last retail price of a product in a unit
type PriceSuggestionQuery struct {
	ProductID uuid.UUID `form:"-"`
	UnitID    uuid.UUID `form:"-"`
}

// PriceSuggestionResponse is the last retail price of a product in a unit.
// When the latest sale was in another unit its price is converted as a
// rate; RetailPrice is nil when the product was never sold.
type PriceSuggestionResponse struct {
	ProductID    uuid.UUID        `json:"product_id"`
	UnitID       uuid.UUID        `json:"unit_id"`
	RetailPrice  *decimal.Decimal `json:"retail_price"`
	SourceSaleID *uuid.UUID       `json:"source_sale_id,omitempty"`
	SourceUnitID *uuid.UUID       `json:"source_unit_id,omitempty"`
	Converted    bool             `json:"converted"`
}

// ToPurchaseResponse converts a domain purchase to a response
func ToPurchaseResponse(p *trade.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:           p.ID,
		ProductID:    p.ProductID,
		ShopID:       p.ShopID,
		UnitID:       p.UnitID,
		Quantity:     p.Quantity,
		OrderPrice:   p.Price,
		TotalCost:    p.TotalCost(),
		PurchaseDate: p.Date,
		SupplierName: p.SupplierName,
		MarketName:   p.MarketName,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Version:      p.Version,
	}
}

// ToPurchaseResponses converts domain purchases to responses
func ToPurchaseResponses(purchases []trade.Purchase) []PurchaseResponse {
	responses := make([]PurchaseResponse, len(purchases))
	for i := range purchases {
		responses[i] = ToPurchaseResponse(&purchases[i])
	}
	return responses
}

// ToPurchaseSourceResponses converts purchase sources to responses
func ToPurchaseSourceResponses(sources []trade.PurchaseSource) []PurchaseSourceResponse {
	responses := make([]PurchaseSourceResponse, len(sources))
	for i, src := range sources {
		responses[i] = PurchaseSourceResponse{Name: src.Name, Type: src.Type}
	}
	return responses
}

// ToSaleResponse converts a domain sale to a response
func ToSaleResponse(s *trade.Sale) SaleResponse {
	return SaleResponse{
		ID:          s.ID,
		ProductID:   s.ProductID,
		ShopID:      s.ShopID,
		UnitID:      s.UnitID,
		Quantity:    s.Quantity,
		RetailPrice: s.Price,
		Revenue:     s.Revenue(),
		SaleDate:    s.Date,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Version:     s.Version,
	}
}

// ToSaleResponses converts domain sales to responses
func ToSaleResponses(sales []trade.Sale) []SaleResponse {
	responses := make([]SaleResponse, len(sales))
	for i := range sales {
		responses[i] = ToSaleResponse(&sales[i])
	}
	return responses
}
