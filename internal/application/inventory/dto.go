package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// InventoryResponse represents an inventory record in API responses
type InventoryResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ShopID           uuid.UUID       `json:"shop_id"`
	CurrentStock     decimal.Decimal `json:"current_stock"`
	UnitID           uuid.UUID       `json:"unit_id"`
	UnitType         string          `json:"unit_type,omitempty"`
	StockLimit       decimal.Decimal `json:"stock_limit"`
	StockLimitUnitID uuid.UUID       `json:"stock_limit_unit_id"`
	IsLowStock       bool            `json:"is_low_stock"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// InventoryListFilter represents filter options for inventory list
type InventoryListFilter struct {
	ShopID    *uuid.UUID `form:"-"`
	ProductID *uuid.UUID `form:"-"`
	LowStock  bool       `form:"low_stock"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SetupInventoryRequest creates the record of a product in a shop.
// InitialStock is counted in InitialUnitID, or in UnitID when omitted.
type SetupInventoryRequest struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	ShopID        uuid.UUID       `json:"shop_id" binding:"required"`
	UnitID        uuid.UUID       `json:"unit_id" binding:"required"`
	InitialStock  decimal.Decimal `json:"initial_stock" binding:"decimal_gte0"`
	InitialUnitID *uuid.UUID      `json:"initial_unit_id"`
	StockLimit    decimal.Decimal `json:"stock_limit" binding:"decimal_gte0"`
	LimitUnitID   *uuid.UUID      `json:"stock_limit_unit_id"`
}

// ReconcileRequest overwrites stock with a physical count taken in UnitID
// (the inventory unit when omitted)
type ReconcileRequest struct {
	ActualStock decimal.Decimal `json:"actual_stock" binding:"required,decimal_gte0"`
	UnitID      *uuid.UUID      `json:"unit_id"`
}

// SetStockLimitRequest sets the reorder threshold in UnitID
// (the inventory unit when omitted)
type SetStockLimitRequest struct {
	StockLimit decimal.Decimal `json:"stock_limit" binding:"required,decimal_gte0"`
	UnitID     *uuid.UUID      `json:"unit_id"`
}

// DisplayStockResponse is the stock of a record shown in another unit.
// It is never persisted.
type DisplayStockResponse struct {
	InventoryID     uuid.UUID       `json:"inventory_id"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	UnitID          uuid.UUID       `json:"unit_id"`
	UnitType        string          `json:"unit_type"`
	DisplayStock    decimal.Decimal `json:"display_stock"`
	DisplayUnitID   uuid.UUID       `json:"display_unit_id"`
	DisplayUnitType string          `json:"display_unit_type"`
}

// MovementResponse represents one entry of the stock audit trail
type MovementResponse struct {
	ID           uuid.UUID       `json:"id"`
	InventoryID  uuid.UUID       `json:"inventory_id"`
	Kind         string          `json:"kind"`
	SourceID     *uuid.UUID      `json:"source_id,omitempty"`
	Delta        decimal.Decimal `json:"delta"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	UnitID       uuid.UUID       `json:"unit_id"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// MovementListFilter pages through the audit trail
type MovementListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToInventoryResponse converts a domain record to a response
func ToInventoryResponse(r *inventory.InventoryRecord) InventoryResponse {
	return InventoryResponse{
		ID:               r.ID,
		ProductID:        r.ProductID,
		ShopID:           r.ShopID,
		CurrentStock:     r.CurrentStock,
		UnitID:           r.UnitID,
		StockLimit:       r.StockLimit,
		StockLimitUnitID: r.LimitUnitID(),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Version:          r.Version,
	}
}

// ToMovementResponse converts a domain movement to a response
func ToMovementResponse(m *inventory.Movement) MovementResponse {
	return MovementResponse{
		ID:           m.ID,
		InventoryID:  m.InventoryID,
		Kind:         string(m.Kind),
		SourceID:     m.SourceID,
		Delta:        m.Delta,
		BalanceAfter: m.BalanceAfter,
		UnitID:       m.UnitID,
		OccurredAt:   m.OccurredAt,
	}
}
