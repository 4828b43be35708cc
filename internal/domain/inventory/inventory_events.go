package inventory

import (
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInventoryRecord = "InventoryRecord"

// Event type constants
const (
	EventTypeStockReceived   = "StockReceived"
	EventTypeStockSold       = "StockSold"
	EventTypeStockReconciled = "StockReconciled"
	EventTypeStockBelowLimit = "StockBelowLimit"
)

// StockReceivedEvent is raised when a purchase adds stock
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	InventoryID  uuid.UUID       `json:"inventory_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ShopID       uuid.UUID       `json:"shop_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	SourceID     uuid.UUID       `json:"source_id"`
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(r *InventoryRecord, quantity decimal.Decimal, sourceID uuid.UUID) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeInventoryRecord, r.ID),
		InventoryID:     r.ID,
		ProductID:       r.ProductID,
		ShopID:          r.ShopID,
		Quantity:        quantity,
		BalanceAfter:    r.CurrentStock,
		SourceID:        sourceID,
	}
}

// StockSoldEvent is raised when a sale removes stock
type StockSoldEvent struct {
	shared.BaseDomainEvent
	InventoryID  uuid.UUID       `json:"inventory_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ShopID       uuid.UUID       `json:"shop_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	SourceID     uuid.UUID       `json:"source_id"`
}

// NewStockSoldEvent creates a new StockSoldEvent
func NewStockSoldEvent(r *InventoryRecord, quantity decimal.Decimal, sourceID uuid.UUID) *StockSoldEvent {
	return &StockSoldEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockSold, AggregateTypeInventoryRecord, r.ID),
		InventoryID:     r.ID,
		ProductID:       r.ProductID,
		ShopID:          r.ShopID,
		Quantity:        quantity,
		BalanceAfter:    r.CurrentStock,
		SourceID:        sourceID,
	}
}

// StockReconciledEvent is raised when an operator overwrites the stock
type StockReconciledEvent struct {
	shared.BaseDomainEvent
	InventoryID uuid.UUID       `json:"inventory_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ShopID      uuid.UUID       `json:"shop_id"`
	Previous    decimal.Decimal `json:"previous"`
	Actual      decimal.Decimal `json:"actual"`
}

// NewStockReconciledEvent creates a new StockReconciledEvent
func NewStockReconciledEvent(r *InventoryRecord, previous, actual decimal.Decimal) *StockReconciledEvent {
	return &StockReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReconciled, AggregateTypeInventoryRecord, r.ID),
		InventoryID:     r.ID,
		ProductID:       r.ProductID,
		ShopID:          r.ShopID,
		Previous:        previous,
		Actual:          actual,
	}
}

// StockBelowLimitEvent is raised when stock drops under the reorder threshold
type StockBelowLimitEvent struct {
	shared.BaseDomainEvent
	InventoryID  uuid.UUID       `json:"inventory_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ShopID       uuid.UUID       `json:"shop_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	Limit        decimal.Decimal `json:"limit"`
	UnitID       uuid.UUID       `json:"unit_id"`
}

// NewStockBelowLimitEvent creates a new StockBelowLimitEvent. limit is in the inventory unit.
func NewStockBelowLimitEvent(r *InventoryRecord, limit decimal.Decimal) *StockBelowLimitEvent {
	return &StockBelowLimitEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowLimit, AggregateTypeInventoryRecord, r.ID),
		InventoryID:     r.ID,
		ProductID:       r.ProductID,
		ShopID:          r.ShopID,
		CurrentStock:    r.CurrentStock,
		Limit:           limit,
		UnitID:          r.UnitID,
	}
}
