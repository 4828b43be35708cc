package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// QuantityScale is the number of fractional digits kept for stored quantities.
const QuantityScale = 8

// RoundQuantity rounds q to the stored quantity scale
func RoundQuantity(q decimal.Decimal) decimal.Decimal {
	return q.Round(QuantityScale)
}

// InventoryRecord is the stock of one product in one shop, kept in a single
// inventory unit. It is the aggregate root for ledger operations.
// The composite identifier is ProductID + ShopID.
type InventoryRecord struct {
	shared.BaseAggregateRoot
	ProductID        uuid.UUID
	ShopID           uuid.UUID
	CurrentStock     decimal.Decimal
	UnitID           uuid.UUID // inventory unit
	StockLimit       decimal.Decimal
	StockLimitUnitID *uuid.UUID
}

// NewInventoryRecord creates an empty record tracked in unitID
func NewInventoryRecord(productID, shopID, unitID uuid.UUID) (*InventoryRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHOP", "Shop ID cannot be empty")
	}
	if unitID == uuid.Nil {
		return nil, shared.ErrUnitNotDefined
	}

	return &InventoryRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		ShopID:            shopID,
		CurrentStock:      decimal.Zero,
		UnitID:            unitID,
		StockLimit:        decimal.Zero,
	}, nil
}

// Receive adds quantity, already expressed in the inventory unit
func (r *InventoryRecord) Receive(quantity decimal.Decimal, sourceID uuid.UUID) error {
	quantity = RoundQuantity(quantity)
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	r.CurrentStock = r.CurrentStock.Add(quantity)
	r.touch()
	r.AddDomainEvent(NewStockReceivedEvent(r, quantity, sourceID))
	return nil
}

// Dispatch removes quantity, already expressed in the inventory unit.
// Stock never goes below zero: the record is left untouched and
// ErrInsufficientStock returned instead.
func (r *InventoryRecord) Dispatch(quantity decimal.Decimal, sourceID uuid.UUID) error {
	quantity = RoundQuantity(quantity)
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if r.CurrentStock.LessThan(quantity) {
		return shared.ErrInsufficientStock
	}

	r.CurrentStock = r.CurrentStock.Sub(quantity)
	r.touch()
	r.AddDomainEvent(NewStockSoldEvent(r, quantity, sourceID))
	return nil
}

// Reconcile overwrites the stock with a physical count in the inventory unit
func (r *InventoryRecord) Reconcile(actual decimal.Decimal) error {
	actual = RoundQuantity(actual)
	if actual.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Actual stock cannot be negative")
	}

	previous := r.CurrentStock
	r.CurrentStock = actual
	r.touch()
	r.AddDomainEvent(NewStockReconciledEvent(r, previous, actual))
	return nil
}

// Revert applies a signed correction produced by editing or deleting a
// purchase or sale. A correction that would drive stock negative fails with
// ErrInsufficientStock.
func (r *InventoryRecord) Revert(delta decimal.Decimal) error {
	delta = RoundQuantity(delta)
	if delta.IsZero() {
		return nil
	}
	next := r.CurrentStock.Add(delta)
	if next.IsNegative() {
		return shared.ErrInsufficientStock
	}

	r.CurrentStock = next
	r.touch()
	return nil
}

// SetStockLimit sets the reorder threshold, expressed in limitUnitID
// (nil means the inventory unit)
func (r *InventoryRecord) SetStockLimit(limit decimal.Decimal, limitUnitID *uuid.UUID) error {
	if limit.IsNegative() {
		return shared.NewDomainError("INVALID_STOCK_LIMIT", "Stock limit cannot be negative")
	}

	r.StockLimit = RoundQuantity(limit)
	r.StockLimitUnitID = limitUnitID
	r.touch()
	return nil
}

// LimitUnitID returns the unit the stock limit is expressed in
func (r *InventoryRecord) LimitUnitID() uuid.UUID {
	if r.StockLimitUnitID != nil {
		return *r.StockLimitUnitID
	}
	return r.UnitID
}

// IsBelowLimit reports whether stock is under the limit, given the limit
// converted into the inventory unit. A zero limit never triggers.
func (r *InventoryRecord) IsBelowLimit(limitInInventoryUnit decimal.Decimal) bool {
	return limitInInventoryUnit.IsPositive() && r.CurrentStock.LessThan(limitInInventoryUnit)
}

// CheckLimit queues a StockBelowLimit event when stock is under the limit
func (r *InventoryRecord) CheckLimit(limitInInventoryUnit decimal.Decimal) {
	if r.IsBelowLimit(limitInInventoryUnit) {
		r.AddDomainEvent(NewStockBelowLimitEvent(r, limitInInventoryUnit))
	}
}

func (r *InventoryRecord) touch() {
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}
