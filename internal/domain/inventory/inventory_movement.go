package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementKind is what caused a stock movement
type MovementKind string

const (
	MovementPurchase  MovementKind = "purchase"
	MovementSale      MovementKind = "sale"
	MovementReconcile MovementKind = "reconcile"
	MovementReversal  MovementKind = "reversal"
	MovementSetup     MovementKind = "setup"
)

// IsValid reports whether k is a known kind
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementPurchase, MovementSale, MovementReconcile, MovementReversal, MovementSetup:
		return true
	}
	return false
}

// Movement is an immutable audit entry of one ledger mutation. Delta is
// signed and expressed in the inventory unit at the time of the movement.
type Movement struct {
	ID           uuid.UUID
	InventoryID  uuid.UUID
	Kind         MovementKind
	SourceID     *uuid.UUID
	Delta        decimal.Decimal
	BalanceAfter decimal.Decimal
	UnitID       uuid.UUID
	OccurredAt   time.Time
}

// NewMovement records the state of record right after a mutation
func NewMovement(record *InventoryRecord, kind MovementKind, sourceID *uuid.UUID, delta decimal.Decimal) (*Movement, error) {
	if record == nil {
		return nil, shared.NewDomainError("INVALID_INVENTORY", "Inventory record cannot be nil")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_KIND", "Invalid movement kind")
	}

	return &Movement{
		ID:           uuid.New(),
		InventoryID:  record.ID,
		Kind:         kind,
		SourceID:     sourceID,
		Delta:        RoundQuantity(delta),
		BalanceAfter: record.CurrentStock,
		UnitID:       record.UnitID,
		OccurredAt:   time.Now(),
	}, nil
}
