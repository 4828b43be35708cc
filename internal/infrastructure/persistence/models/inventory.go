package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// InventoryRecordModel is the persistence model for the InventoryRecord
// aggregate. One row per product and shop.
type InventoryRecordModel struct {
	AggregateModel
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_shop,priority:1"`
	ShopID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_shop,priority:2;index"`
	CurrentStock     decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0"`
	UnitID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockLimit       decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0"`
	StockLimitUnitID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InventoryRecordModel) TableName() string {
	return "inventory_records"
}

// ToDomain converts the persistence model to a domain InventoryRecord
func (m *InventoryRecordModel) ToDomain() *inventory.InventoryRecord {
	return &inventory.InventoryRecord{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ProductID:         m.ProductID,
		ShopID:            m.ShopID,
		CurrentStock:      m.CurrentStock,
		UnitID:            m.UnitID,
		StockLimit:        m.StockLimit,
		StockLimitUnitID:  m.StockLimitUnitID,
	}
}

// FromDomain populates the persistence model from a domain InventoryRecord
func (m *InventoryRecordModel) FromDomain(r *inventory.InventoryRecord) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ProductID = r.ProductID
	m.ShopID = r.ShopID
	m.CurrentStock = r.CurrentStock
	m.UnitID = r.UnitID
	m.StockLimit = r.StockLimit
	m.StockLimitUnitID = r.StockLimitUnitID
}

// InventoryRecordModelFromDomain creates a new InventoryRecordModel from a domain record
func InventoryRecordModelFromDomain(r *inventory.InventoryRecord) *InventoryRecordModel {
	m := &InventoryRecordModel{}
	m.FromDomain(r)
	return m
}

// MovementModel is one row of the append-only movement log.
type MovementModel struct {
	ID           uuid.UUID              `gorm:"type:uuid;primary_key"`
	InventoryID  uuid.UUID              `gorm:"type:uuid;not null;index:idx_movements_inventory_time,priority:1"`
	Kind         inventory.MovementKind `gorm:"type:varchar(20);not null"`
	SourceID     *uuid.UUID             `gorm:"type:uuid;index"`
	Delta        decimal.Decimal        `gorm:"type:numeric(24,8);not null"`
	BalanceAfter decimal.Decimal        `gorm:"type:numeric(24,8);not null"`
	UnitID       uuid.UUID              `gorm:"type:uuid;not null"`
	OccurredAt   time.Time              `gorm:"not null;index:idx_movements_inventory_time,priority:2"`
}

// TableName returns the table name for GORM
func (MovementModel) TableName() string {
	return "inventory_movements"
}

// ToDomain converts the persistence model to a domain Movement
func (m *MovementModel) ToDomain() *inventory.Movement {
	return &inventory.Movement{
		ID:           m.ID,
		InventoryID:  m.InventoryID,
		Kind:         m.Kind,
		SourceID:     m.SourceID,
		Delta:        m.Delta,
		BalanceAfter: m.BalanceAfter,
		UnitID:       m.UnitID,
		OccurredAt:   m.OccurredAt,
	}
}

// MovementModelFromDomain creates a new MovementModel from a domain Movement
func MovementModelFromDomain(mv *inventory.Movement) *MovementModel {
	return &MovementModel{
		ID:           mv.ID,
		InventoryID:  mv.InventoryID,
		Kind:         mv.Kind,
		SourceID:     mv.SourceID,
		Delta:        mv.Delta,
		BalanceAfter: mv.BalanceAfter,
		UnitID:       mv.UnitID,
		OccurredAt:   mv.OccurredAt,
	}
}
