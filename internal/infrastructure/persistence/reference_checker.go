package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReferenceChecker implements catalog.ReferenceChecker with existence
// queries over the ledger tables
type GormReferenceChecker struct {
	db *gorm.DB
}

// NewGormReferenceChecker creates a new GormReferenceChecker
func NewGormReferenceChecker(db *gorm.DB) *GormReferenceChecker {
	return &GormReferenceChecker{db: db}
}

// ProductReferenced reports whether a product has units, stock or postings
func (c *GormReferenceChecker) ProductReferenced(ctx context.Context, productID uuid.UUID) (bool, error) {
	tables := []any{
		&models.UnitModel{},
		&models.InventoryRecordModel{},
		&models.PurchaseModel{},
		&models.SaleModel{},
	}
	return c.exists(ctx, tables, "product_id = ?", productID)
}

// UnitReferenced reports whether a unit is used by stock or postings
func (c *GormReferenceChecker) UnitReferenced(ctx context.Context, unitID uuid.UUID) (bool, error) {
	referenced, err := c.exists(ctx, []any{&models.InventoryRecordModel{}},
		"unit_id = ? OR stock_limit_unit_id = ?", unitID, unitID)
	if err != nil || referenced {
		return referenced, err
	}
	return c.exists(ctx, []any{&models.PurchaseModel{}, &models.SaleModel{}}, "unit_id = ?", unitID)
}

// exists reports whether one of the tables holds a row matching cond
func (c *GormReferenceChecker) exists(ctx context.Context, tables []any, cond string, args ...any) (bool, error) {
	for _, table := range tables {
		var count int64
		if err := c.db.WithContext(ctx).Model(table).Where(cond, args...).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Ensure GormReferenceChecker implements ReferenceChecker
var _ catalog.ReferenceChecker = (*GormReferenceChecker)(nil)
