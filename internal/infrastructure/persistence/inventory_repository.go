package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRecordRepository implements InventoryRecordRepository using GORM
type GormInventoryRecordRepository struct {
	db *gorm.DB
}

// NewGormInventoryRecordRepository creates a new GormInventoryRecordRepository
func NewGormInventoryRecordRepository(db *gorm.DB) *GormInventoryRecordRepository {
	return &GormInventoryRecordRepository{db: db}
}

// FindByID finds an inventory record by its ID
func (r *GormInventoryRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryRecord, error) {
	var model models.InventoryRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByProductAndShop finds the record of a product in a shop
func (r *GormInventoryRecordRepository) FindByProductAndShop(ctx context.Context, productID, shopID uuid.UUID) (*inventory.InventoryRecord, error) {
	var model models.InventoryRecordModel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND shop_id = ?", productID, shopID).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByShop finds every record of a shop
func (r *GormInventoryRecordRepository) FindByShop(ctx context.Context, shopID uuid.UUID) ([]inventory.InventoryRecord, error) {
	var rows []models.InventoryRecordModel
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return recordsToDomain(rows), nil
}

// FindAll finds records matching the filter
func (r *GormInventoryRecordRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.InventoryRecord, error) {
	var rows []models.InventoryRecordModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InventoryRecordModel{}), filter)
	query = applyPagination(applyOrder(query, filter, InventorySortFields, "updated_at"), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return recordsToDomain(rows), nil
}

// Count counts records matching the filter
func (r *GormInventoryRecordRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InventoryRecordModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new record. The insert skips on a (product, shop)
// conflict so an open transaction stays usable, and ErrAlreadyExists is
// returned instead.
func (r *GormInventoryRecordRepository) Create(ctx context.Context, record *inventory.InventoryRecord) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "shop_id"}},
			DoNothing: true,
		}).
		Create(models.InventoryRecordModelFromDomain(record))
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyExists
	}
	return nil
}

// SaveWithLock saves a record only when the stored version is
// record.Version-1
func (r *GormInventoryRecordRepository) SaveWithLock(ctx context.Context, record *inventory.InventoryRecord) error {
	result := r.db.WithContext(ctx).
		Model(&models.InventoryRecordModel{}).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]any{
			"current_stock":       record.CurrentStock,
			"unit_id":             record.UnitID,
			"stock_limit":         record.StockLimit,
			"stock_limit_unit_id": record.StockLimitUnitID,
			"version":             record.Version,
			"updated_at":          record.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete deletes a record
func (r *GormInventoryRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.InventoryRecordModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormInventoryRecordRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if id, ok := filterUUID(filter, "shop_id"); ok {
		query = query.Where("shop_id = ?", id)
	}
	if id, ok := filterUUID(filter, "product_id"); ok {
		query = query.Where("product_id = ?", id)
	}
	return query
}

func recordsToDomain(rows []models.InventoryRecordModel) []inventory.InventoryRecord {
	records := make([]inventory.InventoryRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records
}

// Ensure GormInventoryRecordRepository implements InventoryRecordRepository
var _ inventory.InventoryRecordRepository = (*GormInventoryRecordRepository)(nil)
