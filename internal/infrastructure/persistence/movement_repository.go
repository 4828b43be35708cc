package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMovementRepository implements MovementRepository using GORM. Rows are
// only ever inserted or removed together with their inventory record.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a movement
func (r *GormMovementRepository) Create(ctx context.Context, movement *inventory.Movement) error {
	return r.db.WithContext(ctx).Create(models.MovementModelFromDomain(movement)).Error
}

// FindByInventory pages through the movements of a record, newest first by default
func (r *GormMovementRepository) FindByInventory(ctx context.Context, inventoryID uuid.UUID, filter shared.Filter) ([]inventory.Movement, int64, error) {
	scope := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.MovementModel{}).Where("inventory_id = ?", inventoryID)
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.MovementModel
	query := applyPagination(applyOrder(scope(), filter, MovementSortFields, "occurred_at"), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	movements := make([]inventory.Movement, len(rows))
	for i := range rows {
		movements[i] = *rows[i].ToDomain()
	}
	return movements, total, nil
}

// HasSource reports whether any movement of the record came from sourceID
func (r *GormMovementRepository) HasSource(ctx context.Context, inventoryID, sourceID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MovementModel{}).
		Where("inventory_id = ? AND source_id = ?", inventoryID, sourceID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteByInventory removes the log of a record
func (r *GormMovementRepository) DeleteByInventory(ctx context.Context, inventoryID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.MovementModel{}, "inventory_id = ?", inventoryID).Error
}

// Ensure GormMovementRepository implements MovementRepository
var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
