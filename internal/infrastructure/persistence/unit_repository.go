package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUnitRepository implements UnitRepository using GORM
type GormUnitRepository struct {
	db *gorm.DB
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// FindByID finds a unit by its ID
func (r *GormUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByProductID returns every unit of a product in creation order
func (r *GormUnitRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]catalog.Unit, error) {
	var rows []models.UnitModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return unitsToDomain(rows), nil
}

// FindByProductIDs returns the units of several products at once
func (r *GormUnitRepository) FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]catalog.Unit, error) {
	if len(productIDs) == 0 {
		return []catalog.Unit{}, nil
	}
	var rows []models.UnitModel
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return unitsToDomain(rows), nil
}

// FindAll finds units matching the filter (filters: product_id, category)
func (r *GormUnitRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Unit, error) {
	var rows []models.UnitModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.UnitModel{}), filter)
	query = applyPagination(applyOrder(query, filter, UnitSortFields, "created_at"), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return unitsToDomain(rows), nil
}

// Count counts units matching the filter
func (r *GormUnitRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.UnitModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByTypeName reports whether the product has a unit with this type
// name, ignoring case
func (r *GormUnitRepository) ExistsByTypeName(ctx context.Context, productID uuid.UUID, typeName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UnitModel{}).
		Where("product_id = ? AND type_key = ?", productID, strings.ToLower(strings.TrimSpace(typeName))).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveBatch creates or updates several units
func (r *GormUnitRepository) SaveBatch(ctx context.Context, units []*catalog.Unit) error {
	if len(units) == 0 {
		return nil
	}
	rows := make([]*models.UnitModel, len(units))
	for i, u := range units {
		rows[i] = models.UnitModelFromDomain(u)
	}
	return translateError(r.db.WithContext(ctx).Save(rows).Error)
}

// Save creates or updates a unit
func (r *GormUnitRepository) Save(ctx context.Context, unit *catalog.Unit) error {
	return translateError(r.db.WithContext(ctx).Save(models.UnitModelFromDomain(unit)).Error)
}

// Delete deletes a unit
func (r *GormUnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.UnitModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteUnpairing detaches the given units and deletes id. Nothing is written
// unless both succeed.
func (r *GormUnitRepository) DeleteUnpairing(ctx context.Context, id uuid.UUID, unpaired []*catalog.Unit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(unpaired) > 0 {
			rows := make([]*models.UnitModel, len(unpaired))
			for i, u := range unpaired {
				rows[i] = models.UnitModelFromDomain(u)
			}
			if err := tx.Save(rows).Error; err != nil {
				return translateError(err)
			}
		}
		result := tx.Delete(&models.UnitModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *GormUnitRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if id, ok := filterUUID(filter, "product_id"); ok {
		query = query.Where("product_id = ?", id)
	}
	if category, ok := filterString(filter, "category"); ok {
		query = query.Where("category = ?", category)
	}
	return query
}

func unitsToDomain(rows []models.UnitModel) []catalog.Unit {
	units := make([]catalog.Unit, len(rows))
	for i := range rows {
		units[i] = *rows[i].ToDomain()
	}
	return units
}

// Ensure GormUnitRepository implements UnitRepository
var _ catalog.UnitRepository = (*GormUnitRepository)(nil)
