package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/domain/trade"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPurchaseRepository implements PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// FindByID finds a purchase by its ID
func (r *GormPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Purchase, error) {
	var model models.PurchaseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey finds the purchase created by a client request key
func (r *GormPurchaseRepository) FindByIdempotencyKey(ctx context.Context, key string) (*trade.Purchase, error) {
	if key == "" {
		return nil, shared.ErrNotFound
	}
	var model models.PurchaseModel
	if err := r.db.WithContext(ctx).First(&model, "idempotency_key = ?", key).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds purchases matching the filter (filters: shop_id, product_id, from, to)
func (r *GormPurchaseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Purchase, error) {
	var rows []models.PurchaseModel
	query := postingScope(r.db.WithContext(ctx).Model(&models.PurchaseModel{}), filter, "purchase_date")
	query = applyPagination(applyOrder(query, filter, PurchaseSortFields, "purchase_date"), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return purchasesToDomain(rows), nil
}

// Count counts purchases matching the filter
func (r *GormPurchaseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := postingScope(r.db.WithContext(ctx).Model(&models.PurchaseModel{}), filter, "purchase_date")
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByShopBetween finds purchases of a shop dated in [from, to)
func (r *GormPurchaseRepository) FindByShopBetween(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]trade.Purchase, error) {
	var rows []models.PurchaseModel
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND purchase_date >= ? AND purchase_date < ?", shopID, from, to).
		Order("purchase_date ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return purchasesToDomain(rows), nil
}

// FindByShop finds every purchase of a shop
func (r *GormPurchaseRepository) FindByShop(ctx context.Context, shopID uuid.UUID) ([]trade.Purchase, error) {
	var rows []models.PurchaseModel
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("purchase_date ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return purchasesToDomain(rows), nil
}

// FindSources returns the distinct suppliers, then the distinct markets,
// named on purchases, each sorted by name
func (r *GormPurchaseRepository) FindSources(ctx context.Context, shopID *uuid.UUID) ([]trade.PurchaseSource, error) {
	sources := make([]trade.PurchaseSource, 0)
	columns := []struct{ column, kind string }{
		{"supplier_name", trade.SourceSupplier},
		{"market_name", trade.SourceMarket},
	}
	for _, col := range columns {
		query := r.db.WithContext(ctx).Model(&models.PurchaseModel{}).Where(col.column + " <> ''")
		if shopID != nil {
			query = query.Where("shop_id = ?", *shopID)
		}
		var names []string
		if err := query.Distinct(col.column).Order(col.column).Pluck(col.column, &names).Error; err != nil {
			return nil, err
		}
		for _, name := range names {
			sources = append(sources, trade.PurchaseSource{Name: name, Type: col.kind})
		}
	}
	return sources, nil
}

// Save creates or updates a purchase. A reused idempotency key returns
// ErrAlreadyExists.
func (r *GormPurchaseRepository) Save(ctx context.Context, purchase *trade.Purchase) error {
	return translateError(r.db.WithContext(ctx).Save(models.PurchaseModelFromDomain(purchase)).Error)
}

// Delete deletes a purchase
func (r *GormPurchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PurchaseModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func purchasesToDomain(rows []models.PurchaseModel) []trade.Purchase {
	purchases := make([]trade.Purchase, len(rows))
	for i := range rows {
		purchases[i] = *rows[i].ToDomain()
	}
	return purchases
}

// Ensure GormPurchaseRepository implements PurchaseRepository
var _ trade.PurchaseRepository = (*GormPurchaseRepository)(nil)
