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

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey finds the sale created by a client request key
func (r *GormSaleRepository) FindByIdempotencyKey(ctx context.Context, key string) (*trade.Sale, error) {
	if key == "" {
		return nil, shared.ErrNotFound
	}
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "idempotency_key = ?", key).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds sales matching the filter (filters: shop_id, product_id, from, to)
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Sale, error) {
	var rows []models.SaleModel
	query := postingScope(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter, "sale_date")
	query = applyPagination(applyOrder(query, filter, SaleSortFields, "sale_date"), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return salesToDomain(rows), nil
}

// Count counts sales matching the filter
func (r *GormSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := postingScope(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter, "sale_date")
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByShopBetween finds sales of a shop dated in [from, to)
func (r *GormSaleRepository) FindByShopBetween(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]trade.Sale, error) {
	var rows []models.SaleModel
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND sale_date >= ? AND sale_date < ?", shopID, from, to).
		Order("sale_date ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return salesToDomain(rows), nil
}

// FindByShop finds every sale of a shop
func (r *GormSaleRepository) FindByShop(ctx context.Context, shopID uuid.UUID) ([]trade.Sale, error) {
	var rows []models.SaleModel
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("sale_date ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return salesToDomain(rows), nil
}

// FindLatestByProductAndUnit returns the most recent sale of a product in a unit
func (r *GormSaleRepository) FindLatestByProductAndUnit(ctx context.Context, productID, unitID uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND unit_id = ?", productID, unitID).
		Order("sale_date DESC").Order("created_at DESC").
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a sale. A reused idempotency key returns
// ErrAlreadyExists.
func (r *GormSaleRepository) Save(ctx context.Context, sale *trade.Sale) error {
	return translateError(r.db.WithContext(ctx).Save(models.SaleModelFromDomain(sale)).Error)
}

// Delete deletes a sale
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SaleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func salesToDomain(rows []models.SaleModel) []trade.Sale {
	sales := make([]trade.Sale, len(rows))
	for i := range rows {
		sales[i] = *rows[i].ToDomain()
	}
	return sales
}

// Ensure GormSaleRepository implements SaleRepository
var _ trade.SaleRepository = (*GormSaleRepository)(nil)
