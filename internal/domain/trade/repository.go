package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// PurchaseRepository defines the interface for purchase persistence
type PurchaseRepository interface {
	// FindByID finds a purchase by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Purchase, error)

	// FindByIdempotencyKey finds the purchase created by a client request key
	FindByIdempotencyKey(ctx context.Context, key string) (*Purchase, error)

	// FindAll finds purchases matching the filter (filters: shop_id, product_id, from, to)
	FindAll(ctx context.Context, filter shared.Filter) ([]Purchase, error)

	// Count counts purchases matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindByShopBetween finds purchases of a shop dated in [from, to)
	FindByShopBetween(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]Purchase, error)

	// FindByShop finds every purchase of a shop
	FindByShop(ctx context.Context, shopID uuid.UUID) ([]Purchase, error)

	// FindSources returns the distinct suppliers, then the distinct markets,
	// named on purchases, optionally of one shop
	FindSources(ctx context.Context, shopID *uuid.UUID) ([]PurchaseSource, error)

	// Save creates or updates a purchase
	Save(ctx context.Context, purchase *Purchase) error

	// Delete deletes a purchase
	Delete(ctx context.Context, id uuid.UUID) error
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByIdempotencyKey finds the sale created by a client request key
	FindByIdempotencyKey(ctx context.Context, key string) (*Sale, error)

	// FindAll finds sales matching the filter (filters: shop_id, product_id, from, to)
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, error)

	// Count counts sales matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindByShopBetween finds sales of a shop dated in [from, to)
	FindByShopBetween(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]Sale, error)

	// FindByShop finds every sale of a shop
	FindByShop(ctx context.Context, shopID uuid.UUID) ([]Sale, error)

	// FindLatestByProductAndUnit returns the most recent sale of a product in
	// a unit, used to suggest a retail price
	FindLatestByProductAndUnit(ctx context.Context, productID, unitID uuid.UUID) (*Sale, error)

	// Save creates or updates a sale
	Save(ctx context.Context, sale *Sale) error

	// Delete deletes a sale
	Delete(ctx context.Context, id uuid.UUID) error
}
