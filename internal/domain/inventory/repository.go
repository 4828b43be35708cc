package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// InventoryRecordRepository defines the interface for inventory record persistence
type InventoryRecordRepository interface {
	// FindByID finds an inventory record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryRecord, error)

	// FindByProductAndShop finds the record of a product in a shop
	FindByProductAndShop(ctx context.Context, productID, shopID uuid.UUID) (*InventoryRecord, error)

	// FindByShop finds every record of a shop
	FindByShop(ctx context.Context, shopID uuid.UUID) ([]InventoryRecord, error)

	// FindAll finds records matching the filter (filters: shop_id, product_id)
	FindAll(ctx context.Context, filter shared.Filter) ([]InventoryRecord, error)

	// Count counts records matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts a new record. A second record for the same product and
	// shop fails with ErrAlreadyExists.
	Create(ctx context.Context, record *InventoryRecord) error

	// SaveWithLock saves with optimistic locking: the stored version must be
	// record.Version-1, otherwise ErrConcurrencyConflict is returned.
	SaveWithLock(ctx context.Context, record *InventoryRecord) error

	// Delete deletes a record
	Delete(ctx context.Context, id uuid.UUID) error
}

// MovementRepository defines the interface for the append-only movement log
type MovementRepository interface {
	Create(ctx context.Context, movement *Movement) error

	// FindByInventory pages through the movements of a record, newest first
	FindByInventory(ctx context.Context, inventoryID uuid.UUID, filter shared.Filter) ([]Movement, int64, error)

	// HasSource reports whether a posting moved the stock of a record
	HasSource(ctx context.Context, inventoryID, sourceID uuid.UUID) (bool, error)

	DeleteByInventory(ctx context.Context, inventoryID uuid.UUID) error
}
