package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds several products at once; unknown IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindByKey finds a product by its normalized (name, variety, brand) tuple
	FindByKey(ctx context.Context, key ProductKey) (*Product, error)

	// FindAll finds all products matching the filter. Filter.Search matches
	// name, variety and brand fragments.
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product
	Delete(ctx context.Context, id uuid.UUID) error
}

// UnitRepository defines the interface for unit persistence
type UnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Unit, error)

	// FindByProductID returns every unit defined for a product, possibly none
	FindByProductID(ctx context.Context, productID uuid.UUID) ([]Unit, error)

	// FindByProductIDs returns the units of several products at once
	FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]Unit, error)

	FindAll(ctx context.Context, filter shared.Filter) ([]Unit, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByTypeName reports whether the product already has a unit with
	// this type name, ignoring case
	ExistsByTypeName(ctx context.Context, productID uuid.UUID, typeName string) (bool, error)

	// SaveBatch creates or updates several units in one statement batch
	SaveBatch(ctx context.Context, units []*Unit) error
	Save(ctx context.Context, unit *Unit) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteUnpairing saves the unpaired units and deletes id in one transaction
	DeleteUnpairing(ctx context.Context, id uuid.UUID, unpaired []*Unit) error
}

// ReferenceChecker reports whether catalog entries are referenced by stock
// or trade records, which blocks their deletion.
type ReferenceChecker interface {
	ProductReferenced(ctx context.Context, productID uuid.UUID) (bool, error)
	UnitReferenced(ctx context.Context, unitID uuid.UUID) (bool, error)
}
