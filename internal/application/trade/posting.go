package trade

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
)

// requireUnit checks that unitID is a unit of productID in the given
// category. Anything else means the unit the operation needs is not defined.
func requireUnit(ctx context.Context, units catalog.UnitRepository, productID, unitID uuid.UUID, category catalog.UnitCategory) (*catalog.Unit, error) {
	unit, err := units.FindByID(ctx, unitID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeUnitNotDefined, "Unit "+unitID.String()+" is not defined")
	}
	if err != nil {
		return nil, err
	}
	if unit.ProductID != productID {
		return nil, shared.NewDomainError(shared.CodeUnitNotDefined, "Unit "+unit.TypeName+" is not a unit of this product")
	}
	if unit.Category != category {
		return nil, shared.NewDomainError(shared.CodeUnitNotDefined, "Unit "+unit.TypeName+" is not a "+string(category)+" unit")
	}
	return unit, nil
}

func dateOrNow(d *time.Time) time.Time {
	if d == nil || d.IsZero() {
		return time.Now()
	}
	return *d
}

func postingFilter(filter PostingListFilter, orderBy string) shared.Filter {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.OrderBy = orderBy
	if filter.ShopID != nil {
		f.Filters["shop_id"] = *filter.ShopID
	}
	if filter.ProductID != nil {
		f.Filters["product_id"] = *filter.ProductID
	}
	if filter.From != nil {
		f.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		f.Filters["to"] = *filter.To
	}
	return f
}
