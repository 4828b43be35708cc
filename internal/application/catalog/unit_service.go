package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UnitService manages the units of measure of products and their pairings
type UnitService struct {
	unitRepo    catalog.UnitRepository
	productRepo catalog.ProductRepository
	refs        catalog.ReferenceChecker
	logger      *zap.Logger
}

// NewUnitService creates a new UnitService
func NewUnitService(unitRepo catalog.UnitRepository, productRepo catalog.ProductRepository, refs catalog.ReferenceChecker, logger *zap.Logger) *UnitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitService{
		unitRepo:    unitRepo,
		productRepo: productRepo,
		refs:        refs,
		logger:      logger,
	}
}

// CreatePair defines a buying unit and a selling unit of a product in one step
func (s *UnitService) CreatePair(ctx context.Context, req CreateUnitPairRequest) (*UnitPairResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	buying, selling, err := catalog.NewUnitPair(
		req.ProductID,
		req.BuyingUnitType,
		req.SellingUnitType,
		req.ConversionFactor,
		req.BuyingPrepackaged,
		req.SellingPrepackaged,
	)
	if err != nil {
		return nil, err
	}
	for _, u := range []*catalog.Unit{buying, selling} {
		if err := s.ensureUniqueTypeName(ctx, u.ProductID, u.TypeName); err != nil {
			return nil, err
		}
	}

	if err := s.unitRepo.SaveBatch(ctx, []*catalog.Unit{buying, selling}); err != nil {
		return nil, err
	}

	s.logger.Info("unit pair created",
		zap.String("product_id", req.ProductID.String()),
		zap.String("buying_unit", buying.TypeName),
		zap.String("selling_unit", selling.TypeName),
		zap.String("factor", req.ConversionFactor.String()),
	)
	return &UnitPairResponse{
		BuyingUnit:  ToUnitResponse(buying),
		SellingUnit: ToUnitResponse(selling),
	}, nil
}

// AddLinked creates a unit paired with an existing unit of the same product.
// The new unit stores the factor; the existing unit keeps its own pairing
// unless it had none.
func (s *UnitService) AddLinked(ctx context.Context, req AddLinkedUnitRequest) (*UnitResponse, error) {
	existing, err := s.unitRepo.FindByID(ctx, req.ExistingUnitID)
	if err != nil {
		return nil, err
	}

	unit, err := catalog.NewUnit(existing.ProductID, req.UnitType, catalog.UnitCategory(req.UnitCategory), req.Prepackaged)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueTypeName(ctx, unit.ProductID, unit.TypeName); err != nil {
		return nil, err
	}

	wasPaired := existing.OppositeUnitID != nil
	if err := unit.PairWith(existing, req.ConversionFactor); err != nil {
		return nil, err
	}

	batch := []*catalog.Unit{unit}
	if !wasPaired {
		batch = append(batch, existing)
	}
	if err := s.unitRepo.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}

	s.logger.Info("linked unit created",
		zap.String("unit_id", unit.ID.String()),
		zap.String("linked_to", existing.ID.String()),
	)
	response := ToUnitResponse(unit)
	return &response, nil
}

// GetByID retrieves a unit by ID
func (s *UnitService) GetByID(ctx context.Context, id uuid.UUID) (*UnitResponse, error) {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToUnitResponse(unit)
	return &response, nil
}

// ListByProduct returns every unit of a product. A product without units
// yields an empty list.
func (s *UnitService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]UnitResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	units, err := s.unitRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToUnitResponses(units), nil
}

// List retrieves a page of units
func (s *UnitService) List(ctx context.Context, filter UnitListFilter) ([]UnitResponse, int64, error) {
	domainFilter := toDomainFilter(filter.Page, filter.PageSize, "", "")
	if filter.ProductID != nil {
		domainFilter.Filters["product_id"] = *filter.ProductID
	}
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}

	units, err := s.unitRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.unitRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToUnitResponses(units), total, nil
}

// PairedUnit returns the unit on the other side of a unit's pairing
func (s *UnitService) PairedUnit(ctx context.Context, id uuid.UUID) (*UnitResponse, error) {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit.OppositeUnitID == nil {
		return nil, shared.NewDomainError(shared.CodeUnitNotDefined, "Unit "+unit.TypeName+" is not paired with another unit")
	}
	opposite, err := s.unitRepo.FindByID(ctx, *unit.OppositeUnitID)
	if err != nil {
		return nil, err
	}
	response := ToUnitResponse(opposite)
	return &response, nil
}

// Info lists a product's units split by category, each with its opposite
// unit's name and the factor towards it
func (s *UnitService) Info(ctx context.Context, productID uuid.UUID) (*ProductUnitsInfoResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	units, err := s.unitRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*catalog.Unit, len(units))
	for i := range units {
		byID[units[i].ID] = &units[i]
	}

	info := &ProductUnitsInfoResponse{
		ProductID:    productID,
		BuyingUnits:  make([]UnitInfoResponse, 0),
		SellingUnits: make([]UnitInfoResponse, 0),
	}
	for i := range units {
		u := &units[i]
		entry := UnitInfoResponse{UnitResponse: ToUnitResponse(u)}
		if u.OppositeUnitID != nil {
			if opp, ok := byID[*u.OppositeUnitID]; ok {
				entry.OppositeUnitType = opp.TypeName
				if f, ok := u.FactorToOpposite(opp); ok {
					entry.FactorToOpposite = &f
				}
			}
		}
		if u.Category == catalog.UnitCategoryBuying {
			info.BuyingUnits = append(info.BuyingUnits, entry)
		} else {
			info.SellingUnits = append(info.SellingUnits, entry)
		}
	}
	return info, nil
}

// Update renames a unit and optionally re-sets the factor to its opposite.
// Setting a factor on the derived side of a pair moves the stored factor to
// this unit so only one direction is ever stored.
func (s *UnitService) Update(ctx context.Context, id uuid.UUID, req UpdateUnitRequest) (*UnitResponse, error) {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldName := unit.TypeName
	if err := unit.Rename(req.UnitType, req.Prepackaged); err != nil {
		return nil, err
	}
	if !strings.EqualFold(oldName, unit.TypeName) {
		if err := s.ensureUniqueTypeName(ctx, unit.ProductID, unit.TypeName); err != nil {
			return nil, err
		}
	}

	batch := []*catalog.Unit{unit}
	if req.ConversionFactor != nil {
		if err := catalog.ValidateConversionFactor(*req.ConversionFactor); err != nil {
			return nil, err
		}
		if unit.OppositeUnitID == nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unit is not paired with another unit")
		}
		opposite, err := s.unitRepo.FindByID(ctx, *unit.OppositeUnitID)
		if err != nil {
			return nil, err
		}
		if err := unit.PairWith(opposite, *req.ConversionFactor); err != nil {
			return nil, err
		}
		if opposite.StoresFactor() && *opposite.OppositeUnitID == unit.ID {
			opposite.ReleaseFactor()
			batch = append(batch, opposite)
		}
	}

	if err := s.unitRepo.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}
	response := ToUnitResponse(unit)
	return &response, nil
}

// Delete removes a unit that no inventory, purchase or sale references.
// Units paired with it become unpaired.
func (s *UnitService) Delete(ctx context.Context, id uuid.UUID) error {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if s.refs != nil {
		referenced, err := s.refs.UnitReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return shared.NewDomainError(shared.CodeInUse, "Unit is used by inventory, purchases or sales")
		}
	}

	siblings, err := s.unitRepo.FindByProductID(ctx, unit.ProductID)
	if err != nil {
		return err
	}
	var detached []*catalog.Unit
	for i := range siblings {
		sib := &siblings[i]
		if sib.ID != id && sib.OppositeUnitID != nil && *sib.OppositeUnitID == id {
			sib.Unpair()
			detached = append(detached, sib)
		}
	}
	if err := s.unitRepo.DeleteUnpairing(ctx, id, detached); err != nil {
		return err
	}
	s.logger.Info("unit deleted",
		zap.String("unit_id", id.String()),
		zap.Int("unpaired", len(detached)),
	)
	return nil
}

func (s *UnitService) ensureUniqueTypeName(ctx context.Context, productID uuid.UUID, typeName string) error {
	exists, err := s.unitRepo.ExistsByTypeName(ctx, productID, typeName)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Product already has a unit named "+typeName)
	}
	return nil
}
