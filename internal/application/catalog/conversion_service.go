package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
)

// ConversionService answers conversion queries against the unit catalog
type ConversionService struct {
	unitRepo catalog.UnitRepository
}

// NewConversionService creates a new ConversionService
func NewConversionService(unitRepo catalog.UnitRepository) *ConversionService {
	return &ConversionService{unitRepo: unitRepo}
}

// GraphForProduct builds the conversion graph of one product
func (s *ConversionService) GraphForProduct(ctx context.Context, productID uuid.UUID) (*catalog.UnitGraph, error) {
	return LoadUnitGraph(ctx, s.unitRepo, productID)
}

// Convert converts a quantity or a rate between two units of the same product
func (s *ConversionService) Convert(ctx context.Context, req ConversionRequest) (*ConversionResponse, error) {
	mode := catalog.ConversionMode(req.Mode)
	if req.Mode == "" {
		mode = catalog.ModeQuantity
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Mode must be 'quantity' or 'rate'")
	}

	from, err := s.findUnit(ctx, req.FromUnitID)
	if err != nil {
		return nil, err
	}
	to, err := s.findUnit(ctx, req.ToUnitID)
	if err != nil {
		return nil, err
	}
	if from.ProductID != to.ProductID {
		return nil, shared.NewDomainError(shared.CodeIncompatibleUnits, "Units "+from.TypeName+" and "+to.TypeName+" belong to different products")
	}

	graph, err := s.GraphForProduct(ctx, from.ProductID)
	if err != nil {
		return nil, err
	}
	factor, err := graph.Factor(from.ID, to.ID)
	if err != nil {
		return nil, err
	}
	converted, err := graph.Convert(req.Value, from.ID, to.ID, mode)
	if err != nil {
		return nil, err
	}

	return &ConversionResponse{
		Value:      req.Value,
		Converted:  converted,
		FromUnitID: from.ID,
		ToUnitID:   to.ID,
		Mode:       string(mode),
		Factor:     factor.Value(),
	}, nil
}

func (s *ConversionService) findUnit(ctx context.Context, id uuid.UUID) (*catalog.Unit, error) {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeUnitNotDefined, "Unit "+id.String()+" is not defined")
		}
		return nil, err
	}
	return unit, nil
}

// LoadUnitGraph builds the conversion graph of a product from a repository.
// A product without units yields an empty graph.
func LoadUnitGraph(ctx context.Context, repo catalog.UnitRepository, productID uuid.UUID) (*catalog.UnitGraph, error) {
	units, err := repo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return catalog.NewUnitGraph(units), nil
}
