package trade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appcatalog "github.com/shopledger/backend/internal/application/catalog"
	appinv "github.com/shopledger/backend/internal/application/inventory"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// suggestedPricePlaces is the precision of a retail price converted between units
const suggestedPricePlaces = 4

// SaleService records sales and takes their quantity out of stock
type SaleService struct {
	scope    appinv.TransactionScope
	ledger   *appinv.LedgerService
	saleRepo trade.SaleRepository
	unitRepo catalog.UnitRepository
	logger   *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	scope appinv.TransactionScope,
	ledger *appinv.LedgerService,
	saleRepo trade.SaleRepository,
	unitRepo catalog.UnitRepository,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		scope:    scope,
		ledger:   ledger,
		saleRepo: saleRepo,
		unitRepo: unitRepo,
		logger:   logger,
	}
}

// Create records a sale. The sale is rejected with INSUFFICIENT_STOCK when
// the shop does not hold enough of the product, and nothing is written.
func (s *SaleService) Create(ctx context.Context, req CreateSaleRequest, idempotencyKey string) (*SaleResponse, error) {
	if existing, err := s.findByKey(ctx, idempotencyKey); err != nil || existing != nil {
		return existing, err
	}

	if _, err := requireUnit(ctx, s.unitRepo, req.ProductID, req.UnitID, catalog.UnitCategorySelling); err != nil {
		return nil, err
	}
	sale, err := trade.NewSale(trade.Posting{
		ProductID: req.ProductID,
		ShopID:    req.ShopID,
		UnitID:    req.UnitID,
		Quantity:  req.Quantity,
		Price:     req.RetailPrice,
		Date:      dateOrNow(req.SaleDate),
	})
	if err != nil {
		return nil, err
	}
	sale.IdempotencyKey = idempotencyKey

	var record *inventory.InventoryRecord
	err = s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		record, err = s.ledger.ApplySale(ctx, repos, appinv.ApplySaleInput{
			ProductID: sale.ProductID,
			ShopID:    sale.ShopID,
			UnitID:    sale.UnitID,
			Quantity:  sale.Quantity,
			SourceID:  sale.ID,
		})
		if err != nil {
			return err
		}
		return repos.SaleRepo().Save(ctx, sale)
	})
	if err != nil {
		if idempotencyKey != "" && errors.Is(err, shared.ErrAlreadyExists) {
			if existing, findErr := s.findByKey(ctx, idempotencyKey); findErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}
	s.ledger.Publish(ctx, record)

	s.logger.Info("sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("product_id", sale.ProductID.String()),
		zap.String("shop_id", sale.ShopID.String()),
		zap.String("quantity", sale.Quantity.String()),
		zap.String("retail_price", sale.Price.String()),
	)
	response := ToSaleResponse(sale)
	return &response, nil
}

// GetByID retrieves a sale by ID
func (s *SaleService) GetByID(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// List retrieves a page of sales, newest first
func (s *SaleService) List(ctx context.Context, filter PostingListFilter) ([]SaleResponse, int64, error) {
	domainFilter := postingFilter(filter, "sale_date")
	sales, err := s.saleRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.saleRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToSaleResponses(sales), total, nil
}

// Update amends a sale. The old quantity goes back into stock before the
// new one is taken out. A sale whose stock went away with a deleted
// inventory record only has its posting changed.
func (s *SaleService) Update(ctx context.Context, id uuid.UUID, req UpdateSaleRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := requireUnit(ctx, s.unitRepo, sale.ProductID, req.UnitID, catalog.UnitCategorySelling); err != nil {
		return nil, err
	}

	old := sale.Posting
	err = sale.Amend(trade.Posting{
		ProductID: sale.ProductID,
		ShopID:    sale.ShopID,
		UnitID:    req.UnitID,
		Quantity:  req.Quantity,
		Price:     req.RetailPrice,
		Date:      dateOrNow(req.SaleDate),
	})
	if err != nil {
		return nil, err
	}

	var reverted, applied *inventory.InventoryRecord
	err = s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		held, err := s.ledger.Holds(ctx, repos, old.ProductID, old.ShopID, sale.ID)
		if err != nil {
			return err
		}
		if !held {
			return repos.SaleRepo().Save(ctx, sale)
		}

		reverted, err = s.ledger.Revert(ctx, repos, appinv.RevertInput{
			ProductID: old.ProductID,
			ShopID:    old.ShopID,
			UnitID:    old.UnitID,
			Delta:     old.Quantity,
			SourceID:  sale.ID,
		})
		if err != nil {
			return err
		}
		applied, err = s.ledger.ApplySale(ctx, repos, appinv.ApplySaleInput{
			ProductID: sale.ProductID,
			ShopID:    sale.ShopID,
			UnitID:    sale.UnitID,
			Quantity:  sale.Quantity,
			SourceID:  sale.ID,
		})
		if err != nil {
			return err
		}
		return repos.SaleRepo().Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	s.ledger.Publish(ctx, reverted, applied)

	s.logger.Info("sale amended",
		zap.String("sale_id", sale.ID.String()),
		zap.String("old_quantity", old.Quantity.String()),
		zap.String("new_quantity", sale.Quantity.String()),
	)
	response := ToSaleResponse(sale)
	return &response, nil
}

// Delete removes a sale and puts its quantity back into stock
func (s *SaleService) Delete(ctx context.Context, id uuid.UUID) error {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	var reverted *inventory.InventoryRecord
	err = s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		reverted, err = s.ledger.Revert(ctx, repos, appinv.RevertInput{
			ProductID: sale.ProductID,
			ShopID:    sale.ShopID,
			UnitID:    sale.UnitID,
			Delta:     sale.Quantity,
			SourceID:  sale.ID,
		})
		if err != nil {
			return err
		}
		return repos.SaleRepo().Delete(ctx, sale.ID)
	})
	if err != nil {
		return err
	}
	s.ledger.Publish(ctx, reverted)

	s.logger.Info("sale deleted", zap.String("sale_id", id.String()))
	return nil
}

// PriceSuggestion returns the retail price of the latest sale of a product
// in the requested unit. Without one, the latest sale in any unit of the
// product is converted as a rate.
func (s *SaleService) PriceSuggestion(ctx context.Context, query PriceSuggestionQuery) (*PriceSuggestionResponse, error) {
	if _, err := requireUnit(ctx, s.unitRepo, query.ProductID, query.UnitID, catalog.UnitCategorySelling); err != nil {
		return nil, err
	}
	response := &PriceSuggestionResponse{ProductID: query.ProductID, UnitID: query.UnitID}

	latest, err := s.saleRepo.FindLatestByProductAndUnit(ctx, query.ProductID, query.UnitID)
	switch {
	case err == nil:
		price := latest.Price
		response.RetailPrice = &price
		response.SourceSaleID = &latest.ID
		response.SourceUnitID = &latest.UnitID
		return response, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	filter := shared.DefaultFilter()
	filter.PageSize = 1
	filter.OrderBy = "sale_date"
	filter.Filters["product_id"] = query.ProductID
	sales, err := s.saleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return response, nil
	}

	other := sales[0]
	graph, err := appcatalog.LoadUnitGraph(ctx, s.unitRepo, query.ProductID)
	if err != nil {
		return nil, err
	}
	price, err := graph.ConvertRate(other.Price, other.UnitID, query.UnitID)
	if err != nil {
		// The unit the sale was made in may since have been unpaired
		if errors.Is(err, shared.ErrIncompatibleUnits) || errors.Is(err, shared.ErrUnitNotDefined) {
			return response, nil
		}
		return nil, err
	}
	price = price.Round(suggestedPricePlaces)
	response.RetailPrice = &price
	response.SourceSaleID = &other.ID
	response.SourceUnitID = &other.UnitID
	response.Converted = true
	return response, nil
}

func (s *SaleService) findByKey(ctx context.Context, key string) (*SaleResponse, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := s.saleRepo.FindByIdempotencyKey(ctx, key)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(existing)
	return &response, nil
}
