package trade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appinv "github.com/shopledger/backend/internal/application/inventory"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// PurchaseService records purchases and keeps stock in step with them.
// Every write runs in one transaction with its ledger effect.
type PurchaseService struct {
	scope        appinv.TransactionScope
	ledger       *appinv.LedgerService
	purchaseRepo trade.PurchaseRepository
	unitRepo     catalog.UnitRepository
	logger       *zap.Logger
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(
	scope appinv.TransactionScope,
	ledger *appinv.LedgerService,
	purchaseRepo trade.PurchaseRepository,
	unitRepo catalog.UnitRepository,
	logger *zap.Logger,
) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		scope:        scope,
		ledger:       ledger,
		purchaseRepo: purchaseRepo,
		unitRepo:     unitRepo,
		logger:       logger,
	}
}

// Create records a purchase and adds its quantity to stock. A non-empty
// idempotency key that was already used returns the purchase it created
// without touching stock again.
func (s *PurchaseService) Create(ctx context.Context, req CreatePurchaseRequest, idempotencyKey string) (*PurchaseResponse, error) {
	if existing, err := s.findByKey(ctx, idempotencyKey); err != nil || existing != nil {
		return existing, err
	}

	if _, err := requireUnit(ctx, s.unitRepo, req.ProductID, req.UnitID, catalog.UnitCategoryBuying); err != nil {
		return nil, err
	}
	purchase, err := trade.NewPurchase(trade.Posting{
		ProductID: req.ProductID,
		ShopID:    req.ShopID,
		UnitID:    req.UnitID,
		Quantity:  req.Quantity,
		Price:     req.OrderPrice,
		Date:      dateOrNow(req.PurchaseDate),
	}, req.SupplierName, req.MarketName)
	if err != nil {
		return nil, err
	}
	purchase.IdempotencyKey = idempotencyKey

	var record *inventory.InventoryRecord
	err = s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		record, err = s.ledger.ApplyPurchase(ctx, repos, appinv.ApplyPurchaseInput{
			ProductID: purchase.ProductID,
			ShopID:    purchase.ShopID,
			UnitID:    purchase.UnitID,
			Quantity:  purchase.Quantity,
			SourceID:  purchase.ID,
		})
		if err != nil {
			return err
		}
		return repos.PurchaseRepo().Save(ctx, purchase)
	})
	if err != nil {
		// A concurrent request with the same key won the insert
		if idempotencyKey != "" && errors.Is(err, shared.ErrAlreadyExists) {
			if existing, findErr := s.findByKey(ctx, idempotencyKey); findErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}
	s.ledger.Publish(ctx, record)

	s.logger.Info("purchase recorded",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("product_id", purchase.ProductID.String()),
		zap.String("shop_id", purchase.ShopID.String()),
		zap.String("quantity", purchase.Quantity.String()),
		zap.String("order_price", purchase.Price.String()),
	)
	response := ToPurchaseResponse(purchase)
	return &response, nil
}

// GetByID retrieves a purchase by ID
func (s *PurchaseService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseResponse, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseResponse(purchase)
	return &response, nil
}

// List retrieves a page of purchases, newest first
func (s *PurchaseService) List(ctx context.Context, filter PostingListFilter) ([]PurchaseResponse, int64, error) {
	domainFilter := postingFilter(filter, "purchase_date")
	purchases, err := s.purchaseRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.purchaseRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToPurchaseResponses(purchases), total, nil
}

// Sources lists the suppliers and markets already bought from, optionally
// in one shop
func (s *PurchaseService) Sources(ctx context.Context, shopID *uuid.UUID) ([]PurchaseSourceResponse, error) {
	sources, err := s.purchaseRepo.FindSources(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return ToPurchaseSourceResponses(sources), nil
}

// Update amends a purchase. The new quantity is applied before the old one
// is reversed, so an edit fails only when the final stock would be negative.
// A purchase whose stock went away with a deleted inventory record only has
// its posting changed.
func (s *PurchaseService) Update(ctx context.Context, id uuid.UUID, req UpdatePurchaseRequest) (*PurchaseResponse, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := requireUnit(ctx, s.unitRepo, purchase.ProductID, req.UnitID, catalog.UnitCategoryBuying); err != nil {
		return nil, err
	}

	old := purchase.Posting
	err = purchase.Amend(trade.Posting{
		ProductID: purchase.ProductID,
		ShopID:    purchase.ShopID,
		UnitID:    req.UnitID,
		Quantity:  req.Quantity,
		Price:     req.OrderPrice,
		Date:      dateOrNow(req.PurchaseDate),
	}, req.SupplierName, req.MarketName)
	if err != nil {
		return nil, err
	}

	var applied, reverted *inventory.InventoryRecord
	err = s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		held, err := s.ledger.Holds(ctx, repos, old.ProductID, old.ShopID, purchase.ID)
		if err != nil {
			return err
		}
		if !held {
			return repos.PurchaseRepo().Save(ctx, purchase)
		}

		applied, err = s.ledger.ApplyPurchase(ctx, repos, appinv.ApplyPurchaseInput{
			ProductID: purchase.ProductID,
			ShopID:    purchase.ShopID,
			UnitID:    purchase.UnitID,
			Quantity:  purchase.Quantity,
			SourceID:  purchase.ID,
		})
		if err != nil {
			return err
		}
		reverted, err = s.ledger.Revert(ctx, repos, appinv.RevertInput{
			ProductID: old.ProductID,
			ShopID:    old.ShopID,
			UnitID:    old.UnitID,
			Delta:     old.Quantity.Neg(),
			SourceID:  purchase.ID,
		})
		if err != nil {
			return err
		}
		return repos.PurchaseRepo().Save(ctx, purchase)
	})
	if err != nil {
		return nil, err
	}
	s.ledger.Publish(ctx, applied, reverted)

	s.logger.Info("purchase amended",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("old_quantity", old.Quantity.String()),
		zap.String("new_quantity", purchase.Quantity.String()),
	)
	response := ToPurchaseResponse(purchase)
	return &response, nil
}

// Delete removes a purchase and takes its quantity back out of stock
func (s *PurchaseService) Delete(ctx context.Context, id uuid.UUID) error {
	purchase, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	var reverted *inventory.InventoryRecord
	err = s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		reverted, err = s.ledger.Revert(ctx, repos, appinv.RevertInput{
			ProductID: purchase.ProductID,
			ShopID:    purchase.ShopID,
			UnitID:    purchase.UnitID,
			Delta:     purchase.Quantity.Neg(),
			SourceID:  purchase.ID,
		})
		if err != nil {
			return err
		}
		return repos.PurchaseRepo().Delete(ctx, purchase.ID)
	})
	if err != nil {
		return err
	}
	s.ledger.Publish(ctx, reverted)

	s.logger.Info("purchase deleted", zap.String("purchase_id", id.String()))
	return nil
}

func (s *PurchaseService) findByKey(ctx context.Context, key string) (*PurchaseResponse, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := s.purchaseRepo.FindByIdempotencyKey(ctx, key)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	response := ToPurchaseResponse(existing)
	return &response, nil
}
