package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InventoryService handles inventory queries and the operator-driven
// mutations (setup, reconciliation, stock limits). Purchases and sales reach
// the ledger through the trade services.
type InventoryService struct {
	scope         TransactionScope
	ledger        *LedgerService
	inventoryRepo inventory.InventoryRecordRepository
	movementRepo  inventory.MovementRepository
	unitRepo      catalog.UnitRepository
	productRepo   catalog.ProductRepository
	logger        *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	scope TransactionScope,
	ledger *LedgerService,
	inventoryRepo inventory.InventoryRecordRepository,
	movementRepo inventory.MovementRepository,
	unitRepo catalog.UnitRepository,
	productRepo catalog.ProductRepository,
	logger *zap.Logger,
) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		scope:         scope,
		ledger:        ledger,
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		unitRepo:      unitRepo,
		productRepo:   productRepo,
		logger:        logger,
	}
}

// Setup creates the record of a product in a shop with an opening balance
// and optional stock limit
func (s *InventoryService) Setup(ctx context.Context, req SetupInventoryRequest) (*InventoryResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	var record *inventory.InventoryRecord
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		record, err = s.ledger.Setup(ctx, repos, SetupInput{
			ProductID:     req.ProductID,
			ShopID:        req.ShopID,
			UnitID:        req.UnitID,
			InitialStock:  req.InitialStock,
			InitialUnitID: req.InitialUnitID,
		})
		if err != nil {
			return err
		}
		if req.StockLimit.IsPositive() {
			record, err = s.ledger.SetStockLimit(ctx, repos, record.ID, req.StockLimit, req.LimitUnitID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory set up",
		zap.String("inventory_id", record.ID.String()),
		zap.String("product_id", record.ProductID.String()),
		zap.String("shop_id", record.ShopID.String()),
		zap.String("initial_stock", record.CurrentStock.String()),
	)
	return s.toResponse(ctx, record)
}

// GetByID retrieves an inventory record by ID
func (s *InventoryService) GetByID(ctx context.Context, id uuid.UUID) (*InventoryResponse, error) {
	record, err := s.inventoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, record)
}

// List retrieves a page of inventory records. With LowStock set only records
// under their stock limit are returned; the limit is converted into each
// record's inventory unit before comparing.
func (s *InventoryService) List(ctx context.Context, filter InventoryListFilter) ([]InventoryResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.OrderBy = "updated_at"
	if filter.ShopID != nil {
		domainFilter.Filters["shop_id"] = *filter.ShopID
	}
	if filter.ProductID != nil {
		domainFilter.Filters["product_id"] = *filter.ProductID
	}

	if !filter.LowStock {
		records, err := s.inventoryRepo.FindAll(ctx, domainFilter)
		if err != nil {
			return nil, 0, err
		}
		total, err := s.inventoryRepo.Count(ctx, domainFilter)
		if err != nil {
			return nil, 0, err
		}
		responses, err := s.toResponses(ctx, records)
		return responses, total, err
	}

	// Low stock depends on unit conversion, so it is filtered here rather
	// than in SQL
	page, pageSize := domainFilter.Page, domainFilter.PageSize
	domainFilter.Page = 1
	domainFilter.PageSize = 0
	records, err := s.inventoryRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	all, err := s.toResponses(ctx, records)
	if err != nil {
		return nil, 0, err
	}
	low := make([]InventoryResponse, 0)
	for _, r := range all {
		if r.IsLowStock {
			low = append(low, r)
		}
	}

	start := (page - 1) * pageSize
	if start > len(low) {
		start = len(low)
	}
	end := start + pageSize
	if end > len(low) {
		end = len(low)
	}
	return low[start:end], int64(len(low)), nil
}

// Reconcile overwrites the stock of a record with a physical count
func (s *InventoryService) Reconcile(ctx context.Context, id uuid.UUID, req ReconcileRequest) (*InventoryResponse, error) {
	var record *inventory.InventoryRecord
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		record, err = s.ledger.Reconcile(ctx, repos, id, req.ActualStock, req.UnitID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.ledger.Publish(ctx, record)
	return s.toResponse(ctx, record)
}

// SetStockLimit sets the reorder threshold of a record
func (s *InventoryService) SetStockLimit(ctx context.Context, id uuid.UUID, req SetStockLimitRequest) (*InventoryResponse, error) {
	var record *inventory.InventoryRecord
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		record, err = s.ledger.SetStockLimit(ctx, repos, id, req.StockLimit, req.UnitID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, record)
}

// ConvertDisplayUnit shows the stock of a record in another unit of the
// same product. The stored record is not changed.
func (s *InventoryService) ConvertDisplayUnit(ctx context.Context, id, targetUnitID uuid.UUID) (*DisplayStockResponse, error) {
	record, err := s.inventoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	units, err := s.unitRepo.FindByProductID(ctx, record.ProductID)
	if err != nil {
		return nil, err
	}
	graph := catalog.NewUnitGraph(units)

	display, err := graph.ConvertQuantity(record.CurrentStock, record.UnitID, targetUnitID)
	if err != nil {
		return nil, err
	}
	from, _ := graph.Unit(record.UnitID)
	to, _ := graph.Unit(targetUnitID)

	return &DisplayStockResponse{
		InventoryID:     record.ID,
		CurrentStock:    record.CurrentStock,
		UnitID:          record.UnitID,
		UnitType:        from.TypeName,
		DisplayStock:    inventory.RoundQuantity(display),
		DisplayUnitID:   targetUnitID,
		DisplayUnitType: to.TypeName,
	}, nil
}

// Movements pages through the audit trail of a record, newest first
func (s *InventoryService) Movements(ctx context.Context, id uuid.UUID, filter MovementListFilter) ([]MovementResponse, int64, error) {
	if _, err := s.inventoryRepo.FindByID(ctx, id); err != nil {
		return nil, 0, err
	}

	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.OrderBy = "occurred_at"

	movements, total, err := s.movementRepo.FindByInventory(ctx, id, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses, total, nil
}

// Delete removes a record together with its audit trail. Postings that
// referenced it stay; reverting them later is a no-op.
func (s *InventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.InventoryRepo().FindByID(ctx, id); err != nil {
			return err
		}
		if err := repos.MovementRepo().DeleteByInventory(ctx, id); err != nil {
			return err
		}
		return repos.InventoryRepo().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("inventory deleted", zap.String("inventory_id", id.String()))
	return nil
}

func (s *InventoryService) toResponse(ctx context.Context, record *inventory.InventoryRecord) (*InventoryResponse, error) {
	responses, err := s.toResponses(ctx, []inventory.InventoryRecord{*record})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// toResponses fills unit names and the low-stock flag, loading each
// product's unit graph once
func (s *InventoryService) toResponses(ctx context.Context, records []inventory.InventoryRecord) ([]InventoryResponse, error) {
	productIDs := make([]uuid.UUID, 0, len(records))
	seen := make(map[uuid.UUID]bool, len(records))
	for i := range records {
		if !seen[records[i].ProductID] {
			seen[records[i].ProductID] = true
			productIDs = append(productIDs, records[i].ProductID)
		}
	}

	graphs := make(map[uuid.UUID]*catalog.UnitGraph, len(productIDs))
	if len(productIDs) > 0 {
		units, err := s.unitRepo.FindByProductIDs(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		byProduct := make(map[uuid.UUID][]catalog.Unit, len(productIDs))
		for _, u := range units {
			byProduct[u.ProductID] = append(byProduct[u.ProductID], u)
		}
		for _, id := range productIDs {
			graphs[id] = catalog.NewUnitGraph(byProduct[id])
		}
	}

	responses := make([]InventoryResponse, len(records))
	for i := range records {
		r := &records[i]
		resp := ToInventoryResponse(r)
		graph := graphs[r.ProductID]
		if u, ok := graph.Unit(r.UnitID); ok {
			resp.UnitType = u.TypeName
		}
		if limit, ok := LimitInInventoryUnit(graph, r); ok {
			resp.IsLowStock = r.IsBelowLimit(limit)
		}
		responses[i] = resp
	}
	return responses, nil
}
