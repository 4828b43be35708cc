package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultMaxRetries is how many times a mutation is attempted when the
// record keeps changing underneath it
const DefaultMaxRetries = 3

// LedgerMetrics receives ledger outcomes. The prometheus collector in
// infrastructure/metrics implements it.
type LedgerMetrics interface {
	RecordMutation(kind inventory.MovementKind)
	RecordConflict(operation string)
	RecordRejection(operation, code string)
}

type noopLedgerMetrics struct{}

func (noopLedgerMetrics) RecordMutation(inventory.MovementKind) {}
func (noopLedgerMetrics) RecordConflict(string)                 {}
func (noopLedgerMetrics) RecordRejection(string, string)        {}

// ApplyPurchaseInput is a quantity received in one of the product's units
type ApplyPurchaseInput struct {
	ProductID uuid.UUID
	ShopID    uuid.UUID
	UnitID    uuid.UUID
	Quantity  decimal.Decimal
	SourceID  uuid.UUID
}

// ApplySaleInput is a quantity sold in one of the product's units
type ApplySaleInput struct {
	ProductID uuid.UUID
	ShopID    uuid.UUID
	UnitID    uuid.UUID
	Quantity  decimal.Decimal
	SourceID  uuid.UUID
}

// RevertInput undoes the stock effect of an earlier posting. Delta is signed
// and expressed in UnitID: a purchase is reverted with -quantity, a sale
// with +quantity.
type RevertInput struct {
	ProductID uuid.UUID
	ShopID    uuid.UUID
	UnitID    uuid.UUID
	Delta     decimal.Decimal
	SourceID  uuid.UUID
}

// SetupInput creates a record with an opening balance. InitialUnitID is the
// unit InitialStock is counted in; nil means UnitID.
type SetupInput struct {
	ProductID     uuid.UUID
	ShopID        uuid.UUID
	UnitID        uuid.UUID
	InitialStock  decimal.Decimal
	InitialUnitID *uuid.UUID
}

// LedgerService owns every change to stock. All operations take the
// repositories of the caller's transaction so that a posting and its stock
// effect commit together. Domain events stay queued on the returned records
// until the caller has committed and calls Publish.
type LedgerService struct {
	maxRetries     int
	metrics        LedgerMetrics
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(maxRetries int, logger *zap.Logger) *LedgerService {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		maxRetries: maxRetries,
		metrics:    noopLedgerMetrics{},
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics sink
func (s *LedgerService) SetMetrics(metrics LedgerMetrics) {
	if metrics == nil {
		metrics = noopLedgerMetrics{}
	}
	s.metrics = metrics
}

// Publish publishes and clears the queued events of committed records
func (s *LedgerService) Publish(ctx context.Context, records ...*inventory.InventoryRecord) {
	for _, record := range records {
		if record == nil {
			continue
		}
		events := record.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if s.eventPublisher != nil {
			// Publish errors are logged by the event bus, not propagated
			_ = s.eventPublisher.Publish(ctx, events...)
		}
		record.ClearDomainEvents()
	}
}

// ApplyPurchase converts the quantity into the inventory unit and adds it.
// The record must have been set up first: it is what fixes the inventory unit.
func (s *LedgerService) ApplyPurchase(ctx context.Context, repos TransactionalRepositories, in ApplyPurchaseInput) (*inventory.InventoryRecord, error) {
	const op = "apply_purchase"
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", op)
	defer span.End()

	graph, err := s.productGraph(ctx, repos, in.ProductID, in.UnitID)
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}

	var record *inventory.InventoryRecord
	var qty decimal.Decimal
	err = s.withRetry(op, func() error {
		var err error
		record, err = repos.InventoryRepo().FindByProductAndShop(ctx, in.ProductID, in.ShopID)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeUnitNotDefined, "Product has no inventory unit in this shop")
		}
		if err != nil {
			return err
		}

		qty, err = graph.ConvertQuantity(in.Quantity, in.UnitID, record.UnitID)
		if err != nil {
			return err
		}
		if err := record.Receive(qty, in.SourceID); err != nil {
			return err
		}
		return repos.InventoryRepo().SaveWithLock(ctx, record)
	})
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}

	if err := s.recordMovement(ctx, repos, record, inventory.MovementPurchase, &in.SourceID, qty); err != nil {
		return nil, err
	}
	s.checkLimit(graph, record)

	s.logger.Info("purchase applied to stock",
		zap.String("inventory_id", record.ID.String()),
		zap.String("quantity", in.Quantity.String()),
		zap.String("balance", record.CurrentStock.String()),
	)
	return record, nil
}

// ApplySale converts the quantity into the inventory unit and removes it.
// Stock is checked and decremented in the same compare-and-swap write, so
// two concurrent sales cannot both pass the check.
func (s *LedgerService) ApplySale(ctx context.Context, repos TransactionalRepositories, in ApplySaleInput) (*inventory.InventoryRecord, error) {
	const op = "apply_sale"
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", op)
	defer span.End()

	graph, err := s.productGraph(ctx, repos, in.ProductID, in.UnitID)
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}

	var record *inventory.InventoryRecord
	var qty decimal.Decimal
	err = s.withRetry(op, func() error {
		var err error
		record, err = repos.InventoryRepo().FindByProductAndShop(ctx, in.ProductID, in.ShopID)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError(shared.CodeUnitNotDefined, "Product has no inventory unit in this shop")
		}
		if err != nil {
			return err
		}

		qty, err = graph.ConvertQuantity(in.Quantity, in.UnitID, record.UnitID)
		if err != nil {
			return err
		}
		if err := record.Dispatch(qty, in.SourceID); err != nil {
			return err
		}
		return repos.InventoryRepo().SaveWithLock(ctx, record)
	})
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}

	if err := s.recordMovement(ctx, repos, record, inventory.MovementSale, &in.SourceID, inventory.RoundQuantity(qty).Neg()); err != nil {
		return nil, err
	}
	s.checkLimit(graph, record)

	s.logger.Info("sale applied to stock",
		zap.String("inventory_id", record.ID.String()),
		zap.String("quantity", in.Quantity.String()),
		zap.String("balance", record.CurrentStock.String()),
	)
	return record, nil
}

// Holds reports whether the current record of a product in a shop carries
// the stock of a posting. It is false when the record was deleted after the
// posting, even if it has been set up again since.
func (s *LedgerService) Holds(ctx context.Context, repos TransactionalRepositories, productID, shopID, sourceID uuid.UUID) (bool, error) {
	record, err := repos.InventoryRepo().FindByProductAndShop(ctx, productID, shopID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return repos.MovementRepo().HasSource(ctx, record.ID, sourceID)
}

// Revert applies the signed correction of an edited or deleted posting.
// When the current record does not carry the posting there is no stock left
// to correct and nil is returned.
func (s *LedgerService) Revert(ctx context.Context, repos TransactionalRepositories, in RevertInput) (*inventory.InventoryRecord, error) {
	const op = "revert"
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", op)
	defer span.End()
	if in.Delta.IsZero() {
		return nil, nil
	}

	held, err := s.Holds(ctx, repos, in.ProductID, in.ShopID, in.SourceID)
	if err != nil {
		return nil, err
	}
	if !held {
		s.logger.Warn("posting reverted without its inventory record",
			zap.String("product_id", in.ProductID.String()),
			zap.String("shop_id", in.ShopID.String()),
			zap.String("source_id", in.SourceID.String()),
		)
		return nil, nil
	}

	graph, err := s.productGraph(ctx, repos, in.ProductID, in.UnitID)
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}

	var record *inventory.InventoryRecord
	var delta decimal.Decimal
	err = s.withRetry(op, func() error {
		var err error
		record, err = repos.InventoryRepo().FindByProductAndShop(ctx, in.ProductID, in.ShopID)
		if err != nil {
			return err
		}
		delta, err = graph.ConvertQuantity(in.Delta, in.UnitID, record.UnitID)
		if err != nil {
			return err
		}
		if err := record.Revert(delta); err != nil {
			return err
		}
		return repos.InventoryRepo().SaveWithLock(ctx, record)
	})
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}

	if err := s.recordMovement(ctx, repos, record, inventory.MovementReversal, &in.SourceID, delta); err != nil {
		return nil, err
	}
	s.checkLimit(graph, record)
	return record, nil
}

// Reconcile overwrites the stock of a record with a physical count.
// unitID is the unit the count was taken in; nil means the inventory unit.
func (s *LedgerService) Reconcile(ctx context.Context, repos TransactionalRepositories, inventoryID uuid.UUID, actual decimal.Decimal, unitID *uuid.UUID) (*inventory.InventoryRecord, error) {
	const op = "reconcile"
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", op)
	defer span.End()

	var record *inventory.InventoryRecord
	var graph *catalog.UnitGraph
	var delta decimal.Decimal
	err := s.withRetry(op, func() error {
		var err error
		record, err = repos.InventoryRepo().FindByID(ctx, inventoryID)
		if err != nil {
			return err
		}
		countUnit := record.UnitID
		if unitID != nil {
			countUnit = *unitID
		}
		if graph == nil {
			graph, err = s.productGraph(ctx, repos, record.ProductID, countUnit)
			if err != nil {
				return err
			}
		}
		converted, err := graph.ConvertQuantity(actual, countUnit, record.UnitID)
		if err != nil {
			return err
		}
		previous := record.CurrentStock
		if err := record.Reconcile(converted); err != nil {
			return err
		}
		delta = record.CurrentStock.Sub(previous)
		return repos.InventoryRepo().SaveWithLock(ctx, record)
	})
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}

	if err := s.recordMovement(ctx, repos, record, inventory.MovementReconcile, nil, delta); err != nil {
		return nil, err
	}
	s.checkLimit(graph, record)

	s.logger.Info("stock reconciled",
		zap.String("inventory_id", record.ID.String()),
		zap.String("delta", delta.String()),
		zap.String("balance", record.CurrentStock.String()),
	)
	return record, nil
}

// Setup creates the record of a product in a shop with an opening balance
func (s *LedgerService) Setup(ctx context.Context, repos TransactionalRepositories, in SetupInput) (*inventory.InventoryRecord, error) {
	const op = "setup"
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", op)
	defer span.End()

	graph, err := s.productGraph(ctx, repos, in.ProductID, in.UnitID)
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}
	initialUnit := in.UnitID
	if in.InitialUnitID != nil {
		initialUnit = *in.InitialUnitID
	}
	opening, err := graph.ConvertQuantity(in.InitialStock, initialUnit, in.UnitID)
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}

	record, err := inventory.NewInventoryRecord(in.ProductID, in.ShopID, in.UnitID)
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}
	if err := record.Reconcile(opening); err != nil {
		return nil, s.reject(ctx, op, err)
	}
	// Opening balance is not a reconciliation
	record.ClearDomainEvents()

	if err := repos.InventoryRepo().Create(ctx, record); err != nil {
		return nil, s.reject(ctx, op, err)
	}
	if err := s.recordMovement(ctx, repos, record, inventory.MovementSetup, nil, record.CurrentStock); err != nil {
		return nil, err
	}
	return record, nil
}

// SetStockLimit stores the reorder threshold of a record. unitID is the unit
// the limit is expressed in; nil means the inventory unit.
func (s *LedgerService) SetStockLimit(ctx context.Context, repos TransactionalRepositories, inventoryID uuid.UUID, limit decimal.Decimal, unitID *uuid.UUID) (*inventory.InventoryRecord, error) {
	const op = "set_stock_limit"
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", op)
	defer span.End()

	var record *inventory.InventoryRecord
	var graph *catalog.UnitGraph
	err := s.withRetry(op, func() error {
		var err error
		record, err = repos.InventoryRepo().FindByID(ctx, inventoryID)
		if err != nil {
			return err
		}
		if unitID != nil && *unitID != record.UnitID {
			if graph == nil {
				graph, err = s.productGraph(ctx, repos, record.ProductID, *unitID)
				if err != nil {
					return err
				}
			}
			if _, err := graph.Factor(*unitID, record.UnitID); err != nil {
				return err
			}
		}
		if err := record.SetStockLimit(limit, unitID); err != nil {
			return err
		}
		return repos.InventoryRepo().SaveWithLock(ctx, record)
	})
	if err != nil {
		return nil, s.reject(ctx, op, err)
	}
	return record, nil
}

// LimitInInventoryUnit converts the stock limit of a record into its
// inventory unit. ok is false when the limit unit can no longer be converted.
func LimitInInventoryUnit(graph *catalog.UnitGraph, record *inventory.InventoryRecord) (decimal.Decimal, bool) {
	if !record.StockLimit.IsPositive() {
		return decimal.Zero, true
	}
	limitUnit := record.LimitUnitID()
	if limitUnit == record.UnitID {
		return record.StockLimit, true
	}
	limit, err := graph.ConvertQuantity(record.StockLimit, limitUnit, record.UnitID)
	if err != nil {
		return decimal.Zero, false
	}
	return limit, true
}

// productGraph loads the unit graph of a product and checks that unitID is
// one of its units
func (s *LedgerService) productGraph(ctx context.Context, repos TransactionalRepositories, productID, unitID uuid.UUID) (*catalog.UnitGraph, error) {
	units, err := repos.UnitRepo().FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	graph := catalog.NewUnitGraph(units)
	if u, ok := graph.Unit(unitID); !ok || u.ProductID != productID {
		return nil, shared.NewDomainError(shared.CodeUnitNotDefined, "Unit "+unitID.String()+" is not defined for this product")
	}
	return graph, nil
}

func (s *LedgerService) checkLimit(graph *catalog.UnitGraph, record *inventory.InventoryRecord) {
	limit, ok := LimitInInventoryUnit(graph, record)
	if !ok {
		s.logger.Warn("stock limit unit cannot be converted",
			zap.String("inventory_id", record.ID.String()),
		)
		return
	}
	record.CheckLimit(limit)
}

func (s *LedgerService) recordMovement(ctx context.Context, repos TransactionalRepositories, record *inventory.InventoryRecord, kind inventory.MovementKind, sourceID *uuid.UUID, delta decimal.Decimal) error {
	movement, err := inventory.NewMovement(record, kind, sourceID, delta)
	if err != nil {
		return err
	}
	if err := repos.MovementRepo().Create(ctx, movement); err != nil {
		return err
	}
	s.metrics.RecordMutation(kind)
	return nil
}

// withRetry runs fn until it stops failing with a concurrency conflict, up
// to maxRetries attempts. fn must re-read the record on every attempt.
func (s *LedgerService) withRetry(op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = fn()
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		s.metrics.RecordConflict(op)
		s.logger.Debug("ledger write conflict, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
		)
	}
	return err
}

func (s *LedgerService) reject(ctx context.Context, op string, err error) error {
	telemetry.RecordError(trace.SpanFromContext(ctx), err)
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		s.metrics.RecordRejection(op, domainErr.Code)
		s.logger.Warn("ledger operation rejected",
			zap.String("operation", op),
			zap.String("code", domainErr.Code),
			zap.String("reason", domainErr.Message),
		)
	}
	return err
}
