package inventory

import (
	"context"

	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to every repository a ledger
// mutation touches. All repositories returned share the same underlying
// database transaction.
//
// A purchase or sale row and the stock change it causes are always written
// through the same TransactionalRepositories, so a failed stock check rolls
// back the posting as well.
type TransactionalRepositories interface {
	// InventoryRepo returns the inventory record repository scoped to the current transaction
	InventoryRepo() inventory.InventoryRecordRepository
	// MovementRepo returns the movement log repository scoped to the current transaction
	MovementRepo() inventory.MovementRepository
	// UnitRepo returns the unit repository scoped to the current transaction
	UnitRepo() catalog.UnitRepository
	// PurchaseRepo returns the purchase repository scoped to the current transaction
	PurchaseRepo() trade.PurchaseRepository
	// SaleRepo returns the sale repository scoped to the current transaction
	SaleRepo() trade.SaleRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	inventoryRepo inventory.InventoryRecordRepository
	movementRepo  inventory.MovementRepository
	unitRepo      catalog.UnitRepository
	purchaseRepo  trade.PurchaseRepository
	saleRepo      trade.SaleRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	inventoryRepo inventory.InventoryRecordRepository,
	movementRepo inventory.MovementRepository,
	unitRepo catalog.UnitRepository,
	purchaseRepo trade.PurchaseRepository,
	saleRepo trade.SaleRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		unitRepo:      unitRepo,
		purchaseRepo:  purchaseRepo,
		saleRepo:      saleRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) InventoryRepo() inventory.InventoryRecordRepository {
	return s.inventoryRepo
}

func (s *NoOpTransactionScope) MovementRepo() inventory.MovementRepository {
	return s.movementRepo
}

func (s *NoOpTransactionScope) UnitRepo() catalog.UnitRepository {
	return s.unitRepo
}

func (s *NoOpTransactionScope) PurchaseRepo() trade.PurchaseRepository {
	return s.purchaseRepo
}

func (s *NoOpTransactionScope) SaleRepo() trade.SaleRepository {
	return s.saleRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
