package receiving

import (
	"context"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/purchasing"
	"github.com/retailcore/backend/internal/domain/receiving"
)

// TransactionScope provides transactional access to the repositories touched
// by a receipt commit. Everything executed within one scope is committed or
// rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// transaction. All repositories returned share the same underlying database
// transaction.
//
// Aggregate boundary notes:
//   - OrderRepo: the PurchaseOrder aggregate; item rows are persisted via
//     association handling when the root is saved.
//   - StockLevelRepo: one StockLevel aggregate per product; the unit of
//     optimistic locking for stock writes.
//   - MovementRepo and RecordRepo: append-only history, never updated.
type TransactionalRepositories interface {
	// OrderRepo returns the purchase order repository scoped to the current transaction
	OrderRepo() purchasing.PurchaseOrderRepository
	// StockLevelRepo returns the stock level repository scoped to the current transaction
	StockLevelRepo() inventory.StockLevelRepository
	// MovementRepo returns the stock movement repository scoped to the current transaction
	MovementRepo() inventory.StockMovementRepository
	// RecordRepo returns the receiving record repository scoped to the current transaction
	RecordRepo() receiving.ReceivingRecordRepository
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() inventory.ProductRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests and for stores without transaction support.
type NoOpTransactionScope struct {
	orderRepo      purchasing.PurchaseOrderRepository
	stockLevelRepo inventory.StockLevelRepository
	movementRepo   inventory.StockMovementRepository
	recordRepo     receiving.ReceivingRecordRepository
	productRepo    inventory.ProductRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orderRepo purchasing.PurchaseOrderRepository,
	stockLevelRepo inventory.StockLevelRepository,
	movementRepo inventory.StockMovementRepository,
	recordRepo receiving.ReceivingRecordRepository,
	productRepo inventory.ProductRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:      orderRepo,
		stockLevelRepo: stockLevelRepo,
		movementRepo:   movementRepo,
		recordRepo:     recordRepo,
		productRepo:    productRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the purchase order repository.
func (s *NoOpTransactionScope) OrderRepo() purchasing.PurchaseOrderRepository {
	return s.orderRepo
}

// StockLevelRepo returns the stock level repository.
func (s *NoOpTransactionScope) StockLevelRepo() inventory.StockLevelRepository {
	return s.stockLevelRepo
}

// MovementRepo returns the stock movement repository.
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

// RecordRepo returns the receiving record repository.
func (s *NoOpTransactionScope) RecordRepo() receiving.ReceivingRecordRepository {
	return s.recordRepo
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() inventory.ProductRepository {
	return s.productRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
