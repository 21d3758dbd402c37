package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockLevelRepository defines the persistence interface for stock levels
type StockLevelRepository interface {
	// FindByProduct retrieves the stock level for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) (*StockLevel, error)

	// FindByProducts retrieves stock levels for multiple products
	FindByProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*StockLevel, error)

	// Save persists a stock level, creating it if absent
	Save(ctx context.Context, level *StockLevel) error

	// SaveWithLock persists the stock level only if the stored version
	// matches expectedVersion. Returns shared.ErrConcurrencyConflict
	// otherwise.
	SaveWithLock(ctx context.Context, level *StockLevel, expectedVersion int) error
}

// StockMovementRepository defines the persistence interface for the
// append-only stock movement history
type StockMovementRepository interface {
	// Insert persists a stock movement record
	Insert(ctx context.Context, movement *StockMovement) error

	// ListByProduct retrieves movements for a product, newest first
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]*StockMovement, error)

	// ListByReference retrieves movements originating from a document
	ListByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID) ([]*StockMovement, error)
}

// ProductRepository gives the receiving engine read access to the catalog
type ProductRepository interface {
	// FindByID retrieves a product
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs retrieves multiple products keyed by ID
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
}
