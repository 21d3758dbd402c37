package purchasing

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List queries
type ListFilter struct {
	Status     *PurchaseOrderStatus
	SupplierID *uuid.UUID
	Offset     int
	Limit      int
}

// PurchaseOrderRepository defines the persistence interface for purchase orders
type PurchaseOrderRepository interface {
	// FindByID retrieves a purchase order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByOrderNumber retrieves a purchase order by its business key
	FindByOrderNumber(ctx context.Context, orderNumber string) (*PurchaseOrder, error)

	// List retrieves purchase orders matching the filter
	List(ctx context.Context, filter ListFilter) ([]*PurchaseOrder, int64, error)

	// Save persists a purchase order and its items
	Save(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock persists the order only if the stored version matches
	// expectedVersion. Returns shared.ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, order *PurchaseOrder, expectedVersion int) error

	// Delete removes a purchase order; only draft orders may be deleted
	Delete(ctx context.Context, id uuid.UUID) error
}
