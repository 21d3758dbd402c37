package receiving

import (
	"context"

	"github.com/google/uuid"
)

// ReceivingRecordRepository defines the persistence interface for receiving
// records. Records are append-only; there is no update or delete.
type ReceivingRecordRepository interface {
	// Insert persists a new receiving record with its items
	Insert(ctx context.Context, record *ReceivingRecord) error

	// FindByID retrieves a receiving record with its items
	FindByID(ctx context.Context, id uuid.UUID) (*ReceivingRecord, error)

	// ListByOrder retrieves all receiving records for an order, newest first
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*ReceivingRecord, error)
}
