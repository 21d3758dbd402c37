package receiving

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeReceiptRecorded = "receiving.receipt.recorded"
)

// ReceiptRecordedEvent is published after a receiving record has been
// durably committed
type ReceiptRecordedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	ReceivedBy    string          `json:"received_by"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Lines         int             `json:"lines"`
}

// NewReceiptRecordedEvent creates a receipt recorded event
func NewReceiptRecordedEvent(record *ReceivingRecord) *ReceiptRecordedEvent {
	return &ReceiptRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptRecorded, "ReceivingRecord", record.ID),
		OrderID:         record.OrderID,
		OrderNumber:     record.OrderNumber,
		ReceivedBy:      record.ReceivedBy,
		TotalQuantity:   record.TotalQuantity,
		TotalCost:       record.TotalCost,
		Lines:           len(record.Items),
	}
}
