package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeStockIncreased = "inventory.stock.increased"
)

// StockIncreasedEvent is published after a receipt has increased a product's
// stock and recomputed its average cost
type StockIncreasedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	NewStock      decimal.Decimal `json:"new_stock"`
	NewUnitCost   decimal.Decimal `json:"new_unit_cost"`
	ReferenceType ReferenceType   `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
}

// NewStockIncreasedEvent creates a stock increased event from a cost result
func NewStockIncreasedEvent(result CostResult, refType ReferenceType, refID uuid.UUID) *StockIncreasedEvent {
	return &StockIncreasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockIncreased, "StockLevel", result.ProductID),
		ProductID:       result.ProductID,
		Quantity:        result.ReceivedQuantity,
		UnitCost:        result.IncomingUnitCost,
		NewStock:        result.NewStock,
		NewUnitCost:     result.NewUnitCost,
		ReferenceType:   refType,
		ReferenceID:     refID,
	}
}
