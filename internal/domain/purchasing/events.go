package purchasing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypePurchaseOrderCreated   = "purchasing.purchase_order.created"
	EventTypePurchaseOrderApproved  = "purchasing.purchase_order.approved"
	EventTypePurchaseOrderReceived  = "purchasing.purchase_order.received"
	EventTypePurchaseOrderCancelled = "purchasing.purchase_order.cancelled"
)

// PurchaseOrderCreatedEvent is published when a purchase order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber  string    `json:"order_number"`
	SupplierID   uuid.UUID `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
}

// NewPurchaseOrderCreatedEvent creates a new purchase order created event
func NewPurchaseOrderCreatedEvent(order *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, "PurchaseOrder", order.ID),
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		SupplierName:    order.SupplierName,
	}
}

// PurchaseOrderApprovedEvent is published when a purchase order is approved
type PurchaseOrderApprovedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	SupplierID  uuid.UUID       `json:"supplier_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewPurchaseOrderApprovedEvent creates a new purchase order approved event
func NewPurchaseOrderApprovedEvent(order *PurchaseOrder) *PurchaseOrderApprovedEvent {
	return &PurchaseOrderApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderApproved, "PurchaseOrder", order.ID),
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		TotalAmount:     order.TotalAmount,
	}
}

// ReceivedLine describes one received line carried on the received event
type ReceivedLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// PurchaseOrderReceivedEvent is published when goods are received against an order
type PurchaseOrderReceivedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string              `json:"order_number"`
	SupplierID  uuid.UUID           `json:"supplier_id"`
	Status      PurchaseOrderStatus `json:"status"`
	Lines       []ReceivedLine      `json:"lines"`
}

// NewPurchaseOrderReceivedEvent creates a new purchase order received event
func NewPurchaseOrderReceivedEvent(order *PurchaseOrder, lines []AppliedReceiptLine) *PurchaseOrderReceivedEvent {
	received := make([]ReceivedLine, 0, len(lines))
	for _, line := range lines {
		received = append(received, ReceivedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
		})
	}
	return &PurchaseOrderReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReceived, "PurchaseOrder", order.ID),
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		Status:          order.Status,
		Lines:           received,
	}
}

// PurchaseOrderCancelledEvent is published when a purchase order is cancelled
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// NewPurchaseOrderCancelledEvent creates a new purchase order cancelled event
func NewPurchaseOrderCancelledEvent(order *PurchaseOrder, reason string) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, "PurchaseOrder", order.ID),
		OrderNumber:     order.OrderNumber,
		Reason:          reason,
	}
}
