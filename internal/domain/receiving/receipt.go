package receiving

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// ItemCondition describes the physical condition of received goods
type ItemCondition string

const (
	ConditionGood     ItemCondition = "good"
	ConditionDamaged  ItemCondition = "damaged"
	ConditionExpired  ItemCondition = "expired"
	ConditionReturned ItemCondition = "returned"
)

// IsValid checks if the condition is a known condition code
func (c ItemCondition) IsValid() bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionExpired, ConditionReturned:
		return true
	}
	return false
}

// PartialReceiptItem is one line of a goods-receipt submission. It is input
// only and never persisted as-is.
type PartialReceiptItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	BatchNumber string          `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	Condition   ItemCondition   `json:"condition,omitempty"`
}

// EffectiveTotalCost returns the submitted total cost, falling back to
// quantity * unit cost when the caller left it zero
func (i PartialReceiptItem) EffectiveTotalCost() decimal.Decimal {
	if !i.TotalCost.IsZero() {
		return i.TotalCost
	}
	return i.Quantity.Mul(i.UnitCost)
}

// ReceivingRecordItem is a persisted line of a receiving record
type ReceivingRecordItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	RecordID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BatchNumber string          `gorm:"type:varchar(100)"`
	ExpiryDate  *time.Time
	Condition   ItemCondition `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (ReceivingRecordItem) TableName() string {
	return "receiving_record_items"
}

// ReceivingRecord is the append-only history entry for one successful receipt
// commit. It is created exactly once and never mutated afterward.
type ReceivingRecord struct {
	shared.BaseEntity
	OrderID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	OrderNumber    string                `gorm:"type:varchar(50);not null"`
	ReceivedBy     string                `gorm:"type:varchar(100);not null"`
	ReceivedByName string                `gorm:"type:varchar(200)"`
	ReceivedAt     time.Time             `gorm:"not null;index"`
	Notes          string                `gorm:"type:text"`
	IdempotencyKey string                `gorm:"type:varchar(200);index"`
	TotalQuantity  decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TotalCost      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Items          []ReceivingRecordItem `gorm:"foreignKey:RecordID;references:ID"`
}

// TableName returns the table name for GORM
func (ReceivingRecord) TableName() string {
	return "receiving_records"
}

// NewReceivingRecord builds the persisted record for one receipt submission
func NewReceivingRecord(orderID uuid.UUID, orderNumber, receivedBy, receivedByName, notes, idempotencyKey string, items []PartialReceiptItem) (*ReceivingRecord, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if receivedBy == "" {
		return nil, shared.NewDomainError("INVALID_RECEIVER", "Receiver identity is required")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Receipt items cannot be empty")
	}

	record := &ReceivingRecord{
		BaseEntity:     shared.NewBaseEntity(),
		OrderID:        orderID,
		OrderNumber:    orderNumber,
		ReceivedBy:     receivedBy,
		ReceivedByName: receivedByName,
		ReceivedAt:     time.Now(),
		Notes:          notes,
		IdempotencyKey: idempotencyKey,
		TotalQuantity:  decimal.Zero,
		TotalCost:      decimal.Zero,
		Items:          make([]ReceivingRecordItem, 0, len(items)),
	}

	for _, item := range items {
		totalCost := item.EffectiveTotalCost()
		record.Items = append(record.Items, ReceivingRecordItem{
			ID:          uuid.New(),
			RecordID:    record.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			TotalCost:   totalCost,
			BatchNumber: item.BatchNumber,
			ExpiryDate:  item.ExpiryDate,
			Condition:   item.Condition,
		})
		record.TotalQuantity = record.TotalQuantity.Add(item.Quantity)
		record.TotalCost = record.TotalCost.Add(totalCost)
	}

	return record, nil
}
