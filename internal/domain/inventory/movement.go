package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementPurchaseReceipt MovementType = "purchase_receipt"
	MovementAdjustment      MovementType = "adjustment"
	MovementSale            MovementType = "sale"
)

// ReferenceType identifies the document a movement originates from
type ReferenceType string

const (
	ReferencePurchaseOrder ReferenceType = "purchase_order"
	ReferenceManual        ReferenceType = "manual"
)

// InventoryAdjustment is the computed, not yet committed stock change for one
// receipt line. It is derived data and never persisted directly.
type InventoryAdjustment struct {
	ProductID      uuid.UUID       `json:"product_id"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	PreviousStock  decimal.Decimal `json:"previous_stock"`
	NewStock       decimal.Decimal `json:"new_stock"`
	MovementType   MovementType    `json:"movement_type"`
	ReferenceID    uuid.UUID       `json:"reference_id"`
}

// StockMovement is the persisted audit record for one stock change. Records
// are append-only and capture the balance and unit cost on both sides of the
// movement.
type StockMovement struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MovementType   MovementType    `gorm:"type:varchar(30);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCostBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCostAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReferenceType  ReferenceType   `gorm:"type:varchar(30)"`
	ReferenceID    uuid.UUID       `gorm:"type:uuid;index"`
	CreatedBy      string          `gorm:"type:varchar(100)"`
	CreatedAt      time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a stock movement record
func NewStockMovement(productID uuid.UUID, movementType MovementType, quantity, unitCost decimal.Decimal) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}

	return &StockMovement{
		ID:           uuid.New(),
		ProductID:    productID,
		MovementType: movementType,
		Quantity:     quantity,
		UnitCost:     unitCost,
		TotalCost:    quantity.Mul(unitCost),
		CreatedAt:    time.Now(),
	}, nil
}

// WithBalances records the stock balance on both sides of the movement
func (m *StockMovement) WithBalances(before, after decimal.Decimal) *StockMovement {
	m.BalanceBefore = before
	m.BalanceAfter = after
	return m
}

// WithUnitCosts records the average unit cost on both sides of the movement
func (m *StockMovement) WithUnitCosts(before, after decimal.Decimal) *StockMovement {
	m.UnitCostBefore = before
	m.UnitCostAfter = after
	return m
}

// WithReference links the movement to its originating document
func (m *StockMovement) WithReference(refType ReferenceType, refID uuid.UUID) *StockMovement {
	m.ReferenceType = refType
	m.ReferenceID = refID
	return m
}

// WithCreatedBy records who triggered the movement
func (m *StockMovement) WithCreatedBy(createdBy string) *StockMovement {
	m.CreatedBy = createdBy
	return m
}
