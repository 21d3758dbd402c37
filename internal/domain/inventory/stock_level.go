package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// StockLevel tracks the on-hand quantity and moving weighted-average unit
// cost for one product. It is the unit of optimistic locking for stock
// writes.
type StockLevel struct {
	shared.BaseAggregateRoot
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AverageUnitCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates an empty stock level for a product
func NewStockLevel(productID uuid.UUID) (*StockLevel, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	return &StockLevel{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		Quantity:          decimal.Zero,
		AverageUnitCost:   decimal.Zero,
	}, nil
}

// StockValue returns the current inventory value, quantity times average cost
func (s *StockLevel) StockValue() decimal.Decimal {
	return s.Quantity.Mul(s.AverageUnitCost)
}

// ApplyReceipt increases stock by the received quantity and recomputes the
// weighted-average unit cost. Returns the cost recomputation for the caller
// to record.
func (s *StockLevel) ApplyReceipt(quantity, unitCost decimal.Decimal) (CostResult, error) {
	result, err := WeightedAverage(s.ProductID, s.Quantity, s.AverageUnitCost, quantity, unitCost)
	if err != nil {
		return CostResult{}, err
	}

	s.Quantity = result.NewStock
	s.AverageUnitCost = result.NewUnitCost
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return result, nil
}

// Product is the catalog record a stock level belongs to. The receiving
// engine reads it for existence and active-flag checks; catalog maintenance
// happens elsewhere.
type Product struct {
	shared.BaseEntity
	Name   string `gorm:"type:varchar(200);not null"`
	SKU    string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Active bool   `gorm:"not null;default:true"`
	// StockQuantity is a denormalized mirror of the stock level, maintained
	// by catalog jobs. The receiving engine only compares it for consistency
	// warnings.
	StockQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}
