package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// conservationEpsilonFactor bounds the allowed rounding loss per unit of
// stock. With unit costs rounded half-up to four decimal places, the rounding
// error per unit is at most 0.00005, so total drift stays below
// 0.0001 * newStock.
var conservationEpsilonFactor = decimal.RequireFromString("0.0001")

// CostResult is the outcome of one weighted-average cost recomputation.
// All monetary figures are in the stock level's currency.
type CostResult struct {
	ProductID              uuid.UUID       `json:"product_id"`
	PreviousStock          decimal.Decimal `json:"previous_stock"`
	ReceivedQuantity       decimal.Decimal `json:"received_quantity"`
	NewStock               decimal.Decimal `json:"new_stock"`
	PreviousUnitCost       decimal.Decimal `json:"previous_unit_cost"`
	IncomingUnitCost       decimal.Decimal `json:"incoming_unit_cost"`
	NewUnitCost            decimal.Decimal `json:"new_unit_cost"`
	PreviousValue          decimal.Decimal `json:"previous_value"`
	IncomingValue          decimal.Decimal `json:"incoming_value"`
	NewValue               decimal.Decimal `json:"new_value"`
	CostVariance           decimal.Decimal `json:"cost_variance"`
	CostVariancePercentage decimal.Decimal `json:"cost_variance_percentage"`
}

// WeightedAverage recomputes the moving weighted-average unit cost for a
// product after receiving receivedQuantity units at incomingUnitCost.
//
// The computation conserves monetary value:
//
//	previousStock*previousCost + receivedQuantity*incomingCost == newStock*newCost
//
// within the documented epsilon. The new unit cost is rounded half-up to four
// decimal places; monetary values to two.
func WeightedAverage(productID uuid.UUID, previousStock, previousUnitCost, receivedQuantity, incomingUnitCost decimal.Decimal) (CostResult, error) {
	if previousStock.IsNegative() {
		return CostResult{}, shared.NewDomainError(shared.CodeCostCalculationFailed,
			fmt.Sprintf("Previous stock cannot be negative for product %s", productID))
	}
	if receivedQuantity.LessThanOrEqual(decimal.Zero) {
		return CostResult{}, shared.NewDomainError(shared.CodeCostCalculationFailed,
			fmt.Sprintf("Received quantity must be positive for product %s", productID))
	}
	if previousUnitCost.IsNegative() || incomingUnitCost.IsNegative() {
		return CostResult{}, shared.NewDomainError(shared.CodeCostCalculationFailed,
			fmt.Sprintf("Unit cost cannot be negative for product %s", productID))
	}

	previousValue := previousStock.Mul(previousUnitCost)
	incomingValue := receivedQuantity.Mul(incomingUnitCost)
	newStock := previousStock.Add(receivedQuantity)

	newUnitCost := decimal.Zero
	if !newStock.IsZero() {
		newUnitCost = previousValue.Add(incomingValue).Div(newStock).Round(valueobject.UnitCostScale)
	}

	newValue := newStock.Mul(newUnitCost)
	drift := newValue.Sub(previousValue.Add(incomingValue)).Abs()
	epsilon := conservationEpsilonFactor.Mul(newStock)
	if drift.GreaterThan(epsilon) {
		return CostResult{}, shared.NewDomainError(shared.CodeCostCalculationFailed,
			fmt.Sprintf("Value conservation violated for product %s: drift %s exceeds epsilon %s", productID, drift, epsilon))
	}

	costVariance := newUnitCost.Sub(previousUnitCost)
	costVariancePercentage := decimal.Zero
	if !previousUnitCost.IsZero() {
		costVariancePercentage = costVariance.Div(previousUnitCost).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return CostResult{
		ProductID:              productID,
		PreviousStock:          previousStock,
		ReceivedQuantity:       receivedQuantity,
		NewStock:               newStock,
		PreviousUnitCost:       previousUnitCost,
		IncomingUnitCost:       incomingUnitCost,
		NewUnitCost:            newUnitCost,
		PreviousValue:          previousValue.Round(valueobject.MoneyScale),
		IncomingValue:          incomingValue.Round(valueobject.MoneyScale),
		NewValue:               newValue.Round(valueobject.MoneyScale),
		CostVariance:           costVariance,
		CostVariancePercentage: costVariancePercentage,
	}, nil
}
