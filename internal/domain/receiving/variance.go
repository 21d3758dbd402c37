package receiving

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/purchasing"
)

// PriceVariance describes the deviation between the unit cost originally
// ordered and the unit cost actually paid for one product
type PriceVariance struct {
	ProductID          uuid.UUID       `json:"product_id"`
	OrderedUnitCost    decimal.Decimal `json:"ordered_unit_cost"`
	ActualUnitCost     decimal.Decimal `json:"actual_unit_cost"`
	Variance           decimal.Decimal `json:"variance"`
	VariancePercentage decimal.Decimal `json:"variance_percentage"`
	ExceedsThreshold   bool            `json:"exceeds_threshold"`
}

// DetectPriceVariances computes the per-line cost deviation from the ordered
// unit cost. Lines whose absolute percentage deviation exceeds the threshold
// are flagged; they are informational and never block a commit.
func DetectPriceVariances(order *purchasing.PurchaseOrder, items []PartialReceiptItem, threshold decimal.Decimal) []PriceVariance {
	variances := make([]PriceVariance, 0, len(items))
	hundred := decimal.NewFromInt(100)

	for _, item := range items {
		orderItem := order.GetItemByProduct(item.ProductID)
		if orderItem == nil {
			continue
		}

		variance := item.UnitCost.Sub(orderItem.UnitCost)
		percentage := decimal.Zero
		if !orderItem.UnitCost.IsZero() {
			percentage = variance.Div(orderItem.UnitCost).Mul(hundred)
		}

		variances = append(variances, PriceVariance{
			ProductID:          item.ProductID,
			OrderedUnitCost:    orderItem.UnitCost,
			ActualUnitCost:     item.UnitCost,
			Variance:           variance,
			VariancePercentage: percentage.Round(2),
			ExceedsThreshold:   percentage.Abs().GreaterThan(threshold),
		})
	}

	return variances
}

// FlaggedVariances filters the result of DetectPriceVariances down to the
// lines exceeding the threshold
func FlaggedVariances(variances []PriceVariance) []PriceVariance {
	flagged := make([]PriceVariance, 0)
	for _, v := range variances {
		if v.ExceedsThreshold {
			flagged = append(flagged, v)
		}
	}
	return flagged
}
