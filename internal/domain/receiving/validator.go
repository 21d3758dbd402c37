package receiving

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/purchasing"
)

// Issue codes produced by the validator
const (
	IssueNoItems            = "NO_ITEMS"
	IssueOrderNotReceivable = "ORDER_NOT_RECEIVABLE"
	IssueOrderFullyReceived = "ORDER_FULLY_RECEIVED"
	IssueUnknownProduct     = "UNKNOWN_PRODUCT"
	IssueInvalidQuantity    = "INVALID_QUANTITY"
	IssueInvalidCost        = "INVALID_COST"
	IssueOverReceipt        = "OVER_RECEIPT"
	IssueToleranceExceeded  = "TOLERANCE_EXCEEDED"
	IssuePriceVariance      = "PRICE_VARIANCE"
	IssueInvalidCondition   = "INVALID_CONDITION"
	IssueBatchRequired      = "BATCH_REQUIRED"
	IssueExpiryRequired     = "EXPIRY_REQUIRED"
)

// priceVarianceThreshold is the percentage deviation from the ordered unit
// cost beyond which a warning is raised
var priceVarianceThreshold = decimal.NewFromInt(10)

// ValidationIssue is one field-level problem found by the validator
type ValidationIssue struct {
	Code      string    `json:"code"`
	Field     string    `json:"field"`
	ProductID uuid.UUID `json:"product_id,omitempty"`
	Message   string    `json:"message"`
}

// ValidationResult carries every error and warning found in one pass.
// Errors block the commit; warnings never do.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// IsValid returns true when no blocking errors were found
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addError(issue ValidationIssue) {
	r.Errors = append(r.Errors, issue)
}

func (r *ValidationResult) addWarning(issue ValidationIssue) {
	r.Warnings = append(r.Warnings, issue)
}

// ValidationOptions controls receipt validation behavior
type ValidationOptions struct {
	// AllowOverReceiving permits cumulative receipt beyond the ordered
	// quantity, up to the tolerance
	AllowOverReceiving bool
	// TolerancePercentage is the allowed over-receipt margin, e.g. 5.0
	TolerancePercentage decimal.Decimal
	// RequireBatchTracking makes a missing batch number an error
	RequireBatchTracking bool
	// RequireExpiryDates makes a missing expiry date an error
	RequireExpiryDates bool
}

// DefaultValidationOptions returns the standard validation options.
// Over-receiving is opt-in; out of the box any receipt beyond the ordered
// quantity is rejected.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		AllowOverReceiving:  false,
		TolerancePercentage: decimal.NewFromInt(5),
	}
}

// ValidateReceipt validates a proposed receipt against the order. It is a
// pure function: identical inputs always yield identical results, and no
// state is touched. All problems are collected in one pass rather than
// failing on the first.
func ValidateReceipt(order *purchasing.PurchaseOrder, items []PartialReceiptItem, opts ValidationOptions) ValidationResult {
	result := ValidationResult{}

	if len(items) == 0 {
		result.addError(ValidationIssue{
			Code:    IssueNoItems,
			Field:   "items",
			Message: "Receipt must contain at least one item",
		})
	}

	if !order.Status.CanReceive() {
		result.addError(ValidationIssue{
			Code:    IssueOrderNotReceivable,
			Field:   "status",
			Message: fmt.Sprintf("Order in %s status cannot receive goods", order.Status),
		})
	} else if order.IsFullyReceived() {
		result.addError(ValidationIssue{
			Code:    IssueOrderFullyReceived,
			Field:   "status",
			Message: "Order has already been fully received",
		})
	}

	// The same product may appear on multiple submission lines; tolerance is
	// checked against the per-product cumulative total.
	submittedByProduct := make(map[uuid.UUID]decimal.Decimal)
	for _, item := range items {
		submittedByProduct[item.ProductID] = submittedByProduct[item.ProductID].Add(item.Quantity)
	}

	for idx, item := range items {
		field := fmt.Sprintf("items[%d]", idx)

		orderItem := order.GetItemByProduct(item.ProductID)
		if orderItem == nil {
			result.addError(ValidationIssue{
				Code:      IssueUnknownProduct,
				Field:     field + ".product_id",
				ProductID: item.ProductID,
				Message:   fmt.Sprintf("Product %s is not on this order", item.ProductID),
			})
		}

		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			result.addError(ValidationIssue{
				Code:      IssueInvalidQuantity,
				Field:     field + ".quantity",
				ProductID: item.ProductID,
				Message:   "Received quantity must be greater than zero",
			})
		}

		if item.UnitCost.IsNegative() {
			result.addError(ValidationIssue{
				Code:      IssueInvalidCost,
				Field:     field + ".unit_cost",
				ProductID: item.ProductID,
				Message:   "Unit cost cannot be negative",
			})
		}

		if item.Condition != "" && !item.Condition.IsValid() {
			result.addError(ValidationIssue{
				Code:      IssueInvalidCondition,
				Field:     field + ".condition",
				ProductID: item.ProductID,
				Message:   fmt.Sprintf("Unknown condition code %q", item.Condition),
			})
		}

		if opts.RequireBatchTracking && item.BatchNumber == "" {
			result.addError(ValidationIssue{
				Code:      IssueBatchRequired,
				Field:     field + ".batch_number",
				ProductID: item.ProductID,
				Message:   "Batch number is required",
			})
		}

		if opts.RequireExpiryDates && item.ExpiryDate == nil {
			result.addError(ValidationIssue{
				Code:      IssueExpiryRequired,
				Field:     field + ".expiry_date",
				ProductID: item.ProductID,
				Message:   "Expiry date is required",
			})
		}

		if orderItem == nil {
			continue
		}

		validateCumulativeQuantity(&result, field, orderItem, submittedByProduct[item.ProductID], opts)
		validatePriceVariance(&result, field, orderItem, item)
	}

	return result
}

// validateCumulativeQuantity checks previous plus submitted quantity against
// the ordered quantity and the tolerance ceiling
func validateCumulativeQuantity(result *ValidationResult, field string, orderItem *purchasing.PurchaseOrderItem, submitted decimal.Decimal, opts ValidationOptions) {
	cumulative := orderItem.ReceivedQuantity.Add(submitted)
	if cumulative.LessThanOrEqual(orderItem.OrderedQuantity) {
		return
	}

	if !opts.AllowOverReceiving {
		result.addError(ValidationIssue{
			Code:      IssueOverReceipt,
			Field:     field + ".quantity",
			ProductID: orderItem.ProductID,
			Message: fmt.Sprintf("Cumulative received %s exceeds ordered %s and over-receiving is not allowed",
				cumulative, orderItem.OrderedQuantity),
		})
		return
	}

	hundred := decimal.NewFromInt(100)
	maxAllowed := orderItem.OrderedQuantity.Mul(hundred.Add(opts.TolerancePercentage)).Div(hundred)
	if cumulative.GreaterThan(maxAllowed) {
		result.addError(ValidationIssue{
			Code:      IssueToleranceExceeded,
			Field:     field + ".quantity",
			ProductID: orderItem.ProductID,
			Message: fmt.Sprintf("Cumulative received %s exceeds the %s%% tolerance ceiling of %s",
				cumulative, opts.TolerancePercentage, maxAllowed),
		})
		return
	}

	result.addWarning(ValidationIssue{
		Code:      IssueOverReceipt,
		Field:     field + ".quantity",
		ProductID: orderItem.ProductID,
		Message: fmt.Sprintf("Cumulative received %s exceeds ordered %s but is within tolerance",
			cumulative, orderItem.OrderedQuantity),
	})
}

// validatePriceVariance warns when the paid unit cost deviates from the
// ordered unit cost by more than the variance threshold
func validatePriceVariance(result *ValidationResult, field string, orderItem *purchasing.PurchaseOrderItem, item PartialReceiptItem) {
	if orderItem.UnitCost.IsZero() {
		return
	}

	variance := item.UnitCost.Sub(orderItem.UnitCost)
	percentage := variance.Div(orderItem.UnitCost).Mul(decimal.NewFromInt(100))
	if percentage.Abs().GreaterThan(priceVarianceThreshold) {
		result.addWarning(ValidationIssue{
			Code:      IssuePriceVariance,
			Field:     field + ".unit_cost",
			ProductID: item.ProductID,
			Message: fmt.Sprintf("Unit cost %s deviates %s%% from ordered cost %s",
				item.UnitCost, percentage.Round(2), orderItem.UnitCost),
		})
	}
}
