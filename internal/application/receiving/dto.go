package receiving

import (
	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/purchasing"
	"github.com/retailcore/backend/internal/domain/receiving"
)

// ProcessReceiptRequest is the input for one goods-receipt submission
type ProcessReceiptRequest struct {
	OrderID        uuid.UUID                      `json:"order_id"`
	Items          []receiving.PartialReceiptItem `json:"items"`
	ReceivedBy     string                         `json:"received_by"`
	ReceivedByName string                         `json:"received_by_name,omitempty"`
	Notes          string                         `json:"notes,omitempty"`
	// IdempotencyKey is an optional client-supplied key for exact replay
	// detection; used only when the idempotency-key duplicate policy is
	// configured
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	// Options overrides the configured validation options when non-nil
	Options *receiving.ValidationOptions `json:"options,omitempty"`
}

// ReceiptProcessingResult is the outcome of one ProcessReceipt call.
// Success is false when validation failed or the commit was aborted; in
// either case no state was mutated.
type ReceiptProcessingResult struct {
	Success         bool                            `json:"success"`
	ReceivingRecord *receiving.ReceivingRecord      `json:"receiving_record,omitempty"`
	UpdatedOrder    *purchasing.PurchaseOrder       `json:"updated_order,omitempty"`
	Adjustments     []inventory.InventoryAdjustment `json:"adjustments,omitempty"`
	CostResults     []inventory.CostResult          `json:"cost_results,omitempty"`
	PriceVariances  []receiving.PriceVariance       `json:"price_variances,omitempty"`
	Errors          []receiving.ValidationIssue     `json:"errors,omitempty"`
	Warnings        []receiving.ValidationIssue     `json:"warnings,omitempty"`
}
