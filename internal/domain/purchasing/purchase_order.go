package purchasing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// PurchaseOrderStatus represents the canonical lifecycle status of a purchase order
type PurchaseOrderStatus string

const (
	StatusDraft             PurchaseOrderStatus = "draft"
	StatusPendingApproval   PurchaseOrderStatus = "pending_approval"
	StatusApproved          PurchaseOrderStatus = "approved"
	StatusSentToSupplier    PurchaseOrderStatus = "sent_to_supplier"
	StatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	StatusReceived          PurchaseOrderStatus = "received"
	StatusCancelled         PurchaseOrderStatus = "cancelled"
)

// statusTransitions is the complete transition table. No transition outside
// this table is permitted.
var statusTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	StatusDraft:           {StatusPendingApproval, StatusCancelled},
	StatusPendingApproval: {StatusApproved, StatusCancelled},
	StatusApproved:        {StatusSentToSupplier, StatusPartiallyReceived, StatusReceived, StatusCancelled},
	StatusSentToSupplier:  {StatusPartiallyReceived, StatusReceived},
	// A partial receipt may be followed by further partial receipts.
	StatusPartiallyReceived: {StatusPartiallyReceived, StatusReceived},
	StatusReceived:          {},
	StatusCancelled:         {},
}

// legacyStatusAliases maps historical free-text status strings onto the
// canonical set. Raw status text must never leak past NormalizeStatus.
var legacyStatusAliases = map[string]PurchaseOrderStatus{
	"new":               StatusDraft,
	"open":              StatusDraft,
	"pending":           StatusPendingApproval,
	"awaiting approval": StatusPendingApproval,
	"confirmed":         StatusApproved,
	"ordered":           StatusSentToSupplier,
	"sent":              StatusSentToSupplier,
	"po sent":           StatusSentToSupplier,
	"partial":           StatusPartiallyReceived,
	"partial received":  StatusPartiallyReceived,
	"complete":          StatusReceived,
	"completed":         StatusReceived,
	"closed":            StatusReceived,
	"void":              StatusCancelled,
	"voided":            StatusCancelled,
	"canceled":          StatusCancelled,
}

// IsValid checks if the status is a valid canonical PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CanReceive returns true if receiving goods is allowed in this status
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == StatusApproved || s == StatusSentToSupplier || s == StatusPartiallyReceived
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s.IsValid() && len(statusTransitions[s]) == 0
}

// NormalizeStatus maps a raw (possibly legacy free-text) status string onto
// the canonical status set. The second return value is false when the input
// cannot be mapped.
func NormalizeStatus(raw string) (PurchaseOrderStatus, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.ReplaceAll(cleaned, "-", "_")

	if s := PurchaseOrderStatus(cleaned); s.IsValid() {
		return s, true
	}
	// Aliases keep spaces, try both spellings.
	if s, ok := legacyStatusAliases[cleaned]; ok {
		return s, true
	}
	if s, ok := legacyStatusAliases[strings.ReplaceAll(cleaned, "_", " ")]; ok {
		return s, true
	}
	return "", false
}

// PurchaseOrderItem represents a line item in a purchase order
type PurchaseOrderItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName      string          `gorm:"type:varchar(200);not null"`
	ProductSKU       string          `gorm:"type:varchar(50);not null"`
	OrderedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Cumulative; never decreases
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Cost per unit at order time
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"` // OrderedQuantity * UnitCost
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// NewPurchaseOrderItem creates a new purchase order item
func NewPurchaseOrderItem(orderID, productID uuid.UUID, productName, productSKU string, quantity decimal.Decimal, unitCost valueobject.Money) (*PurchaseOrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitCost.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	now := time.Now()
	return &PurchaseOrderItem{
		ID:               uuid.New(),
		OrderID:          orderID,
		ProductID:        productID,
		ProductName:      productName,
		ProductSKU:       productSKU,
		OrderedQuantity:  quantity,
		ReceivedQuantity: decimal.Zero,
		UnitCost:         unitCost.Amount(),
		Amount:           quantity.Mul(unitCost.Amount()),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// RemainingQuantity returns the quantity still to be received
func (i *PurchaseOrderItem) RemainingQuantity() decimal.Decimal {
	remaining := i.OrderedQuantity.Sub(i.ReceivedQuantity)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsFullyReceived returns true if all ordered quantity has been received
func (i *PurchaseOrderItem) IsFullyReceived() bool {
	return i.ReceivedQuantity.GreaterThanOrEqual(i.OrderedQuantity)
}

// AddReceivedQuantity adds to the cumulative received quantity.
// The quantity must be positive; over-receipt limits are enforced by the
// receipt validator before this is called, so the aggregate only guards
// monotonicity.
func (i *PurchaseOrderItem) AddReceivedQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Receive quantity must be positive")
	}

	i.ReceivedQuantity = i.ReceivedQuantity.Add(quantity)
	i.UpdatedAt = time.Now()
	return nil
}

// AppliedReceiptLine describes one line applied to the order during a receipt
type AppliedReceiptLine struct {
	ItemID    uuid.UUID
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}

// PurchaseOrder represents a purchase order aggregate root.
// Its status moves only through the transitions in statusTransitions; the
// received-quantity fields are mutated only by ApplyReceipt.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	SupplierName string              `gorm:"type:varchar(200);not null"`
	Items        []PurchaseOrderItem `gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount  decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Status       PurchaseOrderStatus `gorm:"type:varchar(30);not null;default:'draft'"`
	Notes        string              `gorm:"type:text"`
	ApprovedAt   *time.Time
	SentAt       *time.Time
	ReceivedAt   *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a new purchase order in draft status
func NewPurchaseOrder(orderNumber string, supplierID uuid.UUID, supplierName string) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if supplierName == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}

	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		Items:             make([]PurchaseOrderItem, 0),
		TotalAmount:       decimal.Zero,
		Status:            StatusDraft,
	}

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))

	return order, nil
}

// AddItem adds a new line item; only allowed in draft status
func (o *PurchaseOrder) AddItem(productID uuid.UUID, productName, productSKU string, quantity decimal.Decimal, unitCost valueobject.Money) (*PurchaseOrderItem, error) {
	if o.Status != StatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft order")
	}

	for _, item := range o.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order")
		}
	}

	item, err := NewPurchaseOrderItem(o.ID, productID, productName, productSKU, quantity, unitCost)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return item, nil
}

// transition moves the order to the target status, enforcing the table
func (o *PurchaseOrder) transition(target PurchaseOrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// SubmitForApproval moves the order from draft to pending_approval
func (o *PurchaseOrder) SubmitForApproval() error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot submit an order without items")
	}
	return o.transition(StatusPendingApproval)
}

// Approve moves the order to approved, making it receivable
func (o *PurchaseOrder) Approve() error {
	if err := o.transition(StatusApproved); err != nil {
		return err
	}
	now := time.Now()
	o.ApprovedAt = &now
	o.AddDomainEvent(NewPurchaseOrderApprovedEvent(o))
	return nil
}

// MarkSent records that the order has been sent to the supplier
func (o *PurchaseOrder) MarkSent() error {
	if err := o.transition(StatusSentToSupplier); err != nil {
		return err
	}
	now := time.Now()
	o.SentAt = &now
	return nil
}

// Cancel cancels the order; allowed only before any goods are received
func (o *PurchaseOrder) Cancel(reason string) error {
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	if o.hasReceivedAnyGoods() {
		return shared.NewDomainError("ALREADY_RECEIVED", "Cannot cancel order after goods have been received")
	}
	if err := o.transition(StatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason
	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o, reason))
	return nil
}

// ApplyReceipt applies validated receipt lines to the order: cumulative
// received quantities grow and the next status is derived deterministically
// (received when every item is fully covered, partially_received otherwise).
// Callers must have run the receipt validator first.
func (o *PurchaseOrder) ApplyReceipt(lines []AppliedReceiptLine) error {
	if !o.Status.CanReceive() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot receive goods for order in %s status", o.Status))
	}
	if len(lines) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Receipt lines cannot be empty")
	}

	for _, line := range lines {
		item := o.GetItemByProduct(line.ProductID)
		if item == nil {
			return shared.NewDomainError("ITEM_NOT_FOUND", fmt.Sprintf("Product %s not found in order", line.ProductID))
		}
		if err := item.AddReceivedQuantity(line.Quantity); err != nil {
			return err
		}
	}

	next := o.NextStatusAfterReceipt()
	if err := o.transition(next); err != nil {
		return err
	}
	if next == StatusReceived {
		now := time.Now()
		o.ReceivedAt = &now
	}

	o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o, lines))

	return nil
}

// NextStatusAfterReceipt computes the status the order lands in after the
// pending receipt is applied
func (o *PurchaseOrder) NextStatusAfterReceipt() PurchaseOrderStatus {
	if o.IsFullyReceived() {
		return StatusReceived
	}
	return StatusPartiallyReceived
}

// IsFullyReceived returns true when every item's cumulative received quantity
// covers its ordered quantity
func (o *PurchaseOrder) IsFullyReceived() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if !item.IsFullyReceived() {
			return false
		}
	}
	return true
}

// CanReceiveGoods returns true if the order can receive goods
func (o *PurchaseOrder) CanReceiveGoods() bool {
	return o.Status.CanReceive()
}

// GetItemByProduct returns an item by product ID
func (o *PurchaseOrder) GetItemByProduct(productID uuid.UUID) *PurchaseOrderItem {
	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return &o.Items[idx]
		}
	}
	return nil
}

// TotalOrderedQuantity returns the total ordered quantity across items
func (o *PurchaseOrder) TotalOrderedQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.OrderedQuantity)
	}
	return total
}

// TotalReceivedQuantity returns the total received quantity across items
func (o *PurchaseOrder) TotalReceivedQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.ReceivedQuantity)
	}
	return total
}

// ReceiveProgress returns the receiving progress as a percentage (0-100)
func (o *PurchaseOrder) ReceiveProgress() decimal.Decimal {
	totalOrdered := o.TotalOrderedQuantity()
	if totalOrdered.IsZero() {
		return decimal.Zero
	}
	return o.TotalReceivedQuantity().Div(totalOrdered).Mul(decimal.NewFromInt(100)).Round(2)
}

// recalculateTotals recalculates the order totals
func (o *PurchaseOrder) recalculateTotals() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	o.TotalAmount = total
}

// hasReceivedAnyGoods checks if any goods have been received
func (o *PurchaseOrder) hasReceivedAnyGoods() bool {
	for _, item := range o.Items {
		if item.ReceivedQuantity.GreaterThan(decimal.Zero) {
			return true
		}
	}
	return false
}
