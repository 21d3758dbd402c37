package purchasing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/purchasing"
)

// CreateOrderItemRequest is one line of a create-order request
type CreateOrderItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// CreatePurchaseOrderRequest is the input for creating a draft order
type CreatePurchaseOrderRequest struct {
	OrderNumber  string                   `json:"order_number" binding:"required,max=50"`
	SupplierID   uuid.UUID                `json:"supplier_id" binding:"required"`
	SupplierName string                   `json:"supplier_name" binding:"required"`
	Notes        string                   `json:"notes"`
	Items        []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ListOrdersQuery narrows the order listing
type ListOrdersQuery struct {
	Status     string     `form:"status"`
	SupplierID *uuid.UUID `form:"supplier_id"`
	Page       int        `form:"page,default=1"`
	PageSize   int        `form:"page_size,default=20"`
}

// OrderListResult is a page of purchase orders
type OrderListResult struct {
	Orders   []*purchasing.PurchaseOrder `json:"orders"`
	Total    int64                       `json:"total"`
	Page     int                         `json:"page"`
	PageSize int                         `json:"page_size"`
}
