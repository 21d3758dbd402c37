package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	purchasingapp "github.com/retailcore/backend/internal/application/purchasing"
	"github.com/retailcore/backend/internal/domain/purchasing"
)

// PurchaseOrderHandler handles purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orders *purchasingapp.Service
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orders *purchasingapp.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// RegisterRoutes registers purchase order routes
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/purchase-orders")
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("/:id/submit", h.SubmitForApproval)
	group.POST("/:id/approve", h.Approve)
	group.POST("/:id/send", h.MarkSent)
	group.POST("/:id/cancel", h.Cancel)
}

// CancelOrderRequest is the body for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// listOrdersQuery carries raw query parameters before parsing
type listOrdersQuery struct {
	Status     string `form:"status"`
	SupplierID string `form:"supplier_id"`
	Page       int    `form:"page,default=1"`
	PageSize   int    `form:"page_size,default=20"`
}

// PurchaseOrderItemResponse represents an order line in API responses
type PurchaseOrderItemResponse struct {
	ID                string  `json:"id"`
	ProductID         string  `json:"product_id"`
	ProductName       string  `json:"product_name"`
	ProductSKU        string  `json:"product_sku"`
	OrderedQuantity   float64 `json:"ordered_quantity"`
	ReceivedQuantity  float64 `json:"received_quantity"`
	RemainingQuantity float64 `json:"remaining_quantity"`
	UnitCost          float64 `json:"unit_cost"`
	Amount            float64 `json:"amount"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID              string                      `json:"id"`
	OrderNumber     string                      `json:"order_number"`
	SupplierID      string                      `json:"supplier_id"`
	SupplierName    string                      `json:"supplier_name"`
	Items           []PurchaseOrderItemResponse `json:"items"`
	TotalAmount     float64                     `json:"total_amount"`
	Status          string                      `json:"status"`
	ReceiveProgress float64                     `json:"receive_progress"`
	Notes           string                      `json:"notes,omitempty"`
	ApprovedAt      *time.Time                  `json:"approved_at,omitempty"`
	SentAt          *time.Time                  `json:"sent_at,omitempty"`
	ReceivedAt      *time.Time                  `json:"received_at,omitempty"`
	CancelledAt     *time.Time                  `json:"cancelled_at,omitempty"`
	CancelReason    string                      `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	Version         int                         `json:"version"`
}

// Create creates a new draft purchase order
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req purchasingapp.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orders.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toPurchaseOrderResponse(order))
}

// Get retrieves a purchase order by ID
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPurchaseOrderResponse(order))
}

// List retrieves a page of purchase orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var raw listOrdersQuery
	if err := c.ShouldBindQuery(&raw); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	query := purchasingapp.ListOrdersQuery{
		Status:   raw.Status,
		Page:     raw.Page,
		PageSize: raw.PageSize,
	}
	if raw.SupplierID != "" {
		supplierID, err := uuid.Parse(raw.SupplierID)
		if err != nil {
			h.BadRequest(c, "Invalid supplier ID format")
			return
		}
		query.SupplierID = &supplierID
	}

	result, err := h.orders.List(c.Request.Context(), query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]PurchaseOrderResponse, len(result.Orders))
	for i, order := range result.Orders {
		responses[i] = toPurchaseOrderResponse(order)
	}

	h.SuccessWithMeta(c, responses, result.Total, result.Page, result.PageSize)
}

// SubmitForApproval moves a draft order to pending approval
func (h *PurchaseOrderHandler) SubmitForApproval(c *gin.Context) {
	h.transition(c, h.orders.SubmitForApproval)
}

// Approve approves a pending order, making it receivable
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	h.transition(c, h.orders.Approve)
}

// MarkSent records that the order was sent to the supplier
func (h *PurchaseOrderHandler) MarkSent(c *gin.Context) {
	h.transition(c, h.orders.MarkSent)
}

// Cancel cancels an order before any goods have been received
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPurchaseOrderResponse(order))
}

func (h *PurchaseOrderHandler) transition(c *gin.Context, op func(ctx context.Context, orderID uuid.UUID) (*purchasing.PurchaseOrder, error)) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := op(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPurchaseOrderResponse(order))
}

// toPurchaseOrderResponse converts a domain order to the API representation
func toPurchaseOrderResponse(order *purchasing.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = PurchaseOrderItemResponse{
			ID:                item.ID.String(),
			ProductID:         item.ProductID.String(),
			ProductName:       item.ProductName,
			ProductSKU:        item.ProductSKU,
			OrderedQuantity:   item.OrderedQuantity.InexactFloat64(),
			ReceivedQuantity:  item.ReceivedQuantity.InexactFloat64(),
			RemainingQuantity: item.RemainingQuantity().InexactFloat64(),
			UnitCost:          item.UnitCost.InexactFloat64(),
			Amount:            item.Amount.InexactFloat64(),
		}
	}

	return PurchaseOrderResponse{
		ID:              order.ID.String(),
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID.String(),
		SupplierName:    order.SupplierName,
		Items:           items,
		TotalAmount:     order.TotalAmount.InexactFloat64(),
		Status:          order.Status.String(),
		ReceiveProgress: order.ReceiveProgress().InexactFloat64(),
		Notes:           order.Notes,
		ApprovedAt:      order.ApprovedAt,
		SentAt:          order.SentAt,
		ReceivedAt:      order.ReceivedAt,
		CancelledAt:     order.CancelledAt,
		CancelReason:    order.CancelReason,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Version:         order.Version,
	}
}
