package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	receivingapp "github.com/retailcore/backend/internal/application/receiving"
	"github.com/retailcore/backend/internal/domain/receiving"
	"github.com/retailcore/backend/internal/interfaces/http/dto"
)

// ReceivingHandler handles goods-receipt API endpoints
type ReceivingHandler struct {
	BaseHandler
	receipts *receivingapp.Service
}

// NewReceivingHandler creates a new ReceivingHandler
func NewReceivingHandler(receipts *receivingapp.Service) *ReceivingHandler {
	return &ReceivingHandler{receipts: receipts}
}

// RegisterRoutes registers receiving routes under the purchase order resource
func (h *ReceivingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/purchase-orders/:id/receipts")
	group.POST("", h.ProcessReceipt)
	group.POST("/validate", h.Validate)
	group.GET("", h.History)
}

// ReceiptItemInput is one submitted line of a goods receipt
type ReceiptItemInput struct {
	ProductID   string     `json:"product_id" binding:"required,uuid"`
	Quantity    float64    `json:"quantity" binding:"required"`
	UnitCost    float64    `json:"unit_cost"`
	TotalCost   *float64   `json:"total_cost"`
	BatchNumber string     `json:"batch_number"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	Condition   string     `json:"condition"`
}

// ProcessReceiptRequest is the body for submitting a goods receipt
type ProcessReceiptRequest struct {
	Items          []ReceiptItemInput `json:"items" binding:"required,min=1,dive"`
	ReceivedBy     string             `json:"received_by" binding:"required"`
	ReceivedByName string             `json:"received_by_name"`
	Notes          string             `json:"notes"`
	IdempotencyKey string             `json:"idempotency_key"`
}

// ValidateReceiptRequest is the body for dry-run receipt validation
type ValidateReceiptRequest struct {
	Items []ReceiptItemInput `json:"items" binding:"required,min=1,dive"`
}

// ReceiptResultResponse is the outcome of one receipt submission
type ReceiptResultResponse struct {
	Success         bool                        `json:"success"`
	ReceivingRecord *ReceivingRecordResponse    `json:"receiving_record,omitempty"`
	Order           *PurchaseOrderResponse      `json:"order,omitempty"`
	CostResults     []CostResultResponse        `json:"cost_results,omitempty"`
	PriceVariances  []PriceVarianceResponse     `json:"price_variances,omitempty"`
	Errors          []receiving.ValidationIssue `json:"errors,omitempty"`
	Warnings        []receiving.ValidationIssue `json:"warnings,omitempty"`
}

// ReceivingRecordResponse represents a receiving record in API responses
type ReceivingRecordResponse struct {
	ID             string                        `json:"id"`
	OrderID        string                        `json:"order_id"`
	OrderNumber    string                        `json:"order_number"`
	ReceivedBy     string                        `json:"received_by"`
	ReceivedByName string                        `json:"received_by_name,omitempty"`
	ReceivedAt     time.Time                     `json:"received_at"`
	Notes          string                        `json:"notes,omitempty"`
	TotalQuantity  float64                       `json:"total_quantity"`
	TotalCost      float64                       `json:"total_cost"`
	Items          []ReceivingRecordItemResponse `json:"items"`
}

// ReceivingRecordItemResponse represents one persisted receipt line
type ReceivingRecordItemResponse struct {
	ProductID   string     `json:"product_id"`
	Quantity    float64    `json:"quantity"`
	UnitCost    float64    `json:"unit_cost"`
	TotalCost   float64    `json:"total_cost"`
	BatchNumber string     `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Condition   string     `json:"condition,omitempty"`
}

// CostResultResponse represents one weighted-average recosting outcome
type CostResultResponse struct {
	ProductID              string  `json:"product_id"`
	PreviousStock          float64 `json:"previous_stock"`
	PreviousUnitCost       float64 `json:"previous_unit_cost"`
	ReceivedQuantity       float64 `json:"received_quantity"`
	IncomingUnitCost       float64 `json:"incoming_unit_cost"`
	NewStock               float64 `json:"new_stock"`
	NewUnitCost            float64 `json:"new_unit_cost"`
	CostVariance           float64 `json:"cost_variance"`
	CostVariancePercentage float64 `json:"cost_variance_percentage"`
}

// PriceVarianceResponse represents one flagged ordered-vs-actual cost delta
type PriceVarianceResponse struct {
	ProductID          string  `json:"product_id"`
	OrderedUnitCost    float64 `json:"ordered_unit_cost"`
	ActualUnitCost     float64 `json:"actual_unit_cost"`
	Variance           float64 `json:"variance"`
	VariancePercentage float64 `json:"variance_percentage"`
	ExceedsThreshold   bool    `json:"exceeds_threshold"`
}

// ProcessReceipt accepts a goods-receipt submission for an order
func (h *ReceivingHandler) ProcessReceipt(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req ProcessReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, err := toReceiptItems(req.Items)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.receipts.ProcessReceipt(c.Request.Context(), receivingapp.ProcessReceiptRequest{
		OrderID:        orderID,
		Items:          items,
		ReceivedBy:     req.ReceivedBy,
		ReceivedByName: req.ReceivedByName,
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := toReceiptResultResponse(result)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, dto.NewRejectionResponse(
			dto.ErrCodeValidationFailed,
			"Receipt submission failed validation",
			resp,
		))
		return
	}

	h.Success(c, resp)
}

// Validate runs receipt validation without committing anything
func (h *ReceivingHandler) Validate(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req ValidateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, err := toReceiptItems(req.Items)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	validation, err := h.receipts.ValidateSubmission(c.Request.Context(), orderID, items, nil)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, validation)
}

// History lists all receiving records for an order, newest first
func (h *ReceivingHandler) History(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	records, err := h.receipts.GetReceivingHistory(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]ReceivingRecordResponse, len(records))
	for i, record := range records {
		responses[i] = toReceivingRecordResponse(record)
	}

	h.Success(c, responses)
}

// toReceiptItems converts handler inputs to domain receipt lines
func toReceiptItems(inputs []ReceiptItemInput) ([]receiving.PartialReceiptItem, error) {
	items := make([]receiving.PartialReceiptItem, len(inputs))
	for i, input := range inputs {
		productID, err := uuid.Parse(input.ProductID)
		if err != nil {
			return nil, err
		}

		condition := receiving.ItemCondition(input.Condition)
		if input.Condition == "" {
			condition = receiving.ConditionGood
		}

		item := receiving.PartialReceiptItem{
			ProductID:   productID,
			Quantity:    decimal.NewFromFloat(input.Quantity),
			UnitCost:    decimal.NewFromFloat(input.UnitCost),
			BatchNumber: input.BatchNumber,
			ExpiryDate:  input.ExpiryDate,
			Condition:   condition,
		}
		if input.TotalCost != nil {
			item.TotalCost = decimal.NewFromFloat(*input.TotalCost)
		}
		items[i] = item
	}
	return items, nil
}

// toReceiptResultResponse converts the application result to the API shape
func toReceiptResultResponse(result *receivingapp.ReceiptProcessingResult) ReceiptResultResponse {
	resp := ReceiptResultResponse{
		Success:  result.Success,
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}

	if result.ReceivingRecord != nil {
		record := toReceivingRecordResponse(result.ReceivingRecord)
		resp.ReceivingRecord = &record
	}
	if result.UpdatedOrder != nil {
		order := toPurchaseOrderResponse(result.UpdatedOrder)
		resp.Order = &order
	}

	for _, cost := range result.CostResults {
		resp.CostResults = append(resp.CostResults, CostResultResponse{
			ProductID:              cost.ProductID.String(),
			PreviousStock:          cost.PreviousStock.InexactFloat64(),
			PreviousUnitCost:       cost.PreviousUnitCost.InexactFloat64(),
			ReceivedQuantity:       cost.ReceivedQuantity.InexactFloat64(),
			IncomingUnitCost:       cost.IncomingUnitCost.InexactFloat64(),
			NewStock:               cost.NewStock.InexactFloat64(),
			NewUnitCost:            cost.NewUnitCost.InexactFloat64(),
			CostVariance:           cost.CostVariance.InexactFloat64(),
			CostVariancePercentage: cost.CostVariancePercentage.InexactFloat64(),
		})
	}

	for _, variance := range result.PriceVariances {
		resp.PriceVariances = append(resp.PriceVariances, PriceVarianceResponse{
			ProductID:          variance.ProductID.String(),
			OrderedUnitCost:    variance.OrderedUnitCost.InexactFloat64(),
			ActualUnitCost:     variance.ActualUnitCost.InexactFloat64(),
			Variance:           variance.Variance.InexactFloat64(),
			VariancePercentage: variance.VariancePercentage.InexactFloat64(),
			ExceedsThreshold:   variance.ExceedsThreshold,
		})
	}

	return resp
}

// toReceivingRecordResponse converts a receiving record to the API shape
func toReceivingRecordResponse(record *receiving.ReceivingRecord) ReceivingRecordResponse {
	items := make([]ReceivingRecordItemResponse, len(record.Items))
	for i, item := range record.Items {
		items[i] = ReceivingRecordItemResponse{
			ProductID:   item.ProductID.String(),
			Quantity:    item.Quantity.InexactFloat64(),
			UnitCost:    item.UnitCost.InexactFloat64(),
			TotalCost:   item.TotalCost.InexactFloat64(),
			BatchNumber: item.BatchNumber,
			ExpiryDate:  item.ExpiryDate,
			Condition:   string(item.Condition),
		}
	}

	return ReceivingRecordResponse{
		ID:             record.ID.String(),
		OrderID:        record.OrderID.String(),
		OrderNumber:    record.OrderNumber,
		ReceivedBy:     record.ReceivedBy,
		ReceivedByName: record.ReceivedByName,
		ReceivedAt:     record.ReceivedAt,
		Notes:          record.Notes,
		TotalQuantity:  record.TotalQuantity.InexactFloat64(),
		TotalCost:      record.TotalCost.InexactFloat64(),
		Items:          items,
	}
}
