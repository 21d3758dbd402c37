package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/retailcore/backend/internal/application/inventory"
	"github.com/retailcore/backend/internal/domain/inventory"
)

// InventoryHandler handles stock level and movement read endpoints
type InventoryHandler struct {
	BaseHandler
	queries *inventoryapp.QueryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(queries *inventoryapp.QueryService) *InventoryHandler {
	return &InventoryHandler{queries: queries}
}

// RegisterRoutes registers inventory routes
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/inventory")
	group.GET("/stock/:product_id", h.GetStock)
	group.GET("/stock/:product_id/movements", h.ListMovements)
	group.GET("/movements/by-order/:order_id", h.ListMovementsByOrder)
}

// StockOverviewResponse represents a product's stock position
type StockOverviewResponse struct {
	ProductID       string  `json:"product_id"`
	ProductName     string  `json:"product_name"`
	ProductSKU      string  `json:"product_sku"`
	Active          bool    `json:"active"`
	Quantity        float64 `json:"quantity"`
	AverageUnitCost float64 `json:"average_unit_cost"`
	StockValue      float64 `json:"stock_value"`
}

// StockMovementResponse represents one movement history entry
type StockMovementResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	MovementType   string    `json:"movement_type"`
	Quantity       float64   `json:"quantity"`
	UnitCost       float64   `json:"unit_cost"`
	TotalCost      float64   `json:"total_cost"`
	BalanceBefore  float64   `json:"balance_before"`
	BalanceAfter   float64   `json:"balance_after"`
	UnitCostBefore float64   `json:"unit_cost_before"`
	UnitCostAfter  float64   `json:"unit_cost_after"`
	ReferenceType  string    `json:"reference_type,omitempty"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetStock returns a product's current stock position
func (h *InventoryHandler) GetStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	overview, err := h.queries.GetStockOverview(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := StockOverviewResponse{
		ProductID:   overview.Product.ID.String(),
		ProductName: overview.Product.Name,
		ProductSKU:  overview.Product.SKU,
		Active:      overview.Product.Active,
	}
	if overview.StockLevel != nil {
		resp.Quantity = overview.StockLevel.Quantity.InexactFloat64()
		resp.AverageUnitCost = overview.StockLevel.AverageUnitCost.InexactFloat64()
		resp.StockValue = overview.StockLevel.StockValue().InexactFloat64()
	}

	h.Success(c, resp)
}

// ListMovements returns the most recent movements for a product
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	movements, err := h.queries.ListMovements(c.Request.Context(), productID, limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toStockMovementResponses(movements))
}

// ListMovementsByOrder returns all movements a purchase order produced
func (h *InventoryHandler) ListMovementsByOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	movements, err := h.queries.ListMovementsByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toStockMovementResponses(movements))
}

func toStockMovementResponses(movements []*inventory.StockMovement) []StockMovementResponse {
	responses := make([]StockMovementResponse, len(movements))
	for i, m := range movements {
		resp := StockMovementResponse{
			ID:             m.ID.String(),
			ProductID:      m.ProductID.String(),
			MovementType:   string(m.MovementType),
			Quantity:       m.Quantity.InexactFloat64(),
			UnitCost:       m.UnitCost.InexactFloat64(),
			TotalCost:      m.TotalCost.InexactFloat64(),
			BalanceBefore:  m.BalanceBefore.InexactFloat64(),
			BalanceAfter:   m.BalanceAfter.InexactFloat64(),
			UnitCostBefore: m.UnitCostBefore.InexactFloat64(),
			UnitCostAfter:  m.UnitCostAfter.InexactFloat64(),
			ReferenceType:  string(m.ReferenceType),
			CreatedBy:      m.CreatedBy,
			CreatedAt:      m.CreatedAt,
		}
		if m.ReferenceID != uuid.Nil {
			resp.ReferenceID = m.ReferenceID.String()
		}
		responses[i] = resp
	}
	return responses
}
