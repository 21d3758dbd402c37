package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// QueryService exposes read access to stock levels and the movement history.
// All writes to these tables go through the receipt processing pipeline.
type QueryService struct {
	levels    inventory.StockLevelRepository
	movements inventory.StockMovementRepository
	products  inventory.ProductRepository
	logger    *zap.Logger
}

// NewQueryService creates an inventory query service
func NewQueryService(
	levels inventory.StockLevelRepository,
	movements inventory.StockMovementRepository,
	products inventory.ProductRepository,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		levels:    levels,
		movements: movements,
		products:  products,
		logger:    logger,
	}
}

// StockOverview pairs a product with its current stock position
type StockOverview struct {
	Product    *inventory.Product    `json:"product"`
	StockLevel *inventory.StockLevel `json:"stock_level"`
}

// GetStockOverview returns the product and its stock level. A product without
// receipts yet has a nil stock level, not an error.
func (s *QueryService) GetStockOverview(ctx context.Context, productID uuid.UUID) (*StockOverview, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Product %s not found", productID))
		}
		return nil, err
	}

	level, err := s.levels.FindByProduct(ctx, productID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		level = nil
	}

	return &StockOverview{Product: product, StockLevel: level}, nil
}

// ListMovements returns the most recent movements for a product
func (s *QueryService) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]*inventory.StockMovement, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.movements.ListByProduct(ctx, productID, limit)
}

// ListMovementsByOrder returns all movements a purchase order produced
func (s *QueryService) ListMovementsByOrder(ctx context.Context, orderID uuid.UUID) ([]*inventory.StockMovement, error) {
	return s.movements.ListByReference(ctx, inventory.ReferencePurchaseOrder, orderID)
}
