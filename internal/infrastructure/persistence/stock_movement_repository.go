package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/inventory"
)

// GormStockMovementRepository implements StockMovementRepository using GORM.
// Movements are append-only; no update or delete paths exist.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Insert persists a stock movement record
func (r *GormStockMovementRepository) Insert(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// ListByProduct retrieves movements for a product, newest first
func (r *GormStockMovementRepository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]*inventory.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var movements []*inventory.StockMovement
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// ListByReference retrieves movements originating from a document
func (r *GormStockMovementRepository) ListByReference(ctx context.Context, refType inventory.ReferenceType, refID uuid.UUID) ([]*inventory.StockMovement, error) {
	var movements []*inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at DESC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
