package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// GormStockLevelRepository implements StockLevelRepository using GORM
type GormStockLevelRepository struct {
	db *gorm.DB
}

// NewGormStockLevelRepository creates a new GormStockLevelRepository
func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

// FindByProduct retrieves the stock level for a product
func (r *GormStockLevelRepository) FindByProduct(ctx context.Context, productID uuid.UUID) (*inventory.StockLevel, error) {
	var level inventory.StockLevel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// FindByProducts retrieves stock levels for multiple products keyed by product ID
func (r *GormStockLevelRepository) FindByProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*inventory.StockLevel, error) {
	var levels []*inventory.StockLevel
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&levels).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*inventory.StockLevel, len(levels))
	for _, level := range levels {
		out[level.ProductID] = level
	}
	return out, nil
}

// Save persists a stock level, creating it if absent
func (r *GormStockLevelRepository) Save(ctx context.Context, level *inventory.StockLevel) error {
	return r.db.WithContext(ctx).Save(level).Error
}

// SaveWithLock persists the stock level only if the stored version matches
// expectedVersion
func (r *GormStockLevelRepository) SaveWithLock(ctx context.Context, level *inventory.StockLevel, expectedVersion int) error {
	level.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(&inventory.StockLevel{}).
		Where("id = ? AND version = ?", level.ID, expectedVersion).
		Updates(map[string]interface{}{
			"quantity":          level.Quantity,
			"average_unit_cost": level.AverageUnitCost,
			"version":           level.Version,
			"updated_at":        level.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ inventory.StockLevelRepository = (*GormStockLevelRepository)(nil)
