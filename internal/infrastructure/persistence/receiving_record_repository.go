package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/receiving"
	"github.com/retailcore/backend/internal/domain/shared"
)

// GormReceivingRecordRepository implements ReceivingRecordRepository using
// GORM. Records are append-only.
type GormReceivingRecordRepository struct {
	db *gorm.DB
}

// NewGormReceivingRecordRepository creates a new GormReceivingRecordRepository
func NewGormReceivingRecordRepository(db *gorm.DB) *GormReceivingRecordRepository {
	return &GormReceivingRecordRepository{db: db}
}

// Insert persists a new receiving record with its items
func (r *GormReceivingRecordRepository) Insert(ctx context.Context, record *receiving.ReceivingRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(record).Error; err != nil {
			return err
		}
		for i := range record.Items {
			if err := tx.Create(&record.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID retrieves a receiving record with its items
func (r *GormReceivingRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*receiving.ReceivingRecord, error) {
	var record receiving.ReceivingRecord
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByOrder retrieves all receiving records for an order, newest first
func (r *GormReceivingRecordRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*receiving.ReceivingRecord, error) {
	var records []*receiving.ReceivingRecord
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		Order("received_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

var _ receiving.ReceivingRecordRepository = (*GormReceivingRecordRepository)(nil)
