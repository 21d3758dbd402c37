package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/shared"
)

// GormAuditSink implements AuditSink by appending rows to the audit_logs
// table. Writes happen outside the receipt transaction so a sink failure can
// never roll back a durable commit.
type GormAuditSink struct {
	db *gorm.DB
}

// NewGormAuditSink creates a new GormAuditSink
func NewGormAuditSink(db *gorm.DB) *GormAuditSink {
	return &GormAuditSink{db: db}
}

// LogStockMovement records a stock movement audit entry
func (s *GormAuditSink) LogStockMovement(ctx context.Context, entry shared.AuditEntry) error {
	return s.db.WithContext(ctx).Create(&entry).Error
}

// LogPurchaseOrderAction records a purchase order action audit entry
func (s *GormAuditSink) LogPurchaseOrderAction(ctx context.Context, entry shared.AuditEntry) error {
	return s.db.WithContext(ctx).Create(&entry).Error
}

var _ shared.AuditSink = (*GormAuditSink)(nil)
