package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one free-form audit trail entry
type AuditEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Actor      string    `gorm:"type:varchar(100)" json:"actor"`
	Action     string    `gorm:"type:varchar(100);not null" json:"action"`
	EntityType string    `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID   uuid.UUID `gorm:"type:uuid;index" json:"entity_id"`
	Detail     string    `gorm:"type:text" json:"detail"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName returns the table name for GORM
func (AuditEntry) TableName() string {
	return "audit_logs"
}

// NewAuditEntry creates an audit entry
func NewAuditEntry(actor, action, entityType string, entityID uuid.UUID, detail string) AuditEntry {
	return AuditEntry{
		ID:         uuid.New(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
}

// AuditSink records audit trail entries. Sink failures after a durable commit
// degrade to warnings and must never roll the commit back.
type AuditSink interface {
	// LogStockMovement records a stock movement audit entry
	LogStockMovement(ctx context.Context, entry AuditEntry) error

	// LogPurchaseOrderAction records a purchase order action audit entry
	LogPurchaseOrderAction(ctx context.Context, entry AuditEntry) error
}
