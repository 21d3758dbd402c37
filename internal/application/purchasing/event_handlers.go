package purchasing

import (
	"context"

	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/purchasing"
	"github.com/retailcore/backend/internal/domain/shared"
)

// OrderActivityHandler records purchase order lifecycle events to the
// structured log, giving operators a consolidated activity trail.
type OrderActivityHandler struct {
	logger *zap.Logger
}

// NewOrderActivityHandler creates a new OrderActivityHandler
func NewOrderActivityHandler(logger *zap.Logger) *OrderActivityHandler {
	return &OrderActivityHandler{logger: logger}
}

// EventTypes returns the purchase order events this handler consumes
func (h *OrderActivityHandler) EventTypes() []string {
	return []string{
		purchasing.EventTypePurchaseOrderCreated,
		purchasing.EventTypePurchaseOrderApproved,
		purchasing.EventTypePurchaseOrderReceived,
		purchasing.EventTypePurchaseOrderCancelled,
	}
}

// Handle logs one lifecycle event
func (h *OrderActivityHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *purchasing.PurchaseOrderReceivedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("status", string(e.Status)),
			zap.Int("lines", len(e.Lines)))
	case *purchasing.PurchaseOrderCancelledEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("reason", e.Reason))
	}

	h.logger.Info("purchase order activity", fields...)
	return nil
}

var _ shared.EventHandler = (*OrderActivityHandler)(nil)
