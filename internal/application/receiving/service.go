package receiving

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/purchasing"
	"github.com/retailcore/backend/internal/domain/receiving"
	"github.com/retailcore/backend/internal/domain/shared"
)

// Warning codes raised by the coordinator on top of validator warnings
const (
	WarnProductInactive = "PRODUCT_INACTIVE"
	WarnStockMismatch   = "STOCK_RECORD_MISMATCH"
	WarnAuditFailed     = "AUDIT_LOG_FAILED"
)

// Service coordinates goods-receipt processing: validation, duplicate
// detection, cost recomputation, and the atomic commit of every resulting
// mutation. It holds no mutable state of its own; all collaborators are
// injected.
type Service struct {
	orders            purchasing.PurchaseOrderRepository
	records           receiving.ReceivingRecordRepository
	duplicates        receiving.DuplicateReceiptPolicy
	scope             TransactionScope
	audit             shared.AuditSink
	events            shared.EventPublisher
	logger            *zap.Logger
	defaultOptions    receiving.ValidationOptions
	varianceThreshold decimal.Decimal
}

// NewService creates a receiving service
func NewService(
	orders purchasing.PurchaseOrderRepository,
	records receiving.ReceivingRecordRepository,
	duplicates receiving.DuplicateReceiptPolicy,
	scope TransactionScope,
	audit shared.AuditSink,
	events shared.EventPublisher,
	logger *zap.Logger,
	defaultOptions receiving.ValidationOptions,
) *Service {
	return &Service{
		orders:            orders,
		records:           records,
		duplicates:        duplicates,
		scope:             scope,
		audit:             audit,
		events:            events,
		logger:            logger,
		defaultOptions:    defaultOptions,
		varianceThreshold: decimal.NewFromInt(10),
	}
}

// ValidateSubmission runs the pure receipt validation against a stored order
// without any side effects. Callers use it for pre-validation before
// submitting.
func (s *Service) ValidateSubmission(ctx context.Context, orderID uuid.UUID, items []receiving.PartialReceiptItem, opts *receiving.ValidationOptions) (receiving.ValidationResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return receiving.ValidationResult{}, s.mapLoadError(err, "purchase order", orderID)
	}
	return receiving.ValidateReceipt(order, items, s.resolveOptions(opts)), nil
}

// ProcessReceipt accepts a goods-receipt submission and commits all resulting
// mutations as one atomic unit.
//
// Validation failures do not surface as a Go error; they come back in the
// result's error list with Success=false and no state touched. Every other
// failure category returns a DomainError alongside a failed result, and any
// failure during the commit leaves the store exactly as it was. A recovered
// panic is wrapped into a SYSTEM_ERROR; nothing escapes the engine boundary
// unhandled.
func (s *Service) ProcessReceipt(ctx context.Context, req ProcessReceiptRequest) (result *ReceiptProcessingResult, err error) {
	keyConsumed := false
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("receipt processing panicked",
				zap.String("order_id", req.OrderID.String()),
				zap.Any("panic", r))
			if keyConsumed {
				s.releaseIdempotencyKey(ctx, req.OrderID, req.IdempotencyKey)
			}
			result = &ReceiptProcessingResult{Success: false}
			err = shared.NewSystemError(r)
		}
	}()

	log := s.logger.With(
		zap.String("order_id", req.OrderID.String()),
		zap.String("received_by", req.ReceivedBy),
	)

	order, err := s.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return &ReceiptProcessingResult{Success: false}, s.mapLoadError(err, "purchase order", req.OrderID)
	}

	opts := s.resolveOptions(req.Options)

	validation := receiving.ValidateReceipt(order, req.Items, opts)
	if !validation.IsValid() {
		log.Info("receipt rejected by validation",
			zap.Int("errors", len(validation.Errors)),
			zap.Int("warnings", len(validation.Warnings)))
		return &ReceiptProcessingResult{
			Success:  false,
			Errors:   validation.Errors,
			Warnings: validation.Warnings,
		}, nil
	}

	if err := s.duplicates.Check(ctx, req.OrderID, req.IdempotencyKey); err != nil {
		log.Warn("receipt rejected as duplicate", zap.Error(err))
		return &ReceiptProcessingResult{Success: false, Warnings: validation.Warnings}, err
	}
	// The guard has consumed the idempotency key. Every failure path from
	// here until the commit is durable must give it back, or the caller's
	// retry would be rejected as a duplicate.
	keyConsumed = true

	record, err := receiving.NewReceivingRecord(order.ID, order.OrderNumber,
		req.ReceivedBy, req.ReceivedByName, req.Notes, req.IdempotencyKey, req.Items)
	if err != nil {
		s.releaseIdempotencyKey(ctx, req.OrderID, req.IdempotencyKey)
		return &ReceiptProcessingResult{Success: false}, err
	}

	variances := receiving.DetectPriceVariances(order, req.Items, s.varianceThreshold)

	warnings := append([]receiving.ValidationIssue{}, validation.Warnings...)
	var adjustments []inventory.InventoryAdjustment
	var costResults []inventory.CostResult

	orderVersion := order.GetVersion()
	txErr := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		commitWarnings, commitAdjustments, commitCosts, commitErr := s.commit(ctx, repos, order, orderVersion, record, req)
		if commitErr != nil {
			return commitErr
		}
		warnings = append(warnings, commitWarnings...)
		adjustments = commitAdjustments
		costResults = commitCosts
		return nil
	})
	if txErr != nil {
		log.Error("receipt commit failed and was rolled back", zap.Error(txErr))
		s.releaseIdempotencyKey(ctx, req.OrderID, req.IdempotencyKey)
		return &ReceiptProcessingResult{Success: false, Warnings: warnings}, s.classifyCommitError(txErr)
	}

	// The commit is durable from here on; event and audit failures must not
	// undo it.
	s.publishEvents(ctx, order, record, costResults, log)
	warnings = append(warnings, s.writeAuditTrail(ctx, order, record, adjustments, req.ReceivedBy, log)...)

	log.Info("receipt processed",
		zap.String("record_id", record.ID.String()),
		zap.String("order_status", order.Status.String()),
		zap.Int("lines", len(req.Items)))

	return &ReceiptProcessingResult{
		Success:         true,
		ReceivingRecord: record,
		UpdatedOrder:    order,
		Adjustments:     adjustments,
		CostResults:     costResults,
		PriceVariances:  variances,
		Warnings:        warnings,
	}, nil
}

// commit performs the mutation sequence inside the transaction: stock levels,
// movements, order status, receiving record. Any returned error rolls the
// whole transaction back.
func (s *Service) commit(
	ctx context.Context,
	repos TransactionalRepositories,
	order *purchasing.PurchaseOrder,
	orderVersion int,
	record *receiving.ReceivingRecord,
	req ProcessReceiptRequest,
) ([]receiving.ValidationIssue, []inventory.InventoryAdjustment, []inventory.CostResult, error) {
	var warnings []receiving.ValidationIssue

	productIDs := distinctProductIDs(req.Items)
	products, err := repos.ProductRepo().FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, nil, nil, err
	}

	levels := make(map[uuid.UUID]*inventory.StockLevel)
	levelVersions := make(map[uuid.UUID]int)
	newLevels := make(map[uuid.UUID]bool)

	for _, productID := range productIDs {
		product, ok := products[productID]
		if !ok || product == nil {
			return nil, nil, nil, shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("Product %s not found", productID))
		}
		if !product.Active {
			warnings = append(warnings, receiving.ValidationIssue{
				Code:      WarnProductInactive,
				ProductID: productID,
				Message:   fmt.Sprintf("Product %s (%s) is inactive", product.Name, product.SKU),
			})
		}

		level, err := repos.StockLevelRepo().FindByProduct(ctx, productID)
		switch {
		case err == nil:
			levels[productID] = level
			levelVersions[productID] = level.GetVersion()
		case errors.Is(err, shared.ErrNotFound):
			level, err = inventory.NewStockLevel(productID)
			if err != nil {
				return nil, nil, nil, err
			}
			levels[productID] = level
			newLevels[productID] = true
		default:
			return nil, nil, nil, err
		}

		if !product.StockQuantity.Equal(levels[productID].Quantity) {
			warnings = append(warnings, receiving.ValidationIssue{
				Code:      WarnStockMismatch,
				ProductID: productID,
				Message: fmt.Sprintf("Catalog stock %s does not match stock level %s for product %s",
					product.StockQuantity, levels[productID].Quantity, product.SKU),
			})
		}
	}

	adjustments := make([]inventory.InventoryAdjustment, 0, len(req.Items))
	costResults := make([]inventory.CostResult, 0, len(req.Items))

	for _, item := range req.Items {
		level := levels[item.ProductID]

		costResult, err := level.ApplyReceipt(item.Quantity, item.UnitCost)
		if err != nil {
			return nil, nil, nil, err
		}
		costResults = append(costResults, costResult)

		adjustments = append(adjustments, inventory.InventoryAdjustment{
			ProductID:      item.ProductID,
			QuantityChange: item.Quantity,
			UnitCost:       item.UnitCost,
			TotalCost:      item.EffectiveTotalCost(),
			PreviousStock:  costResult.PreviousStock,
			NewStock:       costResult.NewStock,
			MovementType:   inventory.MovementPurchaseReceipt,
			ReferenceID:    order.ID,
		})

		movement, err := inventory.NewStockMovement(item.ProductID, inventory.MovementPurchaseReceipt, item.Quantity, item.UnitCost)
		if err != nil {
			return nil, nil, nil, err
		}
		movement.WithBalances(costResult.PreviousStock, costResult.NewStock).
			WithUnitCosts(costResult.PreviousUnitCost, costResult.NewUnitCost).
			WithReference(inventory.ReferencePurchaseOrder, order.ID).
			WithCreatedBy(req.ReceivedBy)
		if err := repos.MovementRepo().Insert(ctx, movement); err != nil {
			return nil, nil, nil, err
		}
	}

	for _, productID := range productIDs {
		level := levels[productID]
		if newLevels[productID] {
			if err := repos.StockLevelRepo().Save(ctx, level); err != nil {
				return nil, nil, nil, err
			}
			continue
		}
		if err := repos.StockLevelRepo().SaveWithLock(ctx, level, levelVersions[productID]); err != nil {
			return nil, nil, nil, err
		}
	}

	lines := make([]purchasing.AppliedReceiptLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, purchasing.AppliedReceiptLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		})
	}
	if err := order.ApplyReceipt(lines); err != nil {
		return nil, nil, nil, err
	}
	if err := repos.OrderRepo().SaveWithLock(ctx, order, orderVersion); err != nil {
		return nil, nil, nil, err
	}

	if err := repos.RecordRepo().Insert(ctx, record); err != nil {
		return nil, nil, nil, err
	}

	return warnings, adjustments, costResults, nil
}

// publishEvents flushes the order's pending domain events plus the stock and
// receipt events for this commit. Publish failures are logged and swallowed;
// the commit is already durable.
func (s *Service) publishEvents(
	ctx context.Context,
	order *purchasing.PurchaseOrder,
	record *receiving.ReceivingRecord,
	costResults []inventory.CostResult,
	log *zap.Logger,
) {
	events := order.GetDomainEvents()
	for _, result := range costResults {
		events = append(events, inventory.NewStockIncreasedEvent(result, inventory.ReferencePurchaseOrder, order.ID))
	}
	events = append(events, receiving.NewReceiptRecordedEvent(record))

	if err := s.events.Publish(ctx, events...); err != nil {
		log.Warn("failed to publish domain events", zap.Error(err), zap.Int("events", len(events)))
	}
	order.ClearDomainEvents()
}

// writeAuditTrail records audit entries for the committed receipt. Audit
// failures degrade to warnings; they never roll back the commit.
func (s *Service) writeAuditTrail(
	ctx context.Context,
	order *purchasing.PurchaseOrder,
	record *receiving.ReceivingRecord,
	adjustments []inventory.InventoryAdjustment,
	actor string,
	log *zap.Logger,
) []receiving.ValidationIssue {
	var warnings []receiving.ValidationIssue
	failed := false

	entry := shared.NewAuditEntry(actor, "purchase_order.receipt", "purchase_order", order.ID,
		fmt.Sprintf("receipt %s: %s units, %s total", record.ID, record.TotalQuantity, record.TotalCost))
	if err := s.audit.LogPurchaseOrderAction(ctx, entry); err != nil {
		log.Warn("failed to write order audit entry", zap.Error(err))
		failed = true
	}

	for _, adj := range adjustments {
		entry := shared.NewAuditEntry(actor, "stock.purchase_receipt", "product", adj.ProductID,
			fmt.Sprintf("stock %s -> %s at unit cost %s (order %s)",
				adj.PreviousStock, adj.NewStock, adj.UnitCost, order.OrderNumber))
		if err := s.audit.LogStockMovement(ctx, entry); err != nil {
			log.Warn("failed to write stock audit entry",
				zap.String("product_id", adj.ProductID.String()), zap.Error(err))
			failed = true
		}
	}

	if failed {
		warnings = append(warnings, receiving.ValidationIssue{
			Code:    WarnAuditFailed,
			Message: "One or more audit entries could not be written",
		})
	}
	return warnings
}

// GetReceivingHistory returns the append-only receiving records for an
// order, newest first
func (s *Service) GetReceivingHistory(ctx context.Context, orderID uuid.UUID) ([]*receiving.ReceivingRecord, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, s.mapLoadError(err, "purchase order", orderID)
	}
	return s.records.ListByOrder(ctx, orderID)
}

// releaseIdempotencyKey returns a consumed key to the duplicate guard after a
// failed commit. A release failure is logged only; the primary error already
// describes what went wrong.
func (s *Service) releaseIdempotencyKey(ctx context.Context, orderID uuid.UUID, idempotencyKey string) {
	if err := s.duplicates.Release(ctx, orderID, idempotencyKey); err != nil {
		s.logger.Warn("failed to release idempotency key",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}

// resolveOptions picks the request override or the configured defaults
func (s *Service) resolveOptions(override *receiving.ValidationOptions) receiving.ValidationOptions {
	if override != nil {
		return *override
	}
	return s.defaultOptions
}

// mapLoadError converts repository lookup failures into the engine taxonomy
func (s *Service) mapLoadError(err error, what string, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) || shared.IsCode(err, shared.CodeNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("%s %s not found", what, id))
	}
	return shared.NewSystemError(err)
}

// classifyCommitError keeps domain error codes intact and wraps everything
// else as a transaction failure
func (s *Service) classifyCommitError(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de
	}
	return shared.NewTransactionError(err)
}

func distinctProductIDs(items []receiving.PartialReceiptItem) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
