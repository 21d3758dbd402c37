package purchasing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/purchasing"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// Service exposes the purchase order lifecycle up to the point where goods
// receiving takes over: create, submit, approve, send, cancel. Receipt
// application lives in the receiving service.
type Service struct {
	orders purchasing.PurchaseOrderRepository
	events shared.EventPublisher
	logger *zap.Logger
}

// NewService creates a purchase order service
func NewService(orders purchasing.PurchaseOrderRepository, events shared.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		orders: orders,
		events: events,
		logger: logger,
	}
}

// Create creates a draft purchase order with its items
func (s *Service) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*purchasing.PurchaseOrder, error) {
	if existing, err := s.orders.FindByOrderNumber(ctx, req.OrderNumber); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Order number %s already exists", req.OrderNumber))
	}

	order, err := purchasing.NewPurchaseOrder(req.OrderNumber, req.SupplierID, req.SupplierName)
	if err != nil {
		return nil, err
	}
	order.Notes = req.Notes

	for _, item := range req.Items {
		cost := valueobject.NewMoneyUSD(item.UnitCost)
		if _, err := order.AddItem(item.ProductID, item.ProductName, item.ProductSKU, item.Quantity, cost); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)
	s.logger.Info("purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(order.Items)))

	return order, nil
}

// SubmitForApproval moves a draft order into the approval queue
func (s *Service) SubmitForApproval(ctx context.Context, orderID uuid.UUID) (*purchasing.PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(order *purchasing.PurchaseOrder) error {
		return order.SubmitForApproval()
	})
}

// Approve approves a pending order, making it receivable
func (s *Service) Approve(ctx context.Context, orderID uuid.UUID) (*purchasing.PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(order *purchasing.PurchaseOrder) error {
		return order.Approve()
	})
}

// MarkSent records that an approved order has been sent to the supplier
func (s *Service) MarkSent(ctx context.Context, orderID uuid.UUID) (*purchasing.PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(order *purchasing.PurchaseOrder) error {
		return order.MarkSent()
	})
}

// Cancel cancels an order before any goods have been received
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*purchasing.PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(order *purchasing.PurchaseOrder) error {
		return order.Cancel(reason)
	})
}

// Get retrieves one purchase order
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*purchasing.PurchaseOrder, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, s.mapLoadError(err, orderID)
	}
	return order, nil
}

// List retrieves a page of purchase orders
func (s *Service) List(ctx context.Context, query ListOrdersQuery) (*OrderListResult, error) {
	filter := purchasing.ListFilter{SupplierID: query.SupplierID}

	if query.Status != "" {
		status, ok := purchasing.NormalizeStatus(query.Status)
		if !ok {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown status %q", query.Status))
		}
		filter.Status = &status
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &OrderListResult{
		Orders:   orders,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// transition loads the order, applies the mutation, and saves with an
// optimistic version check
func (s *Service) transition(ctx context.Context, orderID uuid.UUID, mutate func(*purchasing.PurchaseOrder) error) (*purchasing.PurchaseOrder, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, s.mapLoadError(err, orderID)
	}

	expectedVersion := order.GetVersion()
	if err := mutate(order); err != nil {
		return nil, err
	}

	if err := s.orders.SaveWithLock(ctx, order, expectedVersion); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)
	s.logger.Info("purchase order transitioned",
		zap.String("order_id", order.ID.String()),
		zap.String("status", order.Status.String()))

	return order, nil
}

func (s *Service) publishEvents(ctx context.Context, order *purchasing.PurchaseOrder) {
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	order.ClearDomainEvents()
}

func (s *Service) mapLoadError(err error, orderID uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) || shared.IsCode(err, shared.CodeNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("purchase order %s not found", orderID))
	}
	return err
}
