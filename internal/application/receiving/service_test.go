package receiving

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/purchasing"
	"github.com/retailcore/backend/internal/domain/receiving"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// fakeStore backs every repository with in-memory maps. Reads hand out
// clones and writes store clones, mimicking a database round trip so the
// snapshot-based transaction scope can roll back cleanly.
type fakeStore struct {
	orders    map[uuid.UUID]*purchasing.PurchaseOrder
	levels    map[uuid.UUID]*inventory.StockLevel
	products  map[uuid.UUID]*inventory.Product
	movements []*inventory.StockMovement
	records   []*receiving.ReceivingRecord

	failLevelSaveFor map[uuid.UUID]bool
	forceOrderStale  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:           make(map[uuid.UUID]*purchasing.PurchaseOrder),
		levels:           make(map[uuid.UUID]*inventory.StockLevel),
		products:         make(map[uuid.UUID]*inventory.Product),
		failLevelSaveFor: make(map[uuid.UUID]bool),
	}
}

func cloneOrder(o *purchasing.PurchaseOrder) *purchasing.PurchaseOrder {
	c := *o
	c.Items = append([]purchasing.PurchaseOrderItem{}, o.Items...)
	return &c
}

func cloneLevel(l *inventory.StockLevel) *inventory.StockLevel {
	c := *l
	return &c
}

type snapshot struct {
	orders    map[uuid.UUID]*purchasing.PurchaseOrder
	levels    map[uuid.UUID]*inventory.StockLevel
	movements []*inventory.StockMovement
	records   []*receiving.ReceivingRecord
}

func (s *fakeStore) snapshot() snapshot {
	snap := snapshot{
		orders:    make(map[uuid.UUID]*purchasing.PurchaseOrder, len(s.orders)),
		levels:    make(map[uuid.UUID]*inventory.StockLevel, len(s.levels)),
		movements: append([]*inventory.StockMovement{}, s.movements...),
		records:   append([]*receiving.ReceivingRecord{}, s.records...),
	}
	for id, o := range s.orders {
		snap.orders[id] = cloneOrder(o)
	}
	for id, l := range s.levels {
		snap.levels[id] = cloneLevel(l)
	}
	return snap
}

func (s *fakeStore) restore(snap snapshot) {
	s.orders = snap.orders
	s.levels = snap.levels
	s.movements = snap.movements
	s.records = snap.records
}

// Purchase order repository

type fakeOrderRepo struct{ store *fakeStore }

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	o, ok := r.store.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) FindByOrderNumber(_ context.Context, number string) (*purchasing.PurchaseOrder, error) {
	for _, o := range r.store.orders {
		if o.OrderNumber == number {
			return cloneOrder(o), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) List(_ context.Context, _ purchasing.ListFilter) ([]*purchasing.PurchaseOrder, int64, error) {
	out := make([]*purchasing.PurchaseOrder, 0, len(r.store.orders))
	for _, o := range r.store.orders {
		out = append(out, cloneOrder(o))
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *purchasing.PurchaseOrder) error {
	r.store.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *fakeOrderRepo) SaveWithLock(_ context.Context, order *purchasing.PurchaseOrder, expectedVersion int) error {
	stored, ok := r.store.orders[order.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if r.store.forceOrderStale || stored.GetVersion() != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	r.store.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.orders, id)
	return nil
}

// Stock level repository

type fakeLevelRepo struct{ store *fakeStore }

func (r *fakeLevelRepo) FindByProduct(_ context.Context, productID uuid.UUID) (*inventory.StockLevel, error) {
	l, ok := r.store.levels[productID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneLevel(l), nil
}

func (r *fakeLevelRepo) FindByProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*inventory.StockLevel, error) {
	out := make(map[uuid.UUID]*inventory.StockLevel)
	for _, id := range ids {
		if l, ok := r.store.levels[id]; ok {
			out[id] = cloneLevel(l)
		}
	}
	return out, nil
}

func (r *fakeLevelRepo) Save(_ context.Context, level *inventory.StockLevel) error {
	if r.store.failLevelSaveFor[level.ProductID] {
		return fmt.Errorf("stock write failed for %s", level.ProductID)
	}
	r.store.levels[level.ProductID] = cloneLevel(level)
	return nil
}

func (r *fakeLevelRepo) SaveWithLock(_ context.Context, level *inventory.StockLevel, expectedVersion int) error {
	if r.store.failLevelSaveFor[level.ProductID] {
		return fmt.Errorf("stock write failed for %s", level.ProductID)
	}
	stored, ok := r.store.levels[level.ProductID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.GetVersion() != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	r.store.levels[level.ProductID] = cloneLevel(level)
	return nil
}

// Movement, record, product repositories

type fakeMovementRepo struct{ store *fakeStore }

func (r *fakeMovementRepo) Insert(_ context.Context, m *inventory.StockMovement) error {
	r.store.movements = append(r.store.movements, m)
	return nil
}

func (r *fakeMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, _ int) ([]*inventory.StockMovement, error) {
	out := make([]*inventory.StockMovement, 0)
	for _, m := range r.store.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) ListByReference(_ context.Context, refType inventory.ReferenceType, refID uuid.UUID) ([]*inventory.StockMovement, error) {
	out := make([]*inventory.StockMovement, 0)
	for _, m := range r.store.movements {
		if m.ReferenceType == refType && m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeRecordRepo struct{ store *fakeStore }

func (r *fakeRecordRepo) Insert(_ context.Context, record *receiving.ReceivingRecord) error {
	r.store.records = append(r.store.records, record)
	return nil
}

func (r *fakeRecordRepo) FindByID(_ context.Context, id uuid.UUID) (*receiving.ReceivingRecord, error) {
	for _, rec := range r.store.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeRecordRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]*receiving.ReceivingRecord, error) {
	out := make([]*receiving.ReceivingRecord, 0)
	for _, rec := range r.store.records {
		if rec.OrderID == orderID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeProductRepo struct{ store *fakeStore }

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	p, ok := r.store.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*inventory.Product, error) {
	out := make(map[uuid.UUID]*inventory.Product)
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// snapshotScope emulates transactional commit/rollback by restoring the
// store when the inner function fails.
type snapshotScope struct{ store *fakeStore }

func (s *snapshotScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	snap := s.store.snapshot()
	if err := fn(&storeRepos{store: s.store}); err != nil {
		s.store.restore(snap)
		return err
	}
	return nil
}

type storeRepos struct{ store *fakeStore }

func (r *storeRepos) OrderRepo() purchasing.PurchaseOrderRepository { return &fakeOrderRepo{r.store} }
func (r *storeRepos) StockLevelRepo() inventory.StockLevelRepository {
	return &fakeLevelRepo{r.store}
}
func (r *storeRepos) MovementRepo() inventory.StockMovementRepository {
	return &fakeMovementRepo{r.store}
}
func (r *storeRepos) RecordRepo() receiving.ReceivingRecordRepository {
	return &fakeRecordRepo{r.store}
}
func (r *storeRepos) ProductRepo() inventory.ProductRepository { return &fakeProductRepo{r.store} }

// Collaborator fakes

type fakeAuditSink struct {
	entries []shared.AuditEntry
	fail    bool
}

func (a *fakeAuditSink) LogStockMovement(_ context.Context, entry shared.AuditEntry) error {
	if a.fail {
		return fmt.Errorf("audit sink unavailable")
	}
	a.entries = append(a.entries, entry)
	return nil
}

func (a *fakeAuditSink) LogPurchaseOrderAction(_ context.Context, entry shared.AuditEntry) error {
	if a.fail {
		return fmt.Errorf("audit sink unavailable")
	}
	a.entries = append(a.entries, entry)
	return nil
}

type fakePublisher struct{ published []shared.DomainEvent }

func (p *fakePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.published = append(p.published, events...)
	return nil
}

type panickingPolicy struct{}

func (panickingPolicy) Check(context.Context, uuid.UUID, string) error {
	panic("policy blew up")
}

func (panickingPolicy) Release(context.Context, uuid.UUID, string) error { return nil }

type fakeIdempotencyStore struct{ seen map[string]bool }

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	return s.seen[key], nil
}

func (s *fakeIdempotencyStore) Forget(_ context.Context, key string) error {
	delete(s.seen, key)
	return nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }

// Harness

type harness struct {
	store   *fakeStore
	service *Service
	audit   *fakeAuditSink
	events  *fakePublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newFakeStore()
	audit := &fakeAuditSink{}
	events := &fakePublisher{}
	orders := &fakeOrderRepo{store}
	records := &fakeRecordRepo{store}
	duplicates := receiving.NewTimeWindowPolicy(records, 5*time.Minute)
	service := NewService(orders, records, duplicates, &snapshotScope{store}, audit, events,
		zap.NewNop(), receiving.DefaultValidationOptions())
	return &harness{store: store, service: service, audit: audit, events: events}
}

// seedOrder creates an approved order plus product and stock rows for each
// line: map of productID -> [ordered, orderedCost, stockQty, stockCost]
func (h *harness) seedOrder(t *testing.T, lines map[uuid.UUID][4]float64) *purchasing.PurchaseOrder {
	t.Helper()
	order, err := purchasing.NewPurchaseOrder(fmt.Sprintf("PO-%s", uuid.NewString()[:8]), uuid.New(), "Acme Supply Co")
	require.NoError(t, err)
	for productID, v := range lines {
		_, err := order.AddItem(productID, "Product", "SKU-"+productID.String()[:8],
			decimal.NewFromFloat(v[0]), valueobject.NewMoneyUSDFromFloat(v[1]))
		require.NoError(t, err)

		product := &inventory.Product{
			BaseEntity:    shared.NewBaseEntity(),
			Name:          "Product",
			SKU:           "SKU-" + productID.String()[:8],
			Active:        true,
			StockQuantity: decimal.NewFromFloat(v[2]),
		}
		product.ID = productID
		h.store.products[productID] = product

		if v[2] > 0 || v[3] > 0 {
			level, err := inventory.NewStockLevel(productID)
			require.NoError(t, err)
			level.Quantity = decimal.NewFromFloat(v[2])
			level.AverageUnitCost = decimal.NewFromFloat(v[3])
			h.store.levels[productID] = level
		}
	}
	require.NoError(t, order.SubmitForApproval())
	require.NoError(t, order.Approve())
	order.ClearDomainEvents()
	h.store.orders[order.ID] = order
	return order
}

func TestProcessReceipt_FullReceiptRecostsInventory(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	// Ordered 100 @ 10.00, current stock 50 @ 8.00.
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {100, 10, 50, 8}})

	result, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(100), UnitCost: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	level := h.store.levels[productID]
	assert.Equal(t, "150", level.Quantity.String())
	assert.Equal(t, "9.3333", level.AverageUnitCost.StringFixed(4))

	stored := h.store.orders[order.ID]
	assert.Equal(t, purchasing.StatusReceived, stored.Status)

	require.Len(t, h.store.records, 1)
	assert.Equal(t, "1000", h.store.records[0].TotalCost.String())
	require.Len(t, h.store.movements, 1)
	assert.Equal(t, "50", h.store.movements[0].BalanceBefore.String())
	assert.Equal(t, "150", h.store.movements[0].BalanceAfter.String())

	require.Len(t, result.CostResults, 1)
	assert.Equal(t, "9.3333", result.CostResults[0].NewUnitCost.StringFixed(4))
	assert.Empty(t, result.Warnings)

	// Order and stock audit entries were written.
	assert.Len(t, h.audit.entries, 2)
	assert.NotEmpty(t, h.events.published)
}

func TestProcessReceipt_OrderNotFound(t *testing.T) {
	h := newHarness(t)

	result, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    uuid.New(),
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(1)},
		},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	assert.False(t, result.Success)
}

func TestProcessReceipt_ValidationFailureReturnsIssuesWithoutError(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {100, 10, 0, 0}})

	// 120 against 100 ordered with 5% tolerance is an error.
	result, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(120), UnitCost: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)

	// Nothing was touched.
	assert.Empty(t, h.store.records)
	assert.Empty(t, h.store.movements)
	assert.Equal(t, purchasing.StatusApproved, h.store.orders[order.ID].Status)
}

func TestProcessReceipt_DuplicateWithinWindow(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {100, 10, 0, 0}})

	first, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(10)},
		},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeDuplicateReceipt))
	assert.False(t, second.Success)
	assert.Len(t, h.store.records, 1)
}

func TestProcessReceipt_AtomicRollback(t *testing.T) {
	h := newHarness(t)
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{
		p1: {10, 1, 5, 1},
		p2: {10, 1, 5, 1},
		p3: {10, 1, 5, 1},
	})
	// Fail the stock write for one product mid-commit.
	h.store.failLevelSaveFor[p2] = true

	result, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: p1, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(1)},
			{ProductID: p2, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(1)},
			{ProductID: p3, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(1)},
		},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeTransactionFailed))
	assert.False(t, result.Success)

	// Zero stock changes applied, no record, no movements, order untouched.
	for _, id := range []uuid.UUID{p1, p2, p3} {
		assert.Equal(t, "5", h.store.levels[id].Quantity.String())
	}
	assert.Empty(t, h.store.records)
	assert.Empty(t, h.store.movements)
	assert.Equal(t, purchasing.StatusApproved, h.store.orders[order.ID].Status)
	assert.Empty(t, h.audit.entries)
	assert.Empty(t, h.events.published)
}

func TestProcessReceipt_StaleOrderSurfacesConflict(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {100, 10, 0, 0}})
	h.store.forceOrderStale = true

	result, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(10)},
		},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeConcurrencyConflict))
	assert.False(t, result.Success)
	assert.Empty(t, h.store.records)
}

func TestProcessReceipt_FailedCommitReleasesIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {100, 10, 0, 0}})

	orders := &fakeOrderRepo{h.store}
	records := &fakeRecordRepo{h.store}
	duplicates := receiving.NewIdempotencyKeyPolicy(newFakeIdempotencyStore(), time.Hour)
	service := NewService(orders, records, duplicates, &snapshotScope{h.store},
		h.audit, h.events, zap.NewNop(), receiving.DefaultValidationOptions())

	req := ProcessReceiptRequest{
		OrderID:        order.ID,
		ReceivedBy:     "warehouse-1",
		IdempotencyKey: "submit-42",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(10)},
		},
	}

	// The first attempt loses the optimistic-lock race and rolls back.
	h.store.forceOrderStale = true
	result, err := service.ProcessReceipt(context.Background(), req)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeConcurrencyConflict))
	assert.False(t, result.Success)
	assert.Empty(t, h.store.records)

	// The retry with the same key must not be rejected as a duplicate.
	h.store.forceOrderStale = false
	result, err = service.ProcessReceipt(context.Background(), req)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, h.store.records, 1)

	// A replay after the successful commit is still caught.
	_, err = service.ProcessReceipt(context.Background(), req)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeDuplicateReceipt))
	assert.Len(t, h.store.records, 1)
}

func TestProcessReceipt_MissingProductAbortsCommit(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {100, 10, 0, 0}})
	delete(h.store.products, productID)

	result, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(10)},
		},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	assert.False(t, result.Success)
	assert.Empty(t, h.store.records)
}

func TestProcessReceipt_InactiveProductAndStockMismatchWarn(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {100, 10, 50, 8}})
	h.store.products[productID].Active = false
	h.store.products[productID].StockQuantity = decimal.NewFromInt(47)

	result, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	codes := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, WarnProductInactive)
	assert.Contains(t, codes, WarnStockMismatch)
}

func TestProcessReceipt_CreatesStockLevelForNewProduct(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {20, 3.5, 0, 0}})
	require.Nil(t, h.store.levels[productID])

	result, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(20), UnitCost: decimal.NewFromFloat(3.5)},
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	level := h.store.levels[productID]
	require.NotNil(t, level)
	assert.Equal(t, "20", level.Quantity.String())
	assert.Equal(t, "3.5000", level.AverageUnitCost.StringFixed(4))
}

func TestProcessReceipt_AuditFailureDegradesToWarning(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {10, 1, 0, 0}})
	h.audit.fail = true

	result, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(1)},
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, h.store.records, 1)

	codes := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, WarnAuditFailed)
}

func TestProcessReceipt_PanicBecomesSystemError(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {10, 1, 0, 0}})

	orders := &fakeOrderRepo{h.store}
	records := &fakeRecordRepo{h.store}
	service := NewService(orders, records, panickingPolicy{}, &snapshotScope{h.store},
		h.audit, h.events, zap.NewNop(), receiving.DefaultValidationOptions())

	result, err := service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(1)},
		},
	})
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeSystemError))
	assert.False(t, result.Success)
	assert.Empty(t, h.store.records)
}

func TestProcessReceipt_SequentialPartialReceipts(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {100, 10, 0, 0}})

	quantities := []int64{40, 35, 25}
	var previousReceived decimal.Decimal
	for i, qty := range quantities {
		// Step past the duplicate window between submissions.
		h.store.records = nil

		result, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
			OrderID:    order.ID,
			ReceivedBy: "warehouse-1",
			Items: []receiving.PartialReceiptItem{
				{ProductID: productID, Quantity: decimal.NewFromInt(qty), UnitCost: decimal.NewFromInt(10)},
			},
		})
		require.NoError(t, err, "submission %d", i)
		require.True(t, result.Success)

		received := h.store.orders[order.ID].GetItemByProduct(productID).ReceivedQuantity
		assert.True(t, received.GreaterThan(previousReceived), "cumulative received must grow")
		previousReceived = received
	}

	stored := h.store.orders[order.ID]
	assert.Equal(t, purchasing.StatusReceived, stored.Status)
	assert.Equal(t, "100", previousReceived.String())
}

func TestGetReceivingHistory(t *testing.T) {
	h := newHarness(t)
	productID := uuid.New()
	order := h.seedOrder(t, map[uuid.UUID][4]float64{productID: {100, 10, 0, 0}})

	_, err := h.service.ProcessReceipt(context.Background(), ProcessReceiptRequest{
		OrderID:    order.ID,
		ReceivedBy: "warehouse-1",
		Items: []receiving.PartialReceiptItem{
			{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)

	history, err := h.service.GetReceivingHistory(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].OrderID)

	_, err = h.service.GetReceivingHistory(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))
}
