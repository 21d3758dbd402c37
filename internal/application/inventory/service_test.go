package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

type stubLevelRepo struct {
	levels map[uuid.UUID]*inventory.StockLevel
}

func (r *stubLevelRepo) FindByProduct(_ context.Context, productID uuid.UUID) (*inventory.StockLevel, error) {
	level, ok := r.levels[productID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return level, nil
}

func (r *stubLevelRepo) FindByProducts(_ context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*inventory.StockLevel, error) {
	out := make(map[uuid.UUID]*inventory.StockLevel)
	for _, id := range productIDs {
		if level, ok := r.levels[id]; ok {
			out[id] = level
		}
	}
	return out, nil
}

func (r *stubLevelRepo) Save(_ context.Context, level *inventory.StockLevel) error {
	r.levels[level.ProductID] = level
	return nil
}

func (r *stubLevelRepo) SaveWithLock(_ context.Context, level *inventory.StockLevel, _ int) error {
	r.levels[level.ProductID] = level
	return nil
}

type stubMovementRepo struct {
	movements []*inventory.StockMovement

	lastLimit   int
	lastRefType inventory.ReferenceType
	lastRefID   uuid.UUID
}

func (r *stubMovementRepo) Insert(_ context.Context, movement *inventory.StockMovement) error {
	r.movements = append(r.movements, movement)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, limit int) ([]*inventory.StockMovement, error) {
	r.lastLimit = limit
	var out []*inventory.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMovementRepo) ListByReference(_ context.Context, refType inventory.ReferenceType, refID uuid.UUID) ([]*inventory.StockMovement, error) {
	r.lastRefType = refType
	r.lastRefID = refID
	var out []*inventory.StockMovement
	for _, m := range r.movements {
		if m.ReferenceType == refType && m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

type stubProductRepo struct {
	products map[uuid.UUID]*inventory.Product
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*inventory.Product, error) {
	out := make(map[uuid.UUID]*inventory.Product)
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func newTestService() (*QueryService, *stubLevelRepo, *stubMovementRepo, *stubProductRepo) {
	levels := &stubLevelRepo{levels: make(map[uuid.UUID]*inventory.StockLevel)}
	movements := &stubMovementRepo{}
	products := &stubProductRepo{products: make(map[uuid.UUID]*inventory.Product)}
	svc := NewQueryService(levels, movements, products, zap.NewNop())
	return svc, levels, movements, products
}

func newTestProduct(name, sku string) *inventory.Product {
	return &inventory.Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		SKU:        sku,
		Active:     true,
	}
}

func TestGetStockOverview(t *testing.T) {
	ctx := context.Background()

	t.Run("returns product with stock level", func(t *testing.T) {
		svc, levels, _, products := newTestService()

		product := newTestProduct("Widget", "WID-001")
		products.products[product.ID] = product

		level, err := inventory.NewStockLevel(product.ID)
		require.NoError(t, err)
		_, err = level.ApplyReceipt(decimal.NewFromInt(10), decimal.NewFromFloat(2.50))
		require.NoError(t, err)
		levels.levels[product.ID] = level

		overview, err := svc.GetStockOverview(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, overview.Product.ID)
		require.NotNil(t, overview.StockLevel)
		assert.True(t, overview.StockLevel.Quantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("product without receipts has nil stock level", func(t *testing.T) {
		svc, _, _, products := newTestService()

		product := newTestProduct("Gadget", "GAD-001")
		products.products[product.ID] = product

		overview, err := svc.GetStockOverview(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, overview.Product.ID)
		assert.Nil(t, overview.StockLevel)
	})

	t.Run("unknown product returns not found", func(t *testing.T) {
		svc, _, _, _ := newTestService()

		_, err := svc.GetStockOverview(ctx, uuid.New())
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeNotFound, domainErr.Code)
	})
}

func TestListMovements(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps out-of-range limits to the default", func(t *testing.T) {
		svc, _, movements, _ := newTestService()
		productID := uuid.New()

		_, err := svc.ListMovements(ctx, productID, 0)
		require.NoError(t, err)
		assert.Equal(t, 50, movements.lastLimit)

		_, err = svc.ListMovements(ctx, productID, 500)
		require.NoError(t, err)
		assert.Equal(t, 50, movements.lastLimit)
	})

	t.Run("passes a sane limit through", func(t *testing.T) {
		svc, _, movements, _ := newTestService()

		_, err := svc.ListMovements(ctx, uuid.New(), 25)
		require.NoError(t, err)
		assert.Equal(t, 25, movements.lastLimit)
	})
}

func TestListMovementsByOrder(t *testing.T) {
	svc, _, movements, _ := newTestService()
	orderID := uuid.New()

	_, err := svc.ListMovementsByOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ReferencePurchaseOrder, movements.lastRefType)
	assert.Equal(t, orderID, movements.lastRefID)
}
