package receiving

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPriceVariances(t *testing.T) {
	cheapID := uuid.New()
	stableID := uuid.New()
	order := buildOrder(t, map[uuid.UUID][2]float64{
		cheapID:  {100, 10},
		stableID: {50, 4},
	})

	variances := DetectPriceVariances(order, []PartialReceiptItem{
		{ProductID: cheapID, Quantity: decimal.NewFromInt(100), UnitCost: decimal.NewFromFloat(12)},
		{ProductID: stableID, Quantity: decimal.NewFromInt(50), UnitCost: decimal.NewFromFloat(4.1)},
	}, decimal.NewFromInt(10))

	require.Len(t, variances, 2)

	byProduct := make(map[uuid.UUID]PriceVariance)
	for _, v := range variances {
		byProduct[v.ProductID] = v
	}

	cheap := byProduct[cheapID]
	assert.True(t, cheap.Variance.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "20", cheap.VariancePercentage.String())
	assert.True(t, cheap.ExceedsThreshold)

	stable := byProduct[stableID]
	assert.Equal(t, "2.5", stable.VariancePercentage.String())
	assert.False(t, stable.ExceedsThreshold)

	flagged := FlaggedVariances(variances)
	require.Len(t, flagged, 1)
	assert.Equal(t, cheapID, flagged[0].ProductID)
}

func TestDetectPriceVariances_ZeroOrderedCost(t *testing.T) {
	productID := uuid.New()
	order := buildOrder(t, map[uuid.UUID][2]float64{productID: {10, 0}})

	variances := DetectPriceVariances(order, []PartialReceiptItem{
		{ProductID: productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(3)},
	}, decimal.NewFromInt(10))

	require.Len(t, variances, 1)
	assert.True(t, variances[0].VariancePercentage.IsZero())
	assert.False(t, variances[0].ExceedsThreshold)
}

func TestDetectPriceVariances_SkipsUnknownProducts(t *testing.T) {
	order := buildOrder(t, map[uuid.UUID][2]float64{uuid.New(): {10, 5}})

	variances := DetectPriceVariances(order, []PartialReceiptItem{
		{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(5)},
	}, decimal.NewFromInt(10))

	assert.Empty(t, variances)
}
