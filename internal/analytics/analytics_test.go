package analytics

import (
	"testing"

	"github.com/shopanalyser/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshot mirrors a small shop inventory: a phone case, a soap bar and a
// notebook with known lifetime sales.
func snapshot() []store.Product {
	return []store.Product{
		{ID: 1, Name: "Phone Case", Category: "Electronics", WholesaleCost: 8000, RetailCost: 15000, Stock: 45, Sold: 230},
		{ID: 2, Name: "Soap Bar", Category: "Household", WholesaleCost: 1200, RetailCost: 2000, Stock: 120, Sold: 890},
		{ID: 3, Name: "Notebook", Category: "Stationery", WholesaleCost: 500, RetailCost: 1500, Stock: 15, Sold: 340},
	}
}

func Test_Summarize(t *testing.T) {
	// when
	summary, err := Summarize(snapshot())
	// then
	require.NoError(t, err)
	// 15000*230 + 2000*890 + 1500*340
	assert.Equal(t, int64(5_740_000), summary.TotalRevenue)
	// 8000*230 + 1200*890 + 500*340
	assert.Equal(t, int64(3_078_000), summary.TotalCost)
	assert.Equal(t, int64(2_662_000), summary.NetProfit)
	assert.InDelta(t, 46.376, summary.ProfitMargin, 0.001)
	assert.Equal(t, int64(1460), summary.TotalUnits)
	assert.Equal(t, 3, summary.Products)
}

func Test_Summarize_TwoProducts(t *testing.T) {
	products := []store.Product{
		{ID: 1, WholesaleCost: 8000, RetailCost: 15000, Sold: 89},
		{ID: 2, WholesaleCost: 25000, RetailCost: 45000, Sold: 42},
	}
	summary, err := Summarize(products)
	require.NoError(t, err)
	assert.Equal(t, int64(3_225_000), summary.TotalRevenue)
	assert.Equal(t, int64(1_762_000), summary.TotalCost)
	assert.Equal(t, int64(1_463_000), summary.NetProfit)
	assert.InDelta(t, 45.36, summary.ProfitMargin, 0.01)
}

func Test_Summarize_Empty(t *testing.T) {
	summary, err := Summarize(nil)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalRevenue)
	assert.Zero(t, summary.TotalCost)
	assert.Zero(t, summary.NetProfit)
	assert.Zero(t, summary.ProfitMargin)
	assert.Zero(t, summary.TotalUnits)
	assert.Zero(t, summary.Products)
}

func Test_ProfitMargin_ZeroRevenue(t *testing.T) {
	products := []store.Product{
		{ID: 1, Name: "Unsold", WholesaleCost: 1000, RetailCost: 2000, Sold: 0},
	}
	margin, err := ProfitMargin(products)
	require.NoError(t, err)
	assert.Zero(t, margin)
}

func Test_TopN(t *testing.T) {
	testCases := []struct {
		name     string
		metric   Metric
		n        int
		expected []string
	}{
		{
			name:     "by revenue",
			metric:   MetricRevenue,
			n:        2,
			expected: []string{"Phone Case", "Soap Bar"},
		},
		{
			name:     "by units sold",
			metric:   MetricUnitsSold,
			n:        2,
			expected: []string{"Soap Bar", "Notebook"},
		},
		{
			name:     "by profit",
			metric:   MetricProfit,
			n:        1,
			expected: []string{"Phone Case"},
		},
		{
			name:     "n larger than snapshot",
			metric:   MetricRevenue,
			n:        10,
			expected: []string{"Phone Case", "Soap Bar", "Notebook"},
		},
		{
			name:     "n zero",
			metric:   MetricRevenue,
			n:        0,
			expected: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ranked := TopN(snapshot(), tc.metric, tc.n)
			names := make([]string, len(ranked))
			for i, p := range ranked {
				names[i] = p.Name
			}
			assert.Equal(t, tc.expected, names)
		})
	}
}

func Test_TopN_TieBreaksByID(t *testing.T) {
	products := []store.Product{
		{ID: 2, Name: "B", RetailCost: 1000, Sold: 10},
		{ID: 1, Name: "A", RetailCost: 1000, Sold: 10},
	}
	ranked := TopN(products, MetricRevenue, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(1), ranked[0].ID)
	assert.Equal(t, int64(2), ranked[1].ID)
}

func Test_TopN_DoesNotMutateInput(t *testing.T) {
	products := snapshot()
	TopN(products, MetricUnitsSold, 3)
	assert.Equal(t, "Phone Case", products[0].Name)
}

func Test_PerCategory(t *testing.T) {
	products := append(snapshot(), store.Product{ID: 4, Name: "Mystery Item", RetailCost: 1000, Sold: 1})
	buckets := PerCategory(products)
	require.Len(t, buckets, 4)
	// sorted by revenue descending
	assert.Equal(t, "Electronics", buckets[0].Category)
	assert.Equal(t, int64(3_450_000), buckets[0].Revenue)
	assert.Equal(t, UncategorizedBucket, buckets[3].Category)
	assert.Equal(t, 1, buckets[3].Products)
}

func Test_LowStock(t *testing.T) {
	low := LowStock(snapshot(), 20)
	require.Len(t, low, 1)
	assert.Equal(t, "Notebook", low[0].Name)
}

func Test_Growth(t *testing.T) {
	assert.InDelta(t, 10.0, Growth(110, 100), 0.001)
	assert.InDelta(t, -50.0, Growth(50, 100), 0.001)
	assert.Zero(t, Growth(100, 0))
}
