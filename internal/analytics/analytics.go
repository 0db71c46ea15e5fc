// Package analytics provides pure, deterministic financial aggregation over
// product snapshots. Nothing here mutates state or touches storage.
package analytics

import (
	"fmt"
	"math"
	"sort"

	perrors "github.com/shopanalyser/backend/internal/errors"
	"github.com/shopanalyser/backend/internal/store"
)

// Metric selects the derived value TopN ranks by.
type Metric string

const (
	MetricRevenue   Metric = "revenue"
	MetricProfit    Metric = "profit"
	MetricUnitsSold Metric = "unitsSold"
)

// UncategorizedBucket collects products without a category label.
const UncategorizedBucket = "Uncategorized"

// CategorySummary is a per-category rollup.
type CategorySummary struct {
	Category string `json:"category"`
	Revenue  int64  `json:"revenue"`
	Profit   int64  `json:"profit"`
	Units    int64  `json:"units"`
	Products int    `json:"products"`
}

// Summary aggregates the headline figures for a snapshot.
type Summary struct {
	TotalRevenue int64   `json:"totalRevenue"`
	TotalCost    int64   `json:"totalCost"`
	NetProfit    int64   `json:"netProfit"`
	ProfitMargin float64 `json:"profitMargin"`
	TotalUnits   int64   `json:"totalUnits"`
	Products     int     `json:"activeProducts"`
}

// Revenue is the lifetime revenue of a single product.
func Revenue(p store.Product) int64 {
	return p.RetailCost * p.Sold
}

// Profit is the lifetime profit of a single product.
func Profit(p store.Product) int64 {
	return (p.RetailCost - p.WholesaleCost) * p.Sold
}

// TotalRevenue sums retailCost * sold over the snapshot.
func TotalRevenue(products []store.Product) int64 {
	var total int64
	for _, p := range products {
		total += Revenue(p)
	}
	return total
}

// TotalCost sums wholesaleCost * sold over the snapshot.
func TotalCost(products []store.Product) int64 {
	var total int64
	for _, p := range products {
		total += p.WholesaleCost * p.Sold
	}
	return total
}

// NetProfit is TotalRevenue minus TotalCost.
func NetProfit(products []store.Product) int64 {
	return TotalRevenue(products) - TotalCost(products)
}

// ProfitMargin is net profit over revenue as a percentage. An empty or
// zero-revenue snapshot yields 0, never NaN.
func ProfitMargin(products []store.Product) (float64, error) {
	revenue := TotalRevenue(products)
	if revenue <= 0 {
		return 0, nil
	}
	margin := float64(NetProfit(products)) / float64(revenue) * 100
	if math.IsNaN(margin) || math.IsInf(margin, 0) {
		return 0, fmt.Errorf("%w: profit margin is not finite", perrors.ErrComputation)
	}
	return margin, nil
}

// Summarize computes the headline figures in one pass over the metric set.
func Summarize(products []store.Product) (Summary, error) {
	margin, err := ProfitMargin(products)
	if err != nil {
		return Summary{}, err
	}
	var units int64
	for _, p := range products {
		units += p.Sold
	}
	return Summary{
		TotalRevenue: TotalRevenue(products),
		TotalCost:    TotalCost(products),
		NetProfit:    NetProfit(products),
		ProfitMargin: margin,
		TotalUnits:   units,
		Products:     len(products),
	}, nil
}

// TopN returns the n best products by the chosen metric, descending, with a
// stable tie-break by ID ascending. The input snapshot is left untouched.
func TopN(products []store.Product, by Metric, n int) []store.Product {
	value := func(p store.Product) int64 {
		switch by {
		case MetricProfit:
			return Profit(p)
		case MetricUnitsSold:
			return p.Sold
		default:
			return Revenue(p)
		}
	}

	ranked := make([]store.Product, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := value(ranked[i]), value(ranked[j])
		if vi != vj {
			return vi > vj
		}
		return ranked[i].ID < ranked[j].ID
	})

	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// PerCategory groups the snapshot by category, folding empty labels into the
// Uncategorized bucket. Buckets come back sorted by revenue descending with
// a name tie-break, so the output is deterministic.
func PerCategory(products []store.Product) []CategorySummary {
	buckets := make(map[string]*CategorySummary)
	for _, p := range products {
		category := p.Category
		if category == "" {
			category = UncategorizedBucket
		}
		b, ok := buckets[category]
		if !ok {
			b = &CategorySummary{Category: category}
			buckets[category] = b
		}
		b.Revenue += Revenue(p)
		b.Profit += Profit(p)
		b.Units += p.Sold
		b.Products++
	}

	out := make([]CategorySummary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// LowStock filters products whose stock is below the threshold.
func LowStock(products []store.Product, threshold int64) []store.Product {
	out := make([]store.Product, 0)
	for _, p := range products {
		if p.Stock < threshold {
			out = append(out, p)
		}
	}
	return out
}

// Growth is the percentage change from previous to current. A zero previous
// value yields 0 rather than a division error.
func Growth(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}
