// Package insights generates advisory cards and per-product recommendations
// from computed metrics. It is a static rule table, not a model: every rule
// matches a condition over the snapshot and emits a templated message.
package insights

import (
	"fmt"

	"github.com/shopanalyser/backend/internal/analytics"
	"github.com/shopanalyser/backend/internal/refdata"
	"github.com/shopanalyser/backend/internal/store"
)

// Insight is one advisory card for the dashboard.
type Insight struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Impact     string `json:"impact"`
	Confidence int    `json:"confidence"`
	Action     string `json:"action"`
}

// Prediction is the response for a single-product performance query.
type Prediction struct {
	Product    string `json:"product"`
	Prediction string `json:"prediction"`
	Profit     int64  `json:"profit"`
}

// Recommendation thresholds for cumulative units sold.
const (
	lowSalesCeiling     = 50
	averageSalesCeiling = 200
)

const (
	recommendLow     = "The product is underperforming. Consider reducing the price or discontinuing it."
	recommendAverage = "The product is performing adequately. Monitor its sales closely."
	recommendHigh    = "The product is performing well. Consider increasing stock and marketing efforts."
)

// Recommend maps cumulative units sold onto a canned performance message.
func Recommend(unitsSold int64) string {
	switch {
	case unitsSold < lowSalesCeiling:
		return recommendLow
	case unitsSold < averageSalesCeiling:
		return recommendAverage
	default:
		return recommendHigh
	}
}

// Predict builds a per-product recommendation with its lifetime profit.
func Predict(p store.Product) Prediction {
	return Prediction{
		Product:    p.Name,
		Prediction: Recommend(p.Sold),
		Profit:     analytics.Profit(p),
	}
}

// Generate runs the rule table over a product snapshot and the reference
// tables and returns the matching insight cards.
func Generate(products []store.Product, categories []refdata.CategoryPerformance, campaigns []refdata.Campaign) []Insight {
	out := make([]Insight, 0, 4)

	if card, ok := reorderAlert(products); ok {
		out = append(out, card)
	}
	if card, ok := growthOpportunity(categories); ok {
		out = append(out, card)
	}
	if card, ok := campaignHighlight(campaigns); ok {
		out = append(out, card)
	}
	out = append(out, snapshotSummary(products))
	return out
}

// reorderAlert fires when products sit at or below their reorder point.
func reorderAlert(products []store.Product) (Insight, bool) {
	count := 0
	for _, p := range products {
		if p.ReorderPoint > 0 && p.Stock <= p.ReorderPoint {
			count++
		}
	}
	if count == 0 {
		return Insight{}, false
	}
	return Insight{
		Type:       "warning",
		Title:      "Stock Level Alert",
		Message:    fmt.Sprintf("%d products are below reorder point. This could lead to lost sales.", count),
		Impact:     "Medium",
		Confidence: 87,
		Action:     "Place immediate reorder for low-stock items",
	}, true
}

// growthOpportunity highlights the fastest-growing category.
func growthOpportunity(categories []refdata.CategoryPerformance) (Insight, bool) {
	if len(categories) == 0 {
		return Insight{}, false
	}
	best := categories[0]
	for _, c := range categories[1:] {
		if c.Growth > best.Growth {
			best = c
		}
	}
	return Insight{
		Type:       "opportunity",
		Title:      "High-Margin Product Opportunity",
		Message:    fmt.Sprintf("Your %s category shows %.1f%% growth with %.0f%% profit margin. Consider expanding this category.", best.Name, best.Growth, best.Margin),
		Impact:     "High",
		Confidence: 92,
		Action:     fmt.Sprintf("Increase %s inventory by 30%%", best.Name),
	}, true
}

// campaignHighlight fires when an active campaign beats the 2.5x industry
// average return on ad spend.
func campaignHighlight(campaigns []refdata.Campaign) (Insight, bool) {
	const industryAverageROAS = 2.5
	var best *refdata.Campaign
	for i := range campaigns {
		c := &campaigns[i]
		if c.Status != "Active" || c.ROAS <= industryAverageROAS {
			continue
		}
		if best == nil || c.ROAS > best.ROAS {
			best = c
		}
	}
	if best == nil {
		return Insight{}, false
	}
	return Insight{
		Type:       "success",
		Title:      "Campaign Performance",
		Message:    fmt.Sprintf("%s campaign shows %.1fx ROAS, exceeding industry average of %.1fx.", best.Name, best.ROAS, industryAverageROAS),
		Impact:     "High",
		Confidence: 95,
		Action:     "Increase budget allocation for this campaign",
	}, true
}

// snapshotSummary always emits one card describing overall sales health.
func snapshotSummary(products []store.Product) Insight {
	var units int64
	for _, p := range products {
		units += p.Sold
	}
	return Insight{
		Type:       "info",
		Title:      "Sales Performance",
		Message:    Recommend(units),
		Impact:     "Medium",
		Confidence: 78,
		Action:     "Review product mix against sales volume",
	}
}
