// Package tax implements the tiered income tax table used by the
// accountability pages.
package tax

import (
	"fmt"
	"math"

	perrors "github.com/shopanalyser/backend/internal/errors"
)

// Tier bounds are inclusive upper limits in minor-unit UGX; the matched
// rate applies to the whole income, not just the slice above the bound.
var tiers = []struct {
	upTo int64
	rate float64
}{
	{upTo: 100000, rate: 0.10},
	{upTo: 500000, rate: 0.15},
	{upTo: 1000000, rate: 0.20},
}

const topRate = 0.25

// Assessment is the result of a tax calculation.
type Assessment struct {
	Income int64   `json:"income"`
	Rate   float64 `json:"rate"`
	Tax    int64   `json:"tax"`
}

// Rate returns the flat rate applied to the given income.
func Rate(income int64) float64 {
	for _, t := range tiers {
		if income <= t.upTo {
			return t.rate
		}
	}
	return topRate
}

// Calculate assesses tax for the given income.
// Returns ErrValidation for negative income.
func Calculate(income int64) (Assessment, error) {
	if income < 0 {
		return Assessment{}, fmt.Errorf("%w: income must not be negative", perrors.ErrValidation)
	}
	rate := Rate(income)
	return Assessment{
		Income: income,
		Rate:   rate,
		Tax:    int64(math.Round(float64(income) * rate)),
	}, nil
}
