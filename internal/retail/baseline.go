package retail

import (
	"sort"
)

// BaselineInput carries everything a baseline strategy may draw on for one
// product×store: its own daily observations (promo flags already set), the
// product's daily unit counts across all stores, and its average RRP.
type BaselineInput struct {
	Observations    []DailyObservation
	CrossStoreUnits []float64
	AvgRRP          *float64
}

// BaselineStrategy computes the non-promotional price and unit baselines a
// promo classification compares against. Two variants exist: per-store
// history when enough qualifying non-promo days are available, and the
// cross-store fallback otherwise. Selection is by explicit precondition, not
// fallthrough.
type BaselineStrategy interface {
	Source() string
	// Applicable reports whether the strategy's precondition holds.
	Applicable(in BaselineInput) bool
	// PriceBaseline returns the baseline realized price, nil when it cannot
	// be established.
	PriceBaseline(in BaselineInput) *float64
	// UnitsBaseline returns the baseline daily unit volume, nil when it
	// cannot be established.
	UnitsBaseline(in BaselineInput) *float64
}

// PerStoreBaseline derives baselines from the product's own non-promo days in
// the same store. Median, not mean, to resist promo-day skew.
type PerStoreBaseline struct {
	MinDays int
}

func (PerStoreBaseline) Source() string { return BaselinePerStore }

func (b PerStoreBaseline) Applicable(in BaselineInput) bool {
	return len(nonPromoValues(in.Observations, func(o DailyObservation) float64 { return o.AvgPrice })) >= b.MinDays
}

func (b PerStoreBaseline) PriceBaseline(in BaselineInput) *float64 {
	return median(nonPromoValues(in.Observations, func(o DailyObservation) float64 { return o.AvgPrice }))
}

func (b PerStoreBaseline) UnitsBaseline(in BaselineInput) *float64 {
	return median(nonPromoValues(in.Observations, func(o DailyObservation) float64 { return o.Units }))
}

// CrossStoreBaseline substitutes the product's cross-store daily unit median
// for the unit baseline and RRP for the price baseline. Used when per-store
// non-promo history is too thin; uplift computed against it carries lower
// confidence.
type CrossStoreBaseline struct{}

func (CrossStoreBaseline) Source() string { return BaselineCrossStore }

func (CrossStoreBaseline) Applicable(BaselineInput) bool { return true }

func (CrossStoreBaseline) PriceBaseline(in BaselineInput) *float64 {
	if in.AvgRRP != nil && *in.AvgRRP > 0 {
		return in.AvgRRP
	}
	return nil
}

func (CrossStoreBaseline) UnitsBaseline(in BaselineInput) *float64 {
	return median(in.CrossStoreUnits)
}

// SelectBaseline picks the strategy whose precondition holds, preferring
// per-store history.
func SelectBaseline(minDays int, in BaselineInput) BaselineStrategy {
	perStore := PerStoreBaseline{MinDays: minDays}
	if perStore.Applicable(in) {
		return perStore
	}
	return CrossStoreBaseline{}
}

func nonPromoValues(obs []DailyObservation, pick func(DailyObservation) float64) []float64 {
	var values []float64
	for _, o := range obs {
		if !o.IsPromoDay {
			values = append(values, pick(o))
		}
	}
	return values
}

// median returns nil for an empty slice so "no data" never collapses to zero.
func median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	var m float64
	if len(sorted)%2 == 0 {
		m = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		m = sorted[mid]
	}
	return &m
}
