package retail

import (
	"log/slog"
	"sort"

	"retailsight/internal/config"
)

// PromoCalculator partitions each product×store's days into promo and
// non-promo, derives the baseline via the selected strategy, and computes
// discount depth and unit uplift.
type PromoCalculator struct {
	cfg    config.AnalyticsConfig
	logger *slog.Logger
}

// NewPromoCalculator creates a calculator with the given thresholds.
func NewPromoCalculator(cfg config.AnalyticsConfig, logger *slog.Logger) *PromoCalculator {
	return &PromoCalculator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "promo_calculator")),
	}
}

type productStoreKey struct {
	item  string
	store string
}

type groupMeta struct {
	description string
	category    string
	supplier    string
	isFocal     bool
	rrpSum      float64
	rrpCount    int
}

// Calculate produces one PromoSummaryRow per product×store, sorted by item
// then store for deterministic output.
func (p *PromoCalculator) Calculate(cleaned []CleanedRecord) []PromoSummaryRow {
	daily, meta := p.buildDailyObservations(cleaned)

	// Cross-store daily unit volumes per product, for the fallback baseline.
	crossStoreUnits := make(map[string][]float64)
	for key, obs := range daily {
		for _, o := range obs {
			crossStoreUnits[key.item] = append(crossStoreUnits[key.item], o.Units)
		}
	}
	for _, units := range crossStoreUnits {
		sort.Float64s(units)
	}

	keys := make([]productStoreKey, 0, len(daily))
	for key := range daily {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].item != keys[j].item {
			return keys[i].item < keys[j].item
		}
		return keys[i].store < keys[j].store
	})

	rows := make([]PromoSummaryRow, 0, len(keys))
	for _, key := range keys {
		obs := daily[key]
		m := meta[key]

		p.flagPromoDays(obs)

		var avgRRP *float64
		if m.rrpCount > 0 {
			v := m.rrpSum / float64(m.rrpCount)
			avgRRP = &v
		}

		in := BaselineInput{
			Observations:    obs,
			CrossStoreUnits: crossStoreUnits[key.item],
			AvgRRP:          avgRRP,
		}
		strategy := SelectBaseline(p.cfg.Promo.MinBaselineDays, in)

		rows = append(rows, p.summarize(key, m, obs, strategy, in))
	}

	p.logger.Info("promo classification complete",
		slog.Int("product_stores", len(rows)))
	return rows
}

// buildDailyObservations aggregates cleaned records into product×store×date
// observations. Records without a positive quantity (and thus without a
// realized price) are excluded from every promo denominator.
func (p *PromoCalculator) buildDailyObservations(cleaned []CleanedRecord) (map[productStoreKey][]DailyObservation, map[productStoreKey]groupMeta) {
	type dayKey struct {
		productStoreKey
		date string
	}

	dayAgg := make(map[dayKey]*DailyObservation)
	meta := make(map[productStoreKey]groupMeta)

	for _, c := range cleaned {
		if c.ItemCode == "" || c.StoreName == "" {
			continue
		}

		psk := productStoreKey{item: c.ItemCode, store: c.StoreName}
		m := meta[psk]
		if m.description == "" {
			m.description = c.Description
		}
		if m.category == "" {
			m.category = c.Category
		}
		if m.supplier == "" {
			m.supplier = c.Supplier
		}
		m.isFocal = m.isFocal || c.IsFocal
		if c.RRP != nil && *c.RRP > 0 {
			m.rrpSum += *c.RRP
			m.rrpCount++
		}
		meta[psk] = m

		if c.Quantity == nil || *c.Quantity <= 0 || c.RealizedPrice == nil {
			continue
		}

		dk := dayKey{productStoreKey: psk, date: c.SaleDate}
		agg, ok := dayAgg[dk]
		if !ok {
			agg = &DailyObservation{ItemCode: c.ItemCode, StoreName: c.StoreName, SaleDate: c.SaleDate}
			dayAgg[dk] = agg
		}
		agg.Units += *c.Quantity
		if c.TotalSales != nil {
			agg.SalesValue += *c.TotalSales
		}
	}

	daily := make(map[productStoreKey][]DailyObservation)
	for dk, agg := range dayAgg {
		if agg.Units > 0 {
			agg.AvgPrice = agg.SalesValue / agg.Units
		}
		daily[dk.productStoreKey] = append(daily[dk.productStoreKey], *agg)
	}
	for _, obs := range daily {
		sort.Slice(obs, func(i, j int) bool { return obs[i].SaleDate < obs[j].SaleDate })
	}
	return daily, meta
}

// flagPromoDays marks days whose price sits at least the discount threshold
// below the product×store's own median daily price. The median over all days
// is the classification reference; the reported baseline is then recomputed
// from the non-promo subset by the selected strategy.
func (p *PromoCalculator) flagPromoDays(obs []DailyObservation) {
	prices := make([]float64, 0, len(obs))
	for _, o := range obs {
		prices = append(prices, o.AvgPrice)
	}
	ref := median(prices)
	if ref == nil || *ref <= 0 {
		return
	}
	cutoff := (1 - p.cfg.Promo.DiscountThreshold) * *ref
	for i := range obs {
		obs[i].IsPromoDay = obs[i].AvgPrice <= cutoff
	}
}

func (p *PromoCalculator) summarize(key productStoreKey, m groupMeta, obs []DailyObservation, strategy BaselineStrategy, in BaselineInput) PromoSummaryRow {
	row := PromoSummaryRow{
		ItemCode:       key.item,
		Description:    m.description,
		StoreName:      key.store,
		Category:       m.category,
		Supplier:       m.supplier,
		IsFocal:        m.isFocal,
		TotalDays:      len(obs),
		BaselineSource: strategy.Source(),
	}

	var promoUnits, promoValue, nonPromoUnits, nonPromoValue, totalValue float64
	for _, o := range obs {
		totalValue += o.SalesValue
		row.TotalUnitsSold += o.Units
		if o.IsPromoDay {
			row.PromoDays++
			promoUnits += o.Units
			promoValue += o.SalesValue
		} else {
			nonPromoUnits += o.Units
			nonPromoValue += o.SalesValue
		}
	}
	row.PromoUnitsSold = promoUnits
	row.TotalSalesValue = totalValue
	row.IsOnPromo = row.PromoDays >= p.cfg.Promo.MinPromoDays

	if promoUnits > 0 {
		v := round2(promoValue / promoUnits)
		row.AvgPromoPrice = &v
	}
	if nonPromoUnits > 0 {
		v := round2(nonPromoValue / nonPromoUnits)
		row.AvgNonPromoPrice = &v
	}

	if bp := strategy.PriceBaseline(in); bp != nil {
		v := round2(*bp)
		row.BaselinePrice = &v
		if row.BaselineSource == BaselineCrossStore {
			// The price side of the cross-store fallback is RRP.
			row.BaselineSource = BaselineRRP
		}
	}

	// Discount depth vs baseline price, floored at zero.
	if row.BaselinePrice != nil && *row.BaselinePrice > 0 && row.AvgPromoPrice != nil && row.PromoDays > 0 {
		depth := (*row.BaselinePrice - *row.AvgPromoPrice) / *row.BaselinePrice * 100
		if depth < 0 {
			depth = 0
		}
		depth = round2(depth)
		row.PromoDiscountDepthPct = &depth
	}

	// Uplift: null when the baseline denominator is null or zero — never 0
	// or infinite.
	if row.PromoDays > 0 {
		if ub := strategy.UnitsBaseline(in); ub != nil && *ub > 0 {
			avgPromoUnits := promoUnits / float64(row.PromoDays)
			uplift := round2((avgPromoUnits - *ub) / *ub * 100)
			row.PromoUpliftPct = &uplift
			if strategy.Source() == BaselineCrossStore {
				row.UpliftConfidence = "low"
			} else {
				row.UpliftConfidence = "normal"
			}
		}
	}

	return row
}

// SortByUplift orders rows by uplift descending with nulls last, then total
// sales value descending, then item/store for stability.
func SortByUplift(rows []PromoSummaryRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.PromoUpliftPct != nil && b.PromoUpliftPct == nil:
			return true
		case a.PromoUpliftPct == nil && b.PromoUpliftPct != nil:
			return false
		case a.PromoUpliftPct != nil && b.PromoUpliftPct != nil && *a.PromoUpliftPct != *b.PromoUpliftPct:
			return *a.PromoUpliftPct > *b.PromoUpliftPct
		}
		if a.TotalSalesValue != b.TotalSalesValue {
			return a.TotalSalesValue > b.TotalSalesValue
		}
		if a.ItemCode != b.ItemCode {
			return a.ItemCode < b.ItemCode
		}
		return a.StoreName < b.StoreName
	})
}
