package retail

import (
	"log/slog"
	"sort"

	"retailsight/internal/config"
)

// Summarizer produces the group-by rollups over the per-record and per-product
// outputs. Pure aggregation: no new business logic beyond the health and
// reliability bands.
type Summarizer struct {
	cfg    config.AnalyticsConfig
	logger *slog.Logger
}

// NewSummarizer creates a summarizer with the given bands.
func NewSummarizer(cfg config.AnalyticsConfig, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "summarizer")),
	}
}

// QualitySummary rolls up quality scores overall and by store, supplier and
// category. Rows are sorted by scope then dimension value.
func (s *Summarizer) QualitySummary(cleaned []CleanedRecord, issues []QualityIssue) []QualitySummaryRow {
	type bucket struct {
		count      int
		scoreSum   float64
		lowQuality int
		duplicates int
		issues     int
	}

	overall := &bucket{}
	byStore := make(map[string]*bucket)
	bySupplier := make(map[string]*bucket)
	byCategory := make(map[string]*bucket)

	get := func(m map[string]*bucket, key string) *bucket {
		b, ok := m[key]
		if !ok {
			b = &bucket{}
			m[key] = b
		}
		return b
	}

	// Category is not carried on issues; recover it from the cleaned record
	// identity.
	recordCategory := make(map[string]string)
	for _, c := range cleaned {
		key := c.StoreName + "|" + c.ItemCode + "|" + c.SaleDate
		if _, ok := recordCategory[key]; !ok {
			recordCategory[key] = c.Category
		}

		for _, b := range []*bucket{overall, get(byStore, c.StoreName), get(bySupplier, c.Supplier), get(byCategory, c.Category)} {
			b.count++
			b.scoreSum += c.QualityScore
			if c.IsLowQuality {
				b.lowQuality++
			}
			if c.IsDuplicate {
				b.duplicates++
			}
		}
	}

	for _, issue := range issues {
		overall.issues++
		if b, ok := byStore[issue.StoreName]; ok {
			b.issues++
		}
		if b, ok := bySupplier[issue.Supplier]; ok {
			b.issues++
		}
		key := issue.StoreName + "|" + issue.ItemCode + "|" + issue.SaleDate
		if category, ok := recordCategory[key]; ok {
			if b, ok := byCategory[category]; ok {
				b.issues++
			}
		}
	}

	build := func(scope string, b *bucket) QualitySummaryRow {
		row := QualitySummaryRow{
			Scope:           scope,
			RecordCount:     b.count,
			LowQualityCount: b.lowQuality,
			DuplicateCount:  b.duplicates,
			IssueCount:      b.issues,
		}
		if b.count > 0 {
			row.AvgQualityScore = round2(b.scoreSum / float64(b.count))
			row.LowQualityPct = round2(float64(b.lowQuality) / float64(b.count) * 100)
		}
		row.HealthRating = s.healthRating(row.AvgQualityScore)
		row.ReliabilityStatus = s.reliabilityStatus(row.LowQualityPct)
		return row
	}

	rows := []QualitySummaryRow{build(ScopeOverall, overall)}
	for _, store := range sortedKeys(byStore) {
		row := build(ScopeStore, byStore[store])
		row.StoreName = store
		rows = append(rows, row)
	}
	for _, supplier := range sortedKeys(bySupplier) {
		row := build(ScopeSupplier, bySupplier[supplier])
		row.Supplier = supplier
		rows = append(rows, row)
	}
	for _, category := range sortedKeys(byCategory) {
		row := build(ScopeCategory, byCategory[category])
		row.Category = category
		rows = append(rows, row)
	}
	return rows
}

// PricingSummary rolls up the focal supplier's price index rows overall and
// by store, section and store×section, each independently re-deriving the
// dominant positioning.
func (s *Summarizer) PricingSummary(priceIndex []PriceIndexRow) []PricingSummaryRow {
	type bucket struct {
		rows []PriceIndexRow
	}

	overall := &bucket{}
	byStore := make(map[string]*bucket)
	bySection := make(map[string]*bucket)
	byStoreSection := make(map[sectionKey]*bucket)

	for _, row := range priceIndex {
		if !row.IsFocal {
			continue
		}
		overall.rows = append(overall.rows, row)

		if byStore[row.StoreName] == nil {
			byStore[row.StoreName] = &bucket{}
		}
		byStore[row.StoreName].rows = append(byStore[row.StoreName].rows, row)

		if bySection[row.Section] == nil {
			bySection[row.Section] = &bucket{}
		}
		bySection[row.Section].rows = append(bySection[row.Section].rows, row)

		sk := sectionKey{store: row.StoreName, section: row.Section}
		if byStoreSection[sk] == nil {
			byStoreSection[sk] = &bucket{}
		}
		byStoreSection[sk].rows = append(byStoreSection[sk].rows, row)
	}

	build := func(scope string, b *bucket) PricingSummaryRow {
		row := PricingSummaryRow{Scope: scope, ProductCount: len(b.rows)}
		var indexSum float64
		var indexCount int
		for _, pi := range b.rows {
			switch pi.PricePositioning {
			case PositioningDiscount:
				row.DiscountCount++
			case PositioningAtMarket:
				row.AtMarketCount++
			case PositioningPremium:
				row.PremiumCount++
			default:
				row.UnknownCount++
			}
			if pi.PriceIndexVsCompetitors != nil {
				indexSum += *pi.PriceIndexVsCompetitors
				indexCount++
			}
		}
		if indexCount > 0 {
			avg := round2(indexSum / float64(indexCount))
			row.AvgPriceIndex = &avg
		}
		row.DominantPositioning = dominantPositioning(row.DiscountCount, row.AtMarketCount, row.PremiumCount)
		return row
	}

	rows := []PricingSummaryRow{build(ScopeOverall, overall)}
	for _, store := range sortedKeys(byStore) {
		row := build(ScopeStore, byStore[store])
		row.StoreName = store
		rows = append(rows, row)
	}
	for _, section := range sortedKeys(bySection) {
		row := build(ScopeSection, bySection[section])
		row.Section = section
		rows = append(rows, row)
	}

	sks := make([]sectionKey, 0, len(byStoreSection))
	for sk := range byStoreSection {
		sks = append(sks, sk)
	}
	sort.Slice(sks, func(i, j int) bool {
		if sks[i].store != sks[j].store {
			return sks[i].store < sks[j].store
		}
		return sks[i].section < sks[j].section
	})
	for _, sk := range sks {
		row := build(ScopeStoreSection, byStoreSection[sk])
		row.StoreName = sk.store
		row.Section = sk.section
		rows = append(rows, row)
	}
	return rows
}

// dominantPositioning picks the plurality label among discount, at-market and
// premium. Ties break by fixed precedence premium > discount > at_market so
// the label is deterministic.
func dominantPositioning(discount, atMarket, premium int) string {
	if discount == 0 && atMarket == 0 && premium == 0 {
		return PositioningUnknown
	}
	best, label := premium, PositioningPremium
	if discount > best {
		best, label = discount, PositioningDiscount
	}
	if atMarket > best {
		label = PositioningAtMarket
	}
	return label
}

// SupplierPromo aggregates promo coverage per supplier, sorted by supplier.
func (s *Summarizer) SupplierPromo(promo []PromoSummaryRow) []SupplierPromoRollup {
	type bucket struct {
		rollup    SupplierPromoRollup
		upliftSum float64
		upliftN   int
	}
	by := make(map[string]*bucket)
	for _, row := range promo {
		b, ok := by[row.Supplier]
		if !ok {
			b = &bucket{rollup: SupplierPromoRollup{Supplier: row.Supplier}}
			by[row.Supplier] = b
		}
		b.rollup.IsFocal = b.rollup.IsFocal || row.IsFocal
		b.rollup.ProductCount++
		b.rollup.TotalSalesValue += row.TotalSalesValue
		if row.IsOnPromo {
			b.rollup.OnPromoCount++
		}
		if row.PromoUpliftPct != nil {
			b.upliftSum += *row.PromoUpliftPct
			b.upliftN++
		}
	}

	rollups := make([]SupplierPromoRollup, 0, len(by))
	for _, supplier := range sortedKeys(by) {
		b := by[supplier]
		if b.rollup.ProductCount > 0 {
			b.rollup.PromoCoverage = round2(float64(b.rollup.OnPromoCount) / float64(b.rollup.ProductCount) * 100)
		}
		if b.upliftN > 0 {
			avg := round2(b.upliftSum / float64(b.upliftN))
			b.rollup.AvgUpliftPct = &avg
		}
		rollups = append(rollups, b.rollup)
	}
	return rollups
}

// StorePromo aggregates promo performance per store, sorted by store.
func (s *Summarizer) StorePromo(promo []PromoSummaryRow) []StorePromoRollup {
	type bucket struct {
		rollup    StorePromoRollup
		upliftSum float64
		upliftN   int
	}
	by := make(map[string]*bucket)
	for _, row := range promo {
		b, ok := by[row.StoreName]
		if !ok {
			b = &bucket{rollup: StorePromoRollup{StoreName: row.StoreName}}
			by[row.StoreName] = b
		}
		b.rollup.ProductCount++
		b.rollup.TotalSalesValue += row.TotalSalesValue
		b.rollup.PromoUnitsSold += row.PromoUnitsSold
		if row.IsOnPromo {
			b.rollup.OnPromoCount++
		}
		if row.PromoUpliftPct != nil {
			b.upliftSum += *row.PromoUpliftPct
			b.upliftN++
		}
	}

	rollups := make([]StorePromoRollup, 0, len(by))
	for _, store := range sortedKeys(by) {
		b := by[store]
		if b.upliftN > 0 {
			avg := round2(b.upliftSum / float64(b.upliftN))
			b.rollup.AvgUpliftPct = &avg
		}
		rollups = append(rollups, b.rollup)
	}
	return rollups
}

// CategoryPromo aggregates promo activity per category, sorted by category.
func (s *Summarizer) CategoryPromo(promo []PromoSummaryRow) []CategoryPromoRollup {
	type bucket struct {
		rollup      CategoryPromoRollup
		upliftSum   float64
		upliftN     int
		discountSum float64
		discountN   int
	}
	by := make(map[string]*bucket)
	for _, row := range promo {
		b, ok := by[row.Category]
		if !ok {
			b = &bucket{rollup: CategoryPromoRollup{Category: row.Category}}
			by[row.Category] = b
		}
		b.rollup.ProductCount++
		b.rollup.TotalSalesValue += row.TotalSalesValue
		if row.IsOnPromo {
			b.rollup.OnPromoCount++
		}
		if row.PromoUpliftPct != nil {
			b.upliftSum += *row.PromoUpliftPct
			b.upliftN++
		}
		if row.PromoDiscountDepthPct != nil {
			b.discountSum += *row.PromoDiscountDepthPct
			b.discountN++
		}
	}

	rollups := make([]CategoryPromoRollup, 0, len(by))
	for _, category := range sortedKeys(by) {
		b := by[category]
		if b.upliftN > 0 {
			avg := round2(b.upliftSum / float64(b.upliftN))
			b.rollup.AvgUpliftPct = &avg
		}
		if b.discountN > 0 {
			avg := round2(b.discountSum / float64(b.discountN))
			b.rollup.AvgDiscountPct = &avg
		}
		rollups = append(rollups, b.rollup)
	}
	return rollups
}

func (s *Summarizer) healthRating(avgScore float64) string {
	q := s.cfg.Quality
	switch {
	case avgScore >= q.ExcellentScore:
		return "Excellent"
	case avgScore >= q.GoodScore:
		return "Good"
	case avgScore >= q.FairScore:
		return "Fair"
	case avgScore >= q.PoorScore:
		return "Poor"
	default:
		return "Critical"
	}
}

func (s *Summarizer) reliabilityStatus(lowQualityPct float64) string {
	q := s.cfg.Quality
	switch {
	case lowQualityPct <= q.ReliablePct:
		return "Reliable"
	case lowQualityPct <= q.ModeratePct:
		return "Moderate Issues"
	case lowQualityPct <= q.SignificantPct:
		return "Significant Issues"
	default:
		return "Unreliable"
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
