package retail

import (
	"log/slog"
	"sort"

	"retailsight/internal/config"
)

// PriceIndexCalculator compares each product×store's realized price against
// its competitive set: records in the same store and section from other
// suppliers. Index 100 = parity.
type PriceIndexCalculator struct {
	cfg    config.AnalyticsConfig
	logger *slog.Logger
}

// NewPriceIndexCalculator creates a calculator with the given bands.
func NewPriceIndexCalculator(cfg config.AnalyticsConfig, logger *slog.Logger) *PriceIndexCalculator {
	return &PriceIndexCalculator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "price_index_calculator")),
	}
}

type sectionKey struct {
	store   string
	section string
}

type supplierVolume struct {
	units float64
	value float64
}

// Calculate produces one PriceIndexRow per product×store, sorted by item then
// store. Products without a realized price never appear (no denominator).
func (p *PriceIndexCalculator) Calculate(cleaned []CleanedRecord) []PriceIndexRow {
	type productAgg struct {
		units    float64
		value    float64
		rrpSum   float64
		rrpCount int
		section  string
		supplier string
		desc     string
		isFocal  bool
	}

	products := make(map[productStoreKey]*productAgg)
	// Per store×section, realized volume per supplier. The peer group average
	// for a product excludes its own supplier's volume.
	sections := make(map[sectionKey]map[string]*supplierVolume)

	for _, c := range cleaned {
		if c.ItemCode == "" || c.StoreName == "" {
			continue
		}
		if c.Quantity == nil || *c.Quantity <= 0 || c.RealizedPrice == nil || c.TotalSales == nil {
			continue
		}

		psk := productStoreKey{item: c.ItemCode, store: c.StoreName}
		agg, ok := products[psk]
		if !ok {
			agg = &productAgg{section: c.Section, supplier: c.Supplier, desc: c.Description}
			products[psk] = agg
		}
		agg.units += *c.Quantity
		agg.value += *c.TotalSales
		agg.isFocal = agg.isFocal || c.IsFocal
		if c.RRP != nil && *c.RRP > 0 {
			agg.rrpSum += *c.RRP
			agg.rrpCount++
		}

		sk := sectionKey{store: c.StoreName, section: c.Section}
		if sections[sk] == nil {
			sections[sk] = make(map[string]*supplierVolume)
		}
		sv, ok := sections[sk][c.Supplier]
		if !ok {
			sv = &supplierVolume{}
			sections[sk][c.Supplier] = sv
		}
		sv.units += *c.Quantity
		sv.value += *c.TotalSales
	}

	keys := make([]productStoreKey, 0, len(products))
	for key := range products {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].item != keys[j].item {
			return keys[i].item < keys[j].item
		}
		return keys[i].store < keys[j].store
	})

	rows := make([]PriceIndexRow, 0, len(keys))
	for _, key := range keys {
		agg := products[key]
		if agg.units <= 0 {
			continue
		}

		row := PriceIndexRow{
			ItemCode:         key.item,
			Description:      agg.desc,
			StoreName:        key.store,
			Section:          agg.section,
			Supplier:         agg.supplier,
			IsFocal:          agg.isFocal,
			AvgRealizedPrice: round2(agg.value / agg.units),
			PricePositioning: PositioningUnknown,
			PriceTier:        TierUnknown,
		}
		if agg.rrpCount > 0 {
			v := round2(agg.rrpSum / float64(agg.rrpCount))
			row.AvgRRP = &v
		}

		if peer := p.peerAverage(sections[sectionKey{store: key.store, section: agg.section}], agg.supplier); peer != nil {
			pv := round2(*peer)
			row.CompetitorAvgPriceInSection = &pv

			index := round2(row.AvgRealizedPrice / *peer * 100)
			row.PriceIndexVsCompetitors = &index
			row.PricePositioning = p.positioningFor(index)
			row.PriceTier = p.tierFor(index)
		}

		rows = append(rows, row)
	}

	p.logger.Info("price index computation complete",
		slog.Int("product_stores", len(rows)))
	return rows
}

// peerAverage is the unit-weighted mean realized price across other
// suppliers' volume in the section. Nil when there is no competitive volume,
// which must stay distinguishable from parity.
func (p *PriceIndexCalculator) peerAverage(suppliers map[string]*supplierVolume, ownSupplier string) *float64 {
	if suppliers == nil {
		return nil
	}
	var units, value float64
	for supplier, sv := range suppliers {
		if supplier == ownSupplier {
			continue
		}
		units += sv.units
		value += sv.value
	}
	if units <= 0 || value <= 0 {
		return nil
	}
	avg := value / units
	return &avg
}

func (p *PriceIndexCalculator) positioningFor(index float64) string {
	switch {
	case index < p.cfg.Pricing.DiscountBelow:
		return PositioningDiscount
	case index > p.cfg.Pricing.PremiumAbove:
		return PositioningPremium
	default:
		return PositioningAtMarket
	}
}

func (p *PriceIndexCalculator) tierFor(index float64) string {
	switch {
	case index < p.cfg.Pricing.SignificantDiscountBelow:
		return TierSignificantDiscount
	case index < p.cfg.Pricing.DiscountBelow:
		return TierModerateDiscount
	case index <= p.cfg.Pricing.PremiumAbove:
		return TierCompetitive
	case index <= p.cfg.Pricing.SignificantPremiumAbove:
		return TierModeratePremium
	default:
		return TierSignificantPremium
	}
}
