package retail

import (
	"fmt"
)

// BuildInsights derives the narrative findings served by the insights
// endpoint: worst data-quality dimension, top promo performer, and the focal
// supplier's overall price position.
func BuildInsights(derived *Derived) []Insight {
	var insights []Insight

	if worst := worstQualityStore(derived.QualitySummary); worst != nil {
		insights = append(insights, Insight{
			Kind:     "data_quality",
			Headline: fmt.Sprintf("%s has the weakest data quality", worst.StoreName),
			Detail: fmt.Sprintf("Average quality score %.2f with %.2f%% low-quality records (%s).",
				worst.AvgQualityScore, worst.LowQualityPct, worst.ReliabilityStatus),
			Action: "Review the extract feed for this store before trusting its promo and pricing metrics.",
		})
	}

	if top := topPromoPerformer(derived.PromoSummary); top != nil {
		insights = append(insights, Insight{
			Kind:     "promo_performance",
			Headline: fmt.Sprintf("%s is the strongest promo performer", top.ItemCode),
			Detail: fmt.Sprintf("Uplift of %.2f%% at %s over %d promo days.",
				*top.PromoUpliftPct, top.StoreName, top.PromoDays),
			Action: "Consider replicating this promotion mechanics in comparable stores.",
		})
	}

	for _, row := range derived.PricingSummary {
		if row.Scope != ScopeOverall {
			continue
		}
		if row.ProductCount == 0 {
			break
		}
		detail := fmt.Sprintf("%d products: %d discount, %d at market, %d premium.",
			row.ProductCount, row.DiscountCount, row.AtMarketCount, row.PremiumCount)
		if row.AvgPriceIndex != nil {
			detail += fmt.Sprintf(" Average price index %.2f.", *row.AvgPriceIndex)
		}
		insights = append(insights, Insight{
			Kind:     "price_positioning",
			Headline: fmt.Sprintf("Overall price positioning is %s", row.DominantPositioning),
			Detail:   detail,
			Action:   pricingAction(row.DominantPositioning),
		})
		break
	}

	return insights
}

func worstQualityStore(summary []QualitySummaryRow) *QualitySummaryRow {
	var worst *QualitySummaryRow
	for i := range summary {
		row := &summary[i]
		if row.Scope != ScopeStore || row.RecordCount == 0 {
			continue
		}
		if worst == nil || row.AvgQualityScore < worst.AvgQualityScore {
			worst = row
		}
	}
	return worst
}

func topPromoPerformer(promo []PromoSummaryRow) *PromoSummaryRow {
	rows := make([]PromoSummaryRow, len(promo))
	copy(rows, promo)
	SortByUplift(rows)
	for i := range rows {
		if rows[i].PromoUpliftPct != nil && rows[i].IsOnPromo {
			return &rows[i]
		}
	}
	return nil
}

func pricingAction(positioning string) string {
	switch positioning {
	case PositioningPremium:
		return "Premium pricing holds; watch for volume erosion in price-sensitive sections."
	case PositioningDiscount:
		return "Pricing sits below the competitive set; check whether margin targets still hold."
	case PositioningAtMarket:
		return "Pricing tracks the competitive set; differentiate on promo depth instead."
	default:
		return "Insufficient competitive data; widen the peer set before acting on price."
	}
}
