package exporter

import (
	"retailsight/internal/churn"
	"retailsight/internal/retail"
)

// ExportRetail writes every derived retail table for one run and returns the
// export directory.
func (w *CSVWriter) ExportRetail(runID string, derived *retail.Derived) (string, error) {
	tables := []table{
		cleanedTable(derived.Cleaned),
		issuesTable(derived.Issues),
		promoTable(derived.PromoSummary),
		priceIndexTable(derived.PriceIndex),
		qualitySummaryTable(derived.QualitySummary),
		pricingSummaryTable(derived.PricingSummary),
	}
	return w.writeRun("retail_"+runID, tables)
}

// ExportChurn writes the churn feature table for one run and returns the
// export directory.
func (w *CSVWriter) ExportChurn(runID string, derived *churn.Derived) (string, error) {
	return w.writeRun("churn_"+runID, []table{churnTable(derived.Features)})
}

func cleanedTable(rows []retail.CleanedRecord) table {
	tbl := table{
		name: "cleaned_records",
		headers: []string{
			"store_name", "item_code", "item_barcode", "description", "category",
			"section", "supplier", "sale_date", "quantity", "total_sales", "rrp",
			"avg_realized_price", "quality_score", "is_low_quality",
			"promo_price_indicator", "is_focal", "is_duplicate",
		},
	}
	for _, r := range rows {
		tbl.records = append(tbl.records, []string{
			r.StoreName, r.ItemCode, r.ItemBarcode, r.Description, r.Category,
			r.Section, r.Supplier, r.SaleDate,
			formatFloatPtr(r.Quantity), formatFloatPtr(r.TotalSales), formatFloatPtr(r.RRP),
			formatFloatPtr(r.RealizedPrice), formatFloat(r.QualityScore), formatBool(r.IsLowQuality),
			formatBool(r.PromoPriceIndicator), formatBool(r.IsFocal), formatBool(r.IsDuplicate),
		})
	}
	return tbl
}

func issuesTable(rows []retail.QualityIssue) table {
	tbl := table{
		name: "quality_issues",
		headers: []string{
			"issue_type", "severity", "store_name", "item_code", "supplier",
			"sale_date", "is_focal", "detail", "observed_value", "deviation_ratio",
		},
	}
	for _, r := range rows {
		tbl.records = append(tbl.records, []string{
			r.IssueType, r.Severity, r.StoreName, r.ItemCode, r.Supplier,
			r.SaleDate, formatBool(r.IsFocal), r.Detail,
			formatFloatPtr(r.ObservedValue), formatFloatPtr(r.DeviationRatio),
		})
	}
	return tbl
}

func promoTable(rows []retail.PromoSummaryRow) table {
	tbl := table{
		name: "promo_summary",
		headers: []string{
			"item_code", "description", "store_name", "category", "supplier",
			"is_focal", "total_days", "promo_days", "is_on_promo",
			"baseline_price", "baseline_source", "avg_promo_price",
			"avg_non_promo_price", "promo_discount_depth_pct", "promo_units_sold",
			"total_units_sold", "total_sales_value", "promo_uplift_pct",
			"uplift_confidence",
		},
	}
	for _, r := range rows {
		tbl.records = append(tbl.records, []string{
			r.ItemCode, r.Description, r.StoreName, r.Category, r.Supplier,
			formatBool(r.IsFocal), formatInt(r.TotalDays), formatInt(r.PromoDays),
			formatBool(r.IsOnPromo), formatFloatPtr(r.BaselinePrice), r.BaselineSource,
			formatFloatPtr(r.AvgPromoPrice), formatFloatPtr(r.AvgNonPromoPrice),
			formatFloatPtr(r.PromoDiscountDepthPct), formatFloat(r.PromoUnitsSold),
			formatFloat(r.TotalUnitsSold), formatFloat(r.TotalSalesValue),
			formatFloatPtr(r.PromoUpliftPct), r.UpliftConfidence,
		})
	}
	return tbl
}

func priceIndexTable(rows []retail.PriceIndexRow) table {
	tbl := table{
		name: "price_index",
		headers: []string{
			"item_code", "description", "store_name", "section", "supplier",
			"is_focal", "avg_realized_price", "avg_rrp",
			"competitor_avg_price_in_section", "price_index_vs_competitors",
			"price_positioning", "price_tier",
		},
	}
	for _, r := range rows {
		tbl.records = append(tbl.records, []string{
			r.ItemCode, r.Description, r.StoreName, r.Section, r.Supplier,
			formatBool(r.IsFocal), formatFloat(r.AvgRealizedPrice), formatFloatPtr(r.AvgRRP),
			formatFloatPtr(r.CompetitorAvgPriceInSection), formatFloatPtr(r.PriceIndexVsCompetitors),
			r.PricePositioning, r.PriceTier,
		})
	}
	return tbl
}

func qualitySummaryTable(rows []retail.QualitySummaryRow) table {
	tbl := table{
		name: "quality_summary",
		headers: []string{
			"scope", "store_name", "supplier", "category", "record_count",
			"avg_quality_score", "low_quality_count", "low_quality_pct",
			"duplicate_count", "issue_count", "health_rating", "reliability_status",
		},
	}
	for _, r := range rows {
		tbl.records = append(tbl.records, []string{
			r.Scope, r.StoreName, r.Supplier, r.Category, formatInt(r.RecordCount),
			formatFloat(r.AvgQualityScore), formatInt(r.LowQualityCount),
			formatFloat(r.LowQualityPct), formatInt(r.DuplicateCount),
			formatInt(r.IssueCount), r.HealthRating, r.ReliabilityStatus,
		})
	}
	return tbl
}

func pricingSummaryTable(rows []retail.PricingSummaryRow) table {
	tbl := table{
		name: "pricing_summary",
		headers: []string{
			"scope", "store_name", "section", "product_count", "avg_price_index",
			"discount_count", "at_market_count", "premium_count", "unknown_count",
			"dominant_positioning",
		},
	}
	for _, r := range rows {
		tbl.records = append(tbl.records, []string{
			r.Scope, r.StoreName, r.Section, formatInt(r.ProductCount),
			formatFloatPtr(r.AvgPriceIndex), formatInt(r.DiscountCount),
			formatInt(r.AtMarketCount), formatInt(r.PremiumCount),
			formatInt(r.UnknownCount), r.DominantPositioning,
		})
	}
	return tbl
}

func churnTable(rows []churn.FeatureRow) table {
	tbl := table{
		name: "churn_features",
		headers: []string{
			"user_id", "email", "signup_date", "region", "channel",
			"user_tenure_days", "total_transactions", "successful_transactions",
			"total_spend_ngn", "avg_transaction_amount", "last_transaction_date",
			"days_since_last_transaction", "total_activity_events",
			"unique_sessions", "active_days", "page_views", "last_activity_date",
			"days_since_last_activity", "avg_session_duration_minutes",
			"cart_conversion_rate", "purchase_conversion_rate", "recency_score",
			"frequency_score", "monetary_score", "rfm_total_score",
			"user_lifecycle_stage", "churn_flag", "feature_created_at",
		},
	}
	for _, r := range rows {
		tbl.records = append(tbl.records, []string{
			formatInt(r.UserID), r.Email, r.SignupDate, r.Region, r.Channel,
			formatInt(r.UserTenureDays), formatInt(r.TotalTransactions),
			formatInt(r.SuccessfulTransactions), formatFloat(r.TotalSpendNGN),
			formatFloat(r.AvgTransactionAmount), formatStringPtr(r.LastTransactionDate),
			formatIntPtr(r.DaysSinceLastTransaction), formatInt(r.TotalActivityEvents),
			formatInt(r.UniqueSessions), formatInt(r.ActiveDays), formatInt(r.PageViews),
			formatStringPtr(r.LastActivityDate), formatIntPtr(r.DaysSinceLastActivity),
			formatFloat(r.AvgSessionDurationMinutes), formatFloat(r.CartConversionRate),
			formatFloat(r.PurchaseConversionRate), formatInt(r.RecencyScore),
			formatInt(r.FrequencyScore), formatInt(r.MonetaryScore),
			formatInt(r.RFMTotalScore), r.UserLifecycleStage, formatInt(r.ChurnFlag),
			r.FeatureCreatedAt,
		})
	}
	return tbl
}
