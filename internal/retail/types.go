package retail

// Derived row shapes for the retail analytics pipeline. Everything here is
// recomputed wholesale per run from the raw snapshot; nullable metrics use
// pointers so "insufficient data" stays distinguishable from zero.

// CleanedRecord pairs a raw sales record with its per-record derivations.
type CleanedRecord struct {
	StoreName     string   `json:"store_name"`
	ItemCode      string   `json:"item_code"`
	ItemBarcode   string   `json:"item_barcode,omitempty"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Department    string   `json:"department,omitempty"`
	SubDepartment string   `json:"sub_department,omitempty"`
	Section       string   `json:"section,omitempty"`
	Supplier      string   `json:"supplier,omitempty"`
	SaleDate      string   `json:"sale_date"`
	Quantity      *float64 `json:"quantity"`
	TotalSales    *float64 `json:"total_sales"`
	RRP           *float64 `json:"rrp"`

	// RealizedPrice is total sales / quantity, nil when quantity is missing
	// or not positive.
	RealizedPrice *float64 `json:"avg_realized_price"`

	QualityScore        float64  `json:"quality_score"`
	ValidChecks         int      `json:"valid_checks"`
	MissingFields       []string `json:"missing_fields,omitempty"`
	IsLowQuality        bool     `json:"is_low_quality"`
	PromoPriceIndicator bool     `json:"promo_price_indicator"`
	IsFocal             bool     `json:"is_focal"`
	IsDuplicate         bool     `json:"is_duplicate"`
}

// Issue severity labels, highest first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Issue type labels used in the data quality issue list.
const (
	IssueDuplicateRecord  = "duplicate_record"
	IssueNegativeQuantity = "negative_quantity"
	IssueNegativeSales    = "negative_sales"
	IssueExtremeQuantity  = "extreme_quantity"
	IssueHighQuantity     = "high_quantity"
	IssueExtremePrice     = "extreme_price"
	IssueHighPrice        = "high_price"
	IssueSuspiciousPrice  = "suspiciously_low_price"
	IssueMissingField     = "missing_field"
)

// QualityIssue is one row of the severity-ranked issue list.
type QualityIssue struct {
	IssueType      string   `json:"issue_type"`
	Severity       string   `json:"severity"`
	StoreName      string   `json:"store_name"`
	ItemCode       string   `json:"item_code"`
	Supplier       string   `json:"supplier,omitempty"`
	SaleDate       string   `json:"sale_date"`
	IsFocal        bool     `json:"is_focal"`
	Detail         string   `json:"detail,omitempty"`
	ObservedValue  *float64 `json:"observed_value,omitempty"`
	DeviationRatio *float64 `json:"deviation_ratio,omitempty"`
}

func severityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	default:
		return 3
	}
}

// OutlierStats is the whole-dataset reduction the detector computes before
// any per-row classification.
type OutlierStats struct {
	QuantityMean   float64 `json:"quantity_mean"`
	QuantityStdDev float64 `json:"quantity_stddev"`
	QuantityP99    float64 `json:"quantity_p99"`
	PriceMean      float64 `json:"price_mean"`
	PriceStdDev    float64 `json:"price_stddev"`
	PriceP99       float64 `json:"price_p99"`
	SampleSize     int     `json:"sample_size"`
}

// Baseline source labels.
const (
	BaselinePerStore   = "per_store"
	BaselineCrossStore = "cross_store"
	BaselineRRP        = "rrp"
)

// DailyObservation is the per product×store×date aggregate feeding promo
// classification.
type DailyObservation struct {
	ItemCode   string  `json:"item_code"`
	StoreName  string  `json:"store_name"`
	SaleDate   string  `json:"sale_date"`
	Units      float64 `json:"units"`
	SalesValue float64 `json:"sales_value"`
	AvgPrice   float64 `json:"avg_price"`
	IsPromoDay bool    `json:"is_promo_day"`
}

// PromoSummaryRow is the per product×store promo classification result.
type PromoSummaryRow struct {
	ItemCode    string `json:"item_code"`
	Description string `json:"description,omitempty"`
	StoreName   string `json:"store_name"`
	Category    string `json:"category,omitempty"`
	Supplier    string `json:"supplier,omitempty"`
	IsFocal     bool   `json:"is_focal"`

	TotalDays int  `json:"total_days"`
	PromoDays int  `json:"promo_days"`
	IsOnPromo bool `json:"is_on_promo"`

	BaselinePrice  *float64 `json:"baseline_price"`
	BaselineSource string   `json:"baseline_source"`

	AvgPromoPrice         *float64 `json:"avg_promo_price"`
	AvgNonPromoPrice      *float64 `json:"avg_non_promo_price"`
	PromoDiscountDepthPct *float64 `json:"promo_discount_depth_pct"`

	PromoUnitsSold  float64 `json:"promo_units_sold"`
	TotalUnitsSold  float64 `json:"total_units_sold"`
	TotalSalesValue float64 `json:"total_sales_value"`

	// PromoUpliftPct is nil when the baseline denominator is null or zero.
	PromoUpliftPct   *float64 `json:"promo_uplift_pct"`
	UpliftConfidence string   `json:"uplift_confidence,omitempty"`
}

// Positioning labels for the price index bands.
const (
	PositioningDiscount = "discount"
	PositioningAtMarket = "at_market"
	PositioningPremium  = "premium"
	PositioningUnknown  = "unknown"
)

// Five-tier descriptive price tiers.
const (
	TierSignificantDiscount = "significant_discount"
	TierModerateDiscount    = "moderate_discount"
	TierCompetitive         = "competitive"
	TierModeratePremium     = "moderate_premium"
	TierSignificantPremium  = "significant_premium"
	TierUnknown             = "unknown"
)

// PriceIndexRow is the per product×store competitive pricing result.
type PriceIndexRow struct {
	ItemCode    string `json:"item_code"`
	Description string `json:"description,omitempty"`
	StoreName   string `json:"store_name"`
	Section     string `json:"section,omitempty"`
	Supplier    string `json:"supplier,omitempty"`
	IsFocal     bool   `json:"is_focal"`

	AvgRealizedPrice float64  `json:"avg_realized_price"`
	AvgRRP           *float64 `json:"avg_rrp"`

	CompetitorAvgPriceInSection *float64 `json:"competitor_avg_price_in_section"`
	PriceIndexVsCompetitors     *float64 `json:"price_index_vs_competitors"`
	PricePositioning            string   `json:"price_positioning"`
	PriceTier                   string   `json:"price_tier"`
}

// Rollup scope tags. Each rollup row is typed by the granularity it
// aggregates; the optional dimension fields carry the active keys.
const (
	ScopeOverall      = "overall"
	ScopeStore        = "store"
	ScopeSupplier     = "supplier"
	ScopeCategory     = "category"
	ScopeSection      = "section"
	ScopeStoreSection = "store_section"
)

// QualitySummaryRow is one quality rollup at a given granularity.
type QualitySummaryRow struct {
	Scope     string `json:"scope"`
	StoreName string `json:"store_name,omitempty"`
	Supplier  string `json:"supplier,omitempty"`
	Category  string `json:"category,omitempty"`

	RecordCount       int     `json:"record_count"`
	AvgQualityScore   float64 `json:"avg_quality_score"`
	LowQualityCount   int     `json:"low_quality_count"`
	LowQualityPct     float64 `json:"low_quality_pct"`
	DuplicateCount    int     `json:"duplicate_count"`
	IssueCount        int     `json:"issue_count"`
	HealthRating      string  `json:"health_rating"`
	ReliabilityStatus string  `json:"reliability_status"`
}

// PricingSummaryRow is one pricing rollup at a given granularity.
type PricingSummaryRow struct {
	Scope     string `json:"scope"`
	StoreName string `json:"store_name,omitempty"`
	Section   string `json:"section,omitempty"`

	ProductCount        int      `json:"product_count"`
	AvgPriceIndex       *float64 `json:"avg_price_index"`
	DiscountCount       int      `json:"discount_count"`
	AtMarketCount       int      `json:"at_market_count"`
	PremiumCount        int      `json:"premium_count"`
	UnknownCount        int      `json:"unknown_count"`
	DominantPositioning string   `json:"dominant_positioning"`
}

// SupplierPromoRollup aggregates promo coverage per supplier.
type SupplierPromoRollup struct {
	Supplier        string   `json:"supplier"`
	IsFocal         bool     `json:"is_focal"`
	ProductCount    int      `json:"product_count"`
	OnPromoCount    int      `json:"on_promo_count"`
	PromoCoverage   float64  `json:"promo_coverage_pct"`
	AvgUpliftPct    *float64 `json:"avg_uplift_pct"`
	TotalSalesValue float64  `json:"total_sales_value"`
}

// StorePromoRollup aggregates promo performance per store.
type StorePromoRollup struct {
	StoreName       string   `json:"store_name"`
	ProductCount    int      `json:"product_count"`
	OnPromoCount    int      `json:"on_promo_count"`
	AvgUpliftPct    *float64 `json:"avg_uplift_pct"`
	PromoUnitsSold  float64  `json:"promo_units_sold"`
	TotalSalesValue float64  `json:"total_sales_value"`
}

// CategoryPromoRollup aggregates promo activity per category.
type CategoryPromoRollup struct {
	Category        string   `json:"category"`
	ProductCount    int      `json:"product_count"`
	OnPromoCount    int      `json:"on_promo_count"`
	AvgUpliftPct    *float64 `json:"avg_uplift_pct"`
	AvgDiscountPct  *float64 `json:"avg_discount_depth_pct"`
	TotalSalesValue float64  `json:"total_sales_value"`
}

// Insight is one narrative finding with a suggested action.
type Insight struct {
	Kind     string `json:"kind"`
	Headline string `json:"headline"`
	Detail   string `json:"detail"`
	Action   string `json:"action"`
}

// Derived is the complete output set of one retail pipeline run.
type Derived struct {
	Cleaned        []CleanedRecord       `json:"cleaned"`
	Issues         []QualityIssue        `json:"issues"`
	OutlierStats   OutlierStats          `json:"outlier_stats"`
	PromoSummary   []PromoSummaryRow     `json:"promo_summary"`
	PriceIndex     []PriceIndexRow       `json:"price_index"`
	QualitySummary []QualitySummaryRow   `json:"quality_summary"`
	PricingSummary []PricingSummaryRow   `json:"pricing_summary"`
	SupplierPromo  []SupplierPromoRollup `json:"supplier_promo"`
	StorePromo     []StorePromoRollup    `json:"store_promo"`
	CategoryPromo  []CategoryPromoRollup `json:"category_promo"`
	Insights       []Insight             `json:"insights"`
}
