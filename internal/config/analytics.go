package config

import (
	"fmt"
)

// AnalyticsConfig externalizes every business threshold the derivation
// pipeline depends on. The defaults reproduce the shipped behaviour; the
// classification logic itself never carries inline literals.
type AnalyticsConfig struct {
	FocalSupplier string `yaml:"focal_supplier" envconfig:"FOCAL_SUPPLIER" default:"BIDCO"`

	Promo   PromoConfig   `yaml:"promo" envconfig:"PROMO"`
	Quality QualityConfig `yaml:"quality" envconfig:"QUALITY"`
	Outlier OutlierConfig `yaml:"outlier" envconfig:"OUTLIER"`
	Pricing PricingConfig `yaml:"pricing" envconfig:"PRICING"`
	Churn   ChurnConfig   `yaml:"churn" envconfig:"CHURN"`
}

// PromoConfig controls promo classification and uplift computation.
type PromoConfig struct {
	// DiscountThreshold is the minimum discount-from-baseline fraction for a
	// day to count as promotional.
	DiscountThreshold float64 `yaml:"discount_threshold" envconfig:"DISCOUNT_THRESHOLD" default:"0.10"`
	// MinPromoDays is the minimum promo-day count before a product×store is
	// classified as on promo. A single discounted day is treated as noise.
	MinPromoDays int `yaml:"min_promo_days" envconfig:"MIN_PROMO_DAYS" default:"2"`
	// MinBaselineDays is the minimum number of non-promo observations for a
	// per-store baseline to be considered valid.
	MinBaselineDays int `yaml:"min_baseline_days" envconfig:"MIN_BASELINE_DAYS" default:"2"`
}

// QualityConfig controls quality scoring and the summary health bands.
type QualityConfig struct {
	// LowQualityScore is the score below which a record is flagged low
	// quality.
	LowQualityScore float64 `yaml:"low_quality_score" envconfig:"LOW_QUALITY_SCORE" default:"70"`

	// Health rating bands over average quality score.
	ExcellentScore float64 `yaml:"excellent_score" envconfig:"EXCELLENT_SCORE" default:"90"`
	GoodScore      float64 `yaml:"good_score" envconfig:"GOOD_SCORE" default:"80"`
	FairScore      float64 `yaml:"fair_score" envconfig:"FAIR_SCORE" default:"70"`
	PoorScore      float64 `yaml:"poor_score" envconfig:"POOR_SCORE" default:"60"`

	// Reliability bands over low-quality percentage.
	ReliablePct    float64 `yaml:"reliable_pct" envconfig:"RELIABLE_PCT" default:"5"`
	ModeratePct    float64 `yaml:"moderate_pct" envconfig:"MODERATE_PCT" default:"15"`
	SignificantPct float64 `yaml:"significant_pct" envconfig:"SIGNIFICANT_PCT" default:"30"`
}

// OutlierConfig controls the distributional outlier thresholds.
type OutlierConfig struct {
	// StdDevMultiplier sets the extreme tier at mean + k·stddev.
	StdDevMultiplier float64 `yaml:"stddev_multiplier" envconfig:"STDDEV_MULTIPLIER" default:"3"`
	// HighPercentile sets the high tier boundary.
	HighPercentile float64 `yaml:"high_percentile" envconfig:"HIGH_PERCENTILE" default:"99"`
	// MinRealizedPrice is the currency-unit floor below which a realized
	// price is treated as suspiciously low.
	MinRealizedPrice float64 `yaml:"min_realized_price" envconfig:"MIN_REALIZED_PRICE" default:"1"`
}

// PricingConfig controls price-index positioning bands. The 5-tier labels are
// descriptive only and agree with the 3-tier bands at the boundaries.
type PricingConfig struct {
	DiscountBelow float64 `yaml:"discount_below" envconfig:"DISCOUNT_BELOW" default:"90"`
	PremiumAbove  float64 `yaml:"premium_above" envconfig:"PREMIUM_ABOVE" default:"110"`

	SignificantDiscountBelow float64 `yaml:"significant_discount_below" envconfig:"SIGNIFICANT_DISCOUNT_BELOW" default:"80"`
	SignificantPremiumAbove  float64 `yaml:"significant_premium_above" envconfig:"SIGNIFICANT_PREMIUM_ABOVE" default:"120"`
}

// ChurnConfig controls RFM scoring breakpoints and the churn rule literals.
type ChurnConfig struct {
	// InactivityDays is the recency threshold used by both the "active"
	// lifecycle rule and churn rule (a).
	InactivityDays int `yaml:"inactivity_days" envconfig:"INACTIVITY_DAYS" default:"30"`
	// TransactionGapDays is the threshold for churn rule (b).
	TransactionGapDays int `yaml:"transaction_gap_days" envconfig:"TRANSACTION_GAP_DAYS" default:"60"`
	// LowEngagementTenureDays / LowEngagementEvents drive churn rule (c).
	LowEngagementTenureDays int `yaml:"low_engagement_tenure_days" envconfig:"LOW_ENGAGEMENT_TENURE_DAYS" default:"90"`
	LowEngagementEvents     int `yaml:"low_engagement_events" envconfig:"LOW_ENGAGEMENT_EVENTS" default:"5"`
	// LowSpendTenureDays / LowSpendAmount drive churn rule (d).
	LowSpendTenureDays int     `yaml:"low_spend_tenure_days" envconfig:"LOW_SPEND_TENURE_DAYS" default:"180"`
	LowSpendAmount     float64 `yaml:"low_spend_amount" envconfig:"LOW_SPEND_AMOUNT" default:"1000"`

	// RFM breakpoints, highest score first. Recency compares <=, frequency
	// and monetary compare >=.
	RecencyDays      []int     `yaml:"recency_days" envconfig:"RECENCY_DAYS" default:"7,14,30,60"`
	FrequencyPerMo   []float64 `yaml:"frequency_per_month" envconfig:"FREQUENCY_PER_MONTH" default:"8,4,2,1"`
	MonetarySpend    []float64 `yaml:"monetary_spend" envconfig:"MONETARY_SPEND" default:"100000,50000,20000,5000"`
}

// DefaultAnalyticsConfig returns the documented default thresholds.
func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		FocalSupplier: "BIDCO",
		Promo: PromoConfig{
			DiscountThreshold: 0.10,
			MinPromoDays:      2,
			MinBaselineDays:   2,
		},
		Quality: QualityConfig{
			LowQualityScore: 70,
			ExcellentScore:  90,
			GoodScore:       80,
			FairScore:       70,
			PoorScore:       60,
			ReliablePct:     5,
			ModeratePct:     15,
			SignificantPct:  30,
		},
		Outlier: OutlierConfig{
			StdDevMultiplier: 3,
			HighPercentile:   99,
			MinRealizedPrice: 1,
		},
		Pricing: PricingConfig{
			DiscountBelow:            90,
			PremiumAbove:             110,
			SignificantDiscountBelow: 80,
			SignificantPremiumAbove:  120,
		},
		Churn: ChurnConfig{
			InactivityDays:          30,
			TransactionGapDays:      60,
			LowEngagementTenureDays: 90,
			LowEngagementEvents:     5,
			LowSpendTenureDays:      180,
			LowSpendAmount:          1000,
			RecencyDays:             []int{7, 14, 30, 60},
			FrequencyPerMo:          []float64{8, 4, 2, 1},
			MonetarySpend:           []float64{100000, 50000, 20000, 5000},
		},
	}
}

// isZero reports whether the analytics section was left unset by both env
// and file, so Load can substitute the documented defaults.
func (a AnalyticsConfig) isZero() bool {
	return a.Promo.DiscountThreshold == 0 && a.Promo.MinPromoDays == 0 &&
		a.Quality.LowQualityScore == 0 && a.Pricing.PremiumAbove == 0
}

// Validate checks the threshold set for internal consistency.
func (a AnalyticsConfig) Validate() error {
	if a.Promo.DiscountThreshold <= 0 || a.Promo.DiscountThreshold >= 1 {
		return fmt.Errorf("promo discount threshold must be in (0,1): %v", a.Promo.DiscountThreshold)
	}
	if a.Promo.MinPromoDays < 1 {
		return fmt.Errorf("min promo days must be >= 1: %d", a.Promo.MinPromoDays)
	}
	if a.Promo.MinBaselineDays < 1 {
		return fmt.Errorf("min baseline days must be >= 1: %d", a.Promo.MinBaselineDays)
	}
	if a.Pricing.DiscountBelow >= a.Pricing.PremiumAbove {
		return fmt.Errorf("pricing bands inverted: discount %v >= premium %v",
			a.Pricing.DiscountBelow, a.Pricing.PremiumAbove)
	}
	if a.Pricing.SignificantDiscountBelow > a.Pricing.DiscountBelow ||
		a.Pricing.SignificantPremiumAbove < a.Pricing.PremiumAbove {
		return fmt.Errorf("5-tier pricing bands must agree with 3-tier bands at the boundaries")
	}
	if a.Outlier.StdDevMultiplier <= 0 {
		return fmt.Errorf("stddev multiplier must be positive: %v", a.Outlier.StdDevMultiplier)
	}
	if a.Outlier.HighPercentile <= 0 || a.Outlier.HighPercentile >= 100 {
		return fmt.Errorf("high percentile must be in (0,100): %v", a.Outlier.HighPercentile)
	}
	if len(a.Churn.RecencyDays) != 4 || len(a.Churn.FrequencyPerMo) != 4 || len(a.Churn.MonetarySpend) != 4 {
		return fmt.Errorf("RFM breakpoint lists must each carry exactly 4 boundaries")
	}
	return nil
}
