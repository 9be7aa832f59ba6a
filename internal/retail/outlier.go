package retail

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"retailsight/internal/config"
)

// OutlierDetector classifies quantity and price outliers against
// whole-dataset statistics. The statistics are a genuine full reduction over
// the cleaned set: they must be computed before any row is classified, so
// thresholds are invariant to row order and identical across reruns.
type OutlierDetector struct {
	cfg    config.AnalyticsConfig
	logger *slog.Logger
}

// NewOutlierDetector creates a detector with the given thresholds.
func NewOutlierDetector(cfg config.AnalyticsConfig, logger *slog.Logger) *OutlierDetector {
	return &OutlierDetector{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "outlier_detector")),
	}
}

// ComputeStats performs the first pass: mean, standard deviation and 99th
// percentile of quantity and realized price, over records with positive
// quantity only.
func (d *OutlierDetector) ComputeStats(cleaned []CleanedRecord) OutlierStats {
	var quantities, prices []float64
	for _, c := range cleaned {
		if c.Quantity == nil || *c.Quantity <= 0 {
			continue
		}
		quantities = append(quantities, *c.Quantity)
		if c.RealizedPrice != nil {
			prices = append(prices, *c.RealizedPrice)
		}
	}

	qMean, qStd := meanStdDev(quantities)
	pMean, pStd := meanStdDev(prices)

	return OutlierStats{
		QuantityMean:   qMean,
		QuantityStdDev: qStd,
		QuantityP99:    percentile(quantities, d.cfg.Outlier.HighPercentile),
		PriceMean:      pMean,
		PriceStdDev:    pStd,
		PriceP99:       percentile(prices, d.cfg.Outlier.HighPercentile),
		SampleSize:     len(quantities),
	}
}

// Detect runs both passes and returns the dataset statistics plus the
// severity-ranked issue list. Duplicates and missing-field conditions are
// included so the issue list is the single quality ledger for the run.
func (d *OutlierDetector) Detect(cleaned []CleanedRecord) (OutlierStats, []QualityIssue) {
	stats := d.ComputeStats(cleaned)

	k := d.cfg.Outlier.StdDevMultiplier
	qExtreme := stats.QuantityMean + k*stats.QuantityStdDev
	pExtreme := stats.PriceMean + k*stats.PriceStdDev

	var issues []QualityIssue
	add := func(c CleanedRecord, issueType, severity, detail string, observed *float64, mean float64) {
		issue := QualityIssue{
			IssueType:     issueType,
			Severity:      severity,
			StoreName:     c.StoreName,
			ItemCode:      c.ItemCode,
			Supplier:      c.Supplier,
			SaleDate:      c.SaleDate,
			IsFocal:       c.IsFocal,
			Detail:        detail,
			ObservedValue: observed,
		}
		if observed != nil && mean > 0 {
			ratio := round2(*observed / mean)
			issue.DeviationRatio = &ratio
		}
		issues = append(issues, issue)
	}

	for _, c := range cleaned {
		// Quantity tier: negative beats extreme beats high.
		if c.Quantity != nil {
			switch q := *c.Quantity; {
			case q < 0:
				add(c, IssueNegativeQuantity, SeverityCritical, "quantity below zero", c.Quantity, stats.QuantityMean)
			case stats.QuantityStdDev > 0 && q > qExtreme:
				add(c, IssueExtremeQuantity, SeverityHigh, "quantity above mean plus stddev band", c.Quantity, stats.QuantityMean)
			case stats.QuantityP99 > 0 && q > stats.QuantityP99:
				add(c, IssueHighQuantity, SeverityMedium, "quantity above high percentile", c.Quantity, stats.QuantityMean)
			}
		}

		// Price tier.
		if c.TotalSales != nil && *c.TotalSales < 0 {
			add(c, IssueNegativeSales, SeverityCritical, "sale value below zero", c.TotalSales, stats.PriceMean)
		} else if c.RealizedPrice != nil {
			switch p := *c.RealizedPrice; {
			case stats.PriceStdDev > 0 && p > pExtreme:
				add(c, IssueExtremePrice, SeverityHigh, "realized price above mean plus stddev band", c.RealizedPrice, stats.PriceMean)
			case stats.PriceP99 > 0 && p > stats.PriceP99:
				add(c, IssueHighPrice, SeverityMedium, "realized price above high percentile", c.RealizedPrice, stats.PriceMean)
			case p < d.cfg.Outlier.MinRealizedPrice:
				add(c, IssueSuspiciousPrice, SeverityMedium, "realized price below currency floor", c.RealizedPrice, stats.PriceMean)
			}
		}

		if c.IsDuplicate {
			add(c, IssueDuplicateRecord, SeverityLow, "composite key appears more than once", nil, 0)
		}
		if len(c.MissingFields) > 0 {
			add(c, IssueMissingField, SeverityLow, "missing or invalid: "+strings.Join(c.MissingFields, ", "), nil, 0)
		}
	}

	sortIssues(issues)

	d.logger.Info("outlier detection complete",
		slog.Int("records", len(cleaned)),
		slog.Int("issues", len(issues)),
		slog.Float64("quantity_mean", round2(stats.QuantityMean)),
		slog.Float64("price_mean", round2(stats.PriceMean)))

	return stats, issues
}

// sortIssues orders by severity rank, then by store, item, date and type so
// the list is deterministic across reruns.
func sortIssues(issues []QualityIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if severityRank(a.Severity) != severityRank(b.Severity) {
			return severityRank(a.Severity) < severityRank(b.Severity)
		}
		if a.StoreName != b.StoreName {
			return a.StoreName < b.StoreName
		}
		if a.ItemCode != b.ItemCode {
			return a.ItemCode < b.ItemCode
		}
		if a.SaleDate != b.SaleDate {
			return a.SaleDate < b.SaleDate
		}
		return a.IssueType < b.IssueType
	})
}

func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// percentile uses the nearest-rank method on a sorted copy, so the result is
// order-invariant.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
