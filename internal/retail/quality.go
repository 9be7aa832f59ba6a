package retail

import (
	"log/slog"
	"math"

	"retailsight/internal/config"
	"retailsight/pkg/contracts/domain"
)

// qualityCheckCount is the number of per-record validity predicates.
const qualityCheckCount = 9

// QualityScorer converts raw sales records into cleaned, scored records.
// Scoring is a pure function of the input row; data-quality conditions are
// signals, not errors, so no record is ever dropped here.
type QualityScorer struct {
	cfg    config.AnalyticsConfig
	logger *slog.Logger
}

// NewQualityScorer creates a scorer with the given thresholds.
func NewQualityScorer(cfg config.AnalyticsConfig, logger *slog.Logger) *QualityScorer {
	return &QualityScorer{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "quality_scorer")),
	}
}

// Score produces the CleanedRecord for one raw record.
func (s *QualityScorer) Score(r domain.SalesRecord) CleanedRecord {
	valid := 0
	var missing []string

	check := func(ok bool, field string) {
		if ok {
			valid++
		} else {
			missing = append(missing, field)
		}
	}

	check(r.StoreName != "", "store_name")
	check(r.ItemCode != "", "item_code")
	check(r.Supplier != "", "supplier")
	check(!r.SaleDate.IsZero(), "sale_date")
	check(r.Category != "", "category")
	check(r.ItemBarcode != "", "item_barcode")
	check(r.Quantity != nil && *r.Quantity > 0, "quantity")
	check(r.TotalSales != nil && *r.TotalSales >= 0, "total_sales")
	check(r.RRP != nil && *r.RRP > 0, "rrp")

	score := round2(float64(valid) / qualityCheckCount * 100)

	invalidQuantity := r.Quantity == nil || *r.Quantity <= 0
	invalidSales := r.TotalSales == nil || *r.TotalSales < 0

	cleaned := CleanedRecord{
		StoreName:     r.StoreName,
		ItemCode:      r.ItemCode,
		ItemBarcode:   r.ItemBarcode,
		Description:   r.Description,
		Category:      r.Category,
		Department:    r.Department,
		SubDepartment: r.SubDepartment,
		Section:       r.Section,
		Supplier:      r.Supplier,
		SaleDate:      r.SaleDate.Format("2006-01-02"),
		Quantity:      r.Quantity,
		TotalSales:    r.TotalSales,
		RRP:           r.RRP,
		RealizedPrice: realizedPrice(r),
		QualityScore:  score,
		ValidChecks:   valid,
		MissingFields: missing,
		IsLowQuality:  score < s.cfg.Quality.LowQualityScore || invalidQuantity || invalidSales,
		IsFocal:       r.HasSupplier(s.cfg.FocalSupplier),
	}

	cleaned.PromoPriceIndicator = s.promoPriceIndicator(cleaned)
	return cleaned
}

// ScoreAll scores every record and flags duplicates by composite key.
// Both members of a duplicate pair are flagged; neither is dropped.
func (s *QualityScorer) ScoreAll(records []domain.SalesRecord) []CleanedRecord {
	keyCounts := make(map[string]int, len(records))
	for _, r := range records {
		keyCounts[r.DedupKey()]++
	}

	cleaned := make([]CleanedRecord, 0, len(records))
	duplicates := 0
	for _, r := range records {
		c := s.Score(r)
		if keyCounts[r.DedupKey()] > 1 {
			c.IsDuplicate = true
			duplicates++
		}
		cleaned = append(cleaned, c)
	}

	if duplicates > 0 {
		s.logger.Warn("duplicate records detected",
			slog.Int("duplicates", duplicates),
			slog.Int("total", len(records)))
	}
	return cleaned
}

// realizedPrice is total sales / quantity, undefined (nil) when quantity is
// missing or not positive. The nil must propagate through every downstream
// average rather than being coerced to zero.
func realizedPrice(r domain.SalesRecord) *float64 {
	if r.Quantity == nil || *r.Quantity <= 0 || r.TotalSales == nil {
		return nil
	}
	price := *r.TotalSales / *r.Quantity
	return &price
}

// promoPriceIndicator reports whether the realized price sits at least the
// configured discount threshold below RRP.
func (s *QualityScorer) promoPriceIndicator(c CleanedRecord) bool {
	if c.RealizedPrice == nil || c.RRP == nil || *c.RRP <= 0 {
		return false
	}
	return *c.RealizedPrice <= (1-s.cfg.Promo.DiscountThreshold)*(*c.RRP)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
