package retail

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"retailsight/internal/config"
	"retailsight/pkg/contracts/domain"
)

// Pipeline runs the full retail derivation over one raw snapshot: quality
// scoring, outlier detection, promo classification and price indexing in
// parallel, then the rollups. Re-running over the same snapshot reproduces
// identical output.
type Pipeline struct {
	quality    *QualityScorer
	outliers   *OutlierDetector
	promo      *PromoCalculator
	priceIndex *PriceIndexCalculator
	summarizer *Summarizer
	logger     *slog.Logger
}

// NewPipeline wires the pipeline stages from one analytics config.
func NewPipeline(cfg config.AnalyticsConfig, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		quality:    NewQualityScorer(cfg, logger),
		outliers:   NewOutlierDetector(cfg, logger),
		promo:      NewPromoCalculator(cfg, logger),
		priceIndex: NewPriceIndexCalculator(cfg, logger),
		summarizer: NewSummarizer(cfg, logger),
		logger:     logger.With(slog.String("component", "retail_pipeline")),
	}
}

// Run executes every stage and returns the complete derived set. Raw records
// are sorted first so output ordering does not depend on ingestion order.
func (p *Pipeline) Run(ctx context.Context, records []domain.SalesRecord) (*Derived, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("retail pipeline: no raw records in snapshot")
	}

	start := time.Now()

	sorted := make([]domain.SalesRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DedupKey() < sorted[j].DedupKey()
	})

	cleaned := p.quality.ScoreAll(sorted)
	stats, issues := p.outliers.Detect(cleaned)

	derived := &Derived{
		Cleaned:      cleaned,
		Issues:       issues,
		OutlierStats: stats,
	}

	// Promo classification and price indexing only read the cleaned set and
	// write disjoint outputs.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		derived.PromoSummary = p.promo.Calculate(cleaned)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		derived.PriceIndex = p.priceIndex.Calculate(cleaned)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("retail pipeline: %w", err)
	}

	derived.QualitySummary = p.summarizer.QualitySummary(cleaned, issues)
	derived.PricingSummary = p.summarizer.PricingSummary(derived.PriceIndex)
	derived.SupplierPromo = p.summarizer.SupplierPromo(derived.PromoSummary)
	derived.StorePromo = p.summarizer.StorePromo(derived.PromoSummary)
	derived.CategoryPromo = p.summarizer.CategoryPromo(derived.PromoSummary)
	derived.Insights = BuildInsights(derived)

	p.logger.InfoContext(ctx, "retail pipeline complete",
		slog.Int("raw_records", len(records)),
		slog.Int("issues", len(derived.Issues)),
		slog.Int("promo_rows", len(derived.PromoSummary)),
		slog.Int("price_index_rows", len(derived.PriceIndex)),
		slog.Duration("duration", time.Since(start)))

	return derived, nil
}
