package churn

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"retailsight/internal/config"
	"retailsight/pkg/contracts/domain"
)

// Pipeline runs the churn feature derivation over one raw snapshot of users,
// transactions and activity events.
type Pipeline struct {
	calculator *Calculator
	logger     *slog.Logger
}

// NewPipeline wires the pipeline from one analytics config.
func NewPipeline(cfg config.AnalyticsConfig, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		calculator: NewCalculator(cfg.Churn, logger),
		logger:     logger.With(slog.String("component", "churn_pipeline")),
	}
}

// Run computes the full feature set. The user extract is the driving table:
// transactions and activities for unknown users are ignored, users without
// either still get a row.
func (p *Pipeline) Run(ctx context.Context, users []domain.User, transactions []domain.Transaction, activities []domain.ActivityEvent) (*Derived, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("churn pipeline: no users in snapshot")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("churn pipeline: %w", err)
	}

	start := time.Now()
	derived := p.calculator.Compute(users, transactions, activities)

	var churned int
	for _, row := range derived.Features {
		churned += row.ChurnFlag
	}

	p.logger.InfoContext(ctx, "churn pipeline complete",
		slog.Int("users", len(derived.Features)),
		slog.Int("churned", churned),
		slog.Duration("duration", time.Since(start)))

	return &derived, nil
}
