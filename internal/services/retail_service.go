package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "retailsight/internal/errors"
	"retailsight/internal/retail"
	"retailsight/internal/store"
)

// RetailService serves read-only queries over the latest retail snapshot.
// Every method resolves the snapshot once, so one response never mixes rows
// from two runs.
type RetailService struct {
	snapshots *store.Snapshots
	logger    *slog.Logger
}

// NewRetailService creates a retail query service.
func NewRetailService(snapshots *store.Snapshots, logger *slog.Logger) *RetailService {
	return &RetailService{
		snapshots: snapshots,
		logger:    logger.With(slog.String("component", "retail_service")),
	}
}

// QualityQuery filters the quality summary rollup.
type QualityQuery struct {
	Dimension       string
	MinQualityScore *float64
}

// IssueQuery filters the quality issue list.
type IssueQuery struct {
	IssueType string
	Severity  string
	Supplier  string
	FocalOnly bool
	Limit     int
}

// PromoQuery filters the promo summary.
type PromoQuery struct {
	Store     string
	Category  string
	FocalOnly bool
	OnPromo   *bool
	MinUplift *float64
	TopN      int
}

// PriceIndexQuery filters the price index rows.
type PriceIndexQuery struct {
	Store       string
	Section     string
	Positioning string
	FocalOnly   bool
}

func (s *RetailService) snapshot(context.Context) (*store.RetailSnapshot, error) {
	snap, ok := s.snapshots.Retail()
	if !ok {
		return nil, apperrors.ErrSnapshotNotFound
	}
	return snap, nil
}

// RunID returns the run that produced the current snapshot.
func (s *RetailService) RunID(ctx context.Context) (string, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return "", err
	}
	return snap.RunID, nil
}

// QualitySummary returns quality rollups, optionally restricted to one
// dimension (overall, store, supplier, category) and a minimum average score.
func (s *RetailService) QualitySummary(ctx context.Context, q QualityQuery) ([]retail.QualitySummaryRow, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if q.Dimension != "" && !validQualityDimension(q.Dimension) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown dimension %q", q.Dimension))
	}

	rows := make([]retail.QualitySummaryRow, 0, len(snap.Derived.QualitySummary))
	for _, row := range snap.Derived.QualitySummary {
		if q.Dimension != "" && row.Scope != q.Dimension {
			continue
		}
		if q.MinQualityScore != nil && row.AvgQualityScore < *q.MinQualityScore {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func validQualityDimension(d string) bool {
	switch d {
	case retail.ScopeOverall, retail.ScopeStore, retail.ScopeSupplier, retail.ScopeCategory:
		return true
	}
	return false
}

// Issues returns the severity-ranked issue list with optional filters.
func (s *RetailService) Issues(ctx context.Context, q IssueQuery) ([]retail.QualityIssue, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]retail.QualityIssue, 0, len(snap.Derived.Issues))
	for _, issue := range snap.Derived.Issues {
		if q.IssueType != "" && issue.IssueType != q.IssueType {
			continue
		}
		if q.Severity != "" && issue.Severity != q.Severity {
			continue
		}
		if q.Supplier != "" && !strings.EqualFold(issue.Supplier, q.Supplier) {
			continue
		}
		if q.FocalOnly && !issue.IsFocal {
			continue
		}
		rows = append(rows, issue)
		if q.Limit > 0 && len(rows) >= q.Limit {
			break
		}
	}
	return rows, nil
}

// OutlierStats returns the whole-dataset statistics of the current snapshot.
func (s *RetailService) OutlierStats(ctx context.Context) (retail.OutlierStats, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return retail.OutlierStats{}, err
	}
	return snap.Derived.OutlierStats, nil
}

// PromoSummary returns promo rows sorted by uplift descending with nulls
// last, after filtering.
func (s *RetailService) PromoSummary(ctx context.Context, q PromoQuery) ([]retail.PromoSummaryRow, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]retail.PromoSummaryRow, 0, len(snap.Derived.PromoSummary))
	for _, row := range snap.Derived.PromoSummary {
		if q.Store != "" && !strings.EqualFold(row.StoreName, q.Store) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(row.Category, q.Category) {
			continue
		}
		if q.FocalOnly && !row.IsFocal {
			continue
		}
		if q.OnPromo != nil && row.IsOnPromo != *q.OnPromo {
			continue
		}
		if q.MinUplift != nil && (row.PromoUpliftPct == nil || *row.PromoUpliftPct < *q.MinUplift) {
			continue
		}
		rows = append(rows, row)
	}

	retail.SortByUplift(rows)
	if q.TopN > 0 && len(rows) > q.TopN {
		rows = rows[:q.TopN]
	}
	return rows, nil
}

// PriceIndex returns price index rows after filtering.
func (s *RetailService) PriceIndex(ctx context.Context, q PriceIndexQuery) ([]retail.PriceIndexRow, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]retail.PriceIndexRow, 0, len(snap.Derived.PriceIndex))
	for _, row := range snap.Derived.PriceIndex {
		if q.Store != "" && !strings.EqualFold(row.StoreName, q.Store) {
			continue
		}
		if q.Section != "" && !strings.EqualFold(row.Section, q.Section) {
			continue
		}
		if q.Positioning != "" && row.PricePositioning != q.Positioning {
			continue
		}
		if q.FocalOnly && !row.IsFocal {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PricingSummary returns pricing rollups, optionally restricted to one scope.
func (s *RetailService) PricingSummary(ctx context.Context, scope string) ([]retail.PricingSummaryRow, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]retail.PricingSummaryRow, 0, len(snap.Derived.PricingSummary))
	for _, row := range snap.Derived.PricingSummary {
		if scope != "" && row.Scope != scope {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SupplierPromo returns the supplier promo rollup.
func (s *RetailService) SupplierPromo(ctx context.Context) ([]retail.SupplierPromoRollup, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Derived.SupplierPromo, nil
}

// StorePromo returns the store promo rollup.
func (s *RetailService) StorePromo(ctx context.Context) ([]retail.StorePromoRollup, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Derived.StorePromo, nil
}

// CategoryPromo returns the category promo rollup.
func (s *RetailService) CategoryPromo(ctx context.Context) ([]retail.CategoryPromoRollup, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Derived.CategoryPromo, nil
}

// Insights returns the narrative findings for the current snapshot.
func (s *RetailService) Insights(ctx context.Context) ([]retail.Insight, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Derived.Insights, nil
}
