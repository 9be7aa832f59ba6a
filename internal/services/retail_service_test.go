package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "retailsight/internal/errors"
	"retailsight/internal/retail"
	"retailsight/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f(v float64) *float64 { return &v }

func retailFixture() *store.Snapshots {
	snapshots := store.NewSnapshots(testLogger())
	snapshots.PublishRetail(&store.RetailSnapshot{
		RunID: "run-1",
		Derived: &retail.Derived{
			Issues: []retail.QualityIssue{
				{IssueType: retail.IssueNegativeQuantity, Severity: retail.SeverityCritical, Supplier: "BIDCO AFRICA", IsFocal: true},
				{IssueType: retail.IssueMissingField, Severity: retail.SeverityLow, Supplier: "KAPA"},
				{IssueType: retail.IssueMissingField, Severity: retail.SeverityLow, Supplier: "KAPA"},
			},
			PromoSummary: []retail.PromoSummaryRow{
				{ItemCode: "IT1", StoreName: "NAIVAS", IsFocal: true, IsOnPromo: true, PromoUpliftPct: f(50)},
				{ItemCode: "IT2", StoreName: "NAIVAS", IsFocal: true, IsOnPromo: true, PromoUpliftPct: f(179.07)},
				{ItemCode: "IT3", StoreName: "QUICKMART", IsOnPromo: false},
			},
			PriceIndex: []retail.PriceIndexRow{
				{ItemCode: "IT1", StoreName: "NAIVAS", Section: "OILS", IsFocal: true, PricePositioning: retail.PositioningPremium},
				{ItemCode: "IT9", StoreName: "NAIVAS", Section: "OILS", PricePositioning: retail.PositioningDiscount},
			},
			QualitySummary: []retail.QualitySummaryRow{
				{Scope: retail.ScopeOverall, AvgQualityScore: 92},
				{Scope: retail.ScopeStore, StoreName: "NAIVAS", AvgQualityScore: 95},
				{Scope: retail.ScopeStore, StoreName: "QUICKMART", AvgQualityScore: 61},
			},
			PricingSummary: []retail.PricingSummaryRow{
				{Scope: retail.ScopeOverall, DominantPositioning: retail.PositioningPremium},
				{Scope: retail.ScopeStore, StoreName: "NAIVAS"},
			},
			Insights: []retail.Insight{{Kind: "price_positioning"}},
		},
	})
	return snapshots
}

func TestRetailService_NoSnapshotYet(t *testing.T) {
	s := NewRetailService(store.NewSnapshots(testLogger()), testLogger())
	_, err := s.QualitySummary(context.Background(), QualityQuery{})
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)
}

func TestRetailService_QualitySummaryFilters(t *testing.T) {
	s := NewRetailService(retailFixture(), testLogger())
	ctx := context.Background()

	rows, err := s.QualitySummary(ctx, QualityQuery{Dimension: retail.ScopeStore})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.QualitySummary(ctx, QualityQuery{Dimension: retail.ScopeStore, MinQualityScore: f(90)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "NAIVAS", rows[0].StoreName)

	_, err = s.QualitySummary(ctx, QualityQuery{Dimension: "warehouse"})
	assert.Error(t, err)
}

func TestRetailService_IssueFilters(t *testing.T) {
	s := NewRetailService(retailFixture(), testLogger())
	ctx := context.Background()

	rows, err := s.Issues(ctx, IssueQuery{Severity: retail.SeverityLow})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.Issues(ctx, IssueQuery{FocalOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, retail.IssueNegativeQuantity, rows[0].IssueType)

	rows, err = s.Issues(ctx, IssueQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRetailService_PromoSortedByUpliftWithFilters(t *testing.T) {
	s := NewRetailService(retailFixture(), testLogger())
	ctx := context.Background()

	rows, err := s.PromoSummary(ctx, PromoQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "IT2", rows[0].ItemCode, "highest uplift first")
	assert.Equal(t, "IT3", rows[2].ItemCode, "null uplift last")

	onPromo := true
	rows, err = s.PromoSummary(ctx, PromoQuery{OnPromo: &onPromo, MinUplift: f(100)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "IT2", rows[0].ItemCode)

	rows, err = s.PromoSummary(ctx, PromoQuery{TopN: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRetailService_PriceIndexFilters(t *testing.T) {
	s := NewRetailService(retailFixture(), testLogger())
	ctx := context.Background()

	rows, err := s.PriceIndex(ctx, PriceIndexQuery{FocalOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "IT1", rows[0].ItemCode)

	rows, err = s.PriceIndex(ctx, PriceIndexQuery{Positioning: retail.PositioningDiscount})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "IT9", rows[0].ItemCode)
}

func TestRetailService_PricingSummaryScope(t *testing.T) {
	s := NewRetailService(retailFixture(), testLogger())

	rows, err := s.PricingSummary(context.Background(), retail.ScopeOverall)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, retail.PositioningPremium, rows[0].DominantPositioning)
}
