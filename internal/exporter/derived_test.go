package exporter

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsight/internal/churn"
	"retailsight/internal/retail"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Strip the BOM before parsing.
	content := strings.TrimPrefix(string(data), "\xef\xbb\xbf")
	rows, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportRetail_WritesEveryTable(t *testing.T) {
	w := NewCSVWriter(t.TempDir(), testLogger())

	qty, sales := 10.0, 4500.0
	uplift := 179.07
	derived := &retail.Derived{
		Cleaned: []retail.CleanedRecord{{
			StoreName: "NAIVAS WESTLANDS", ItemCode: "IT001", SaleDate: "2025-03-01",
			Quantity: &qty, TotalSales: &sales, QualityScore: 88.89,
		}},
		Issues: []retail.QualityIssue{{
			IssueType: retail.IssueMissingField, Severity: retail.SeverityLow,
			StoreName: "NAIVAS WESTLANDS", ItemCode: "IT001", SaleDate: "2025-03-01",
		}},
		PromoSummary: []retail.PromoSummaryRow{{
			ItemCode: "IT001", StoreName: "NAIVAS WESTLANDS", PromoUpliftPct: &uplift,
		}},
		PriceIndex:     []retail.PriceIndexRow{{ItemCode: "IT001", StoreName: "NAIVAS WESTLANDS", AvgRealizedPrice: 450}},
		QualitySummary: []retail.QualitySummaryRow{{Scope: retail.ScopeOverall, RecordCount: 1}},
		PricingSummary: []retail.PricingSummaryRow{{Scope: retail.ScopeOverall}},
	}

	dir, err := w.ExportRetail("run-1", derived)
	require.NoError(t, err)

	for _, name := range []string{
		"cleaned_records", "quality_issues", "promo_summary",
		"price_index", "quality_summary", "pricing_summary",
	} {
		rows := readTable(t, filepath.Join(dir, name+".csv"))
		require.NotEmpty(t, rows, name)
		assert.Len(t, rows, 2, "%s carries header plus one record", name)
	}

	// Nullable metrics render as empty cells, floats with two decimals.
	promo := readTable(t, filepath.Join(dir, "promo_summary.csv"))
	header, row := promo[0], promo[1]
	assert.Equal(t, "179.07", cell(t, header, row, "promo_uplift_pct"))
	assert.Equal(t, "", cell(t, header, row, "baseline_price"))

	cleanedRows := readTable(t, filepath.Join(dir, "cleaned_records.csv"))
	assert.Equal(t, "4500.00", cell(t, cleanedRows[0], cleanedRows[1], "total_sales"))
}

func cell(t *testing.T, header, row []string, column string) string {
	t.Helper()
	for i, h := range header {
		if h == column {
			return row[i]
		}
	}
	t.Fatalf("no column %q", column)
	return ""
}

func TestExportRetail_ReplacesPriorExportForSameRun(t *testing.T) {
	w := NewCSVWriter(t.TempDir(), testLogger())

	derived := &retail.Derived{Cleaned: []retail.CleanedRecord{{ItemCode: "IT001"}}}
	first, err := w.ExportRetail("run-1", derived)
	require.NoError(t, err)

	derived.Cleaned = append(derived.Cleaned, retail.CleanedRecord{ItemCode: "IT002"})
	second, err := w.ExportRetail("run-1", derived)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	rows := readTable(t, filepath.Join(second, "cleaned_records.csv"))
	assert.Len(t, rows, 3)

	// No staging directories left behind.
	entries, err := os.ReadDir(filepath.Dir(second))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportChurn_WritesFeatureTable(t *testing.T) {
	w := NewCSVWriter(t.TempDir(), testLogger())

	days := 10
	dir, err := w.ExportChurn("run-9", &churn.Derived{
		Features: []churn.FeatureRow{{
			UserID: 1, UserTenureDays: 95, TotalActivityEvents: 3,
			DaysSinceLastActivity: &days, TotalSpendNGN: 5000,
			UserLifecycleStage: churn.StageActive, ChurnFlag: 1,
		}},
	})
	require.NoError(t, err)

	rows := readTable(t, filepath.Join(dir, "churn_features.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "1", cell(t, rows[0], rows[1], "churn_flag"))
	assert.Equal(t, "10", cell(t, rows[0], rows[1], "days_since_last_activity"))
	assert.Equal(t, "5000.00", cell(t, rows[0], rows[1], "total_spend_ngn"))
}
