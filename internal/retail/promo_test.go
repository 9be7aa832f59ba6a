package retail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsight/pkg/contracts/domain"
)

// dayRecord builds one fully valid record selling units at the given realized
// price on the given day of March 2025.
func dayRecord(store, item string, day int, units, price float64) domain.SalesRecord {
	sales := units * price
	return record(store, item, day, f(units), f(sales), f(100))
}

func promoRows(t *testing.T, records []domain.SalesRecord) []PromoSummaryRow {
	t.Helper()
	cfg := testConfig()
	cleaned := NewQualityScorer(cfg, testLogger()).ScoreAll(records)
	return NewPromoCalculator(cfg, testLogger()).Calculate(cleaned)
}

func TestPromoCalculator_UpliftAgainstPerStoreBaseline(t *testing.T) {
	// Two full-price days at 43 units, then two promo days at a 20% discount
	// selling 120 units each. Expected uplift: (120 - 43) / 43 * 100.
	records := []domain.SalesRecord{
		dayRecord("NAIVAS WESTLANDS", "IT100", 1, 43, 100),
		dayRecord("NAIVAS WESTLANDS", "IT100", 2, 43, 100),
		dayRecord("NAIVAS WESTLANDS", "IT100", 3, 120, 80),
		dayRecord("NAIVAS WESTLANDS", "IT100", 4, 120, 80),
	}

	rows := promoRows(t, records)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, 4, row.TotalDays)
	assert.Equal(t, 2, row.PromoDays)
	assert.True(t, row.IsOnPromo)
	assert.Equal(t, BaselinePerStore, row.BaselineSource)

	require.NotNil(t, row.BaselinePrice)
	assert.Equal(t, 100.0, *row.BaselinePrice)
	require.NotNil(t, row.AvgPromoPrice)
	assert.Equal(t, 80.0, *row.AvgPromoPrice)
	require.NotNil(t, row.PromoDiscountDepthPct)
	assert.Equal(t, 20.0, *row.PromoDiscountDepthPct)

	require.NotNil(t, row.PromoUpliftPct)
	assert.Equal(t, 179.07, *row.PromoUpliftPct)
	assert.Equal(t, "normal", row.UpliftConfidence)
}

func TestPromoCalculator_SinglePromoDayIsNotOnPromo(t *testing.T) {
	// One deep-discount day is a price anomaly, not a promotion.
	records := []domain.SalesRecord{
		dayRecord("NAIVAS WESTLANDS", "IT200", 1, 10, 100),
		dayRecord("NAIVAS WESTLANDS", "IT200", 2, 30, 60),
	}

	rows := promoRows(t, records)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, 1, row.PromoDays)
	assert.False(t, row.IsOnPromo)
}

func TestPromoCalculator_CrossStoreFallbackLowersConfidence(t *testing.T) {
	// Only one non-promo day, below the two-day minimum, so the per-store
	// baseline does not apply. Price baseline falls back to RRP and the unit
	// baseline to the cross-store daily median.
	records := []domain.SalesRecord{
		dayRecord("NAIVAS WESTLANDS", "IT300", 1, 10, 100),
		dayRecord("NAIVAS WESTLANDS", "IT300", 2, 30, 60),
	}

	rows := promoRows(t, records)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, BaselineRRP, row.BaselineSource)
	require.NotNil(t, row.BaselinePrice)
	assert.Equal(t, 100.0, *row.BaselinePrice)

	// Cross-store unit median over days (10, 30) is 20; promo day sold 30.
	require.NotNil(t, row.PromoUpliftPct)
	assert.Equal(t, 50.0, *row.PromoUpliftPct)
	assert.Equal(t, "low", row.UpliftConfidence)
}

func TestPromoCalculator_NoPromoDaysLeavesUpliftNil(t *testing.T) {
	records := []domain.SalesRecord{
		dayRecord("NAIVAS WESTLANDS", "IT400", 1, 10, 100),
		dayRecord("NAIVAS WESTLANDS", "IT400", 2, 12, 100),
		dayRecord("NAIVAS WESTLANDS", "IT400", 3, 11, 100),
	}

	rows := promoRows(t, records)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, 0, row.PromoDays)
	assert.False(t, row.IsOnPromo)
	assert.Nil(t, row.PromoUpliftPct, "uplift must be null, never zero, without promo days")
	assert.Nil(t, row.PromoDiscountDepthPct)
	assert.Nil(t, row.AvgPromoPrice)
}

func TestPromoCalculator_ZeroQuantityRecordsExcluded(t *testing.T) {
	records := []domain.SalesRecord{
		dayRecord("NAIVAS WESTLANDS", "IT500", 1, 10, 100),
		record("NAIVAS WESTLANDS", "IT500", 2, f(0), f(500), f(100)),
	}

	rows := promoRows(t, records)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].TotalDays)
	assert.Equal(t, 10.0, rows[0].TotalUnitsSold)
}

func TestSortByUplift_NullsLast(t *testing.T) {
	rows := []PromoSummaryRow{
		{ItemCode: "A", PromoUpliftPct: nil, TotalSalesValue: 9000},
		{ItemCode: "B", PromoUpliftPct: f(12.5)},
		{ItemCode: "C", PromoUpliftPct: f(80.0)},
	}

	SortByUplift(rows)
	assert.Equal(t, "C", rows[0].ItemCode)
	assert.Equal(t, "B", rows[1].ItemCode)
	assert.Equal(t, "A", rows[2].ItemCode, "null uplift sorts after any numeric uplift")
}
