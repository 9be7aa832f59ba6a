package retail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(date string, units, price float64, promo bool) DailyObservation {
	return DailyObservation{SaleDate: date, Units: units, AvgPrice: price, IsPromoDay: promo}
}

func TestPerStoreBaseline_MedianOfNonPromoDays(t *testing.T) {
	in := BaselineInput{Observations: []DailyObservation{
		obs("2025-03-01", 40, 100, false),
		obs("2025-03-02", 50, 110, false),
		obs("2025-03-03", 60, 105, false),
		obs("2025-03-04", 200, 70, true),
	}}
	b := PerStoreBaseline{MinDays: 2}

	assert.True(t, b.Applicable(in))

	price := b.PriceBaseline(in)
	require.NotNil(t, price)
	assert.Equal(t, 105.0, *price, "promo day price excluded from the median")

	units := b.UnitsBaseline(in)
	require.NotNil(t, units)
	assert.Equal(t, 50.0, *units)
}

func TestPerStoreBaseline_NotApplicableWithThinHistory(t *testing.T) {
	in := BaselineInput{Observations: []DailyObservation{
		obs("2025-03-01", 40, 100, false),
		obs("2025-03-02", 200, 70, true),
	}}
	assert.False(t, PerStoreBaseline{MinDays: 2}.Applicable(in))
}

func TestCrossStoreBaseline_UsesRRPAndCrossStoreMedian(t *testing.T) {
	in := BaselineInput{
		CrossStoreUnits: []float64{10, 30, 20},
		AvgRRP:          f(95),
	}
	b := CrossStoreBaseline{}

	assert.True(t, b.Applicable(in))

	price := b.PriceBaseline(in)
	require.NotNil(t, price)
	assert.Equal(t, 95.0, *price)

	units := b.UnitsBaseline(in)
	require.NotNil(t, units)
	assert.Equal(t, 20.0, *units)
}

func TestCrossStoreBaseline_NilWithoutData(t *testing.T) {
	b := CrossStoreBaseline{}
	assert.Nil(t, b.PriceBaseline(BaselineInput{}), "no RRP means no price baseline")
	assert.Nil(t, b.UnitsBaseline(BaselineInput{}))
	assert.Nil(t, b.PriceBaseline(BaselineInput{AvgRRP: f(0)}))
}

func TestSelectBaseline_PrefersPerStore(t *testing.T) {
	rich := BaselineInput{Observations: []DailyObservation{
		obs("2025-03-01", 40, 100, false),
		obs("2025-03-02", 50, 110, false),
	}}
	assert.Equal(t, BaselinePerStore, SelectBaseline(2, rich).Source())

	thin := BaselineInput{Observations: []DailyObservation{
		obs("2025-03-01", 40, 100, false),
	}}
	assert.Equal(t, BaselineCrossStore, SelectBaseline(2, thin).Source())
}

func TestMedian(t *testing.T) {
	assert.Nil(t, median(nil))

	odd := median([]float64{3, 1, 2})
	require.NotNil(t, odd)
	assert.Equal(t, 2.0, *odd)

	even := median([]float64{4, 1, 3, 2})
	require.NotNil(t, even)
	assert.Equal(t, 2.5, *even)

	// Input must not be reordered in place.
	values := []float64{9, 1, 5}
	median(values)
	assert.Equal(t, []float64{9, 1, 5}, values)
}
