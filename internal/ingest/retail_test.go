package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extract.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRetailReader_LoadCSV(t *testing.T) {
	csv := `Store_Name,Item_Code,Item_Barcode,Description,Category,Department,Sub_Department,Section,Quantity,Total_Sales,RRP,Supplier,Date_Of_Sale
NAIVAS WESTLANDS,IT001,6161100000011,CORN OIL 1L,OILS,GROCERY,COOKING,EDIBLE OILS,10,4500,500,BIDCO AFRICA,2025-03-01
NAIVAS KAREN,IT002,,SUNFLOWER OIL 2L,OILS,GROCERY,COOKING,EDIBLE OILS,,9000,1000,KAPA OIL,2025-03-02
`
	reader := NewRetailReader(testLogger())
	records, err := reader.Load(context.Background(), writeTempCSV(t, csv))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "NAIVAS WESTLANDS", first.StoreName)
	assert.Equal(t, "IT001", first.ItemCode)
	require.NotNil(t, first.Quantity)
	assert.Equal(t, 10.0, *first.Quantity)
	require.NotNil(t, first.TotalSales)
	assert.Equal(t, 4500.0, *first.TotalSales)
	assert.Equal(t, "2025-03-01", first.SaleDate.Format("2006-01-02"))
	assert.True(t, first.HasSupplier("bidco"))

	second := records[1]
	assert.Nil(t, second.Quantity)
	assert.Empty(t, second.ItemBarcode)
}

func TestRetailReader_MissingRequiredColumn(t *testing.T) {
	csv := `Item_Code,Quantity,Total_Sales
IT001,10,4500
`
	reader := NewRetailReader(testLogger())
	_, err := reader.Load(context.Background(), writeTempCSV(t, csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required column missing")
}

func TestRetailReader_SkipsBadDatesAndEmptyRows(t *testing.T) {
	csv := `Store_Name,Item_Code,Quantity,Total_Sales,RRP,Supplier,Date_Of_Sale
NAIVAS WESTLANDS,IT001,10,4500,500,BIDCO AFRICA,2025-03-01
,,,,,,
NAIVAS KAREN,IT002,5,2500,500,BIDCO AFRICA,not-a-date
`
	reader := NewRetailReader(testLogger())
	records, err := reader.Load(context.Background(), writeTempCSV(t, csv))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRetailReader_UnsupportedExtension(t *testing.T) {
	reader := NewRetailReader(testLogger())
	_, err := reader.Load(context.Background(), "extract.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported retail extract format")
}

func TestRetailReader_ThousandsSeparators(t *testing.T) {
	csv := `Store_Name,Item_Code,Quantity,Total_Sales,RRP,Supplier,Date_Of_Sale
NAIVAS WESTLANDS,IT001,"1,200","540,000",450,BIDCO AFRICA,2025-03-01
`
	reader := NewRetailReader(testLogger())
	records, err := reader.Load(context.Background(), writeTempCSV(t, csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Quantity)
	assert.Equal(t, 1200.0, *records[0].Quantity)
	require.NotNil(t, records[0].TotalSales)
	assert.Equal(t, 540000.0, *records[0].TotalSales)
}
