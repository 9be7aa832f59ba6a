package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"retailsight/pkg/contracts/domain"
)

// Date formats accepted in retail extracts. Upstream systems are not
// consistent about this.
var saleDateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2006/01/02",
}

// RetailReader loads raw point-of-sale extracts from CSV or Excel files.
type RetailReader struct {
	logger *slog.Logger
}

// NewRetailReader creates a reader for retail sales extracts.
func NewRetailReader(logger *slog.Logger) *RetailReader {
	return &RetailReader{
		logger: logger.With(slog.String("component", "retail_reader")),
	}
}

// Load reads a retail extract, dispatching on the file extension.
// Rows are returned in file order; the caller owns dedup and validation.
func (r *RetailReader) Load(ctx context.Context, path string) ([]domain.SalesRecord, error) {
	start := time.Now()

	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSVRows(path)
	case ".xlsx", ".xls":
		rows, err = readExcelRows(path)
	default:
		return nil, fmt.Errorf("unsupported retail extract format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read retail extract %s: %w", path, err)
	}

	records, skipped, err := parseSalesRows(rows)
	if err != nil {
		return nil, fmt.Errorf("parse retail extract %s: %w", path, err)
	}

	r.logger.InfoContext(ctx, "retail extract loaded",
		slog.String("path", path),
		slog.Int("records", len(records)),
		slog.Int("skipped_rows", skipped),
		slog.Duration("duration", time.Since(start)))

	return records, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	// Prefer a sheet whose header carries the sales columns; fall back to the
	// first sheet.
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		header := strings.ToLower(strings.Join(rows[0], " "))
		if strings.Contains(header, "store") && strings.Contains(header, "item") {
			return rows, nil
		}
	}
	return f.GetRows(sheets[0])
}

// parseSalesRows maps the header row to column positions, then converts each
// data row into a SalesRecord. Rows without a parseable sale date are skipped;
// missing numeric cells become nil so downstream quality checks see them.
func parseSalesRows(rows [][]string) ([]domain.SalesRecord, int, error) {
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("extract is empty")
	}

	columnMap := make(map[string]int)
	for j, header := range rows[0] {
		switch normalizeHeader(header) {
		case "store_name", "store":
			columnMap["store"] = j
		case "item_code", "item":
			columnMap["item_code"] = j
		case "item_barcode", "barcode":
			columnMap["barcode"] = j
		case "description":
			columnMap["description"] = j
		case "category":
			columnMap["category"] = j
		case "department":
			columnMap["department"] = j
		case "sub_department":
			columnMap["sub_department"] = j
		case "section":
			columnMap["section"] = j
		case "quantity", "qty":
			columnMap["quantity"] = j
		case "total_sales", "sales_value":
			columnMap["total_sales"] = j
		case "rrp":
			columnMap["rrp"] = j
		case "supplier", "supplier_name":
			columnMap["supplier"] = j
		case "date_of_sale", "sale_date", "date":
			columnMap["date"] = j
		}
	}

	for _, required := range []string{"store", "item_code", "date"} {
		if _, ok := columnMap[required]; !ok {
			return nil, 0, fmt.Errorf("required column missing from header: %s", required)
		}
	}

	getString := func(row []string, col string) string {
		if idx, ok := columnMap[col]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	getFloat := func(row []string, col string) *float64 {
		raw := strings.ReplaceAll(getString(row, col), ",", "")
		if raw == "" {
			return nil
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return &val
	}

	var records []domain.SalesRecord
	skipped := 0

	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			skipped++
			continue
		}

		saleDate, ok := parseSaleDate(getString(row, "date"))
		if !ok {
			skipped++
			continue
		}

		records = append(records, domain.SalesRecord{
			StoreName:     getString(row, "store"),
			ItemCode:      getString(row, "item_code"),
			ItemBarcode:   getString(row, "barcode"),
			Description:   getString(row, "description"),
			Category:      getString(row, "category"),
			Department:    getString(row, "department"),
			SubDepartment: getString(row, "sub_department"),
			Section:       getString(row, "section"),
			Quantity:      getFloat(row, "quantity"),
			TotalSales:    getFloat(row, "total_sales"),
			RRP:           getFloat(row, "rrp"),
			Supplier:      getString(row, "supplier"),
			SaleDate:      saleDate,
		})
	}

	return records, skipped, nil
}

func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

func parseSaleDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range saleDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
