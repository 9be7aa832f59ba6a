package domain

import (
	"fmt"
	"strings"
	"time"
)

// SalesRecord represents one raw point-of-sale row exactly as it arrives from
// the ingestion extract. Raw records are immutable: the pipeline derives from
// them but never mutates them.
type SalesRecord struct {
	StoreName     string    `json:"store_name" csv:"Store_Name"`
	ItemCode      string    `json:"item_code" csv:"Item_Code"`
	ItemBarcode   string    `json:"item_barcode" csv:"Item_Barcode"`
	Description   string    `json:"description" csv:"Description"`
	Category      string    `json:"category" csv:"Category"`
	Department    string    `json:"department" csv:"Department"`
	SubDepartment string    `json:"sub_department" csv:"Sub_Department"`
	Section       string    `json:"section" csv:"Section"`
	Quantity      *float64  `json:"quantity" csv:"Quantity"`
	TotalSales    *float64  `json:"total_sales" csv:"Total_Sales"`
	RRP           *float64  `json:"rrp" csv:"RRP"`
	Supplier      string    `json:"supplier" csv:"Supplier"`
	SaleDate      time.Time `json:"sale_date" csv:"Date_Of_Sale"`
}

// DedupKey returns the composite identity used for duplicate detection.
// The same key appearing twice indicates a duplicate-ingestion issue, not a
// valid repeat sale.
func (r SalesRecord) DedupKey() string {
	qty, sales := "", ""
	if r.Quantity != nil {
		qty = fmt.Sprintf("%.4f", *r.Quantity)
	}
	if r.TotalSales != nil {
		sales = fmt.Sprintf("%.4f", *r.TotalSales)
	}
	return strings.Join([]string{
		r.StoreName,
		r.ItemCode,
		r.SaleDate.Format("2006-01-02"),
		qty,
		sales,
	}, "|")
}

// HasSupplier reports whether the record belongs to the given supplier,
// matched case-insensitively on a substring basis (extract supplier names are
// inconsistently cased and suffixed).
func (r SalesRecord) HasSupplier(supplier string) bool {
	if supplier == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(r.Supplier), strings.ToUpper(supplier))
}
