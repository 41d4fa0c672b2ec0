package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sales table column names
const (
	ColumnItemCode     = "Item Code"
	ColumnDate         = "Date"
	ColumnQuantity     = "Quantity Sold (kilo)"
	ColumnProductName  = "product_name"
	ColumnTime         = "Time"
	ColumnUnitPrice    = "Unit Selling Price (RMB/kg)"
	ColumnSaleOrReturn = "Sale or Return"
	ColumnDiscount     = "Discount (Yes/No)"
)

// SalesRecord represents one cleaned line of the sales table.
// Optional fields are carried through as read.
type SalesRecord struct {
	ItemCode     ItemCode            `json:"item_code"`
	ProductName  string              `json:"product_name,omitempty"`
	Date         time.Time           `json:"date"`
	Time         string              `json:"time,omitempty"`
	QuantitySold decimal.Decimal     `json:"quantity_sold"`
	UnitPrice    decimal.NullDecimal `json:"unit_price"`
	SaleOrReturn string              `json:"sale_or_return,omitempty"`
	Discount     string              `json:"discount,omitempty"`
}

// SalesTable is a parsed but uncleaned sales CSV
type SalesTable struct {
	Header []string
	Rows   [][]string
}

// NewSalesTable creates a table with a normalized header
func NewSalesTable(header []string, rows [][]string) *SalesTable {
	return &SalesTable{
		Header: NormalizeHeader(header),
		Rows:   rows,
	}
}

// NormalizeHeader strips surrounding whitespace (and a leading byte order mark) from column names
func NormalizeHeader(header []string) []string {
	normalized := make([]string, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		normalized[i] = strings.TrimSpace(col)
	}
	return normalized
}

// ColumnIndex returns the position of a column, matching on the normalized name
func (t *SalesTable) ColumnIndex(name string) (int, bool) {
	want := strings.TrimSpace(name)
	for i, col := range t.Header {
		if strings.TrimSpace(col) == want {
			return i, true
		}
	}
	return -1, false
}

// RequireColumns resolves every named column or fails with a SchemaError for the first missing one
func (t *SalesTable) RequireColumns(names ...string) (map[string]int, error) {
	indexes := make(map[string]int, len(names))
	for _, name := range names {
		idx, ok := t.ColumnIndex(name)
		if !ok {
			return nil, &SchemaError{Column: name, Available: append([]string(nil), t.Header...)}
		}
		indexes[name] = idx
	}
	return indexes, nil
}

// Cell returns the trimmed cell at column idx of row, empty when the row is short
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
