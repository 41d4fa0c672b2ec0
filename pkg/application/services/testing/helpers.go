package testing

import (
	"fmt"
	"time"

	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/infrastructure/repositories/memory"
)

// SalesHeader is the minimal sales table header with a product name column
var SalesHeader = []string{
	entities.ColumnItemCode,
	entities.ColumnDate,
	entities.ColumnQuantity,
	entities.ColumnProductName,
}

// SalesTableBuilder accumulates rows for a test sales table
type SalesTableBuilder struct {
	header []string
	rows   [][]string
}

// NewSalesTableBuilder starts a table with SalesHeader
func NewSalesTableBuilder() *SalesTableBuilder {
	return &SalesTableBuilder{header: SalesHeader}
}

// WithHeader replaces the header; Row cells must follow the new column order
func (b *SalesTableBuilder) WithHeader(header ...string) *SalesTableBuilder {
	b.header = header
	return b
}

// Row appends a raw row
func (b *SalesTableBuilder) Row(cells ...string) *SalesTableBuilder {
	b.rows = append(b.rows, cells)
	return b
}

// Daily appends one row per day starting at start, using quantity(day index)
func (b *SalesTableBuilder) Daily(code, name string, start time.Time, days int, quantity func(i int) float64) *SalesTableBuilder {
	for i := 0; i < days; i++ {
		b.rows = append(b.rows, []string{
			code,
			start.AddDate(0, 0, i).Format("2006-01-02"),
			fmt.Sprintf("%.3f", quantity(i)),
			name,
		})
	}
	return b
}

// Build returns the table
func (b *SalesTableBuilder) Build() *entities.SalesTable {
	rows := make([][]string, len(b.rows))
	copy(rows, b.rows)
	return entities.NewSalesTable(b.header, rows)
}

// Start is the first sales date used by the vegetable scenario
var Start = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// BuildVegetableTestData builds a small produce-market scenario: three items
// with enough history, one with a single sales day, and a stock table that
// also covers an item with no sales.
func BuildVegetableTestData() (*entities.SalesTable, *memory.InventoryRepository) {
	table := NewSalesTableBuilder().
		Daily("102900005115878", "Niushou Shengcai", Start, 60, func(i int) float64 {
			return 10 + 0.1*float64(i) + float64(i%7)
		}).
		Daily("102900005116714", "Sichuan Red Cedar", Start, 45, func(i int) float64 {
			return 4 + float64(i%3)
		}).
		Daily("102900011032251", "", Start.AddDate(0, 0, 10), 30, func(i int) float64 {
			return 2.5
		}).
		Row("102900005118824", Start.Format("2006-01-02"), "1.2", "Wuhu Green Pepper").
		Build()

	inventoryRepo := memory.NewInventoryRepository(4)
	rows := []*entities.InventoryRow{
		mustCreateInventoryRow("102900005115878", "Niushou Shengcai", 120, "Green Farm"),
		mustCreateInventoryRow("102900005116714", "Sichuan Red Cedar", 0, "Green Farm"),
		mustCreateInventoryRow("102900011032251", "Yunnan Lettuce", 35, "Hilltop"),
		mustCreateInventoryRow("102900005119975", "Honghu Lotus Root", 18, "Lakeside"),
	}
	if err := inventoryRepo.LoadInventory(rows); err != nil {
		panic(err)
	}

	return table, inventoryRepo
}

// mustCreateInventoryRow is a helper for tests - panics on validation error
func mustCreateInventoryRow(code, name string, inventory int64, supplier string) *entities.InventoryRow {
	row, err := entities.NewInventoryRow(entities.ItemCode(code), name, inventory, supplier)
	if err != nil {
		panic(err)
	}
	return row
}
