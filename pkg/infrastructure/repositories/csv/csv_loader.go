package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockcast/pkg/domain/entities"
)

// Stock table column names
const (
	ColumnID           = "id"
	ColumnInventory    = "inventory"
	ColumnSupplierName = "supplier_name"
)

// Loader handles loading dashboard data from CSV
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// LoadSalesTable reads a raw sales table. Column presence is checked later by
// the pipeline so that a missing column surfaces as a SchemaError.
func (l *Loader) LoadSalesTable(r io.Reader) (*entities.SalesTable, error) {
	records, err := newReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read sales CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("sales CSV is empty")
	}

	header := records[0]
	rows := records[1:]
	for i, row := range rows {
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			rows[i] = padded
		}
	}

	return entities.NewSalesTable(header, rows), nil
}

// LoadSalesTableFile reads a sales table from a file
func (l *Loader) LoadSalesTableFile(filename string) (*entities.SalesTable, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales file %s: %w", filename, err)
	}
	defer file.Close()

	return l.LoadSalesTable(file)
}

// LoadInventory reads a stock table. The identifier column may be named
// "id" or "Item Code"; supplier_name is optional.
func (l *Loader) LoadInventory(r io.Reader) ([]*entities.InventoryRow, error) {
	records, err := newReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read stock CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("stock CSV is empty")
	}

	table := entities.NewSalesTable(records[0], nil)
	idCol, ok := table.ColumnIndex(ColumnID)
	if !ok {
		idCol, ok = table.ColumnIndex(entities.ColumnItemCode)
	}
	if !ok {
		return nil, &entities.SchemaError{Column: ColumnID, Available: table.Header}
	}
	cols, err := table.RequireColumns(entities.ColumnProductName, ColumnInventory)
	if err != nil {
		return nil, err
	}
	supplierCol, hasSupplier := table.ColumnIndex(ColumnSupplierName)

	var rows []*entities.InventoryRow
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}

		inventory, err := parseInventory(entities.Cell(record, cols[ColumnInventory]))
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}

		supplier := ""
		if hasSupplier {
			supplier = entities.Cell(record, supplierCol)
		}

		row, err := entities.NewInventoryRow(
			entities.NormalizeItemCode(entities.Cell(record, idCol)),
			entities.Cell(record, cols[entities.ColumnProductName]),
			inventory,
			supplier,
		)
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// LoadInventoryFile reads a stock table from a file
func (l *Loader) LoadInventoryFile(filename string) ([]*entities.InventoryRow, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open stock file %s: %w", filename, err)
	}
	defer file.Close()

	return l.LoadInventory(file)
}

// parseInventory accepts whole counts, including spreadsheet exports like "40.0"
func parseInventory(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid inventory %q: %w", raw, err)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("invalid inventory %q: not a whole count", raw)
	}
	return d.IntPart(), nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
