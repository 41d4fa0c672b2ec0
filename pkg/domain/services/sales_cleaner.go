package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/stockcast/pkg/domain/entities"
)

// DefaultDateLayouts are tried in order when coercing the Date column
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	time.RFC3339,
	"01/02/2006",
	"2006-1-2",
}

// DropStats counts input rows excluded during cleaning
type DropStats struct {
	MissingItemCode  int `json:"missing_item_code"`
	BadDate          int `json:"bad_date"`
	BadQuantity      int `json:"bad_quantity"`
	NegativeQuantity int `json:"negative_quantity"`
}

// Total returns the number of dropped rows
func (d DropStats) Total() int {
	return d.MissingItemCode + d.BadDate + d.BadQuantity + d.NegativeQuantity
}

// SeriesSet holds every item's aggregated series in first-appearance order
type SeriesSet struct {
	Series  []*entities.ItemSeries
	Records int
	Dropped DropStats
}

// Get returns the series for an item code
func (s *SeriesSet) Get(code entities.ItemCode) (*entities.ItemSeries, bool) {
	for _, series := range s.Series {
		if series.ItemCode == code {
			return series, true
		}
	}
	return nil, false
}

// SalesCleaner coerces raw sales tables into records and per-item series
type SalesCleaner struct {
	dateLayouts []string
}

// NewSalesCleaner creates a cleaner with the default date layouts
func NewSalesCleaner() *SalesCleaner {
	return NewSalesCleanerWithLayouts(DefaultDateLayouts)
}

// NewSalesCleanerWithLayouts creates a cleaner with custom date layouts
func NewSalesCleanerWithLayouts(layouts []string) *SalesCleaner {
	return &SalesCleaner{dateLayouts: layouts}
}

// ParseDate coerces a cell to a calendar date
func (c *SalesCleaner) ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range c.dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return entities.CalendarDate(t), true
		}
	}
	return time.Time{}, false
}

// ParseRecords cleans every row of the table. Rows with an empty item code,
// an unparseable date, or a missing or negative quantity are dropped.
func (c *SalesCleaner) ParseRecords(table *entities.SalesTable) ([]entities.SalesRecord, DropStats, error) {
	var stats DropStats

	cols, err := table.RequireColumns(entities.ColumnItemCode, entities.ColumnDate, entities.ColumnQuantity)
	if err != nil {
		return nil, stats, err
	}

	itemIdx := cols[entities.ColumnItemCode]
	dateIdx := cols[entities.ColumnDate]
	qtyIdx := cols[entities.ColumnQuantity]

	nameIdx, _ := table.ColumnIndex(entities.ColumnProductName)
	timeIdx, _ := table.ColumnIndex(entities.ColumnTime)
	priceIdx, _ := table.ColumnIndex(entities.ColumnUnitPrice)
	saleIdx, _ := table.ColumnIndex(entities.ColumnSaleOrReturn)
	discountIdx, _ := table.ColumnIndex(entities.ColumnDiscount)

	records := make([]entities.SalesRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		code := entities.NormalizeItemCode(entities.Cell(row, itemIdx))
		if code == "" {
			stats.MissingItemCode++
			continue
		}

		date, ok := c.ParseDate(entities.Cell(row, dateIdx))
		if !ok {
			stats.BadDate++
			continue
		}

		qty, err := decimal.NewFromString(entities.Cell(row, qtyIdx))
		if err != nil {
			stats.BadQuantity++
			continue
		}
		if qty.IsNegative() {
			stats.NegativeQuantity++
			continue
		}

		record := entities.SalesRecord{
			ItemCode:     code,
			ProductName:  entities.Cell(row, nameIdx),
			Date:         date,
			Time:         entities.Cell(row, timeIdx),
			QuantitySold: qty,
			SaleOrReturn: entities.Cell(row, saleIdx),
			Discount:     entities.Cell(row, discountIdx),
		}
		if price, err := decimal.NewFromString(entities.Cell(row, priceIdx)); err == nil {
			record.UnitPrice = decimal.NewNullDecimal(price)
		}

		records = append(records, record)
	}

	return records, stats, nil
}

// Aggregate partitions records by item code in first-appearance order and sums
// quantities per date. Each series is sorted by date. The product name of a
// series is the first non-empty name among that item's records.
func (c *SalesCleaner) Aggregate(records []entities.SalesRecord) []*entities.ItemSeries {
	var order []entities.ItemCode
	names := make(map[entities.ItemCode]string)
	sums := make(map[entities.ItemCode]map[time.Time]decimal.Decimal)

	for _, record := range records {
		byDate, exists := sums[record.ItemCode]
		if !exists {
			byDate = make(map[time.Time]decimal.Decimal)
			sums[record.ItemCode] = byDate
			order = append(order, record.ItemCode)
		}
		if names[record.ItemCode] == "" && record.ProductName != "" {
			names[record.ItemCode] = record.ProductName
		}
		byDate[record.Date] = byDate[record.Date].Add(record.QuantitySold)
	}

	series := make([]*entities.ItemSeries, 0, len(order))
	for _, code := range order {
		byDate := sums[code]
		points := make([]entities.SeriesPoint, 0, len(byDate))
		for date, qty := range byDate {
			points = append(points, entities.SeriesPoint{Date: date, Quantity: qty})
		}
		sort.Slice(points, func(i, j int) bool {
			return points[i].Date.Before(points[j].Date)
		})
		series = append(series, &entities.ItemSeries{
			ItemCode:    code,
			ProductName: names[code],
			Points:      points,
		})
	}

	return series
}

// Build cleans the table and aggregates it into per-item series
func (c *SalesCleaner) Build(table *entities.SalesTable) (*SeriesSet, error) {
	records, stats, err := c.ParseRecords(table)
	if err != nil {
		return nil, err
	}

	return &SeriesSet{
		Series:  c.Aggregate(records),
		Records: len(records),
		Dropped: stats,
	}, nil
}
