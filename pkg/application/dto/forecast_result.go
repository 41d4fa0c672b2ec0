package dto

import (
	"time"

	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/domain/services"
)

// ForecastResult contains the complete output of a forecast run
type ForecastResult struct {
	RunID    string                 `json:"run_id"`
	Horizon  int                    `json:"horizon"`
	Rows     []entities.ForecastRow `json:"rows"`
	Skipped  []entities.Skip        `json:"skipped"`
	Series   []*entities.ItemSeries `json:"-"`
	Stats    RunStats               `json:"stats"`
	Started  time.Time              `json:"started"`
	Duration time.Duration          `json:"duration"`
}

// RunStats summarizes the input and output of a run
type RunStats struct {
	InputRows       int                `json:"input_rows"`
	CleanRecords    int                `json:"clean_records"`
	Dropped         services.DropStats `json:"dropped"`
	Items           int                `json:"items"`
	ForecastedItems int                `json:"forecasted_items"`
	SkippedItems    int                `json:"skipped_items"`
	CacheHits       int                `json:"cache_hits"`
}

// RowsFor returns a copy of the rows belonging to one item
func (r *ForecastResult) RowsFor(code entities.ItemCode) []entities.ForecastRow {
	var rows []entities.ForecastRow
	for _, row := range r.Rows {
		if row.ItemCode == code {
			rows = append(rows, row)
		}
	}
	return rows
}

// SplitByItem regroups the rows into per-item blocks keyed by item code
func (r *ForecastResult) SplitByItem() map[entities.ItemCode][]entities.ForecastRow {
	blocks := make(map[entities.ItemCode][]entities.ForecastRow)
	for _, row := range r.Rows {
		blocks[row.ItemCode] = append(blocks[row.ItemCode], row)
	}
	return blocks
}

// Filter returns the rows of code (all items when empty), keeping the
// trailing last rows of each item when last > 0
func (r *ForecastResult) Filter(code entities.ItemCode, last int) []entities.ForecastRow {
	rows := r.Rows
	if code != "" {
		rows = r.RowsFor(code)
	}
	return FilterRows(rows, last)
}

// SeriesFor returns the aggregated sales history of one item
func (r *ForecastResult) SeriesFor(code entities.ItemCode) (*entities.ItemSeries, bool) {
	for _, series := range r.Series {
		if series.ItemCode == code {
			return series, true
		}
	}
	return nil, false
}

// FilterRows keeps the trailing last rows of every item block, preserving
// order. last <= 0 keeps everything. The result never aliases rows.
func FilterRows(rows []entities.ForecastRow, last int) []entities.ForecastRow {
	out := make([]entities.ForecastRow, 0, len(rows))
	if last <= 0 {
		return append(out, rows...)
	}

	start := 0
	for i := 1; i <= len(rows); i++ {
		if i < len(rows) && rows[i].ItemCode == rows[start].ItemCode {
			continue
		}
		from := start
		if i-last > from {
			from = i - last
		}
		out = append(out, rows[from:i]...)
		start = i
	}
	return out
}

// SkipFor returns the skip entry of an item, if any
func (r *ForecastResult) SkipFor(code entities.ItemCode) (entities.Skip, bool) {
	for _, skip := range r.Skipped {
		if skip.ItemCode == code {
			return skip, true
		}
	}
	return entities.Skip{}, false
}

// Clone returns a deep copy of r. A nil result clones to nil.
func (r *ForecastResult) Clone() *ForecastResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Rows = append([]entities.ForecastRow(nil), r.Rows...)
	out.Skipped = append([]entities.Skip(nil), r.Skipped...)
	out.Series = make([]*entities.ItemSeries, len(r.Series))
	for i, series := range r.Series {
		copied := *series
		copied.Points = append([]entities.SeriesPoint(nil), series.Points...)
		out.Series[i] = &copied
	}
	return &out
}

// ForecastCacheKey is used for memoizing per-item fits
type ForecastCacheKey struct {
	ItemCode   entities.ItemCode
	SeriesHash string
	Horizon    int
}

// ForecastCacheEntry contains cached model output
type ForecastCacheEntry struct {
	Points     []entities.ForecastPoint
	ComputedAt time.Time
}
