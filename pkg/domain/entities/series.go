package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"
)

// MinSeriesPoints is the fewest distinct dates an item needs to be forecast
const MinSeriesPoints = 2

// SeriesPoint is the aggregated quantity sold on one date
type SeriesPoint struct {
	Date     time.Time       `json:"date"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ItemSeries is the date-ordered, date-unique sales history of one item
type ItemSeries struct {
	ItemCode    ItemCode      `json:"item_code"`
	ProductName string        `json:"product_name"`
	Points      []SeriesPoint `json:"points"`
}

// Len returns the number of distinct dates
func (s *ItemSeries) Len() int {
	return len(s.Points)
}

// Start returns the first observed date
func (s *ItemSeries) Start() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[0].Date
}

// End returns the last observed date
func (s *ItemSeries) End() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}

// Dates returns the observed dates in order
func (s *ItemSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date
	}
	return dates
}

// Values returns the aggregated quantities as float64 for model fitting
func (s *ItemSeries) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Quantity.InexactFloat64()
	}
	return values
}

// ContentHash identifies the series content independent of item name
func (s *ItemSeries) ContentHash() string {
	h := sha256.New()
	for _, p := range s.Points {
		h.Write([]byte(p.Date.Format("2006-01-02")))
		h.Write([]byte{'='})
		h.Write([]byte(p.Quantity.String()))
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
