package entities

import (
	"fmt"
	"time"
)

// ForecastPoint is one model prediction before it is tagged with an item
type ForecastPoint struct {
	Date      time.Time
	Yhat      float64
	YhatLower float64
	YhatUpper float64
}

// ForecastRow is one predicted date of one item's forecast block
type ForecastRow struct {
	ItemCode    ItemCode  `json:"Item Code"`
	ProductName string    `json:"product_name"`
	Date        time.Time `json:"ds"`
	Yhat        float64   `json:"yhat"`
	YhatLower   float64   `json:"yhat_lower"`
	YhatUpper   float64   `json:"yhat_upper"`
}

// SkipReason explains why an item produced no forecast
type SkipReason int

const (
	InsufficientData SkipReason = iota
	FitFailure
	FitTimeout
)

// String method for SkipReason enum
func (r SkipReason) String() string {
	switch r {
	case InsufficientData:
		return "insufficient data"
	case FitFailure:
		return "fit failure"
	case FitTimeout:
		return "fit timeout"
	default:
		return "Unknown"
	}
}

// MarshalText renders the reason as its label
func (r SkipReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a label written by MarshalText
func (r *SkipReason) UnmarshalText(text []byte) error {
	for _, candidate := range []SkipReason{InsufficientData, FitFailure, FitTimeout} {
		if candidate.String() == string(text) {
			*r = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown skip reason %q", text)
}

// Skip records an item excluded from a forecast run
type Skip struct {
	ItemCode    ItemCode   `json:"item_code"`
	ProductName string     `json:"product_name,omitempty"`
	Reason      SkipReason `json:"reason"`
	Detail      string     `json:"detail,omitempty"`
	Points      int        `json:"points"`
}

func (s Skip) String() string {
	if s.Detail == "" {
		return fmt.Sprintf("%s: %s (%d points)", s.ItemCode, s.Reason, s.Points)
	}
	return fmt.Sprintf("%s: %s (%d points): %s", s.ItemCode, s.Reason, s.Points, s.Detail)
}
