package entities

import (
	"strings"
	"time"
)

// ItemCode represents the identifier of a product across sales and inventory tables
type ItemCode string

// NormalizeItemCode trims surrounding whitespace from a raw identifier cell
func NormalizeItemCode(raw string) ItemCode {
	return ItemCode(strings.TrimSpace(raw))
}

// CalendarDate truncates t to midnight UTC of its calendar day
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
