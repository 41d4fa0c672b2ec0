package events

import (
	"time"

	"github.com/vsinha/stockcast/pkg/domain/entities"
)

const (
	ForecastRunStartedEvent   = "forecast.run.started"
	ForecastRunCompletedEvent = "forecast.run.completed"

	ItemForecastedEvent = "forecast.item.completed"
	ItemSkippedEvent    = "forecast.item.skipped"
)

type ForecastRunStarted struct {
	RunID   string `json:"run_id"`
	Horizon int    `json:"horizon"`
	Items   int    `json:"items"`
}

type ForecastRunCompleted struct {
	RunID      string        `json:"run_id"`
	Forecasted int           `json:"forecasted"`
	Skipped    int           `json:"skipped"`
	Rows       int           `json:"rows"`
	Duration   time.Duration `json:"duration"`
}

type ItemForecasted struct {
	ItemCode entities.ItemCode `json:"item_code"`
	Rows     int               `json:"rows"`
	Cached   bool              `json:"cached"`
}

type ItemSkipped struct {
	Skip entities.Skip `json:"skip"`
}

func NewForecastRunStartedEvent(runID string, horizon, items int) Event {
	return NewEvent(ForecastRunStartedEvent, runID, ForecastRunStarted{
		RunID:   runID,
		Horizon: horizon,
		Items:   items,
	})
}

func NewForecastRunCompletedEvent(runID string, forecasted, skipped, rows int, duration time.Duration) Event {
	return NewEvent(ForecastRunCompletedEvent, runID, ForecastRunCompleted{
		RunID:      runID,
		Forecasted: forecasted,
		Skipped:    skipped,
		Rows:       rows,
		Duration:   duration,
	})
}

func NewItemForecastedEvent(runID string, code entities.ItemCode, rows int, cached bool) Event {
	return NewEvent(ItemForecastedEvent, runID, ItemForecasted{
		ItemCode: code,
		Rows:     rows,
		Cached:   cached,
	})
}

func NewItemSkippedEvent(runID string, skip entities.Skip) Event {
	return NewEvent(ItemSkippedEvent, runID, ItemSkipped{Skip: skip})
}
