package repositories

import "github.com/vsinha/stockcast/pkg/domain/entities"

// ForecastRepository stores forecast rows produced by a run
type ForecastRepository interface {
	// SaveForecast replaces any rows previously stored for runID
	SaveForecast(runID string, rows []entities.ForecastRow) error
	GetForecast(itemCode entities.ItemCode) ([]entities.ForecastRow, error)
	GetAllForecasts() ([]entities.ForecastRow, error)
	// DeleteRun removes the rows of one run; unknown runs are not an error
	DeleteRun(runID string) error
	Clear() error
}
