package memory

import (
	"sync"

	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/domain/repositories"
)

// ForecastRepository keeps forecast rows per run in memory
type ForecastRepository struct {
	mu    sync.RWMutex
	runs  []string
	byRun map[string][]entities.ForecastRow
}

// NewForecastRepository creates an empty forecast repository
func NewForecastRepository() *ForecastRepository {
	return &ForecastRepository{
		byRun: make(map[string][]entities.ForecastRow),
	}
}

var _ repositories.ForecastRepository = (*ForecastRepository)(nil)

// SaveForecast stores a copy of rows under runID, replacing earlier rows for that run
func (r *ForecastRepository) SaveForecast(runID string, rows []entities.ForecastRow) error {
	stored := make([]entities.ForecastRow, len(rows))
	copy(stored, rows)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byRun[runID]; !exists {
		r.runs = append(r.runs, runID)
	}
	r.byRun[runID] = stored
	return nil
}

// GetForecast returns all stored rows for one item across runs
func (r *ForecastRepository) GetForecast(itemCode entities.ItemCode) ([]entities.ForecastRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []entities.ForecastRow
	for _, runID := range r.runs {
		for _, row := range r.byRun[runID] {
			if row.ItemCode == itemCode {
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}

// GetAllForecasts returns every stored row, runs in save order
func (r *ForecastRepository) GetAllForecasts() ([]entities.ForecastRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []entities.ForecastRow
	for _, runID := range r.runs {
		rows = append(rows, r.byRun[runID]...)
	}
	return rows, nil
}

// DeleteRun drops one run
func (r *ForecastRepository) DeleteRun(runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byRun[runID]; !exists {
		return nil
	}
	delete(r.byRun, runID)
	for i, id := range r.runs {
		if id == runID {
			r.runs = append(r.runs[:i], r.runs[i+1:]...)
			break
		}
	}
	return nil
}

// Clear drops all runs
func (r *ForecastRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = nil
	r.byRun = make(map[string][]entities.ForecastRow)
	return nil
}
