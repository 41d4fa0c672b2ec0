// Package dashboard holds per-user inventory dashboard state: the uploaded
// stock table, the latest forecast run and the item selection.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/vsinha/stockcast/pkg/application/dto"
	"github.com/vsinha/stockcast/pkg/application/services/forecast"
	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/domain/repositories"
)

var (
	ErrSessionClosed   = errors.New("session closed")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownItem     = errors.New("unknown item")
	ErrNoSales         = errors.New("no sales uploaded")
)

// SessionConfig holds the forecast options applied on every sales upload
type SessionConfig struct {
	Horizon          int
	ClampNonNegative bool
}

// ForecastFilter selects forecast rows. Zero values mean "all".
type ForecastFilter struct {
	ItemCode entities.ItemCode
	// Last keeps only the trailing N rows of each item
	Last int
}

// InventoryViewRow is a stock row joined with its forecast summary
type InventoryViewRow struct {
	entities.InventoryRow
	Forecasted    bool           `json:"forecasted"`
	NextDemand    float64        `json:"next_demand"`
	HorizonDemand float64        `json:"horizon_demand"`
	DaysOfCover   *float64       `json:"days_of_cover,omitempty"`
	Skip          *entities.Skip `json:"skip,omitempty"`
}

// Session is one user's dashboard state. All methods are safe for concurrent use.
type Session struct {
	id        string
	config    SessionConfig
	service   *forecast.ForecastService
	inventory repositories.InventoryRepository
	forecasts repositories.ForecastRepository

	mu         sync.RWMutex
	result     *dto.ForecastResult
	lastDates  map[entities.ItemCode]time.Time
	selected   entities.ItemCode
	closed     bool
	lastAccess time.Time
}

// NewSession creates a session over the given repositories
func NewSession(
	id string,
	config SessionConfig,
	service *forecast.ForecastService,
	inventory repositories.InventoryRepository,
	forecasts repositories.ForecastRepository,
) *Session {
	return &Session{
		id:         id,
		config:     config,
		service:    service,
		inventory:  inventory,
		forecasts:  forecasts,
		lastDates:  make(map[entities.ItemCode]time.Time),
		lastAccess: time.Now(),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// LastAccess returns when the session was last used
func (s *Session) LastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

// touch must be called with s.mu held for writing
func (s *Session) touch() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.lastAccess = time.Now()
	return nil
}

func (s *Session) touchRead() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touch()
}

// UploadStock replaces the inventory table
func (s *Session) UploadStock(rows []*entities.InventoryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return err
	}

	if err := s.inventory.LoadInventory(rows); err != nil {
		return fmt.Errorf("upload stock: %w", err)
	}
	if s.selected != "" {
		if _, err := s.inventory.GetInventoryRow(s.selected); err != nil {
			s.selected = ""
		}
	}
	return nil
}

// UploadSales replaces the sales table and recomputes the forecast. On error
// the previous forecast stays in place.
func (s *Session) UploadSales(ctx context.Context, table *entities.SalesTable) (*dto.ForecastResult, error) {
	if err := s.touchRead(); err != nil {
		return nil, err
	}

	// Fit outside the lock so reads keep working during a long run
	result, err := s.service.Forecast(ctx, table, forecast.Options{
		Horizon:          s.config.Horizon,
		ClampNonNegative: s.config.ClampNonNegative,
		Names:            s.inventory,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return nil, err
	}

	// Store the new run beside the old one and drop the old one only once the
	// save succeeded, so a failed upload leaves the previous run readable.
	if err := s.forecasts.SaveForecast(result.RunID, result.Rows); err != nil {
		return nil, fmt.Errorf("save forecast: %w", err)
	}
	if s.result != nil {
		if err := s.forecasts.DeleteRun(s.result.RunID); err != nil {
			if rollbackErr := s.forecasts.DeleteRun(result.RunID); rollbackErr != nil {
				return nil, fmt.Errorf("replace forecast: %w", errors.Join(err, rollbackErr))
			}
			return nil, fmt.Errorf("replace forecast: %w", err)
		}
	}

	lastDates := make(map[entities.ItemCode]time.Time, len(result.Series))
	for _, series := range result.Series {
		lastDates[series.ItemCode] = series.End()
	}
	s.result = result
	s.lastDates = lastDates
	return result, nil
}

// Inventory returns the stock rows in upload order
func (s *Session) Inventory() ([]*entities.InventoryRow, error) {
	if err := s.touchRead(); err != nil {
		return nil, err
	}
	return s.inventory.GetAllInventory()
}

// Select makes code the selected item
func (s *Session) Select(code entities.ItemCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return err
	}

	code = entities.NormalizeItemCode(string(code))
	if _, err := s.inventory.GetInventoryRow(code); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownItem, code)
	}
	s.selected = code
	return nil
}

// Selected returns the selected stock row, defaulting to the first row when
// nothing valid is selected. ok is false only when there is no inventory.
func (s *Session) Selected() (*entities.InventoryRow, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return nil, false, err
	}

	if s.selected != "" {
		if row, err := s.inventory.GetInventoryRow(s.selected); err == nil {
			return row, true, nil
		}
	}
	rows, err := s.inventory.GetAllInventory()
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// SalesSeries returns the aggregated daily sales of one item
func (s *Session) SalesSeries(code entities.ItemCode) ([]entities.SeriesPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return nil, err
	}
	if s.result == nil {
		return nil, ErrNoSales
	}

	series, ok := s.result.SeriesFor(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, code)
	}
	points := make([]entities.SeriesPoint, len(series.Points))
	copy(points, series.Points)
	return points, nil
}

// Forecast returns a copy of the stored forecast rows matching filter
func (s *Session) Forecast(filter ForecastFilter) ([]entities.ForecastRow, error) {
	if err := s.touchRead(); err != nil {
		return nil, err
	}

	// Held so a concurrent upload never shows both runs at once
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rows []entities.ForecastRow
		err  error
	)
	if filter.ItemCode != "" {
		rows, err = s.forecasts.GetForecast(filter.ItemCode)
	} else {
		rows, err = s.forecasts.GetAllForecasts()
	}
	if err != nil {
		return nil, err
	}
	return dto.FilterRows(rows, filter.Last), nil
}

// Skips returns the items excluded from the latest run
func (s *Session) Skips() ([]entities.Skip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return nil, err
	}
	if s.result == nil {
		return nil, nil
	}
	return append([]entities.Skip(nil), s.result.Skipped...), nil
}

// Result returns a copy of the latest forecast run, nil before the first
// sales upload
func (s *Session) Result() *dto.ForecastResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result.Clone()
}

// InventoryView joins every stock row with the forecast of the same item
func (s *Session) InventoryView() ([]InventoryViewRow, error) {
	if err := s.touchRead(); err != nil {
		return nil, err
	}

	rows, err := s.inventory.GetAllInventory()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	result := s.result
	lastDates := s.lastDates
	s.mu.RUnlock()

	view := make([]InventoryViewRow, 0, len(rows))
	for _, row := range rows {
		v := InventoryViewRow{InventoryRow: *row}
		if result != nil {
			if skip, ok := result.SkipFor(row.ItemCode); ok {
				v.Skip = &skip
			}
			if last, ok := lastDates[row.ItemCode]; ok {
				summarize(&v, result.RowsFor(row.ItemCode), last)
			}
		}
		view = append(view, v)
	}
	return view, nil
}

// Close releases the session's data. Later calls return ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.result = nil
	s.lastDates = nil
	return s.forecasts.Clear()
}

// summarize fills demand figures from rows dated after the last sales day.
// Negative point estimates count as zero demand.
func summarize(v *InventoryViewRow, rows []entities.ForecastRow, lastSale time.Time) {
	future := 0
	for _, row := range rows {
		if !row.Date.After(lastSale) {
			continue
		}
		demand := math.Max(0, row.Yhat)
		if future == 0 {
			v.NextDemand = demand
		}
		v.HorizonDemand += demand
		future++
	}
	if future == 0 {
		return
	}

	v.Forecasted = true
	if v.HorizonDemand > 0 {
		daily := v.HorizonDemand / float64(future)
		cover := float64(v.Inventory) / daily
		v.DaysOfCover = &cover
	}
}
