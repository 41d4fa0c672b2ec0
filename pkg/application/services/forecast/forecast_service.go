package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/stockcast/pkg/application/dto"
	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/domain/services"
	"github.com/vsinha/stockcast/pkg/infrastructure/events"
	"github.com/vsinha/stockcast/pkg/infrastructure/forecasting/additive"
)

// ServiceConfig holds configuration for the forecast pipeline
type ServiceConfig struct {
	// Workers bounds concurrent per-item fits (0 = runtime.NumCPU())
	Workers int
	// FitTimeout caps a single item's fit (0 = no limit)
	FitTimeout time.Duration
	// EnableCache memoizes fits by item, series content and horizon
	EnableCache bool
	// MaxCacheEntries limits the fit cache size (0 = unlimited)
	MaxCacheEntries int
}

// Options are the per-call inputs of a forecast run
type Options struct {
	// Horizon is the number of future daily periods, required
	Horizon int
	// ClampNonNegative floors yhat and its bounds at zero
	ClampNonNegative bool
	// Names resolves product names for items whose sales rows carry none
	Names services.NameLookup
	// Progress is called after each fitted item with (done, total)
	Progress func(done, total int)
}

// ForecastService implements the per-item forecast pipeline
type ForecastService struct {
	config     ServiceConfig
	cleaner    *services.SalesCleaner
	forecaster services.Forecaster
	publisher  events.Publisher
	logger     *log.Logger

	fitCache   map[dto.ForecastCacheKey]*dto.ForecastCacheEntry
	cacheMutex sync.RWMutex
}

// NewForecastService creates a forecast service with the additive model and default configuration
func NewForecastService() *ForecastService {
	return NewForecastServiceWithConfig(ServiceConfig{
		EnableCache:     true,
		MaxCacheEntries: 1000,
	}, additive.NewModel())
}

// NewForecastServiceWithConfig creates a forecast service with custom configuration
func NewForecastServiceWithConfig(config ServiceConfig, forecaster services.Forecaster) *ForecastService {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	return &ForecastService{
		config:     config,
		cleaner:    services.NewSalesCleaner(),
		forecaster: forecaster,
		logger:     log.Default(),
		fitCache:   make(map[dto.ForecastCacheKey]*dto.ForecastCacheEntry),
	}
}

// WithPublisher attaches an event sink for run lifecycle events
func (s *ForecastService) WithPublisher(publisher events.Publisher) *ForecastService {
	s.publisher = publisher
	return s
}

// WithLogger replaces the service logger
func (s *ForecastService) WithLogger(logger *log.Logger) *ForecastService {
	s.logger = logger
	return s
}

// itemOutcome is the result slot of one partition
type itemOutcome struct {
	rows   []entities.ForecastRow
	skip   *entities.Skip
	cached bool
}

// Forecast runs the pipeline over a raw sales table. A missing required
// column aborts the call with a *entities.SchemaError; per-item failures are
// reported in the result's skip set.
func (s *ForecastService) Forecast(ctx context.Context, table *entities.SalesTable, opts Options) (*dto.ForecastResult, error) {
	if opts.Horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", opts.Horizon)
	}

	started := time.Now()
	set, err := s.cleaner.Build(table)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	s.publish(runID, events.NewForecastRunStartedEvent(runID, opts.Horizon, len(set.Series)))

	outcomes := make([]itemOutcome, len(set.Series))
	var eligible []int
	for i, series := range set.Series {
		if series.Len() < entities.MinSeriesPoints {
			outcomes[i].skip = &entities.Skip{
				ItemCode:    series.ItemCode,
				ProductName: s.resolveName(series, opts.Names),
				Reason:      entities.InsufficientData,
				Points:      series.Len(),
			}
			continue
		}
		eligible = append(eligible, i)
	}

	var progressMu sync.Mutex
	done := 0
	reportProgress := func() {
		if opts.Progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		opts.Progress(done, len(eligible))
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.Workers)
	for _, idx := range eligible {
		idx := idx
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			series := set.Series[idx]
			name := s.resolveName(series, opts.Names)

			points, cached, err := s.forecastItem(groupCtx, series, opts.Horizon)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				outcomes[idx].skip = s.skipFor(series, name, err)
				reportProgress()
				return nil
			}

			outcomes[idx].rows = tagRows(series.ItemCode, name, points, opts.ClampNonNegative)
			outcomes[idx].cached = cached
			reportProgress()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("forecast run %s: %w", runID, err)
	}

	result := &dto.ForecastResult{
		RunID:   runID,
		Horizon: opts.Horizon,
		Series:  set.Series,
		Started: started,
		Stats: dto.RunStats{
			InputRows:    len(table.Rows),
			CleanRecords: set.Records,
			Dropped:      set.Dropped,
			Items:        len(set.Series),
		},
	}

	for i, outcome := range outcomes {
		series := set.Series[i]
		if outcome.skip != nil {
			s.logger.Printf("[WARN] skipping %s: %s", series.ItemCode, outcome.skip)
			result.Skipped = append(result.Skipped, *outcome.skip)
			s.publish(runID, events.NewItemSkippedEvent(runID, *outcome.skip))
			continue
		}
		result.Rows = append(result.Rows, outcome.rows...)
		result.Stats.ForecastedItems++
		if outcome.cached {
			result.Stats.CacheHits++
		}
		s.publish(runID, events.NewItemForecastedEvent(runID, series.ItemCode, len(outcome.rows), outcome.cached))
	}
	result.Stats.SkippedItems = len(result.Skipped)
	result.Duration = time.Since(started)

	s.publish(runID, events.NewForecastRunCompletedEvent(runID, result.Stats.ForecastedItems,
		result.Stats.SkippedItems, len(result.Rows), result.Duration))
	s.logger.Printf("[INFO] run=%s items=%d forecasted=%d skipped=%d rows=%d cache_hits=%d in %v",
		runID, result.Stats.Items, result.Stats.ForecastedItems, result.Stats.SkippedItems,
		len(result.Rows), result.Stats.CacheHits, result.Duration)

	return result, nil
}

// forecastItem returns model output for one series, from cache when possible
func (s *ForecastService) forecastItem(ctx context.Context, series *entities.ItemSeries, horizon int) ([]entities.ForecastPoint, bool, error) {
	cacheKey := dto.ForecastCacheKey{
		ItemCode:   series.ItemCode,
		SeriesHash: series.ContentHash(),
		Horizon:    horizon,
	}

	if s.config.EnableCache {
		s.cacheMutex.RLock()
		cached, exists := s.fitCache[cacheKey]
		s.cacheMutex.RUnlock()
		if exists {
			return cached.Points, true, nil
		}
	}

	points, err := s.fitWithTimeout(ctx, series, horizon)
	if err != nil {
		return nil, false, err
	}

	if s.config.EnableCache {
		s.cacheMutex.Lock()
		s.fitCache[cacheKey] = &dto.ForecastCacheEntry{
			Points:     points,
			ComputedAt: time.Now(),
		}
		s.cacheMutex.Unlock()
		s.cleanCacheIfNeeded()
	}

	return points, false, nil
}

// fitWithTimeout runs the forecaster under the configured per-item deadline.
// The call runs on the worker goroutine, so a forecaster that overruns its
// deadline keeps holding the worker slot until it returns. Late results are
// discarded.
func (s *ForecastService) fitWithTimeout(ctx context.Context, series *entities.ItemSeries, horizon int) ([]entities.ForecastPoint, error) {
	if s.config.FitTimeout <= 0 {
		return s.forecaster.Forecast(ctx, series, horizon)
	}

	fitCtx, cancel := context.WithTimeout(ctx, s.config.FitTimeout)
	defer cancel()

	points, err := s.forecaster.Forecast(fitCtx, series, horizon)
	if ctxErr := fitCtx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return points, err
}

func (s *ForecastService) skipFor(series *entities.ItemSeries, name string, err error) *entities.Skip {
	skip := &entities.Skip{
		ItemCode:    series.ItemCode,
		ProductName: name,
		Reason:      entities.FitFailure,
		Detail:      err.Error(),
		Points:      series.Len(),
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		skip.Reason = entities.FitTimeout
	case errors.Is(err, additive.ErrInsufficientData):
		skip.Reason = entities.InsufficientData
	}
	return skip
}

func (s *ForecastService) resolveName(series *entities.ItemSeries, names services.NameLookup) string {
	if series.ProductName != "" {
		return series.ProductName
	}
	if names != nil {
		if name, ok := names.ProductName(series.ItemCode); ok {
			return name
		}
	}
	return ""
}

func (s *ForecastService) publish(runID string, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.AppendEvent(runID, event); err != nil {
		s.logger.Printf("[WARN] failed to publish %s event: %v", event.Type(), err)
	}
}

// CacheSize returns the number of memoized fits
func (s *ForecastService) CacheSize() int {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()
	return len(s.fitCache)
}

// cleanCacheIfNeeded removes the oldest cache entry while the cache exceeds its limit
func (s *ForecastService) cleanCacheIfNeeded() {
	if s.config.MaxCacheEntries <= 0 {
		return
	}

	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	for len(s.fitCache) > s.config.MaxCacheEntries {
		var oldestTime time.Time
		var oldestKey dto.ForecastCacheKey

		for key, value := range s.fitCache {
			if oldestTime.IsZero() || value.ComputedAt.Before(oldestTime) {
				oldestTime = value.ComputedAt
				oldestKey = key
			}
		}

		delete(s.fitCache, oldestKey)
	}
}

// tagRows copies model output into rows owned by the result
func tagRows(code entities.ItemCode, name string, points []entities.ForecastPoint, clamp bool) []entities.ForecastRow {
	rows := make([]entities.ForecastRow, len(points))
	for i, p := range points {
		row := entities.ForecastRow{
			ItemCode:    code,
			ProductName: name,
			Date:        p.Date,
			Yhat:        p.Yhat,
			YhatLower:   p.YhatLower,
			YhatUpper:   p.YhatUpper,
		}
		if clamp {
			row.Yhat = math.Max(0, row.Yhat)
			row.YhatLower = math.Max(0, row.YhatLower)
			row.YhatUpper = math.Max(0, row.YhatUpper)
		}
		rows[i] = row
	}
	return rows
}
