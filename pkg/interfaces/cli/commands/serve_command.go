package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vsinha/stockcast/pkg/application/services/dashboard"
	"github.com/vsinha/stockcast/pkg/application/services/forecast"
	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/domain/repositories"
	"github.com/vsinha/stockcast/pkg/infrastructure/forecasting/additive"
	"github.com/vsinha/stockcast/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/stockcast/pkg/infrastructure/repositories/mysql"
	"github.com/vsinha/stockcast/pkg/interfaces/api"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Addr       string
	Horizon    int
	Workers    int
	FitTimeout time.Duration
	SessionTTL time.Duration
	Clamp      bool
	DSN        string
	Table      string
	Verbose    bool
	Help       bool
}

// ServeCommand runs the dashboard HTTP API
type ServeCommand struct {
	config ServeConfig
	logger *log.Logger
}

// NewServeCommand creates a new serve command
func NewServeCommand(config ServeConfig) *ServeCommand {
	return &ServeCommand{
		config: config,
		logger: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	}
}

// Execute serves until ctx is cancelled
func (c *ServeCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}
	if c.config.Horizon <= 0 {
		return fmt.Errorf("validation error: horizon must be positive, got %d", c.config.Horizon)
	}

	service := forecast.NewForecastServiceWithConfig(forecast.ServiceConfig{
		Workers:         c.config.Workers,
		FitTimeout:      c.config.FitTimeout,
		EnableCache:     true,
		MaxCacheEntries: 10000,
	}, additive.NewModel()).WithLogger(c.logger)

	registry := dashboard.NewRegistry(
		dashboard.SessionConfig{Horizon: c.config.Horizon, ClampNonNegative: c.config.Clamp},
		service,
		c.config.SessionTTL,
	).WithLogger(c.logger)

	if c.config.DSN != "" {
		db, store, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		registry.WithRepositoryFactory(archivingRepositories(store))
		c.logger.Printf("[INFO] archiving forecast runs to table %s", c.tableName())
	}

	if c.config.Verbose {
		c.logger.Printf("[INFO] horizon=%d workers=%d session-ttl=%v", c.config.Horizon, c.config.Workers, c.config.SessionTTL)
	}

	return api.NewServer(registry, c.logger).Listen(ctx, c.config.Addr)
}

func (c *ServeCommand) tableName() string {
	if c.config.Table == "" {
		return mysql.DefaultTable
	}
	return c.config.Table
}

func (c *ServeCommand) openStore(ctx context.Context) (*sql.DB, *mysql.ForecastStore, error) {
	db, err := mysql.Open(c.config.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open forecast database: %w", err)
	}
	store, err := mysql.NewForecastStore(db, c.config.Table, c.logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, store, nil
}

// archivingForecastRepository serves reads from memory and copies every
// saved run to an archive. The archive is written first so a failed archive
// leaves memory untouched. DeleteRun and Clear only drop in-memory rows.
type archivingForecastRepository struct {
	*memory.ForecastRepository
	archive repositories.ForecastRepository
}

var _ repositories.ForecastRepository = (*archivingForecastRepository)(nil)

func (r *archivingForecastRepository) SaveForecast(runID string, rows []entities.ForecastRow) error {
	if err := r.archive.SaveForecast(runID, rows); err != nil {
		return fmt.Errorf("archive run %s: %w", runID, err)
	}
	return r.ForecastRepository.SaveForecast(runID, rows)
}

func archivingRepositories(archive repositories.ForecastRepository) dashboard.RepositoryFactory {
	return func() (repositories.InventoryRepository, repositories.ForecastRepository) {
		return memory.NewInventoryRepository(0), &archivingForecastRepository{
			ForecastRepository: memory.NewForecastRepository(),
			archive:            archive,
		}
	}
}

// showHelp displays the help message
func (c *ServeCommand) showHelp() {
	fmt.Printf(`Serve the inventory dashboard API

USAGE:
    stockcast serve [options]

OPTIONS:
    -addr <addr>         Listen address (default: :3000)
    -horizon <n>         Number of future days to forecast (default: 30)
    -workers <n>         Concurrent item fits (default: number of CPUs)
    -fit-timeout <d>     Per-item fit limit, e.g. 2s (default: none)
    -session-ttl <d>     Close sessions idle this long, 0 disables (default: 30m)
    -clamp               Floor forecasts at zero
    -dsn <dsn>           Also store every run in MySQL
    -table <name>        MySQL table name (default: forecast_rows)
    -verbose             Enable verbose output
    -help                Show this help message

Settings may also come from a .env file or STOCKCAST_* environment variables.

ENDPOINTS (under /api/v1):
    GET    /health
    POST   /sessions                      create a session
    DELETE /sessions/:id                  close a session
    POST   /sessions/:id/stock            upload stock CSV
    POST   /sessions/:id/sales            upload sales CSV and forecast
    GET    /sessions/:id/inventory        stock with demand and cover
    GET    /sessions/:id/selection        selected item
    PUT    /sessions/:id/selection        select an item
    GET    /sessions/:id/items/:code/sales
    GET    /sessions/:id/forecast?item=&last=
    GET    /sessions/:id/skips
`)
}
