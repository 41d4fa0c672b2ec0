package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vsinha/stockcast/pkg/application/services/dashboard"
	"github.com/vsinha/stockcast/pkg/application/services/forecast"
	"github.com/vsinha/stockcast/pkg/infrastructure/forecasting/additive"
	"github.com/vsinha/stockcast/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/stockcast/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/stockcast/pkg/interfaces/cli/output"
)

// InventoryConfig holds configuration for the inventory command
type InventoryConfig struct {
	StockFile string
	SalesFile string
	Horizon   int
	Workers   int
	Clamp     bool
	Writer    io.Writer
	Verbose   bool
	Help      bool
}

// InventoryCommand prints the stock table, with forecast demand and days of
// cover when sales are supplied
type InventoryCommand struct {
	config InventoryConfig
}

// NewInventoryCommand creates a new inventory command
func NewInventoryCommand(config InventoryConfig) *InventoryCommand {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	return &InventoryCommand{config: config}
}

// Execute runs the inventory command
func (c *InventoryCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}
	if c.config.StockFile == "" {
		return fmt.Errorf("validation error: must specify -stock CSV file")
	}
	if c.config.Horizon <= 0 {
		return fmt.Errorf("validation error: horizon must be positive, got %d", c.config.Horizon)
	}

	loader := csv.NewLoader()
	rows, err := loader.LoadInventoryFile(c.config.StockFile)
	if err != nil {
		return fmt.Errorf("error loading stock: %w", err)
	}

	service := forecast.NewForecastServiceWithConfig(forecast.ServiceConfig{Workers: c.config.Workers}, additive.NewModel())
	session := dashboard.NewSession("cli",
		dashboard.SessionConfig{Horizon: c.config.Horizon, ClampNonNegative: c.config.Clamp},
		service,
		memory.NewInventoryRepository(len(rows)),
		memory.NewForecastRepository(),
	)
	defer session.Close()

	if err := session.UploadStock(rows); err != nil {
		return fmt.Errorf("error loading stock: %w", err)
	}

	if c.config.SalesFile != "" {
		table, err := loader.LoadSalesTableFile(c.config.SalesFile)
		if err != nil {
			return fmt.Errorf("error loading sales: %w", err)
		}
		if c.config.Verbose {
			fmt.Fprintf(c.config.Writer, "🔄 Forecasting %d days ahead...\n", c.config.Horizon)
		}
		result, err := session.UploadSales(ctx, table)
		if err != nil {
			return fmt.Errorf("error running forecast: %w", err)
		}
		if c.config.Verbose {
			fmt.Fprintf(c.config.Writer, "✅ %d items forecasted, %d skipped\n\n",
				result.Stats.ForecastedItems, result.Stats.SkippedItems)
		}
	}

	view, err := session.InventoryView()
	if err != nil {
		return err
	}
	output.WriteInventoryView(c.config.Writer, view)
	return nil
}

// showHelp displays the help message
func (c *InventoryCommand) showHelp() {
	fmt.Printf(`Show the stock table with forecast demand and days of cover

USAGE:
    stockcast inventory -stock <file> [-sales <file>] [options]

OPTIONS:
    -stock <file>     Path to stock CSV file (required)
    -sales <file>     Path to sales CSV file; adds demand and cover columns
    -horizon <n>      Number of future days to forecast (default: 30)
    -workers <n>      Concurrent item fits (default: number of CPUs)
    -clamp            Floor forecasts at zero
    -verbose          Enable verbose output
    -help             Show this help message
`)
}
