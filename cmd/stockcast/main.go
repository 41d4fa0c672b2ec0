package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vsinha/stockcast/pkg/config"
	"github.com/vsinha/stockcast/pkg/interfaces/cli/commands"
)

type command interface {
	Execute(ctx context.Context) error
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	defaults, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var cmd command
	switch name, args := os.Args[1], os.Args[2:]; name {
	case "forecast":
		cmd = forecastCommand(defaults, args)
	case "inventory":
		cmd = inventoryCommand(defaults, args)
	case "serve":
		cmd = serveCommand(defaults, args)
	case "generate":
		cmd = generateCommand(args)
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func forecastCommand(defaults config.Config, args []string) command {
	fs := flag.NewFlagSet("forecast", flag.ExitOnError)
	var (
		salesFile  = fs.String("sales", "", "Path to sales CSV file")
		stockFile  = fs.String("stock", "", "Path to stock CSV file (optional, for names)")
		horizon    = fs.Int("horizon", defaults.Horizon, "Number of future days to forecast")
		workers    = fs.Int("workers", defaults.Workers, "Concurrent item fits (0 = number of CPUs)")
		fitTimeout = fs.Duration("fit-timeout", defaults.FitTimeout, "Per-item fit limit (0 = none)")
		format     = fs.String("format", "text", "Output format: text, json, csv, html")
		outputDir  = fs.String("output", "", "Output directory for results (optional)")
		last       = fs.Int("last", 0, "Show only the trailing n rows per item")
		item       = fs.String("item", "", "Show only this item code")
		clamp      = fs.Bool("clamp", false, "Floor forecasts at zero")
		dsn        = fs.String("dsn", defaults.MySQLDSN, "Store the run in MySQL")
		table      = fs.String("table", "", "MySQL table name")
		progress   = fs.Bool("progress", false, "Show a progress bar")
		verbose    = fs.Bool("verbose", false, "Enable verbose output")
		help       = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(args)

	return commands.NewForecastCommand(commands.ForecastConfig{
		SalesFile:  *salesFile,
		StockFile:  *stockFile,
		Horizon:    *horizon,
		Workers:    *workers,
		FitTimeout: *fitTimeout,
		Format:     *format,
		OutputDir:  *outputDir,
		Last:       *last,
		ItemCode:   *item,
		Clamp:      *clamp,
		DSN:        *dsn,
		Table:      *table,
		Progress:   *progress,
		Verbose:    *verbose,
		Help:       *help,
	})
}

func inventoryCommand(defaults config.Config, args []string) command {
	fs := flag.NewFlagSet("inventory", flag.ExitOnError)
	var (
		stockFile = fs.String("stock", "", "Path to stock CSV file")
		salesFile = fs.String("sales", "", "Path to sales CSV file (optional)")
		horizon   = fs.Int("horizon", defaults.Horizon, "Number of future days to forecast")
		workers   = fs.Int("workers", defaults.Workers, "Concurrent item fits (0 = number of CPUs)")
		clamp     = fs.Bool("clamp", false, "Floor forecasts at zero")
		verbose   = fs.Bool("verbose", false, "Enable verbose output")
		help      = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(args)

	return commands.NewInventoryCommand(commands.InventoryConfig{
		StockFile: *stockFile,
		SalesFile: *salesFile,
		Horizon:   *horizon,
		Workers:   *workers,
		Clamp:     *clamp,
		Verbose:   *verbose,
		Help:      *help,
	})
}

func serveCommand(defaults config.Config, args []string) command {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		addr       = fs.String("addr", defaults.Addr, "Listen address")
		horizon    = fs.Int("horizon", defaults.Horizon, "Number of future days to forecast")
		workers    = fs.Int("workers", defaults.Workers, "Concurrent item fits (0 = number of CPUs)")
		fitTimeout = fs.Duration("fit-timeout", defaults.FitTimeout, "Per-item fit limit (0 = none)")
		sessionTTL = fs.Duration("session-ttl", defaults.SessionTTL, "Idle session lifetime (0 = forever)")
		clamp      = fs.Bool("clamp", false, "Floor forecasts at zero")
		dsn        = fs.String("dsn", defaults.MySQLDSN, "Also store every run in MySQL")
		table      = fs.String("table", "", "MySQL table name")
		verbose    = fs.Bool("verbose", false, "Enable verbose output")
		help       = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(args)

	return commands.NewServeCommand(commands.ServeConfig{
		Addr:       *addr,
		Horizon:    *horizon,
		Workers:    *workers,
		FitTimeout: *fitTimeout,
		SessionTTL: *sessionTTL,
		Clamp:      *clamp,
		DSN:        *dsn,
		Table:      *table,
		Verbose:    *verbose,
		Help:       *help,
	})
}

func generateCommand(args []string) command {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		items     = fs.Int("items", 5, "Number of catalog items")
		days      = fs.Int("days", 90, "Days of sales history")
		start     = fs.String("start", "2023-01-01", "First sales date (YYYY-MM-DD)")
		returns   = fs.Float64("returns", 0.02, "Probability of a return transaction")
		outputDir = fs.String("output", "./sample", "Output directory")
		seed      = fs.Int64("seed", 0, "Random seed (0 = time-based)")
		verbose   = fs.Bool("verbose", false, "Enable verbose output")
		help      = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(args)

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -start %q: %v\n", *start, err)
		os.Exit(2)
	}

	return commands.NewGenerateCommand(commands.GenerateConfig{
		Items:     *items,
		Days:      *days,
		Start:     startDate,
		Returns:   *returns,
		OutputDir: *outputDir,
		Seed:      *seed,
		Verbose:   *verbose,
		Help:      *help,
	})
}

func usage() {
	fmt.Print(`Stockcast - per-item daily sales forecasts for inventory planning

USAGE:
    stockcast <command> [options]

COMMANDS:
    forecast     Forecast every item in a sales CSV
    inventory    Show stock with forecast demand and days of cover
    serve        Serve the dashboard HTTP API
    generate     Write sample sales and stock CSV files

Run "stockcast <command> -help" for command options.
`)
}
