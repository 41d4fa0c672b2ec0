package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vsinha/stockcast/pkg/application/dto"
	"github.com/vsinha/stockcast/pkg/application/services/dashboard"
	"github.com/vsinha/stockcast/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// ItemCode and Last filter the printed rows; files always hold every row
	ItemCode entities.ItemCode
	Last     int
	// Writer receives stdout output (os.Stdout when nil)
	Writer io.Writer
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// ForecastHeader is the column order of forecast CSV output
var ForecastHeader = []string{"Item Code", "product_name", "ds", "yhat", "yhat_lower", "yhat_upper"}

// SkipHeader is the column order of skips.csv
var SkipHeader = []string{"Item Code", "product_name", "reason", "points", "detail"}

// Generate creates output in the specified format
func Generate(result *dto.ForecastResult, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	case "html":
		return generateHTMLOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.ForecastResult, config Config) error {
	w := config.writer()
	rows := result.Filter(config.ItemCode, config.Last)

	fmt.Fprintf(w, "📊 Forecast Summary\n")
	fmt.Fprintf(w, "===================\n\n")

	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Horizon: %d days\n", result.Horizon)
	fmt.Fprintf(w, "Items: %d forecasted, %d skipped\n", result.Stats.ForecastedItems, result.Stats.SkippedItems)
	fmt.Fprintf(w, "Rows: %d (%d shown)\n", len(result.Rows), len(rows))
	if dropped := result.Stats.Dropped.Total(); dropped > 0 {
		fmt.Fprintf(w, "Dropped input rows: %d\n", dropped)
	}
	fmt.Fprintf(w, "Run Time: %v\n\n", result.Duration)

	if len(rows) > 0 {
		fmt.Fprintf(w, "📈 Forecast:\n")
		fmt.Fprintf(w, "%-16s %-24s %-10s %10s %10s %10s\n",
			"Item Code", "Product", "Date", "yhat", "lower", "upper")
		fmt.Fprintf(w, "%-16s %-24s %-10s %10s %10s %10s\n",
			"----------------", "------------------------", "----------", "----------", "----------", "----------")

		for _, row := range rows {
			fmt.Fprintf(w, "%-16s %-24s %-10s %10.3f %10.3f %10.3f\n",
				row.ItemCode,
				truncate(row.ProductName, 24),
				row.Date.Format("2006-01-02"),
				row.Yhat,
				row.YhatLower,
				row.YhatUpper)
		}
		fmt.Fprintln(w)
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintf(w, "⚠️  Skipped Items:\n")
		fmt.Fprintf(w, "%-16s %-24s %-18s %6s\n", "Item Code", "Product", "Reason", "Points")
		fmt.Fprintf(w, "%-16s %-24s %-18s %6s\n",
			"----------------", "------------------------", "------------------", "------")
		for _, skip := range result.Skipped {
			fmt.Fprintf(w, "%-16s %-24s %-18s %6d\n",
				skip.ItemCode, truncate(skip.ProductName, 24), skip.Reason, skip.Points)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.ForecastResult, config Config) error {
	if config.OutputDir == "" {
		view := *result
		view.Rows = result.Filter(config.ItemCode, config.Last)
		jsonData, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(config.writer(), string(jsonData))
		return nil
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "forecast.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes forecast.csv and skips.csv, or the forecast table
// to stdout when no output directory is set
func generateCSVOutput(result *dto.ForecastResult, config Config) error {
	if config.OutputDir == "" {
		return WriteForecastCSV(config.writer(), result.Filter(config.ItemCode, config.Last))
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	forecastFile := filepath.Join(config.OutputDir, "forecast.csv")
	if err := writeFile(forecastFile, func(w io.Writer) error {
		return WriteForecastCSV(w, result.Rows)
	}); err != nil {
		return fmt.Errorf("failed to write forecast CSV: %w", err)
	}

	skipsFile := filepath.Join(config.OutputDir, "skips.csv")
	if err := writeFile(skipsFile, func(w io.Writer) error {
		return WriteSkipsCSV(w, result.Skipped)
	}); err != nil {
		return fmt.Errorf("failed to write skips CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 CSV results saved to:\n")
		fmt.Fprintf(config.writer(), "  Forecast: %s\n", forecastFile)
		fmt.Fprintf(config.writer(), "  Skips: %s\n", skipsFile)
	}
	return nil
}

// WriteForecastCSV writes rows with ForecastHeader
func WriteForecastCSV(w io.Writer, rows []entities.ForecastRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ForecastHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			string(row.ItemCode),
			row.ProductName,
			row.Date.Format("2006-01-02"),
			formatFloat(row.Yhat),
			formatFloat(row.YhatLower),
			formatFloat(row.YhatUpper),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSkipsCSV writes skips with SkipHeader
func WriteSkipsCSV(w io.Writer, skips []entities.Skip) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(SkipHeader); err != nil {
		return err
	}
	for _, skip := range skips {
		record := []string{
			string(skip.ItemCode),
			skip.ProductName,
			skip.Reason.String(),
			strconv.Itoa(skip.Points),
			skip.Detail,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteInventoryView prints the inventory joined with forecast demand
func WriteInventoryView(w io.Writer, view []dashboard.InventoryViewRow) {
	fmt.Fprintf(w, "📦 Current Inventory:\n")
	fmt.Fprintf(w, "%-16s %-24s %9s %-20s %10s %12s %8s\n",
		"Item Code", "Product", "Inventory", "Supplier", "Next", "Horizon", "Cover")
	fmt.Fprintf(w, "%-16s %-24s %9s %-20s %10s %12s %8s\n",
		"----------------", "------------------------", "---------", "--------------------",
		"----------", "------------", "--------")

	for _, row := range view {
		next, horizon, cover := "-", "-", "-"
		if row.Forecasted {
			next = fmt.Sprintf("%.2f", row.NextDemand)
			horizon = fmt.Sprintf("%.2f", row.HorizonDemand)
		}
		if row.DaysOfCover != nil {
			cover = fmt.Sprintf("%.1fd", *row.DaysOfCover)
		}
		if row.Skip != nil {
			next = row.Skip.Reason.String()
		}

		fmt.Fprintf(w, "%-16s %-24s %9d %-20s %10s %12s %8s\n",
			row.ItemCode,
			truncate(row.ProductName, 24),
			row.Inventory,
			truncate(row.SupplierName, 20),
			next,
			horizon,
			cover)
	}
	fmt.Fprintln(w)
}

func writeFile(filename string, write func(io.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
