package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockcast/pkg/application/dto"
	"github.com/vsinha/stockcast/pkg/application/services/dashboard"
	"github.com/vsinha/stockcast/pkg/domain/entities"
)

func testResult() *dto.ForecastResult {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := &entities.ItemSeries{
		ItemCode:    "A001",
		ProductName: "Apple",
		Points: []entities.SeriesPoint{
			{Date: start, Quantity: decimal.NewFromInt(15)},
			{Date: start.AddDate(0, 0, 1), Quantity: decimal.NewFromInt(8)},
		},
	}

	var rows []entities.ForecastRow
	for i := 0; i < 5; i++ {
		rows = append(rows, entities.ForecastRow{
			ItemCode:    "A001",
			ProductName: "Apple",
			Date:        start.AddDate(0, 0, i),
			Yhat:        10 - float64(i),
			YhatLower:   8 - float64(i),
			YhatUpper:   12 - float64(i),
		})
	}

	return &dto.ForecastResult{
		RunID:   "run-1",
		Horizon: 3,
		Rows:    rows,
		Skipped: []entities.Skip{{ItemCode: "B002", ProductName: "Bean", Reason: entities.InsufficientData, Points: 1}},
		Series:  []*entities.ItemSeries{series},
		Stats:   dto.RunStats{Items: 2, ForecastedItems: 1, SkippedItems: 1},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(testResult(), Config{Format: "text", Last: 2, Writer: &buf})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Rows: 5 (2 shown)")
	assert.Contains(t, out, "2024-01-05")
	assert.NotContains(t, out, "2024-01-02")
	assert.Contains(t, out, "insufficient data")
}

func TestGenerate_CSVStdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(testResult(), Config{Format: "csv", ItemCode: "A001", Last: 3, Writer: &buf}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, ForecastHeader, records[0])
	assert.Equal(t, []string{"A001", "Apple", "2024-01-03", "8", "6", "10"}, records[1])
}

func TestGenerate_CSVFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(testResult(), Config{Format: "csv", OutputDir: dir, Last: 1, Writer: &bytes.Buffer{}}))

	forecast, err := os.ReadFile(filepath.Join(dir, "forecast.csv"))
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(forecast)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 6, "files hold every row regardless of -last")

	skips, err := os.ReadFile(filepath.Join(dir, "skips.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(skips), "B002,Bean,insufficient data,1,")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(testResult(), Config{Format: "json", Last: 1, Writer: &buf}))

	var decoded struct {
		RunID   string                 `json:"run_id"`
		Rows    []entities.ForecastRow `json:"rows"`
		Skipped []entities.Skip        `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.Rows, 1)
	require.Len(t, decoded.Skipped, 1)
	assert.Equal(t, entities.InsufficientData, decoded.Skipped[0].Reason)

	dir := t.TempDir()
	require.NoError(t, Generate(testResult(), Config{Format: "json", OutputDir: dir}))
	_, err := os.Stat(filepath.Join(dir, "forecast.json"))
	assert.NoError(t, err)
}

func TestGenerate_HTML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(testResult(), Config{Format: "html", OutputDir: dir}))

	html, err := os.ReadFile(filepath.Join(dir, "report.html"))
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "<svg")
	assert.Contains(t, page, "Apple")
	assert.Contains(t, page, "<polyline")
	assert.Contains(t, page, "insufficient data")

	assert.Error(t, Generate(testResult(), Config{Format: "html"}), "html needs an output directory")
}

func TestGenerate_UnknownFormat(t *testing.T) {
	assert.Error(t, Generate(testResult(), Config{Format: "xml"}))
}

func TestForecastChart(t *testing.T) {
	result := testResult()
	chart := NewForecastChart(result.Series[0].Points, result.Rows)

	assert.Equal(t, 0.0, chart.MinValue, "zero stays in view")
	assert.Equal(t, 15.0, chart.MaxValue)
	assert.InDelta(t, float64(chart.MarginLeft), chart.x(chart.StartTime), 1e-9)
	assert.InDelta(t, float64(chart.Width-chart.MarginRight), chart.x(chart.EndTime), 1e-9)

	svg := chart.GenerateSVG(result.Series[0].Points, result.Rows)
	assert.Equal(t, 2, strings.Count(svg, "<circle"))

	empty := NewForecastChart(nil, nil).GenerateSVG(nil, nil)
	assert.Contains(t, empty, "No forecast")
}

func TestWriteInventoryView(t *testing.T) {
	cover := 4.5
	view := []dashboard.InventoryViewRow{
		{
			InventoryRow:  entities.InventoryRow{ItemCode: "A001", ProductName: "Apple", Inventory: 30, SupplierName: "GreenLeaf"},
			Forecasted:    true,
			NextDemand:    7,
			HorizonDemand: 20,
			DaysOfCover:   &cover,
		},
		{
			InventoryRow: entities.InventoryRow{ItemCode: "B002", ProductName: "Bean", Inventory: 5},
			Skip:         &entities.Skip{ItemCode: "B002", Reason: entities.InsufficientData},
		},
	}

	var buf bytes.Buffer
	WriteInventoryView(&buf, view)
	out := buf.String()
	assert.Contains(t, out, "4.5d")
	assert.Contains(t, out, "20.00")
	assert.Contains(t, out, "insufficient data")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
}
