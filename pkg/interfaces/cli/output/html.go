package output

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/vsinha/stockcast/pkg/application/dto"
	"github.com/vsinha/stockcast/pkg/domain/entities"
)

//go:embed templates/*.html
var templateFS embed.FS

// ItemReport is one item section of the HTML report
type ItemReport struct {
	ItemCode    entities.ItemCode
	ProductName string
	Chart       template.HTML
	Rows        []entities.ForecastRow
}

// ReportData contains all data for rendering the HTML template
type ReportData struct {
	RunID       string
	Horizon     int
	Stats       dto.RunStats
	Items       []ItemReport
	Skipped     []entities.Skip
	Duration    string
	GeneratedAt string
}

// GenerateHTML renders the static forecast report
func GenerateHTML(result *dto.ForecastResult, config Config) (string, error) {
	data := ReportData{
		RunID:       result.RunID,
		Horizon:     result.Horizon,
		Stats:       result.Stats,
		Skipped:     result.Skipped,
		Duration:    formatDuration(result.Duration),
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
	}

	for _, series := range result.Series {
		if config.ItemCode != "" && series.ItemCode != config.ItemCode {
			continue
		}
		rows := result.RowsFor(series.ItemCode)
		if len(rows) == 0 {
			continue
		}

		chart := NewForecastChart(series.Points, rows)
		data.Items = append(data.Items, ItemReport{
			ItemCode:    series.ItemCode,
			ProductName: rows[0].ProductName,
			// Built from numbers and dates only
			Chart: template.HTML(chart.GenerateSVG(series.Points, rows)),
			Rows:  dto.FilterRows(rows, config.Last),
		})
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "    🎨 Rendering %d item charts...\n", len(data.Items))
	}

	tmpl, err := template.New("report.html").Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.Format("2006-01-02") },
		"num":  func(v float64) string { return fmt.Sprintf("%.3f", v) },
	}).ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// generateHTMLOutput writes report.html to the output directory
func generateHTMLOutput(result *dto.ForecastResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for HTML format")
	}

	html, err := GenerateHTML(result, config)
	if err != nil {
		return fmt.Errorf("failed to generate HTML report: %w", err)
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "report.html")
	if err := os.WriteFile(filename, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "🌐 HTML report saved to: %s\n", filename)
	}
	return nil
}
