package output

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vsinha/stockcast/pkg/domain/entities"
)

// ForecastChart renders one item's sales history and forecast band as SVG
type ForecastChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	StartTime    time.Time
	EndTime      time.Time
	MinValue     float64
	MaxValue     float64
}

// NewForecastChart sizes a chart to cover history and rows
func NewForecastChart(history []entities.SeriesPoint, rows []entities.ForecastRow) *ForecastChart {
	chart := &ForecastChart{
		Width:        720,
		Height:       240,
		MarginLeft:   50,
		MarginTop:    20,
		MarginRight:  20,
		MarginBottom: 30,
	}
	if len(rows) == 0 {
		return chart
	}

	chart.StartTime = rows[0].Date
	chart.EndTime = rows[len(rows)-1].Date
	chart.MinValue = math.Inf(1)
	chart.MaxValue = math.Inf(-1)

	for _, row := range rows {
		chart.MinValue = math.Min(chart.MinValue, row.YhatLower)
		chart.MaxValue = math.Max(chart.MaxValue, row.YhatUpper)
	}
	for _, p := range history {
		v := p.Quantity.InexactFloat64()
		chart.MinValue = math.Min(chart.MinValue, v)
		chart.MaxValue = math.Max(chart.MaxValue, v)
		if p.Date.Before(chart.StartTime) {
			chart.StartTime = p.Date
		}
	}

	// Keep zero in view for demand charts and avoid a flat range
	chart.MinValue = math.Min(chart.MinValue, 0)
	if chart.MaxValue <= chart.MinValue {
		chart.MaxValue = chart.MinValue + 1
	}
	if !chart.EndTime.After(chart.StartTime) {
		chart.EndTime = chart.StartTime.Add(24 * time.Hour)
	}
	return chart
}

func (fc *ForecastChart) x(t time.Time) float64 {
	chartWidth := float64(fc.Width - fc.MarginLeft - fc.MarginRight)
	total := fc.EndTime.Sub(fc.StartTime)
	return float64(fc.MarginLeft) + float64(t.Sub(fc.StartTime))/float64(total)*chartWidth
}

func (fc *ForecastChart) y(v float64) float64 {
	chartHeight := float64(fc.Height - fc.MarginTop - fc.MarginBottom)
	return float64(fc.MarginTop) + (fc.MaxValue-v)/(fc.MaxValue-fc.MinValue)*chartHeight
}

// GenerateSVG draws the interval band, the yhat line and history points
func (fc *ForecastChart) GenerateSVG(history []entities.SeriesPoint, rows []entities.ForecastRow) string {
	var svg strings.Builder

	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		fc.Width, fc.Height, fc.Width, fc.Height))
	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, fc.Width, fc.Height))

	if len(rows) == 0 {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="empty" text-anchor="middle">No forecast</text>`,
			fc.Width/2, fc.Height/2))
		svg.WriteString(`</svg>`)
		return svg.String()
	}

	fc.drawAxes(&svg)

	// Interval band: upper bounds left to right, lower bounds back
	var band strings.Builder
	for _, row := range rows {
		band.WriteString(fmt.Sprintf("%.1f,%.1f ", fc.x(row.Date), fc.y(row.YhatUpper)))
	}
	for i := len(rows) - 1; i >= 0; i-- {
		band.WriteString(fmt.Sprintf("%.1f,%.1f ", fc.x(rows[i].Date), fc.y(rows[i].YhatLower)))
	}
	svg.WriteString(fmt.Sprintf(`<polygon points="%s" class="band"/>`, strings.TrimSpace(band.String())))

	var line strings.Builder
	for _, row := range rows {
		line.WriteString(fmt.Sprintf("%.1f,%.1f ", fc.x(row.Date), fc.y(row.Yhat)))
	}
	svg.WriteString(fmt.Sprintf(`<polyline points="%s" class="yhat"/>`, strings.TrimSpace(line.String())))

	for _, p := range history {
		svg.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2" class="actual"/>`,
			fc.x(p.Date), fc.y(p.Quantity.InexactFloat64())))
	}

	svg.WriteString(`</svg>`)
	return svg.String()
}

// drawAxes draws the value axis with min/max labels and date labels at both ends
func (fc *ForecastChart) drawAxes(svg *strings.Builder) {
	bottom := fc.Height - fc.MarginBottom
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		fc.MarginLeft, bottom, fc.Width-fc.MarginRight, bottom))
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		fc.MarginLeft, fc.MarginTop, fc.MarginLeft, bottom))

	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" class="axis-label" text-anchor="end">%.1f</text>`,
		fc.MarginLeft-4, fc.y(fc.MaxValue)+4, fc.MaxValue))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" class="axis-label" text-anchor="end">%.1f</text>`,
		fc.MarginLeft-4, fc.y(fc.MinValue), fc.MinValue))

	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="axis-label">%s</text>`,
		fc.MarginLeft, bottom+16, fc.StartTime.Format("2006-01-02")))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="axis-label" text-anchor="end">%s</text>`,
		fc.Width-fc.MarginRight, bottom+16, fc.EndTime.Format("2006-01-02")))
}
