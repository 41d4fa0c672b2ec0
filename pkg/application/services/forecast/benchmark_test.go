package forecast

import (
	"context"
	"fmt"
	"math"
	"testing"

	fixtures "github.com/vsinha/stockcast/pkg/application/services/testing"
	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/infrastructure/forecasting/additive"
)

// Helper to build a table of items with a year of weekly-seasonal sales
func benchmarkTable(items, days int) *entities.SalesTable {
	builder := fixtures.NewSalesTableBuilder()
	for i := 0; i < items; i++ {
		code := fmt.Sprintf("1029%011d", i)
		base := 2 + float64(i%7)
		builder.Daily(code, fmt.Sprintf("Item %d", i), fixtures.Start, days, func(d int) float64 {
			return base + math.Sin(2*math.Pi*float64(d)/7) + 0.01*float64(d)
		})
	}
	return builder.Build()
}

func benchmarkForecast(b *testing.B, config ServiceConfig, items int) {
	ctx := context.Background()
	table := benchmarkTable(items, 365)
	service := newTestService(config, additive.NewModel())
	opts := Options{Horizon: 30}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := service.Forecast(ctx, table, opts); err != nil {
			b.Fatalf("Forecast failed: %v", err)
		}
	}
}

func BenchmarkForecastService_SingleItem(b *testing.B) {
	benchmarkForecast(b, ServiceConfig{Workers: 1}, 1)
}

func BenchmarkForecastService_Sequential(b *testing.B) {
	benchmarkForecast(b, ServiceConfig{Workers: 1}, 50)
}

func BenchmarkForecastService_Parallel(b *testing.B) {
	benchmarkForecast(b, ServiceConfig{}, 50)
}

func BenchmarkForecastService_Cached(b *testing.B) {
	benchmarkForecast(b, ServiceConfig{EnableCache: true, MaxCacheEntries: 100}, 50)
}
