package additive

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/stockcast/pkg/domain/entities"
)

var origin = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesFrom(values func(i int) float64, n int) *entities.ItemSeries {
	points := make([]entities.SeriesPoint, n)
	for i := 0; i < n; i++ {
		points[i] = entities.SeriesPoint{
			Date:     origin.AddDate(0, 0, i),
			Quantity: decimal.NewFromFloat(values(i)),
		}
	}
	return &entities.ItemSeries{ItemCode: "TEST", Points: points}
}

func TestModel_RecoversLinearTrend(t *testing.T) {
	model := NewModel()
	series := seriesFrom(func(i int) float64 { return 10 + 0.5*float64(i) }, 60)

	points, err := model.Forecast(context.Background(), series, 0)
	require.NoError(t, err)
	require.Len(t, points, 60)

	for i, p := range points {
		want := 10 + 0.5*float64(i)
		assert.InDelta(t, want, p.Yhat, 0.5, "day %d", i)
	}
}

func TestModel_HorizonExtendsHistory(t *testing.T) {
	model := NewModel()
	series := seriesFrom(func(i int) float64 { return float64(5 + i%3) }, 20)

	points, err := model.Forecast(context.Background(), series, 30)
	require.NoError(t, err)
	require.Len(t, points, 50)

	assert.Equal(t, series.Start(), points[0].Date)
	assert.Equal(t, series.End().AddDate(0, 0, 30), points[len(points)-1].Date)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].Date.After(points[i-1].Date))
	}
}

func TestModel_TwoPointSeries(t *testing.T) {
	model := NewModel()
	series := &entities.ItemSeries{ItemCode: "A001", Points: []entities.SeriesPoint{
		{Date: origin, Quantity: decimal.NewFromInt(15)},
		{Date: origin.AddDate(0, 0, 1), Quantity: decimal.NewFromInt(8)},
	}}

	points, err := model.Forecast(context.Background(), series, 7)
	require.NoError(t, err)
	require.Len(t, points, 9)
	for _, p := range points {
		assert.False(t, math.IsNaN(p.Yhat))
		assert.LessOrEqual(t, p.YhatLower, p.Yhat)
		assert.GreaterOrEqual(t, p.YhatUpper, p.Yhat)
	}
}

func TestModel_Deterministic(t *testing.T) {
	model := NewModel()
	series := seriesFrom(func(i int) float64 { return 3 + math.Sin(float64(i)) }, 40)

	first, err := model.Forecast(context.Background(), series, 14)
	require.NoError(t, err)
	second, err := model.Forecast(context.Background(), series, 14)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestModel_WeeklySeasonality(t *testing.T) {
	model := NewModel()
	weekly := func(i int) float64 {
		d := epochDays(origin.AddDate(0, 0, i))
		return 20 + 10*math.Sin(2*math.Pi*d/7)
	}
	series := seriesFrom(weekly, 70)

	points, err := model.Forecast(context.Background(), series, 7)
	require.NoError(t, err)

	future := points[70:]
	var peak, trough entities.ForecastPoint
	peakTruth, troughTruth := math.Inf(-1), math.Inf(1)
	for i, p := range future {
		truth := weekly(70 + i)
		if truth > peakTruth {
			peakTruth, peak = truth, p
		}
		if truth < troughTruth {
			troughTruth, trough = truth, p
		}
	}
	assert.Greater(t, peak.Yhat, trough.Yhat)
}

func TestModel_IntervalWidensIntoFuture(t *testing.T) {
	model := NewModel()
	series := seriesFrom(func(i int) float64 { return 10 + float64(i%4) }, 28)

	points, err := model.Forecast(context.Background(), series, 60)
	require.NoError(t, err)

	historyWidth := points[0].YhatUpper - points[0].YhatLower
	farWidth := points[len(points)-1].YhatUpper - points[len(points)-1].YhatLower
	assert.Greater(t, farWidth, historyWidth)
}

func TestModel_InsufficientData(t *testing.T) {
	model := NewModel()
	series := seriesFrom(func(int) float64 { return 1 }, 1)

	_, err := model.Forecast(context.Background(), series, 10)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestModel_NonFiniteObservation(t *testing.T) {
	model := NewModel()
	series := &entities.ItemSeries{ItemCode: "BIG", Points: []entities.SeriesPoint{
		{Date: origin, Quantity: decimal.RequireFromString("1e400")},
		{Date: origin.AddDate(0, 0, 1), Quantity: decimal.NewFromInt(1)},
	}}

	_, err := model.Forecast(context.Background(), series, 10)
	assert.ErrorIs(t, err, ErrFitFailed)
}

func TestModel_ZeroSeries(t *testing.T) {
	model := NewModel()
	series := seriesFrom(func(int) float64 { return 0 }, 10)

	points, err := model.Forecast(context.Background(), series, 5)
	require.NoError(t, err)
	for _, p := range points {
		assert.InDelta(t, 0, p.Yhat, 1e-9)
	}
}

func TestModel_CancelledContext(t *testing.T) {
	model := NewModel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := model.Forecast(ctx, seriesFrom(func(int) float64 { return 1 }, 5), 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChangepointTimes(t *testing.T) {
	scaled := func(n int) []float64 {
		s := make([]float64, n)
		for i := range s {
			s[i] = float64(i) / float64(n-1)
		}
		return s
	}

	assert.Len(t, changepointTimes(scaled(100), 25, 0.8), 25)
	assert.Len(t, changepointTimes(scaled(10), 25, 0.8), 7)
	assert.Empty(t, changepointTimes(scaled(2), 25, 0.8))

	cps := changepointTimes(scaled(100), 25, 0.8)
	assert.LessOrEqual(t, cps[len(cps)-1], 0.8)
	for i := 1; i < len(cps); i++ {
		assert.Greater(t, cps[i], cps[i-1])
	}
}

func TestFutureDates(t *testing.T) {
	history := []time.Time{origin, origin.AddDate(0, 0, 3)}
	dates := FutureDates(history, 2)

	assert.Equal(t, []time.Time{origin, origin.AddDate(0, 0, 3), origin.AddDate(0, 0, 4), origin.AddDate(0, 0, 5)}, dates)
	assert.Empty(t, FutureDates(nil, 3))
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 0.001, config.ChangepointPriorScale)
	require.Len(t, config.Seasonalities, 3)
	assert.Equal(t, Seasonality{Name: "yearly", Period: 365.25, FourierOrder: 9, PriorScale: 10}, config.Seasonalities[0])
	assert.Equal(t, 7.0, config.Seasonalities[1].Period)
	assert.Equal(t, 3, config.Seasonalities[1].FourierOrder)
	assert.Equal(t, 30.5, config.Seasonalities[2].Period)
	assert.Equal(t, 5, config.Seasonalities[2].FourierOrder)
	assert.Equal(t, 34, config.featureCount())
}

func TestModel_CancellationBetweenStages(t *testing.T) {
	model := NewModel()
	series := seriesFrom(func(i int) float64 { return float64(i % 7) }, 3*365)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := model.FitContext(ctx, series)
	assert.ErrorIs(t, err, context.Canceled)

	fit, err := model.Fit(series)
	require.NoError(t, err)
	_, err = model.PredictContext(ctx, fit, FutureDates(series.Dates(), 30))
	assert.ErrorIs(t, err, context.Canceled)
}
