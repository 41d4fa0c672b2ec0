package dashboard

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockcast/pkg/application/services/forecast"
	fixtures "github.com/vsinha/stockcast/pkg/application/services/testing"
	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/domain/repositories"
	"github.com/vsinha/stockcast/pkg/infrastructure/forecasting/additive"
	"github.com/vsinha/stockcast/pkg/infrastructure/repositories/memory"
)

var quietLogger = log.New(io.Discard, "", 0)

func newTestRegistry(ttl time.Duration) *Registry {
	service := forecast.NewForecastServiceWithConfig(forecast.ServiceConfig{Workers: 2}, additive.NewModel()).
		WithLogger(quietLogger)
	return NewRegistry(SessionConfig{Horizon: 7}, service, ttl).WithLogger(quietLogger)
}

func loadedSession(t *testing.T) *Session {
	t.Helper()
	table, inventory := fixtures.BuildVegetableTestData()
	rows, err := inventory.GetAllInventory()
	require.NoError(t, err)

	session := newTestRegistry(0).Create()
	require.NoError(t, session.UploadStock(rows))
	_, err = session.UploadSales(context.Background(), table)
	require.NoError(t, err)
	return session
}

func TestSession_SelectionDefaultsToFirstRow(t *testing.T) {
	session := newTestRegistry(0).Create()

	_, ok, err := session.Selected()
	require.NoError(t, err)
	assert.False(t, ok, "no inventory means no selection")

	_, inventory := fixtures.BuildVegetableTestData()
	rows, _ := inventory.GetAllInventory()
	require.NoError(t, session.UploadStock(rows))

	row, ok, err := session.Selected()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entities.ItemCode("102900005115878"), row.ItemCode)

	require.NoError(t, session.Select(" 102900011032251 "))
	row, _, _ = session.Selected()
	assert.Equal(t, entities.ItemCode("102900011032251"), row.ItemCode)

	err = session.Select("nope")
	assert.True(t, errors.Is(err, ErrUnknownItem))
	row, _, _ = session.Selected()
	assert.Equal(t, entities.ItemCode("102900011032251"), row.ItemCode, "failed select keeps the previous choice")

	// Re-uploading stock without the selected item resets the selection
	require.NoError(t, session.UploadStock(rows[:1]))
	row, _, _ = session.Selected()
	assert.Equal(t, entities.ItemCode("102900005115878"), row.ItemCode)
}

func TestSession_ForecastFilter(t *testing.T) {
	session := loadedSession(t)

	all, err := session.Forecast(ForecastFilter{})
	require.NoError(t, err)
	assert.Len(t, all, (60+7)+(45+7)+(30+7))

	one, err := session.Forecast(ForecastFilter{ItemCode: "102900005116714"})
	require.NoError(t, err)
	assert.Len(t, one, 45+7)

	tail, err := session.Forecast(ForecastFilter{Last: 7})
	require.NoError(t, err)
	require.Len(t, tail, 21)
	assert.Equal(t, entities.ItemCode("102900005115878"), tail[0].ItemCode)
	assert.Equal(t, fixtures.Start.AddDate(0, 0, 60), tail[0].Date)
	assert.Equal(t, entities.ItemCode("102900011032251"), tail[20].ItemCode)

	// Callers get copies
	tail[0].Yhat = -1000
	again, _ := session.Forecast(ForecastFilter{Last: 7})
	assert.NotEqual(t, -1000.0, again[0].Yhat)
}

func TestSession_InventoryView(t *testing.T) {
	session := loadedSession(t)

	view, err := session.InventoryView()
	require.NoError(t, err)
	require.Len(t, view, 4)

	first := view[0]
	assert.True(t, first.Forecasted)
	assert.Greater(t, first.NextDemand, 0.0)
	assert.GreaterOrEqual(t, first.HorizonDemand, first.NextDemand)
	require.NotNil(t, first.DaysOfCover)
	assert.InDelta(t, float64(first.Inventory)/(first.HorizonDemand/7), *first.DaysOfCover, 1e-9)

	// Zero stock means zero cover
	require.NotNil(t, view[1].DaysOfCover)
	assert.Equal(t, 0.0, *view[1].DaysOfCover)

	// Stock item without any sales
	lotus := view[3]
	assert.False(t, lotus.Forecasted)
	assert.Nil(t, lotus.DaysOfCover)
	assert.Nil(t, lotus.Skip)
}

func TestSession_SalesSeriesAndSkips(t *testing.T) {
	session := loadedSession(t)

	points, err := session.SalesSeries("102900011032251")
	require.NoError(t, err)
	assert.Len(t, points, 30)
	assert.Equal(t, fixtures.Start.AddDate(0, 0, 10), points[0].Date)

	_, err = session.SalesSeries("missing")
	assert.ErrorIs(t, err, ErrUnknownItem)

	skips, err := session.Skips()
	require.NoError(t, err)
	require.Len(t, skips, 1)
	assert.Equal(t, entities.ItemCode("102900005118824"), skips[0].ItemCode)
	assert.Equal(t, entities.InsufficientData, skips[0].Reason)
}

func TestSession_ReuploadReplacesForecast(t *testing.T) {
	session := loadedSession(t)
	before := session.Result().RunID

	table := fixtures.NewSalesTableBuilder().
		Row("102900005119975", "2024-05-01", "3", "Honghu Lotus Root").
		Row("102900005119975", "2024-05-02", "4", "Honghu Lotus Root").
		Build()
	result, err := session.UploadSales(context.Background(), table)
	require.NoError(t, err)
	assert.NotEqual(t, before, result.RunID)

	rows, err := session.Forecast(ForecastFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 2+7)
	for _, row := range rows {
		assert.Equal(t, entities.ItemCode("102900005119975"), row.ItemCode)
	}

	skips, _ := session.Skips()
	assert.Empty(t, skips)
}

func TestSession_SchemaErrorKeepsState(t *testing.T) {
	session := loadedSession(t)
	before := session.Result().RunID

	bad := fixtures.NewSalesTableBuilder().
		WithHeader("Item Code", "Quantity Sold (kilo)").
		Row("A", "1").
		Build()
	_, err := session.UploadSales(context.Background(), bad)

	var schemaErr *entities.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, before, session.Result().RunID)

	rows, _ := session.Forecast(ForecastFilter{ItemCode: "102900005115878"})
	assert.NotEmpty(t, rows)
}

func TestSession_NoSalesYet(t *testing.T) {
	session := newTestRegistry(0).Create()
	_, err := session.SalesSeries("x")
	assert.ErrorIs(t, err, ErrNoSales)

	rows, err := session.Forecast(ForecastFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSession_Close(t *testing.T) {
	session := loadedSession(t)
	require.NoError(t, session.Close())
	require.NoError(t, session.Close())

	_, err := session.Inventory()
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = session.Forecast(ForecastFilter{})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, session.Select("102900005115878"), ErrSessionClosed)
}

// flakyForecasts fails saves or deletes of chosen runs on demand
type flakyForecasts struct {
	*memory.ForecastRepository
	failSave   bool
	failDelete string
}

func (f *flakyForecasts) SaveForecast(runID string, rows []entities.ForecastRow) error {
	if f.failSave {
		return errors.New("archive down")
	}
	return f.ForecastRepository.SaveForecast(runID, rows)
}

func (f *flakyForecasts) DeleteRun(runID string) error {
	if runID == f.failDelete {
		return errors.New("delete refused")
	}
	return f.ForecastRepository.DeleteRun(runID)
}

func flakySession(t *testing.T) (*Session, *flakyForecasts) {
	t.Helper()
	table, inventory := fixtures.BuildVegetableTestData()
	rows, err := inventory.GetAllInventory()
	require.NoError(t, err)

	repo := &flakyForecasts{ForecastRepository: memory.NewForecastRepository()}
	registry := newTestRegistry(0).WithRepositoryFactory(func() (repositories.InventoryRepository, repositories.ForecastRepository) {
		return memory.NewInventoryRepository(0), repo
	})
	session := registry.Create()
	require.NoError(t, session.UploadStock(rows))
	_, err = session.UploadSales(context.Background(), table)
	require.NoError(t, err)
	return session, repo
}

func reuploadTable() *entities.SalesTable {
	return fixtures.NewSalesTableBuilder().
		Row("102900005119975", "2024-05-01", "3", "Honghu Lotus Root").
		Row("102900005119975", "2024-05-02", "4", "Honghu Lotus Root").
		Build()
}

func TestSession_FailedSaveKeepsPreviousRun(t *testing.T) {
	session, repo := flakySession(t)
	before := session.Result()
	stored, err := session.Forecast(ForecastFilter{})
	require.NoError(t, err)
	require.Len(t, stored, len(before.Rows))

	repo.failSave = true
	_, err = session.UploadSales(context.Background(), reuploadTable())
	require.Error(t, err)

	after, err := session.Forecast(ForecastFilter{})
	require.NoError(t, err)
	assert.Equal(t, stored, after)
	assert.Equal(t, before.RunID, session.Result().RunID)

	view, err := session.InventoryView()
	require.NoError(t, err)
	assert.True(t, view[0].Forecasted)
}

func TestSession_FailedDeleteRollsBackNewRun(t *testing.T) {
	session, repo := flakySession(t)
	before := session.Result()

	repo.failDelete = before.RunID
	_, err := session.UploadSales(context.Background(), reuploadTable())
	require.Error(t, err)

	after, err := session.Forecast(ForecastFilter{})
	require.NoError(t, err)
	assert.Len(t, after, len(before.Rows))
	for _, row := range after {
		assert.NotEqual(t, entities.ItemCode("102900005119975"), row.ItemCode)
	}
	assert.Equal(t, before.RunID, session.Result().RunID)
}

func TestSession_ResultIsACopy(t *testing.T) {
	session := loadedSession(t)

	result := session.Result()
	require.NotEmpty(t, result.Rows)
	original := result.Rows[0].Yhat
	result.Rows[0].Yhat = original + 1000
	result.Series[0].Points = nil
	result.Skipped = nil

	fresh := session.Result()
	assert.Equal(t, original, fresh.Rows[0].Yhat)
	assert.NotEmpty(t, fresh.Series[0].Points)
	assert.NotEmpty(t, fresh.Skipped)
}
