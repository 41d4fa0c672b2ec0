package memory

import (
	"testing"
	"time"

	"github.com/vsinha/stockcast/pkg/domain/entities"
)

func forecastRows(code string, n int) []entities.ForecastRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]entities.ForecastRow, n)
	for i := range rows {
		rows[i] = entities.ForecastRow{
			ItemCode: entities.ItemCode(code),
			Date:     start.AddDate(0, 0, i),
			Yhat:     float64(i),
		}
	}
	return rows
}

func TestForecastRepository_SaveAndGet(t *testing.T) {
	repo := NewForecastRepository()

	rows := append(forecastRows("A", 3), forecastRows("B", 2)...)
	if err := repo.SaveForecast("run-1", rows); err != nil {
		t.Fatalf("Failed to save forecast: %v", err)
	}

	// Caller mutation after save is not visible
	rows[0].Yhat = 100

	a, err := repo.GetForecast("A")
	if err != nil {
		t.Fatalf("Failed to get forecast: %v", err)
	}
	if len(a) != 3 {
		t.Fatalf("Expected 3 rows for A, got %d", len(a))
	}
	if a[0].Yhat != 0 {
		t.Errorf("Expected stored copy, got yhat %v", a[0].Yhat)
	}

	all, _ := repo.GetAllForecasts()
	if len(all) != 5 {
		t.Errorf("Expected 5 rows total, got %d", len(all))
	}
}

func TestForecastRepository_ReplaceRunAndClear(t *testing.T) {
	repo := NewForecastRepository()
	_ = repo.SaveForecast("run-1", forecastRows("A", 3))
	_ = repo.SaveForecast("run-1", forecastRows("A", 1))
	_ = repo.SaveForecast("run-2", forecastRows("B", 2))

	all, _ := repo.GetAllForecasts()
	if len(all) != 3 {
		t.Errorf("Expected run-1 replaced (1 row) plus run-2 (2 rows), got %d", len(all))
	}
	if all[0].ItemCode != "A" || all[2].ItemCode != "B" {
		t.Errorf("Expected runs in save order, got %v", all)
	}

	if err := repo.Clear(); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}
	all, _ = repo.GetAllForecasts()
	if len(all) != 0 {
		t.Errorf("Expected empty repository after clear, got %d rows", len(all))
	}
}

func TestForecastRepository_DeleteRun(t *testing.T) {
	repo := NewForecastRepository()
	_ = repo.SaveForecast("run-1", forecastRows("A", 3))
	_ = repo.SaveForecast("run-2", forecastRows("B", 2))

	if err := repo.DeleteRun("run-1"); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}
	if err := repo.DeleteRun("missing"); err != nil {
		t.Errorf("Expected deleting an unknown run to succeed, got %v", err)
	}

	all, _ := repo.GetAllForecasts()
	if len(all) != 2 || all[0].ItemCode != "B" {
		t.Errorf("Expected only run-2 rows, got %v", all)
	}

	// A deleted run id can be saved again and goes to the end
	_ = repo.SaveForecast("run-1", forecastRows("A", 1))
	all, _ = repo.GetAllForecasts()
	if len(all) != 3 || all[2].ItemCode != "A" {
		t.Errorf("Expected run-1 after run-2, got %v", all)
	}
}
