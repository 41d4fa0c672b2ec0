package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/vsinha/stockcast/pkg/application/services/dashboard"
	"github.com/vsinha/stockcast/pkg/application/services/forecast"
	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/infrastructure/forecasting/additive"
	"github.com/vsinha/stockcast/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()

	// Two weeks of leafy greens with a weekend bump, and one item that only sold once
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	header := []string{entities.ColumnItemCode, entities.ColumnDate, entities.ColumnQuantity, entities.ColumnProductName}
	var rows [][]string
	for d := 0; d < 14; d++ {
		date := start.AddDate(0, 0, d)
		qty := 4.0 + 0.1*float64(d)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			qty += 2
		}
		rows = append(rows, []string{"102900005115878", date.Format("2006-01-02"), strconv.FormatFloat(qty, 'f', 3, 64), "Niushou Shengcai"})
	}
	rows = append(rows, []string{"102900011009444", "2023-01-03", "1.2", "Xixia Mushroom (1)"})
	table := entities.NewSalesTable(header, rows)

	stock := []*entities.InventoryRow{
		mustRow("102900005115878", "Niushou Shengcai", 40, "GreenLeaf Supplier"),
		mustRow("102900011009444", "Xixia Mushroom (1)", 15, "Fungi World"),
	}

	service := forecast.NewForecastServiceWithConfig(forecast.ServiceConfig{}, additive.NewModel())
	session := dashboard.NewSession("example",
		dashboard.SessionConfig{Horizon: 7},
		service,
		memory.NewInventoryRepository(len(stock)),
		memory.NewForecastRepository(),
	)
	defer session.Close()

	if err := session.UploadStock(stock); err != nil {
		log.Fatalf("upload stock: %v", err)
	}

	fmt.Println("🥬 Forecasting the next 7 days...")
	result, err := session.UploadSales(ctx, table)
	if err != nil {
		log.Fatalf("forecast: %v", err)
	}
	fmt.Printf("Run %s: %d items forecasted, %d skipped in %v\n\n",
		result.RunID, result.Stats.ForecastedItems, result.Stats.SkippedItems, result.Duration)

	future, err := session.Forecast(dashboard.ForecastFilter{ItemCode: "102900005115878", Last: 7})
	if err != nil {
		log.Fatalf("forecast rows: %v", err)
	}
	fmt.Println("Date        yhat    lower   upper")
	for _, row := range future {
		fmt.Printf("%s  %6.2f  %6.2f  %6.2f\n", row.Date.Format("2006-01-02"), row.Yhat, row.YhatLower, row.YhatUpper)
	}
	fmt.Println()

	for _, skip := range result.Skipped {
		fmt.Printf("⚠️  %s\n", skip)
	}

	view, err := session.InventoryView()
	if err != nil {
		log.Fatalf("inventory view: %v", err)
	}
	fmt.Println()
	for _, v := range view {
		cover := "n/a"
		if v.DaysOfCover != nil {
			cover = fmt.Sprintf("%.1f days", *v.DaysOfCover)
		}
		fmt.Printf("📦 %-20s on hand %3d, next 7 days %.1f, cover %s\n",
			v.ProductName, v.Inventory, v.HorizonDemand, cover)
	}
}

func mustRow(code, name string, inventory int64, supplier string) *entities.InventoryRow {
	row, err := entities.NewInventoryRow(entities.ItemCode(code), name, inventory, supplier)
	if err != nil {
		log.Fatal(err)
	}
	return row
}
