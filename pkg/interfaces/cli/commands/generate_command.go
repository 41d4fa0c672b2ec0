package commands

import (
	"context"
	encodingcsv "encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for sample data generation
type GenerateConfig struct {
	Items     int       // Number of catalog items to include
	Days      int       // Length of sales history in days
	Start     time.Time // First sales date
	Returns   float64   // Probability that a transaction is a return
	OutputDir string    // Output directory for generated files
	Seed      int64     // Random seed for reproducible generation
	Help      bool      // Show help
	Verbose   bool      // Verbose output
}

// GenerateCommand writes a sales CSV and a matching stock CSV
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.Start.IsZero() {
		config.Start = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// catalogItem is one product the generator can sell
type catalogItem struct {
	Code     string
	Name     string
	Category string
	Price    float64 // RMB per kilo
	Base     float64 // mean kilos sold per day
}

var catalog = []catalogItem{
	{"102900005115878", "Niushou Shengcai", "Flower/Leaf Vegetables", 6.0, 4.5},
	{"102900005115793", "Shanghaiqing", "Flower/Leaf Vegetables", 7.2, 3.1},
	{"102900011000632", "Yunnan Shengcai", "Flower/Leaf Vegetables", 8.0, 6.2},
	{"102900011009444", "Xixia Mushroom (1)", "Edible Mushroom", 14.0, 2.4},
	{"102900011000335", "Red Pepper (1)", "Capsicum", 12.5, 1.8},
	{"102900005116714", "Sichuan Red Cedar", "Flower/Leaf Vegetables", 10.0, 2.2},
	{"102900011032251", "Yunnan Lettuce", "Flower/Leaf Vegetables", 5.6, 7.5},
	{"102900005119975", "Honghu Lotus Root", "Aquatic Tuberous Vegetables", 9.8, 3.6},
	{"102900051000944", "Purple Eggplant (2)", "Solanum", 6.4, 2.9},
	{"102900005116509", "Enoki Mushroom (Bag)", "Edible Mushroom", 3.5, 5.3},
}

var suppliers = []string{
	"GreenLeaf Supplier",
	"FreshFarm Co",
	"Daily Greens Ltd",
	"Urban Veggie Supply",
	"PackFresh Logistics",
	"Fungi World",
	"Capsicum Traders",
	"Solanum Growers",
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}

	if cmd.config.Items <= 0 || cmd.config.Items > len(catalog) {
		return fmt.Errorf("items must be between 1 and %d, got %d", len(catalog), cmd.config.Items)
	}
	if cmd.config.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", cmd.config.Days)
	}
	if cmd.config.Returns < 0 || cmd.config.Returns >= 1 {
		return fmt.Errorf("returns must be in [0, 1), got %g", cmd.config.Returns)
	}

	if cmd.config.Verbose {
		fmt.Printf("🔧 Generating %d days of sales for %d items\n", cmd.config.Days, cmd.config.Items)
		fmt.Printf("📁 Output directory: %s\n", cmd.config.OutputDir)
		fmt.Printf("🎲 Random seed: %d\n", cmd.config.Seed)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	items := catalog[:cmd.config.Items]

	if cmd.config.Verbose {
		fmt.Println("🧾 Generating sales.csv...")
	}
	if err := cmd.generateSales(ctx, items); err != nil {
		return fmt.Errorf("failed to generate sales: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Println("📦 Generating stock.csv...")
	}
	if err := cmd.generateStock(items); err != nil {
		return fmt.Errorf("failed to generate stock: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Printf("✅ Sample data generated successfully in %s\n", cmd.config.OutputDir)
	}

	return nil
}

// generateSales writes transaction-level rows, several per day per item
func (cmd *GenerateCommand) generateSales(ctx context.Context, items []catalogItem) error {
	file, err := os.Create(filepath.Join(cmd.config.OutputDir, "sales.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := encodingcsv.NewWriter(file)
	if err := w.Write([]string{
		entities.ColumnDate, entities.ColumnTime, entities.ColumnItemCode, entities.ColumnProductName,
		entities.ColumnQuantity, entities.ColumnUnitPrice, entities.ColumnSaleOrReturn, entities.ColumnDiscount,
	}); err != nil {
		return err
	}

	for d := 0; d < cmd.config.Days; d++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		date := cmd.config.Start.AddDate(0, 0, d)
		for _, item := range items {
			for _, row := range cmd.dayTransactions(item, date, d) {
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
	}

	w.Flush()
	return w.Error()
}

// dayTransactions splits one day's demand into a few sales and the odd return
func (cmd *GenerateCommand) dayTransactions(item catalogItem, date time.Time, day int) [][]string {
	weekly := 1 + 0.25*math.Sin(2*math.Pi*float64(date.Weekday())/7)
	trend := 1 + 0.002*float64(day)
	demand := item.Base * weekly * trend * (0.8 + 0.4*cmd.rand.Float64())

	n := 1 + cmd.rand.Intn(4)
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		qty := demand / float64(n)
		kind := "sale"
		if cmd.rand.Float64() < cmd.config.Returns {
			qty = -qty * cmd.rand.Float64()
			kind = "return"
		}
		discount := "No"
		price := item.Price
		if cmd.rand.Float64() < 0.1 {
			discount = "Yes"
			price *= 0.8
		}
		clock := time.Duration(8+cmd.rand.Intn(12))*time.Hour + time.Duration(cmd.rand.Intn(3600))*time.Second
		rows = append(rows, []string{
			date.Format("2006-01-02"),
			date.Add(clock).Format("15:04:05"),
			item.Code,
			item.Name,
			strconv.FormatFloat(math.Round(qty*1000)/1000, 'f', 3, 64),
			strconv.FormatFloat(price, 'f', 2, 64),
			kind,
			discount,
		})
	}
	return rows
}

// generateStock writes one stock row per item with category-aware inventory
func (cmd *GenerateCommand) generateStock(items []catalogItem) error {
	file, err := os.Create(filepath.Join(cmd.config.OutputDir, "stock.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := encodingcsv.NewWriter(file)
	if err := w.Write([]string{csv.ColumnID, entities.ColumnProductName, csv.ColumnInventory, csv.ColumnSupplierName}); err != nil {
		return err
	}
	for _, item := range items {
		if err := w.Write([]string{
			item.Code,
			item.Name,
			strconv.Itoa(cmd.generateInventory(item.Category)),
			suppliers[cmd.rand.Intn(len(suppliers))],
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// generateInventory picks an on-hand quantity from a range that depends on the category
func (cmd *GenerateCommand) generateInventory(category string) int {
	between := func(lo, hi int) int { return lo + cmd.rand.Intn(hi-lo+1) }
	switch category {
	case "Flower/Leaf Vegetables":
		return between(60, 180)
	case "Edible Mushroom":
		return between(40, 160)
	case "Capsicum":
		return between(30, 100)
	case "Solanum":
		return between(40, 120)
	default:
		return between(50, 150)
	}
}

// printHelp shows usage information
func (cmd *GenerateCommand) printHelp() {
	fmt.Printf(`Generate sample sales and stock CSV files

USAGE:
    stockcast generate [options]

OPTIONS:
    -items <n>        Number of catalog items (1-%d, default: 5)
    -days <n>         Days of sales history (default: 90)
    -start <date>     First sales date, YYYY-MM-DD (default: 2023-01-01)
    -returns <p>      Probability of a return transaction (default: 0.02)
    -output <dir>     Output directory (default: ./sample)
    -seed <n>         Random seed for reproducible data (default: time-based)
    -verbose          Enable verbose output
    -help             Show this help message

OUTPUT FILES:
    sales.csv         Date,Time,Item Code,product_name,Quantity Sold (kilo),...
    stock.csv         id,product_name,inventory,supplier_name

EXAMPLE:
    stockcast generate -items 8 -days 120 -seed 42 -output sample/
    stockcast forecast -sales sample/sales.csv -stock sample/stock.csv -verbose
`, len(catalog))
}
