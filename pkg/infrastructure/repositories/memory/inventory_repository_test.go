package memory

import (
	"testing"

	"github.com/vsinha/stockcast/pkg/domain/entities"
)

func mustRow(t *testing.T, code, name string, inventory int64) *entities.InventoryRow {
	t.Helper()
	row, err := entities.NewInventoryRow(entities.ItemCode(code), name, inventory, "")
	if err != nil {
		t.Fatalf("Failed to create inventory row: %v", err)
	}
	return row
}

func TestInventoryRepository_LoadAndGet(t *testing.T) {
	repo := NewInventoryRepository(2)

	err := repo.LoadInventory([]*entities.InventoryRow{
		mustRow(t, "102900005115878", "Niushou Shengcai", 40),
		mustRow(t, "102900005116714", "Sichuan Red Cedar", 12),
	})
	if err != nil {
		t.Fatalf("Failed to load inventory: %v", err)
	}

	row, err := repo.GetInventoryRow("102900005116714")
	if err != nil {
		t.Fatalf("Failed to get row: %v", err)
	}
	if row.Inventory != 12 {
		t.Errorf("Expected inventory 12, got %d", row.Inventory)
	}

	// Returned rows are copies
	row.Inventory = 999
	again, _ := repo.GetInventoryRow("102900005116714")
	if again.Inventory != 12 {
		t.Errorf("Repository mutated through returned row: %d", again.Inventory)
	}

	all, err := repo.GetAllInventory()
	if err != nil {
		t.Fatalf("Failed to list inventory: %v", err)
	}
	if len(all) != 2 || all[0].ItemCode != "102900005115878" {
		t.Errorf("Expected upload order to be preserved, got %v", all)
	}
}

func TestInventoryRepository_NotFound(t *testing.T) {
	repo := NewInventoryRepository(0)

	if _, err := repo.GetInventoryRow("missing"); err == nil {
		t.Error("Expected error for unknown item code")
	}
	if _, ok := repo.ProductName("missing"); ok {
		t.Error("Expected no product name for unknown item code")
	}
}

func TestInventoryRepository_DuplicateRejected(t *testing.T) {
	repo := NewInventoryRepository(0)
	if err := repo.LoadInventory([]*entities.InventoryRow{mustRow(t, "A", "Apple", 1)}); err != nil {
		t.Fatalf("Failed initial load: %v", err)
	}

	err := repo.LoadInventory([]*entities.InventoryRow{
		mustRow(t, "B", "Bean", 1),
		mustRow(t, "B", "Bean again", 2),
	})
	if err == nil {
		t.Fatal("Expected duplicate item code to be rejected")
	}

	// Previous contents survive a rejected load
	if repo.Len() != 1 {
		t.Errorf("Expected 1 row after rejected load, got %d", repo.Len())
	}
	if _, err := repo.GetInventoryRow("A"); err != nil {
		t.Errorf("Expected row A to survive: %v", err)
	}

	if err := repo.AddInventoryRow(mustRow(t, "A", "Apple", 3)); err == nil {
		t.Error("Expected AddInventoryRow to reject duplicate")
	}
}

func TestInventoryRepository_ReplaceOnLoad(t *testing.T) {
	repo := NewInventoryRepository(0)
	_ = repo.LoadInventory([]*entities.InventoryRow{mustRow(t, "A", "Apple", 1)})
	_ = repo.LoadInventory([]*entities.InventoryRow{mustRow(t, "B", "Bean", 1)})

	if _, err := repo.GetInventoryRow("A"); err == nil {
		t.Error("Expected A to be replaced by second load")
	}
	name, ok := repo.ProductName("B")
	if !ok || name != "Bean" {
		t.Errorf("Expected product name Bean, got %q (%v)", name, ok)
	}
}
