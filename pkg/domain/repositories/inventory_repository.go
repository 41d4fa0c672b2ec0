package repositories

import "github.com/vsinha/stockcast/pkg/domain/entities"

// InventoryRepository provides access to the uploaded stock table
type InventoryRepository interface {
	GetInventoryRow(itemCode entities.ItemCode) (*entities.InventoryRow, error)
	// GetAllInventory returns rows in upload order
	GetAllInventory() ([]*entities.InventoryRow, error)
	LoadInventory(rows []*entities.InventoryRow) error
	// ProductName resolves an item's display name from stock data
	ProductName(itemCode entities.ItemCode) (string, bool)
}
