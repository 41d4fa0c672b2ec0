package entities

import (
	"fmt"
	"strings"
)

// InventoryRow represents one product line of the current stock upload
type InventoryRow struct {
	ItemCode     ItemCode `json:"item_code"`
	ProductName  string   `json:"product_name"`
	Inventory    int64    `json:"inventory"`
	SupplierName string   `json:"supplier_name"`
}

// NewInventoryRow creates a validated InventoryRow
func NewInventoryRow(itemCode ItemCode, productName string, inventory int64, supplierName string) (*InventoryRow, error) {
	if strings.TrimSpace(string(itemCode)) == "" {
		return nil, fmt.Errorf("item code cannot be empty")
	}
	if inventory < 0 {
		return nil, fmt.Errorf("inventory cannot be negative, got %d", inventory)
	}

	return &InventoryRow{
		ItemCode:     NormalizeItemCode(string(itemCode)),
		ProductName:  strings.TrimSpace(productName),
		Inventory:    inventory,
		SupplierName: strings.TrimSpace(supplierName),
	}, nil
}
