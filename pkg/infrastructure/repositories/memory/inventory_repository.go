package memory

import (
	"fmt"
	"sync"

	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/domain/repositories"
)

// InventoryRepository provides in-memory stock storage
type InventoryRepository struct {
	mu       sync.RWMutex
	rows     []entities.InventoryRow
	rowsByID map[entities.ItemCode]int
}

// NewInventoryRepository creates a new in-memory inventory repository
func NewInventoryRepository(expectedRows int) *InventoryRepository {
	return &InventoryRepository{
		rows:     make([]entities.InventoryRow, 0, expectedRows),
		rowsByID: make(map[entities.ItemCode]int, expectedRows),
	}
}

// Verify interface compliance
var _ repositories.InventoryRepository = (*InventoryRepository)(nil)

// LoadInventory replaces the stored table. Duplicate item codes are rejected
// and leave the previous contents untouched.
func (r *InventoryRepository) LoadInventory(rows []*entities.InventoryRow) error {
	loaded := make([]entities.InventoryRow, 0, len(rows))
	index := make(map[entities.ItemCode]int, len(rows))
	for _, row := range rows {
		if _, exists := index[row.ItemCode]; exists {
			return fmt.Errorf("duplicate item code in inventory: %s", row.ItemCode)
		}
		index[row.ItemCode] = len(loaded)
		loaded = append(loaded, *row)
	}

	r.mu.Lock()
	r.rows = loaded
	r.rowsByID = index
	r.mu.Unlock()
	return nil
}

// AddInventoryRow appends a single row
func (r *InventoryRepository) AddInventoryRow(row *entities.InventoryRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rowsByID[row.ItemCode]; exists {
		return fmt.Errorf("duplicate item code in inventory: %s", row.ItemCode)
	}
	r.rowsByID[row.ItemCode] = len(r.rows)
	r.rows = append(r.rows, *row)
	return nil
}

// GetInventoryRow returns the stock row for an item code
func (r *InventoryRepository) GetInventoryRow(itemCode entities.ItemCode) (*entities.InventoryRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.rowsByID[itemCode]
	if !exists {
		return nil, fmt.Errorf("inventory row not found: %s", itemCode)
	}
	row := r.rows[index]
	return &row, nil
}

// GetAllInventory returns copies of all rows in upload order
func (r *InventoryRepository) GetAllInventory() ([]*entities.InventoryRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]*entities.InventoryRow, 0, len(r.rows))
	for i := range r.rows {
		row := r.rows[i]
		rows = append(rows, &row)
	}
	return rows, nil
}

// ProductName implements services.NameLookup
func (r *InventoryRepository) ProductName(itemCode entities.ItemCode) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.rowsByID[itemCode]
	if !exists || r.rows[index].ProductName == "" {
		return "", false
	}
	return r.rows[index].ProductName, true
}

// Len returns the number of stored rows
func (r *InventoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
