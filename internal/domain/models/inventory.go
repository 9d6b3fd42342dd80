package models

// InventoryItem is a stocked consumable such as feed, semen straws or medicine.
type InventoryItem struct {
	ID                string  `bson:"_id,omitempty" json:"id"`
	Name              string  `bson:"name" json:"name"`
	CurrentStock      float64 `bson:"current_stock" json:"current_stock"`
	MinimumStockLevel float64 `bson:"minimum_stock_level" json:"minimum_stock_level"`
	Unit              string  `bson:"unit" json:"unit"`
}

// LowStock reports stock at or below its minimum. Empty stock is "out", not low.
func (i InventoryItem) LowStock() bool {
	return i.CurrentStock > 0 && i.CurrentStock <= i.MinimumStockLevel
}
