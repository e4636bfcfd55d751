package models

// Inventory is a stock record owned by exactly one product.
type Inventory struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	ProductID int64 `gorm:"index;not null"`
	Quantity  int   `gorm:"not null;default:0;check:chk_inventories_quantity,quantity >= 0"`
}
