package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog.
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Name        string          `gorm:"type:varchar(100);not null"`
	Description string          `gorm:"type:varchar(500)"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Inventories []Inventory     `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StockLevel is the sum of the quantities held in the product's inventories.
func (p *Product) StockLevel() int {
	total := 0
	for _, inv := range p.Inventories {
		total += inv.Quantity
	}
	return total
}
