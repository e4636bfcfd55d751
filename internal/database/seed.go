package database

import (
	"context"
	"fmt"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedProducts inserts a small demo catalog when the products table is empty.
// It reports how many products were inserted.
func SeedProducts(ctx context.Context, db *gorm.DB) (int, error) {
	uow := repositories.NewUnitOfWork(db)

	existing, err := uow.Products.FirstOrNone(ctx)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, nil
	}

	products := []models.Product{
		{
			Name:        "Laptop",
			Description: "High performance laptop",
			Price:       decimal.RequireFromString("1200.00"),
			Inventories: []models.Inventory{{Quantity: 6}, {Quantity: 4}},
		},
		{
			Name:        "Keyboard",
			Description: "Mechanical keyboard",
			Price:       decimal.RequireFromString("75.00"),
			Inventories: []models.Inventory{{Quantity: 25}},
		},
		{
			Name:        "Mouse",
			Description: "Ergonomic wireless mouse",
			Price:       decimal.RequireFromString("25.00"),
			Inventories: []models.Inventory{{Quantity: 50}},
		},
	}
	uow.Products.AddRange(products)
	if err := uow.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to seed products: %w", err)
	}
	return len(products), nil
}
