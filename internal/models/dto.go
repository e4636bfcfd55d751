package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductView is the transfer representation of a product returned to callers.
type ProductView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       Money  `json:"price"`
	Quantity    int    `json:"quantity"`
}

// Valid reports whether v identifies a stored product.
func (v ProductView) Valid() bool {
	return v.ID > 0
}

// CreateProductInput is the payload accepted when creating a product.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"notblank,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
}

// UpdateProductInput is the payload accepted when updating a product.
// ID must match the id addressed by the request.
type UpdateProductInput struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name" validate:"notblank,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
}

// ProductFilter narrows a product listing. Blank terms are ignored.
type ProductFilter struct {
	Name        string `json:"name,omitempty" validate:"max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// Normalized trims both terms and folds ASCII letters to lower case.
// Non-ASCII letters keep their case so every supported store folds the
// term the same way its own LOWER/ILIKE does for ASCII.
func (f ProductFilter) Normalized() ProductFilter {
	return ProductFilter{
		Name:        foldASCII(strings.TrimSpace(f.Name)),
		Description: foldASCII(strings.TrimSpace(f.Description)),
	}
}

func foldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
