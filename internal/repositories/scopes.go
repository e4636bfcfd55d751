package repositories

import (
	"strings"

	"catalog/internal/models"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// WhereID restricts a query to one primary key.
func WhereID(id int64) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

// OrderByID gives listings a deterministic order.
func OrderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// PreloadInventories loads the inventories owned by each product.
func PreloadInventories(db *gorm.DB) *gorm.DB {
	return db.Preload("Inventories")
}

// MatchProductFilter applies a case-insensitive substring match on name and
// description. Both terms must match when both are given.
//
// Postgres folds case with ILIKE. Other dialects use LOWER, which SQLite
// applies to ASCII letters only; terms are folded the same way by
// ProductFilter.Normalized, so a stored value always matches itself.
func MatchProductFilter(filter models.ProductFilter) Scope {
	filter = filter.Normalized()
	return func(db *gorm.DB) *gorm.DB {
		if filter.Name != "" {
			db = db.Where(likeClause(db, "name"), likePattern(filter.Name))
		}
		if filter.Description != "" {
			db = db.Where(likeClause(db, "description"), likePattern(filter.Description))
		}
		return db
	}
}

func likeClause(db *gorm.DB, column string) string {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return column + ` ILIKE ? ESCAPE '\'`
	}
	return `LOWER(` + column + `) LIKE ? ESCAPE '\'`
}

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
