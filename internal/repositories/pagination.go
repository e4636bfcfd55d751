package repositories

import (
	"context"
	"fmt"

	"catalog/internal/models"

	"gorm.io/gorm"
)

const (
	// MinPageSize and MaxPageSize bound every page.
	MinPageSize = 1
	MaxPageSize = 100
)

// ClampPageSize forces a page size into [MinPageSize, MaxPageSize].
func ClampPageSize(size int) int {
	if size < MinPageSize {
		return MinPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// pageWindow clamps the requested page into [1, totalPages] and returns the
// page number together with the row offset. It assumes total > 0.
func pageWindow(total, pageNumber, pageSize int) (page, offset int) {
	totalPages := (total + pageSize - 1) / pageSize
	page = pageNumber
	if page < 1 {
		page = 1
	} else if page > totalPages {
		page = totalPages
	}
	return page, (page - 1) * pageSize
}

// Paginate turns a filtered, ordered query into one bounded page. The count
// runs on the filtered query before paging. An empty result set is always
// reported as page 1. Loaders (preloads) apply to the page fetch only.
func Paginate[T any](ctx context.Context, query *gorm.DB, pageNumber, pageSize int, loaders ...Scope) (models.PagedResult[T], error) {
	pageSize = ClampPageSize(pageSize)
	query = query.WithContext(ctx).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return models.PagedResult[T]{}, fmt.Errorf("failed to count page source: %w", err)
	}
	if total == 0 {
		return models.NewPagedResult[T](nil, 1, pageSize, 0), nil
	}

	page, offset := pageWindow(int(total), pageNumber, pageSize)
	fetch := query.Offset(offset).Limit(pageSize)
	for _, load := range loaders {
		fetch = load(fetch)
	}
	var items []T
	if err := fetch.Find(&items).Error; err != nil {
		return models.PagedResult[T]{}, fmt.Errorf("failed to load page %d: %w", page, err)
	}
	return models.NewPagedResult(items, page, pageSize, int(total)), nil
}

// PaginateSlice applies the same paging rules to an in-memory slice.
func PaginateSlice[T any](items []T, pageNumber, pageSize int) models.PagedResult[T] {
	pageSize = ClampPageSize(pageSize)
	if len(items) == 0 {
		return models.NewPagedResult[T](nil, 1, pageSize, 0)
	}

	page, offset := pageWindow(len(items), pageNumber, pageSize)
	end := offset + pageSize
	if end > len(items) {
		end = len(items)
	}
	window := make([]T, end-offset)
	copy(window, items[offset:end])
	return models.NewPagedResult(window, page, pageSize, len(items))
}
