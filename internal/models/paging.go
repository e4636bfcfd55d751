package models

// PagedResult is one bounded page of an ordered, filtered result set.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// NewPagedResult builds a page and derives TotalPages from the count and size.
func NewPagedResult[T any](items []T, pageNumber, pageSize, totalCount int) PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}
	return PagedResult[T]{
		Items:      items,
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// Valid reports whether p carries a usable page header. A zero value, such
// as one decoded from "{}" or "null", is not valid.
func (p PagedResult[T]) Valid() bool {
	return p.Items != nil && p.PageNumber >= 1 && p.PageSize >= 1 && p.TotalCount >= 0
}
