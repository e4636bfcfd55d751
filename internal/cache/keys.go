package cache

import (
	"fmt"
	"strconv"

	"catalog/internal/models"

	"github.com/cespare/xxhash/v2"
)

// DefaultPageSize is the listing page size used when the caller gives none.
const DefaultPageSize = 10

// ProductKey is the cache key of a single product view.
func ProductKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

// PageKey is the cache key of one listing page. The filter is hashed in the
// same normalised form the store query uses, so filters that select the same
// rows share a key.
func PageKey(pageNumber, pageSize int, filter models.ProductFilter) string {
	key := fmt.Sprintf("products:page:%d:size:%d", pageNumber, pageSize)
	filter = filter.Normalized()
	if filter.Name == "" && filter.Description == "" {
		return key
	}
	sum := xxhash.Sum64String("name=" + filter.Name + "\x00description=" + filter.Description)
	return fmt.Sprintf("%s:filter:%016x", key, sum)
}

// DefaultViewKeys lists the listing keys invalidated on every write: the
// first unfiltered page at the default page size.
func DefaultViewKeys() []string {
	return []string{PageKey(1, DefaultPageSize, models.ProductFilter{})}
}
