package repositories

import (
	"context"
	"fmt"
	"sync"

	"catalog/internal/models"

	"gorm.io/gorm"
)

// changeSet holds the writes queued by every repository of a unit of work.
type changeSet struct {
	mu      sync.Mutex
	pending []func(tx *gorm.DB) error
}

func (c *changeSet) queue(op func(tx *gorm.DB) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, op)
}

func (c *changeSet) commit(ctx context.Context, db *gorm.DB) error {
	c.mu.Lock()
	ops := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			if err := op(tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// UnitOfWork groups repository writes into a single commit. All of its
// repositories share one connection pool and one change set.
type UnitOfWork struct {
	db          *gorm.DB
	changes     *changeSet
	Products    *Repository[models.Product]
	Inventories *Repository[models.Inventory]
}

// NewUnitOfWork builds a unit of work and every repository it exposes.
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	changes := &changeSet{}
	return &UnitOfWork{
		db:          db,
		changes:     changes,
		Products:    newRepository[models.Product](db, changes),
		Inventories: newRepository[models.Inventory](db, changes),
	}
}

// Commit persists all pending adds, updates and deletes atomically. On
// failure nothing is written and the pending set is discarded.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	return u.changes.commit(ctx, u.db)
}
