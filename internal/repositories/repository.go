package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope is a composable query predicate. Scopes are applied in order.
type Scope func(*gorm.DB) *gorm.DB

// Repository gives generic CRUD and predicate-based access to one entity
// type. Reads go straight to the store; writes are queued on the owning
// unit of work and only reach the store on Commit.
type Repository[T any] struct {
	db      *gorm.DB
	changes *changeSet
}

func newRepository[T any](db *gorm.DB, changes *changeSet) *Repository[T] {
	return &Repository[T]{
		db:      db,
		changes: changes,
	}
}

// Query returns a filtered query over T that can be executed more than once.
func (r *Repository[T]) Query(ctx context.Context, scopes ...Scope) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(new(T))
	for _, scope := range scopes {
		tx = scope(tx)
	}
	return tx.Session(&gorm.Session{})
}

// All retrieves every entity matching the scopes. gorm does not track the
// entities it returns, so the results are always safe for read-only use.
func (r *Repository[T]) All(ctx context.Context, scopes ...Scope) ([]T, error) {
	var out []T
	if err := r.Query(ctx, scopes...).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", entityName[T](), err)
	}
	return out, nil
}

// Where retrieves every entity matching the predicate.
func (r *Repository[T]) Where(ctx context.Context, predicate Scope, scopes ...Scope) ([]T, error) {
	return r.All(ctx, append([]Scope{predicate}, scopes...)...)
}

// SingleOrNone returns the only entity matching the scopes, nil when there
// is none, and ErrMultipleResults when the match is ambiguous.
func (r *Repository[T]) SingleOrNone(ctx context.Context, scopes ...Scope) (*T, error) {
	var out []T
	if err := r.Query(ctx, scopes...).Limit(2).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", entityName[T](), err)
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return &out[0], nil
	default:
		return nil, fmt.Errorf("%s: %w", entityName[T](), ErrMultipleResults)
	}
}

// FirstOrNone returns the first entity by primary key matching the scopes,
// or nil when nothing matches.
func (r *Repository[T]) FirstOrNone(ctx context.Context, scopes ...Scope) (*T, error) {
	var out T
	err := r.Query(ctx, scopes...).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", entityName[T](), err)
	}
	return &out, nil
}

// ByID retrieves an entity by primary key.
func (r *Repository[T]) ByID(ctx context.Context, id int64, scopes ...Scope) (*T, error) {
	var out T
	err := r.Query(ctx, scopes...).First(&out, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s with ID %d: %w", entityName[T](), id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s by ID %d: %w", entityName[T](), id, err)
	}
	return &out, nil
}

// Add queues an insert. The entity's primary key is assigned on Commit.
func (r *Repository[T]) Add(entity *T) {
	r.changes.queue(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", entityName[T](), err)
		}
		return nil
	})
}

// AddRange queues a batch insert.
func (r *Repository[T]) AddRange(entities []T) {
	if len(entities) == 0 {
		return
	}
	r.changes.queue(func(tx *gorm.DB) error {
		if err := tx.Create(&entities).Error; err != nil {
			return fmt.Errorf("failed to create %s batch: %w", entityName[T](), err)
		}
		return nil
	})
}

// Update queues a write of every column of an existing entity.
// Associations are not touched, and a row that no longer exists is
// reported as ErrNotFound rather than re-created.
func (r *Repository[T]) Update(entity *T) {
	r.changes.queue(func(tx *gorm.DB) error {
		res := tx.Model(entity).Select("*").Omit(clause.Associations).Updates(entity)
		if res.Error != nil {
			return fmt.Errorf("failed to update %s: %w", entityName[T](), res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s not found for update: %w", entityName[T](), ErrNotFound)
		}
		return nil
	})
}

// UpdateRange queues a save for each entity.
func (r *Repository[T]) UpdateRange(entities []T) {
	for i := range entities {
		r.Update(&entities[i])
	}
}

// Delete queues removal of the entity together with its owned
// associations.
func (r *Repository[T]) Delete(entity *T) {
	r.changes.queue(func(tx *gorm.DB) error {
		res := tx.Select(clause.Associations).Delete(entity)
		if res.Error != nil {
			return fmt.Errorf("failed to delete %s: %w", entityName[T](), res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s not found for deletion: %w", entityName[T](), ErrNotFound)
		}
		return nil
	})
}

// DeleteRange queues removal of each entity.
func (r *Repository[T]) DeleteRange(entities []T) {
	for i := range entities {
		r.Delete(&entities[i])
	}
}

// Commit persists everything queued on the owning unit of work.
func (r *Repository[T]) Commit(ctx context.Context) error {
	return r.changes.commit(ctx, r.db)
}

func entityName[T any]() string {
	return fmt.Sprintf("%T", *new(T))
}
