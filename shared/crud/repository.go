// Package crud provides the tenant scoped repository shared by the domain modules.
package crud

import (
	"context"
	"fmt"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
)

// Repository is the persistence contract of a tenant owned entity
type Repository[T any] interface {
	List(ctx context.Context, businessID uuid.UUID, opts tenant.FetchOptions) ([]T, int64, error)
	Get(ctx context.Context, id, businessID uuid.UUID) (T, error)
	Create(ctx context.Context, payload tenant.Record, businessID uuid.UUID, actorID *uuid.UUID) (T, error)
	Update(ctx context.Context, id uuid.UUID, payload tenant.Record, businessID uuid.UUID, actorID *uuid.UUID) (T, error)
	Delete(ctx context.Context, id, businessID uuid.UUID) error
	// Exists returns tenant.ErrNotFound unless id is a row of table owned by businessID
	Exists(ctx context.Context, table string, id, businessID uuid.UUID) error
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

type tableRepository[T any] struct {
	table *tenant.Table[T]
}

// NewRepository backs a Repository with a tenant table
func NewRepository[T any](table *tenant.Table[T]) Repository[T] {
	return &tableRepository[T]{table: table}
}

func (r *tableRepository[T]) List(ctx context.Context, businessID uuid.UUID, opts tenant.FetchOptions) ([]T, int64, error) {
	rows, err := r.table.Find(ctx, businessID, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", r.table.Name(), err)
	}
	total, err := r.table.Count(ctx, businessID, opts.Filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", r.table.Name(), err)
	}
	return rows, total, nil
}

func (r *tableRepository[T]) Get(ctx context.Context, id, businessID uuid.UUID) (T, error) {
	row, err := r.table.Get(ctx, id, businessID)
	if err != nil {
		return row, fmt.Errorf("failed to get %s %s: %w", r.table.Name(), id, err)
	}
	return row, nil
}

func (r *tableRepository[T]) Create(ctx context.Context, payload tenant.Record, businessID uuid.UUID, actorID *uuid.UUID) (T, error) {
	row, err := r.table.Insert(ctx, payload, businessID, actorID)
	if err != nil {
		return row, fmt.Errorf("failed to create %s: %w", r.table.Name(), err)
	}
	return row, nil
}

func (r *tableRepository[T]) Update(ctx context.Context, id uuid.UUID, payload tenant.Record, businessID uuid.UUID, actorID *uuid.UUID) (T, error) {
	row, err := r.table.Update(ctx, id, payload, businessID, actorID)
	if err != nil {
		return row, fmt.Errorf("failed to update %s %s: %w", r.table.Name(), id, err)
	}
	return row, nil
}

func (r *tableRepository[T]) Delete(ctx context.Context, id, businessID uuid.UUID) error {
	if _, err := r.table.Delete(ctx, id, businessID); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", r.table.Name(), id, err)
	}
	return nil
}

func (r *tableRepository[T]) Exists(ctx context.Context, table string, id, businessID uuid.UUID) error {
	if err := tenant.ExistsByBusiness(ctx, r.table.Store(), table, id, businessID); err != nil {
		return fmt.Errorf("failed to look up %s %s: %w", table, id, err)
	}
	return nil
}

func (r *tableRepository[T]) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return r.table.Store().WithTransaction(ctx, fn)
}
