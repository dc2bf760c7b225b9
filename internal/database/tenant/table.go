// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tenant

import (
	"context"

	uuid "github.com/gofrs/uuid"
)

// Table binds the tenant operations to one table and projection
type Table[T any] struct {
	store   *Store
	name    string
	columns []string
}

// NewTable returns a typed accessor for name. Empty columns select all.
func NewTable[T any](store *Store, name string, columns ...string) *Table[T] {
	return &Table[T]{store: store, name: name, columns: columns}
}

func (t *Table[T]) Name() string { return t.name }

func (t *Table[T]) Store() *Store { return t.store }

func (t *Table[T]) Find(ctx context.Context, businessID uuid.UUID, opts FetchOptions) ([]T, error) {
	return FetchByBusiness[T](ctx, t.store, t.name, businessID, t.columns, opts)
}

func (t *Table[T]) Count(ctx context.Context, businessID uuid.UUID, f Filter) (int64, error) {
	return CountByBusiness(ctx, t.store, t.name, businessID, f)
}

func (t *Table[T]) Get(ctx context.Context, id, businessID uuid.UUID) (T, error) {
	return GetByBusiness[T](ctx, t.store, t.name, id, businessID, t.columns)
}

func (t *Table[T]) Insert(ctx context.Context, payload Record, businessID uuid.UUID, actorID *uuid.UUID) (T, error) {
	return InsertWithBusiness[T](ctx, t.store, t.name, payload, businessID, actorID, t.columns)
}

func (t *Table[T]) Update(ctx context.Context, id uuid.UUID, payload Record, businessID uuid.UUID, actorID *uuid.UUID) (T, error) {
	return UpdateWithBusinessCheck[T](ctx, t.store, t.name, id, payload, businessID, actorID, t.columns)
}

func (t *Table[T]) Delete(ctx context.Context, id, businessID uuid.UUID) (int64, error) {
	return DeleteWithBusinessCheck(ctx, t.store, t.name, id, businessID)
}

// DeleteWhere removes every tenant row matching f
func (t *Table[T]) DeleteWhere(ctx context.Context, businessID uuid.UUID, f Filter) (int64, error) {
	return DeleteWhereByBusiness(ctx, t.store, t.name, businessID, f)
}
