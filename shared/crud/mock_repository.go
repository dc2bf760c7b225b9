package crud

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/fieldcrew/api/internal/database/tenant"
)

// MockRepository is a testify mock of Repository for service tests
type MockRepository[T any] struct {
	mock.Mock
}

var _ Repository[struct{}] = (*MockRepository[struct{}])(nil)

func (m *MockRepository[T]) List(ctx context.Context, businessID uuid.UUID, opts tenant.FetchOptions) ([]T, int64, error) {
	args := m.Called(ctx, businessID, opts)
	var rows []T
	if v := args.Get(0); v != nil {
		rows = v.([]T)
	}
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository[T]) Get(ctx context.Context, id, businessID uuid.UUID) (T, error) {
	args := m.Called(ctx, id, businessID)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T]) Create(ctx context.Context, payload tenant.Record, businessID uuid.UUID, actorID *uuid.UUID) (T, error) {
	args := m.Called(ctx, payload, businessID, actorID)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T]) Update(ctx context.Context, id uuid.UUID, payload tenant.Record, businessID uuid.UUID, actorID *uuid.UUID) (T, error) {
	args := m.Called(ctx, id, payload, businessID, actorID)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T]) Delete(ctx context.Context, id, businessID uuid.UUID) error {
	args := m.Called(ctx, id, businessID)
	return args.Error(0)
}

func (m *MockRepository[T]) Exists(ctx context.Context, table string, id, businessID uuid.UUID) error {
	args := m.Called(ctx, table, id, businessID)
	return args.Error(0)
}

// WithTransaction runs fn directly; mocks have no transaction to open
func (m *MockRepository[T]) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func value[T any](v interface{}) T {
	var zero T
	if v == nil {
		return zero
	}
	return v.(T)
}
