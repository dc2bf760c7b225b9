package services

import (
	"context"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/invoices/models"
	"github.com/fieldcrew/api/invoices/repository"
	"github.com/fieldcrew/api/shared/crud"
)

// MockRepository is a mock implementation of repository.Repository for testing
type MockRepository struct {
	crud.MockRepository[models.Invoice]
}

var _ repository.Repository = (*MockRepository)(nil)

func (m *MockRepository) ListItems(ctx context.Context, invoiceID, businessID uuid.UUID) ([]models.Item, error) {
	args := m.Called(ctx, invoiceID, businessID)
	items, _ := args.Get(0).([]models.Item)
	return items, args.Error(1)
}

func (m *MockRepository) ReplaceItems(ctx context.Context, invoiceID, businessID uuid.UUID, actorID *uuid.UUID, items []models.ItemInput) ([]models.Item, error) {
	args := m.Called(ctx, invoiceID, businessID, actorID, items)
	stored, _ := args.Get(0).([]models.Item)
	return stored, args.Error(1)
}

func (m *MockRepository) DeleteItems(ctx context.Context, invoiceID, businessID uuid.UUID) error {
	args := m.Called(ctx, invoiceID, businessID)
	return args.Error(0)
}
