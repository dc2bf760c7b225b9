package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/settings/models"
	"github.com/fieldcrew/api/settings/repository"
)

// MockRepository is a mock implementation of repository.Repository for testing
type MockRepository struct {
	mock.Mock
}

var _ repository.Repository = (*MockRepository)(nil)

func (m *MockRepository) Find(ctx context.Context, businessID uuid.UUID) (models.Settings, error) {
	args := m.Called(ctx, businessID)
	settings, _ := args.Get(0).(models.Settings)
	return settings, args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, businessID uuid.UUID, actorID *uuid.UUID, rec tenant.Record) (models.Settings, error) {
	args := m.Called(ctx, businessID, actorID, rec)
	settings, _ := args.Get(0).(models.Settings)
	return settings, args.Error(1)
}

func (m *MockRepository) ReserveInvoiceNumber(ctx context.Context, businessID uuid.UUID) (models.Numbering, error) {
	args := m.Called(ctx, businessID)
	n, _ := args.Get(0).(models.Numbering)
	return n, args.Error(1)
}
