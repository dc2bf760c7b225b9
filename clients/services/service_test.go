package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldcrew/api/clients/models"
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/shared/crud"
	sharederrors "github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
)

var (
	businessID = uuid.Must(uuid.FromString("3b1f0e2a-9c8d-4e7f-a6b5-c4d3e2f1a0b9"))
	userID     = uuid.Must(uuid.FromString("7e6d5c4b-3a29-4180-9f8e-7d6c5b4a3928"))
	clientID   = uuid.Must(uuid.FromString("c0ffee00-1234-4abc-8def-0123456789ab"))
	caller     = types.UserContext{UserID: userID, BusinessID: businessID, Role: types.RoleManager}
	fixedNow   = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
)

func newTestService() (*service, *crud.MockRepository[models.Client]) {
	repo := &crud.MockRepository[models.Client]{}
	return &service{repo: repo, now: func() time.Time { return fixedNow }}, repo
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("status filter and search", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("List", ctx, businessID, mock.MatchedBy(func(o tenant.FetchOptions) bool {
			return assert.ObjectsAreEqual([]tenant.Condition{tenant.Eq("status", "active")}, o.Filter.Where) &&
				len(o.Filter.Or) == 3 && o.Limit == 10 && o.Page == 2
		})).Return([]models.Client{{ID: clientID, Name: "Acme"}}, int64(11), nil)

		resp, err := svc.List(ctx, caller, listing.Query{Page: 2, Limit: 10, Search: "acme"}, models.ListClientsQuery{Status: "active"})
		require.NoError(t, err)
		assert.Len(t, resp.Data, 1)
		assert.EqualValues(t, 11, resp.Total)
		repo.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, repo := newTestService()
		_, err := svc.List(ctx, caller, listing.Query{}, models.ListClientsQuery{Status: "vip"})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
		repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("List", ctx, businessID, mock.Anything).Return(nil, int64(0), tenant.ErrStoreUninitialized)

		_, err := svc.List(ctx, caller, listing.Query{}, models.ListClientsQuery{})
		assert.True(t, errors.Is(err, tenant.ErrStoreUninitialized))
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps the caller as actor", func(t *testing.T) {
		svc, repo := newTestService()
		email := "ops@acme.test"
		expected := tenant.Record{"name": "Acme", "email": email}
		repo.On("Create", ctx, expected, businessID, &caller.UserID).
			Return(models.Client{ID: clientID, Name: "Acme", Status: models.StatusLead}, nil)

		client, err := svc.Create(ctx, caller, models.CreateClientRequest{Name: "Acme", Email: &email})
		require.NoError(t, err)
		assert.Equal(t, models.StatusLead, client.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects invalid payload", func(t *testing.T) {
		svc, repo := newTestService()
		_, err := svc.Create(ctx, caller, models.CreateClientRequest{Status: "vip"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
		assert.Len(t, repo.Calls, 0)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("touches updated_at", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Update", ctx, clientID, tenant.Record{"status": "active", "notes": nil, "updated_at": fixedNow}, businessID, &caller.UserID).
			Return(models.Client{ID: clientID, Status: "active"}, nil)

		client, err := svc.Update(ctx, caller, clientID, tenant.Record{"status": "active", "notes": nil})
		require.NoError(t, err)
		assert.Equal(t, "active", client.Status)
	})

	t.Run("empty patch returns current row", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Update", ctx, clientID, tenant.Record{}, businessID, &caller.UserID).
			Return(models.Client{ID: clientID}, nil)

		_, err := svc.Update(ctx, caller, clientID, tenant.Record{})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("name cannot be cleared", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Update(ctx, caller, clientID, tenant.Record{"name": nil})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
	})

	t.Run("other business", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Update", ctx, clientID, mock.Anything, businessID, &caller.UserID).
			Return(nil, fmt.Errorf("failed to update clients: %w", tenant.ErrNotFound))

		_, err := svc.Update(ctx, caller, clientID, tenant.Record{"name": "Other"})
		assert.True(t, errors.Is(err, tenant.ErrNotFound))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	repo.On("Delete", ctx, clientID, businessID).Return(nil).Once()

	require.NoError(t, svc.Delete(ctx, caller, clientID))
	repo.AssertExpectations(t)
}
