package services

import (
	"context"
	"errors"
	"testing"

	uuid "github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldcrew/api/equipment/models"
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/shared/crud"
	sharederrors "github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
)

var (
	businessID = uuid.Must(uuid.FromString("4c5d6e7f-8091-4a2b-8c3d-4e5f60718293"))
	caller     = types.UserContext{UserID: uuid.Must(uuid.NewV4()), BusinessID: businessID, Role: types.RoleWorker}
	itemID     = uuid.Must(uuid.FromString("e1d2c3b4-a596-4877-8695-a4b3c2d1e0f9"))
)

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("unassigned equipment", func(t *testing.T) {
		repo := &crud.MockRepository[models.Equipment]{}
		repo.On("List", ctx, businessID, mock.MatchedBy(func(o tenant.FetchOptions) bool {
			return assert.ObjectsAreEqual([]tenant.Condition{
				tenant.Eq("status", models.StatusAvailable),
				tenant.IsNull("assigned_crew_id"),
			}, o.Filter.Where)
		})).Return([]models.Equipment{{ID: itemID, Name: "Excavator"}}, int64(1), nil)

		resp, err := NewService(repo).List(ctx, caller, listing.Query{}, models.ListEquipmentQuery{Status: "available", AssignedCrewID: "null"})
		require.NoError(t, err)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Excavator", resp.Data[0].Name)
	})

	t.Run("search covers name and serial number", func(t *testing.T) {
		repo := &crud.MockRepository[models.Equipment]{}
		repo.On("List", ctx, businessID, mock.MatchedBy(func(o tenant.FetchOptions) bool {
			return assert.ObjectsAreEqual([]tenant.Condition{
				tenant.ILike("name", "%SN-9%"),
				tenant.ILike("serial_number", "%SN-9%"),
			}, o.Filter.Or)
		})).Return([]models.Equipment{}, int64(0), nil)

		_, err := NewService(repo).List(ctx, caller, listing.Query{Search: "SN-9"}, models.ListEquipmentQuery{})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("bad crew id", func(t *testing.T) {
		_, err := NewService(&crud.MockRepository[models.Equipment]{}).List(ctx, caller, listing.Query{}, models.ListEquipmentQuery{AssignedCrewID: "x"})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("retired equipment stays unassigned", func(t *testing.T) {
		_, err := NewService(&crud.MockRepository[models.Equipment]{}).Update(ctx, caller, itemID, tenant.Record{
			"status":           models.StatusRetired,
			"assigned_crew_id": "0f1e2d3c-4b5a-4968-8776-655443322110",
		})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := NewService(&crud.MockRepository[models.Equipment]{}).Update(ctx, caller, itemID, tenant.Record{"purchase_date": "yesterday"})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
	})

	t.Run("log maintenance", func(t *testing.T) {
		repo := &crud.MockRepository[models.Equipment]{}
		repo.On("Update", ctx, itemID, mock.MatchedBy(func(r tenant.Record) bool {
			return r["status"] == models.StatusMaintenance && r["last_maintenance_date"] == "2025-05-01" && r["updated_at"] != nil
		}), businessID, &caller.UserID).Return(models.Equipment{ID: itemID, Status: models.StatusMaintenance}, nil)

		item, err := NewService(repo).Update(ctx, caller, itemID, tenant.Record{"status": "maintenance", "last_maintenance_date": "2025-05-01"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusMaintenance, item.Status)
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	repo := &crud.MockRepository[models.Equipment]{}
	serial := "CAT-320-0042"
	repo.On("Create", ctx, tenant.Record{"name": "Excavator", "serial_number": serial}, businessID, &caller.UserID).
		Return(models.Equipment{ID: itemID, Name: "Excavator", SerialNumber: &serial, Status: models.StatusAvailable}, nil)

	item, err := NewService(repo).Create(ctx, caller, models.CreateEquipmentRequest{Name: "Excavator", SerialNumber: &serial})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, item.Status)
	repo.AssertExpectations(t)
}

func TestUpdateAgainstStoredRow(t *testing.T) {
	ctx := context.Background()
	crewID := uuid.Must(uuid.FromString("0f1e2d3c-4b5a-4968-8776-655443322110"))

	t.Run("assigning retired equipment", func(t *testing.T) {
		repo := &crud.MockRepository[models.Equipment]{}
		repo.On("Get", ctx, itemID, businessID).Return(models.Equipment{ID: itemID, Status: models.StatusRetired}, nil)

		_, err := NewService(repo).Update(ctx, caller, itemID, tenant.Record{"assigned_crew_id": crewID.String()})
		require.True(t, errors.Is(err, sharederrors.ErrValidation))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retiring assigned equipment", func(t *testing.T) {
		repo := &crud.MockRepository[models.Equipment]{}
		repo.On("Get", ctx, itemID, businessID).
			Return(models.Equipment{ID: itemID, Status: models.StatusInUse, AssignedCrewID: &crewID}, nil)

		_, err := NewService(repo).Update(ctx, caller, itemID, tenant.Record{"status": models.StatusRetired})
		require.True(t, errors.Is(err, sharederrors.ErrValidation))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retiring unassigned equipment", func(t *testing.T) {
		repo := &crud.MockRepository[models.Equipment]{}
		repo.On("Get", ctx, itemID, businessID).Return(models.Equipment{ID: itemID, Status: models.StatusAvailable}, nil)
		repo.On("Update", ctx, itemID, mock.MatchedBy(func(r tenant.Record) bool {
			return r["status"] == models.StatusRetired
		}), businessID, &caller.UserID).Return(models.Equipment{ID: itemID, Status: models.StatusRetired}, nil)

		item, err := NewService(repo).Update(ctx, caller, itemID, tenant.Record{"status": models.StatusRetired})
		require.NoError(t, err)
		assert.Equal(t, models.StatusRetired, item.Status)
	})

	t.Run("retiring and unassigning together", func(t *testing.T) {
		repo := &crud.MockRepository[models.Equipment]{}
		repo.On("Update", ctx, itemID, mock.Anything, businessID, &caller.UserID).Return(models.Equipment{ID: itemID}, nil)

		_, err := NewService(repo).Update(ctx, caller, itemID, tenant.Record{"status": models.StatusRetired, "assigned_crew_id": nil})
		require.NoError(t, err)
		repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("crew of another business", func(t *testing.T) {
		repo := &crud.MockRepository[models.Equipment]{}
		repo.On("Get", ctx, itemID, businessID).Return(models.Equipment{ID: itemID, Status: models.StatusAvailable}, nil)
		repo.On("Exists", ctx, "crews", crewID, businessID).Return(tenant.ErrNotFound)

		_, err := NewService(repo).Update(ctx, caller, itemID, tenant.Record{"assigned_crew_id": crewID.String()})
		require.True(t, errors.Is(err, sharederrors.ErrValidation))
		assert.Contains(t, err.Error(), "assigned_crew_id")
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCreateWithForeignCrew(t *testing.T) {
	ctx := context.Background()
	crewID := uuid.Must(uuid.FromString("0f1e2d3c-4b5a-4968-8776-655443322110"))
	repo := &crud.MockRepository[models.Equipment]{}
	repo.On("Exists", ctx, "crews", crewID, businessID).Return(tenant.ErrNotFound)

	crew := crewID.String()
	_, err := NewService(repo).Create(ctx, caller, models.CreateEquipmentRequest{Name: "Excavator", AssignedCrewID: &crew})
	require.True(t, errors.Is(err, sharederrors.ErrValidation))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
