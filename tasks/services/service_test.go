package services

import (
	"context"
	"errors"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/shared/crud"
	sharederrors "github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/tasks/models"
)

var (
	businessID = uuid.Must(uuid.FromString("8091a2b3-c4d5-4e6f-8a7b-8c9d0e1f2a3b"))
	projectID  = uuid.Must(uuid.FromString("aa11bb22-cc33-4d44-8e55-ff6677889900"))
	taskID     = uuid.Must(uuid.FromString("0b1c2d3e-4f5a-4b6c-9d7e-8f9a0b1c2d3e"))
	caller     = types.UserContext{UserID: uuid.Must(uuid.NewV4()), BusinessID: businessID, Role: types.RoleWorker}
	now        = time.Date(2025, 3, 14, 16, 0, 0, 0, time.UTC)
)

func newTestService() (*service, *crud.MockRepository[models.Task]) {
	repo := &crud.MockRepository[models.Task]{}
	return &service{repo: repo, now: func() time.Time { return now }}, repo
}

func TestFilters(t *testing.T) {
	svc, _ := newTestService()

	t.Run("overdue", func(t *testing.T) {
		conds, err := svc.filters(models.ListTasksQuery{Overdue: true, ProjectID: projectID.String()})
		require.NoError(t, err)
		assert.Equal(t, []tenant.Condition{
			tenant.Eq("project_id", projectID.String()),
			tenant.Lt("due_date", "2025-03-14"),
			tenant.Neq("status", models.StatusDone),
		}, conds)
	})

	t.Run("unassigned with due date cap", func(t *testing.T) {
		conds, err := svc.filters(models.ListTasksQuery{AssigneeID: "null", DueBefore: "2025-04-01", Priority: "high"})
		require.NoError(t, err)
		assert.Equal(t, []tenant.Condition{
			tenant.Eq("priority", "high"),
			tenant.IsNull("assignee_id"),
			tenant.Lt("due_date", "2025-04-01"),
		}, conds)
	})

	t.Run("invalid due_before", func(t *testing.T) {
		_, err := svc.filters(models.ListTasksQuery{DueBefore: "soon"})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	repo.On("List", ctx, businessID, mock.MatchedBy(func(o tenant.FetchOptions) bool {
		return len(o.Filter.Where) == 3 && o.Filter.Where[2] == tenant.ILike("title", "%pour%")
	})).Return([]models.Task{{ID: taskID, Title: "Pour footing"}}, int64(1), nil)

	resp, err := svc.List(ctx, caller, listing.Query{Search: "pour"}, models.ListTasksQuery{Overdue: true})
	require.NoError(t, err)
	assert.Len(t, resp.Data, 1)
}

func TestCompletion(t *testing.T) {
	ctx := context.Background()

	t.Run("done stamps completed_at", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Update", ctx, taskID, tenant.Record{"status": "done", "completed_at": now, "updated_at": now}, businessID, &caller.UserID).
			Return(models.Task{ID: taskID, Status: models.StatusDone, CompletedAt: &now}, nil)

		task, err := svc.Update(ctx, caller, taskID, tenant.Record{"status": "done"})
		require.NoError(t, err)
		assert.Equal(t, &now, task.CompletedAt)
	})

	t.Run("reopen clears completed_at", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Update", ctx, taskID, tenant.Record{"status": "todo", "completed_at": nil, "updated_at": now}, businessID, &caller.UserID).
			Return(models.Task{ID: taskID, Status: models.StatusTodo}, nil)

		task, err := svc.Update(ctx, caller, taskID, tenant.Record{"status": "todo"})
		require.NoError(t, err)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("created done", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Create", ctx, tenant.Record{"title": "Inspect", "status": "done", "completed_at": now}, businessID, &caller.UserID).
			Return(models.Task{ID: taskID}, nil)

		_, err := svc.Create(ctx, caller, models.CreateTaskRequest{Title: "Inspect", Status: "done"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("invalid priority", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Update(ctx, caller, taskID, tenant.Record{"priority": "asap"})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
	})
}

func TestReferences(t *testing.T) {
	ctx := context.Background()
	assigneeID := uuid.Must(uuid.FromString("c0ffee00-1234-4abc-8def-0123456789ab"))

	t.Run("project of another business is rejected", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Exists", ctx, "projects", projectID, businessID).Return(tenant.ErrNotFound)

		ref := projectID.String()
		_, err := svc.Create(ctx, caller, models.CreateTaskRequest{Title: "Frame walls", ProjectID: &ref})
		require.True(t, errors.Is(err, sharederrors.ErrValidation))
		assert.Contains(t, err.Error(), "project_id")
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("owned references are written", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Exists", ctx, "projects", projectID, businessID).Return(nil)
		repo.On("Exists", ctx, "users", assigneeID, businessID).Return(nil)
		repo.On("Create", ctx, tenant.Record{"title": "Frame walls", "project_id": projectID.String(), "assignee_id": assigneeID.String()}, businessID, &caller.UserID).
			Return(models.Task{ID: taskID}, nil)

		ref, assignee := projectID.String(), assigneeID.String()
		_, err := svc.Create(ctx, caller, models.CreateTaskRequest{Title: "Frame walls", ProjectID: &ref, AssigneeID: &assignee})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("reassigning to a foreign user is rejected", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Exists", ctx, "users", assigneeID, businessID).Return(tenant.ErrNotFound)

		_, err := svc.Update(ctx, caller, taskID, tenant.Record{"assignee_id": assigneeID.String()})
		require.True(t, errors.Is(err, sharederrors.ErrValidation))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unassigning skips the lookup", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Update", ctx, taskID, tenant.Record{"assignee_id": nil, "updated_at": now}, businessID, &caller.UserID).
			Return(models.Task{ID: taskID}, nil)

		_, err := svc.Update(ctx, caller, taskID, tenant.Record{"assignee_id": nil})
		require.NoError(t, err)
		repo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
