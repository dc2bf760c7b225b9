package services

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/shared/crud"
	"github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/validate"
	"github.com/fieldcrew/api/tasks/models"
	"github.com/fieldcrew/api/tasks/repository"
)

var listSpec = listing.Spec{
	Sortable:    []string{"title", "status", "priority", "due_date", "created_at", "completed_at"},
	Search:      []string{"title"},
	DefaultSort: &tenant.Order{Column: "due_date"},
}

var references = []crud.Reference{
	{Column: "project_id", Table: "projects"},
	{Column: "assignee_id", Table: "users"},
}

// Service defines task operations.
type Service interface {
	List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListTasksQuery) (*listing.ListResponse[models.Task], error)
	Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, user types.UserContext, req models.CreateTaskRequest) (*models.Task, error)
	Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Task, error)
	Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error
}

type service struct {
	repo repository.Repository
	now  func() time.Time
}

func NewService(repo repository.Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) filters(f models.ListTasksQuery) ([]tenant.Condition, error) {
	conds := append(listing.Equals("status", f.Status), listing.Equals("priority", f.Priority)...)
	for _, pair := range [][2]string{{"project_id", f.ProjectID}, {"assignee_id", f.AssigneeID}} {
		ref, err := listing.Reference(pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		conds = append(conds, ref...)
	}
	if f.DueBefore != "" {
		if _, err := time.Parse(validate.DateLayout, f.DueBefore); err != nil {
			return nil, errors.Validation("due_before must be a date (YYYY-MM-DD)")
		}
		conds = append(conds, tenant.Lt("due_date", f.DueBefore))
	}
	if f.Overdue {
		today := s.now().UTC().Format(validate.DateLayout)
		conds = append(conds, tenant.Lt("due_date", today), tenant.Neq("status", models.StatusDone))
	}
	return conds, nil
}

func (s *service) List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListTasksQuery) (*listing.ListResponse[models.Task], error) {
	conds, err := s.filters(f)
	if err != nil {
		return nil, err
	}
	opts, err := q.Options(ctx, listSpec, conds...)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, user.BusinessID, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	resp := listing.Response(rows, q, total)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Task, error) {
	task, err := s.repo.Get(ctx, id, user.BusinessID)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *service) Create(ctx context.Context, user types.UserContext, req models.CreateTaskRequest) (*models.Task, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	rec := req.Record()
	if req.Status == models.StatusDone {
		rec["completed_at"] = s.now().UTC()
	}

	var task models.Task
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, rec, references...); err != nil {
			return err
		}
		var err error
		task, err = s.repo.Create(ctx, rec, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies patch. Moving a task to done stamps completed_at and
// reopening it clears the stamp.
func (s *service) Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Task, error) {
	if err := validate.Record(patch, models.UpdateRules); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if status, ok := patch["status"]; ok {
		if status == models.StatusDone {
			patch["completed_at"] = now
		} else {
			patch["completed_at"] = nil
		}
	}
	if len(patch) > 0 {
		patch["updated_at"] = now
	}

	var task models.Task
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, patch, references...); err != nil {
			return err
		}
		var err error
		task, err = s.repo.Update(ctx, id, patch, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *service) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, user.BusinessID)
}
