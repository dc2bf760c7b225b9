package services

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/projects/models"
	"github.com/fieldcrew/api/projects/repository"
	"github.com/fieldcrew/api/shared/crud"
	"github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/validate"
)

var listSpec = listing.Spec{
	Sortable:    []string{"name", "status", "start_date", "end_date", "budget", "created_at"},
	Search:      []string{"name"},
	DefaultSort: &tenant.Order{Column: "start_date", Descending: true},
}

var references = []crud.Reference{
	{Column: "client_id", Table: "clients"},
	{Column: "crew_id", Table: "crews"},
}

// Service defines project operations.
type Service interface {
	List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListProjectsQuery) (*listing.ListResponse[models.Project], error)
	Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Project, error)
	Create(ctx context.Context, user types.UserContext, req models.CreateProjectRequest) (*models.Project, error)
	Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Project, error)
	Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error
}

type service struct {
	repo repository.Repository
	now  func() time.Time
}

func NewService(repo repository.Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListProjectsQuery) (*listing.ListResponse[models.Project], error) {
	conds := listing.Equals("status", f.Status)
	for _, pair := range [][2]string{{"client_id", f.ClientID}, {"crew_id", f.CrewID}} {
		ref, err := listing.Reference(pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		conds = append(conds, ref...)
	}
	opts, err := q.Options(ctx, listSpec, conds...)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, user.BusinessID, opts)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	resp := listing.Response(rows, q, total)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Project, error) {
	project, err := s.repo.Get(ctx, id, user.BusinessID)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *service) Create(ctx context.Context, user types.UserContext, req models.CreateProjectRequest) (*models.Project, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	rec := req.Record()
	if err := checkDates(rec); err != nil {
		return nil, err
	}

	var project models.Project
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, rec, references...); err != nil {
			return err
		}
		var err error
		project, err = s.repo.Create(ctx, rec, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Update applies patch. When only one of the dates changes the stored
// row is read so the range can still be checked.
func (s *service) Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Project, error) {
	if err := validate.Record(patch, models.UpdateRules); err != nil {
		return nil, err
	}

	var project models.Project
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkPatchDates(ctx, user, id, patch); err != nil {
			return err
		}
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, patch, references...); err != nil {
			return err
		}
		if len(patch) > 0 {
			patch["updated_at"] = s.now().UTC()
		}
		var err error
		project, err = s.repo.Update(ctx, id, patch, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *service) checkPatchDates(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) error {
	_, hasStart := patch["start_date"]
	_, hasEnd := patch["end_date"]
	if hasStart == hasEnd {
		return checkDates(patch)
	}
	current, err := s.repo.Get(ctx, id, user.BusinessID)
	if err != nil {
		return err
	}
	merged := tenant.Record{"start_date": formatDate(current.StartDate), "end_date": formatDate(current.EndDate)}
	for _, column := range []string{"start_date", "end_date"} {
		if v, ok := patch[column]; ok {
			merged[column] = v
		}
	}
	return checkDates(merged)
}

func (s *service) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, user.BusinessID)
}

// checkDates requires end_date on or after start_date when both are set
func checkDates(rec tenant.Record) error {
	start, _ := rec["start_date"].(string)
	end, _ := rec["end_date"].(string)
	if start == "" || end == "" {
		return nil
	}
	startDate, err := time.Parse(validate.DateLayout, start)
	if err != nil {
		return errors.Validation("start_date must be a date (YYYY-MM-DD)")
	}
	endDate, err := time.Parse(validate.DateLayout, end)
	if err != nil {
		return errors.Validation("end_date must be a date (YYYY-MM-DD)")
	}
	if endDate.Before(startDate) {
		return errors.Validation("end_date must not be before start_date")
	}
	return nil
}

func formatDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(validate.DateLayout)
}
