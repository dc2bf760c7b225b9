package services

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/crews/models"
	"github.com/fieldcrew/api/crews/repository"
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/shared/crud"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/validate"
)

var listSpec = listing.Spec{
	Sortable:    []string{"name", "specialty", "status", "created_at"},
	Search:      []string{"name"},
	DefaultSort: &tenant.Order{Column: "name"},
}

var references = []crud.Reference{{Column: "lead_id", Table: "users"}}

// Service defines crew operations.
type Service interface {
	List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListCrewsQuery) (*listing.ListResponse[models.Crew], error)
	Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Crew, error)
	Create(ctx context.Context, user types.UserContext, req models.CreateCrewRequest) (*models.Crew, error)
	Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Crew, error)
	Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error
}

type service struct {
	repo repository.Repository
	now  func() time.Time
}

func NewService(repo repository.Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListCrewsQuery) (*listing.ListResponse[models.Crew], error) {
	conds := append(listing.Equals("status", f.Status), listing.Equals("specialty", f.Specialty)...)
	lead, err := listing.Reference("lead_id", f.LeadID)
	if err != nil {
		return nil, err
	}
	opts, err := q.Options(ctx, listSpec, append(conds, lead...)...)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, user.BusinessID, opts)
	if err != nil {
		return nil, fmt.Errorf("list crews: %w", err)
	}
	resp := listing.Response(rows, q, total)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Crew, error) {
	crew, err := s.repo.Get(ctx, id, user.BusinessID)
	if err != nil {
		return nil, err
	}
	return &crew, nil
}

func (s *service) Create(ctx context.Context, user types.UserContext, req models.CreateCrewRequest) (*models.Crew, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	rec := req.Record()

	var crew models.Crew
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, rec, references...); err != nil {
			return err
		}
		var err error
		crew, err = s.repo.Create(ctx, rec, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &crew, nil
}

func (s *service) Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Crew, error) {
	if err := validate.Record(patch, models.UpdateRules); err != nil {
		return nil, err
	}
	if len(patch) > 0 {
		patch["updated_at"] = s.now().UTC()
	}

	var crew models.Crew
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, patch, references...); err != nil {
			return err
		}
		var err error
		crew, err = s.repo.Update(ctx, id, patch, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &crew, nil
}

func (s *service) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, user.BusinessID)
}
