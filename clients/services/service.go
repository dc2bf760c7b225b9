package services

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/clients/models"
	"github.com/fieldcrew/api/clients/repository"
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/validate"
)

var listSpec = listing.Spec{
	Sortable:    []string{"name", "company", "status", "created_at", "updated_at"},
	Search:      []string{"name", "email", "company"},
	DefaultSort: &tenant.Order{Column: "created_at", Descending: true},
}

// Service defines client operations scoped to the caller's business.
type Service interface {
	List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListClientsQuery) (*listing.ListResponse[models.Client], error)
	Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Client, error)
	Create(ctx context.Context, user types.UserContext, req models.CreateClientRequest) (*models.Client, error)
	Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Client, error)
	Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error
}

type service struct {
	repo repository.Repository
	now  func() time.Time
}

func NewService(repo repository.Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListClientsQuery) (*listing.ListResponse[models.Client], error) {
	if f.Status != "" {
		if err := validate.Record(tenant.Record{"status": f.Status}, models.UpdateRules); err != nil {
			return nil, err
		}
	}
	opts, err := q.Options(ctx, listSpec, listing.Equals("status", f.Status)...)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, user.BusinessID, opts)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	resp := listing.Response(rows, q, total)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Client, error) {
	client, err := s.repo.Get(ctx, id, user.BusinessID)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *service) Create(ctx context.Context, user types.UserContext, req models.CreateClientRequest) (*models.Client, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	client, err := s.repo.Create(ctx, req.Record(), user.BusinessID, &user.UserID)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *service) Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Client, error) {
	if err := validate.Record(patch, models.UpdateRules); err != nil {
		return nil, err
	}
	if len(patch) > 0 {
		patch["updated_at"] = s.now().UTC()
	}
	client, err := s.repo.Update(ctx, id, patch, user.BusinessID, &user.UserID)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *service) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, user.BusinessID)
}
