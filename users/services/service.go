package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/shared/crud"
	"github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/validate"
	"github.com/fieldcrew/api/users/models"
	"github.com/fieldcrew/api/users/repository"
)

var listSpec = listing.Spec{
	Sortable:    []string{"full_name", "email", "role", "status", "created_at"},
	Search:      []string{"full_name", "email"},
	DefaultSort: &tenant.Order{Column: "full_name"},
}

var references = []crud.Reference{{Column: "crew_id", Table: "crews"}}

// Service defines team member operations. Reads are open to every role,
// changes require an owner or admin.
type Service interface {
	List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListMembersQuery) (*listing.ListResponse[models.Member], error)
	Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Member, error)
	Create(ctx context.Context, user types.UserContext, req models.CreateMemberRequest) (*models.Member, error)
	Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Member, error)
	Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error
}

type service struct {
	repo repository.Repository
	now  func() time.Time
}

func NewService(repo repository.Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListMembersQuery) (*listing.ListResponse[models.Member], error) {
	crew, err := listing.Reference("crew_id", f.CrewID)
	if err != nil {
		return nil, err
	}
	conds := append(listing.Equals("role", f.Role), listing.Equals("status", f.Status)...)
	opts, err := q.Options(ctx, listSpec, append(conds, crew...)...)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, user.BusinessID, opts)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	resp := listing.Response(rows, q, total)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Member, error) {
	member, err := s.repo.Get(ctx, id, user.BusinessID)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *service) Create(ctx context.Context, user types.UserContext, req models.CreateMemberRequest) (*models.Member, error) {
	if !user.CanManage() {
		return nil, errors.ErrForbidden
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Role == types.RoleOwner && user.Role != types.RoleOwner {
		return nil, fmt.Errorf("%w: only an owner can add another owner", errors.ErrForbidden)
	}
	rec := req.Record()

	var member models.Member
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, rec, references...); err != nil {
			return err
		}
		var err error
		member, err = s.repo.Create(ctx, rec, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *service) Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Member, error) {
	if !user.CanManage() {
		return nil, errors.ErrForbidden
	}
	if email, ok := patch["email"].(string); ok {
		patch["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	if err := validate.Record(patch, models.UpdateRules); err != nil {
		return nil, err
	}
	if role, ok := patch["role"]; ok {
		if role == types.RoleOwner && user.Role != types.RoleOwner {
			return nil, fmt.Errorf("%w: only an owner can grant the owner role", errors.ErrForbidden)
		}
		if id == user.UserID && role != user.Role {
			return nil, errors.Validation("you cannot change your own role")
		}
	}
	if len(patch) > 0 {
		patch["updated_at"] = s.now().UTC()
	}

	var member models.Member
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, patch, references...); err != nil {
			return err
		}
		var err error
		member, err = s.repo.Update(ctx, id, patch, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *service) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	if !user.CanManage() {
		return errors.ErrForbidden
	}
	if id == user.UserID {
		return errors.Validation("you cannot remove yourself")
	}
	return s.repo.Delete(ctx, id, user.BusinessID)
}
