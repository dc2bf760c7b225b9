package services

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/equipment/models"
	"github.com/fieldcrew/api/equipment/repository"
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/shared/crud"
	"github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/validate"
)

var listSpec = listing.Spec{
	Sortable:    []string{"name", "type", "status", "purchase_date", "last_maintenance_date", "created_at"},
	Search:      []string{"name", "serial_number"},
	DefaultSort: &tenant.Order{Column: "name"},
}

var references = []crud.Reference{{Column: "assigned_crew_id", Table: "crews"}}

// Service defines equipment operations.
type Service interface {
	List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListEquipmentQuery) (*listing.ListResponse[models.Equipment], error)
	Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Equipment, error)
	Create(ctx context.Context, user types.UserContext, req models.CreateEquipmentRequest) (*models.Equipment, error)
	Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Equipment, error)
	Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error
}

type service struct {
	repo repository.Repository
	now  func() time.Time
}

func NewService(repo repository.Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListEquipmentQuery) (*listing.ListResponse[models.Equipment], error) {
	crew, err := listing.Reference("assigned_crew_id", f.AssignedCrewID)
	if err != nil {
		return nil, err
	}
	conds := append(listing.Equals("status", f.Status), listing.Equals("type", f.Type)...)
	opts, err := q.Options(ctx, listSpec, append(conds, crew...)...)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, user.BusinessID, opts)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	resp := listing.Response(rows, q, total)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Equipment, error) {
	item, err := s.repo.Get(ctx, id, user.BusinessID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *service) Create(ctx context.Context, user types.UserContext, req models.CreateEquipmentRequest) (*models.Equipment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	rec := req.Record()
	if err := checkAssignment(rec); err != nil {
		return nil, err
	}

	var item models.Equipment
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, rec, references...); err != nil {
			return err
		}
		var err error
		item, err = s.repo.Create(ctx, rec, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies patch. A patch that retires the item or assigns a crew
// without touching the other column is checked against the stored row.
func (s *service) Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Equipment, error) {
	if err := validate.Record(patch, models.UpdateRules); err != nil {
		return nil, err
	}
	if err := checkAssignment(patch); err != nil {
		return nil, err
	}

	var item models.Equipment
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkStoredAssignment(ctx, user, id, patch); err != nil {
			return err
		}
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, patch, references...); err != nil {
			return err
		}
		if len(patch) > 0 {
			patch["updated_at"] = s.now().UTC()
		}
		var err error
		item, err = s.repo.Update(ctx, id, patch, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *service) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, user.BusinessID)
}

func (s *service) checkStoredAssignment(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) error {
	status, hasStatus := patch["status"]
	crew, hasCrew := patch["assigned_crew_id"]
	if hasStatus == hasCrew {
		return nil
	}
	if status != models.StatusRetired && (!hasCrew || crud.IsNull(crew)) {
		return nil
	}
	current, err := s.repo.Get(ctx, id, user.BusinessID)
	if err != nil {
		return err
	}
	merged := tenant.Record{"status": current.Status, "assigned_crew_id": current.AssignedCrewID}
	for _, column := range []string{"status", "assigned_crew_id"} {
		if v, ok := patch[column]; ok {
			merged[column] = v
		}
	}
	return checkAssignment(merged)
}

// checkAssignment rejects retired equipment that is still assigned to a crew
func checkAssignment(rec tenant.Record) error {
	if rec["status"] != models.StatusRetired {
		return nil
	}
	if crew, ok := rec["assigned_crew_id"]; ok && !crud.IsNull(crew) {
		return errors.Validation("retired equipment cannot be assigned to a crew")
	}
	return nil
}
