package models

import (
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/validate"
)

const Table = "projects"

const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusOnHold     = "on_hold"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

type Project struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	BusinessID  uuid.UUID  `json:"businessId" db:"business_id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description" db:"description"`
	ClientID    *uuid.UUID `json:"clientId" db:"client_id"`
	CrewID      *uuid.UUID `json:"crewId" db:"crew_id"`
	Status      string     `json:"status" db:"status"`
	Address     *string    `json:"address" db:"address"`
	StartDate   *time.Time `json:"startDate" db:"start_date"`
	EndDate     *time.Time `json:"endDate" db:"end_date"`
	Budget      *float64   `json:"budget" db:"budget"`
	CreatedBy   *uuid.UUID `json:"createdBy" db:"created_by"`
	UpdatedBy   *uuid.UUID `json:"updatedBy" db:"updated_by"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

var Columns = []string{
	"id", "business_id", "name", "description", "client_id", "crew_id", "status",
	"address", "start_date", "end_date", "budget",
	"created_by", "updated_by", "created_at", "updated_at",
}

type CreateProjectRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description *string  `json:"description"`
	ClientID    *string  `json:"clientId" validate:"omitempty,uuid"`
	CrewID      *string  `json:"crewId" validate:"omitempty,uuid"`
	Status      string   `json:"status" validate:"omitempty,oneof=planned in_progress on_hold completed cancelled"`
	Address     *string  `json:"address"`
	StartDate   *string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Budget      *float64 `json:"budget" validate:"omitempty,gte=0"`
}

func (r CreateProjectRequest) Record() tenant.Record {
	rec := tenant.Record{"name": r.Name}
	if r.Status != "" {
		rec["status"] = r.Status
	}
	for column, v := range map[string]*string{
		"description": r.Description,
		"client_id":   r.ClientID,
		"crew_id":     r.CrewID,
		"address":     r.Address,
		"start_date":  r.StartDate,
		"end_date":    r.EndDate,
	} {
		if v != nil {
			rec[column] = *v
		}
	}
	if r.Budget != nil {
		rec["budget"] = *r.Budget
	}
	return rec
}

var UpdateFields = map[string]string{
	"name":        "name",
	"description": "description",
	"clientId":    "client_id",
	"crewId":      "crew_id",
	"status":      "status",
	"address":     "address",
	"startDate":   "start_date",
	"endDate":     "end_date",
	"budget":      "budget",
}

var UpdateRules = map[string]validate.Rule{
	"name":        {Kind: validate.String, Tag: "required,max=200"},
	"description": {Kind: validate.String, Nullable: true},
	"client_id":   {Kind: validate.String, Tag: "uuid", Nullable: true},
	"crew_id":     {Kind: validate.String, Tag: "uuid", Nullable: true},
	"status":      {Kind: validate.String, Tag: "oneof=planned in_progress on_hold completed cancelled"},
	"address":     {Kind: validate.String, Nullable: true},
	"start_date":  {Kind: validate.String, Tag: "datetime=2006-01-02", Nullable: true},
	"end_date":    {Kind: validate.String, Tag: "datetime=2006-01-02", Nullable: true},
	"budget":      {Kind: validate.Number, Tag: "gte=0", Nullable: true},
}

type ListProjectsQuery struct {
	Status   string `schema:"status"`
	ClientID string `schema:"client_id"`
	CrewID   string `schema:"crew_id"`
}
