package models

import (
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/validate"
)

const Table = "crews"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Crew struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	BusinessID uuid.UUID  `json:"businessId" db:"business_id"`
	Name       string     `json:"name" db:"name"`
	Specialty  *string    `json:"specialty" db:"specialty"`
	LeadID     *uuid.UUID `json:"leadId" db:"lead_id"`
	Status     string     `json:"status" db:"status"`
	CreatedBy  *uuid.UUID `json:"createdBy" db:"created_by"`
	UpdatedBy  *uuid.UUID `json:"updatedBy" db:"updated_by"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

var Columns = []string{
	"id", "business_id", "name", "specialty", "lead_id", "status",
	"created_by", "updated_by", "created_at", "updated_at",
}

type CreateCrewRequest struct {
	Name      string  `json:"name" validate:"required,max=120"`
	Specialty *string `json:"specialty"`
	LeadID    *string `json:"leadId" validate:"omitempty,uuid"`
	Status    string  `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r CreateCrewRequest) Record() tenant.Record {
	rec := tenant.Record{"name": r.Name}
	if r.Specialty != nil {
		rec["specialty"] = *r.Specialty
	}
	if r.LeadID != nil {
		rec["lead_id"] = *r.LeadID
	}
	if r.Status != "" {
		rec["status"] = r.Status
	}
	return rec
}

var UpdateFields = map[string]string{
	"name":      "name",
	"specialty": "specialty",
	"leadId":    "lead_id",
	"status":    "status",
}

var UpdateRules = map[string]validate.Rule{
	"name":      {Kind: validate.String, Tag: "required,max=120"},
	"specialty": {Kind: validate.String, Nullable: true},
	"lead_id":   {Kind: validate.String, Tag: "uuid", Nullable: true},
	"status":    {Kind: validate.String, Tag: "oneof=active inactive"},
}

type ListCrewsQuery struct {
	Status    string `schema:"status"`
	Specialty string `schema:"specialty"`
	LeadID    string `schema:"lead_id"`
}
