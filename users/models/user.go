package models

import (
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/validate"
)

const Table = "users"

const (
	StatusActive   = "active"
	StatusInvited  = "invited"
	StatusDisabled = "disabled"
)

// Member is a person on the business's team
type Member struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	BusinessID uuid.UUID  `json:"businessId" db:"business_id"`
	Email      string     `json:"email" db:"email"`
	FullName   string     `json:"fullName" db:"full_name"`
	Phone      *string    `json:"phone" db:"phone"`
	Role       string     `json:"role" db:"role"`
	Status     string     `json:"status" db:"status"`
	CrewID     *uuid.UUID `json:"crewId" db:"crew_id"`
	HourlyRate *float64   `json:"hourlyRate" db:"hourly_rate"`
	CreatedBy  *uuid.UUID `json:"createdBy" db:"created_by"`
	UpdatedBy  *uuid.UUID `json:"updatedBy" db:"updated_by"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

var Columns = []string{
	"id", "business_id", "email", "full_name", "phone", "role", "status", "crew_id",
	"hourly_rate", "created_by", "updated_by", "created_at", "updated_at",
}

// CreateMemberRequest adds a member. ID lets the caller reuse the identity
// provider's user id.
type CreateMemberRequest struct {
	ID         *string  `json:"id" validate:"omitempty,uuid"`
	Email      string   `json:"email" validate:"required,email"`
	FullName   string   `json:"fullName" validate:"required,max=200"`
	Phone      *string  `json:"phone"`
	Role       string   `json:"role" validate:"omitempty,oneof=owner admin manager worker"`
	Status     string   `json:"status" validate:"omitempty,oneof=active invited disabled"`
	CrewID     *string  `json:"crewId" validate:"omitempty,uuid"`
	HourlyRate *float64 `json:"hourlyRate" validate:"omitempty,gte=0"`
}

func (r CreateMemberRequest) Record() tenant.Record {
	rec := tenant.Record{"email": r.Email, "full_name": r.FullName}
	if r.ID != nil {
		rec["id"] = *r.ID
	}
	if r.Phone != nil {
		rec["phone"] = *r.Phone
	}
	if r.Role != "" {
		rec["role"] = r.Role
	}
	if r.Status != "" {
		rec["status"] = r.Status
	}
	if r.CrewID != nil {
		rec["crew_id"] = *r.CrewID
	}
	if r.HourlyRate != nil {
		rec["hourly_rate"] = *r.HourlyRate
	}
	return rec
}

var UpdateFields = map[string]string{
	"email":      "email",
	"fullName":   "full_name",
	"phone":      "phone",
	"role":       "role",
	"status":     "status",
	"crewId":     "crew_id",
	"hourlyRate": "hourly_rate",
}

var UpdateRules = map[string]validate.Rule{
	"email":       {Kind: validate.String, Tag: "required,email"},
	"full_name":   {Kind: validate.String, Tag: "required,max=200"},
	"phone":       {Kind: validate.String, Nullable: true},
	"role":        {Kind: validate.String, Tag: "oneof=owner admin manager worker"},
	"status":      {Kind: validate.String, Tag: "oneof=active invited disabled"},
	"crew_id":     {Kind: validate.String, Tag: "uuid", Nullable: true},
	"hourly_rate": {Kind: validate.Number, Tag: "gte=0", Nullable: true},
}

type ListMembersQuery struct {
	Role   string `schema:"role"`
	Status string `schema:"status"`
	CrewID string `schema:"crew_id"`
}
