package models

import (
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/validate"
)

const Table = "clients"

// Client pipeline stages
const (
	StatusLead     = "lead"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Client struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	BusinessID uuid.UUID  `json:"businessId" db:"business_id"`
	Name       string     `json:"name" db:"name"`
	Email      *string    `json:"email" db:"email"`
	Phone      *string    `json:"phone" db:"phone"`
	Company    *string    `json:"company" db:"company"`
	Address    *string    `json:"address" db:"address"`
	Status     string     `json:"status" db:"status"`
	Notes      *string    `json:"notes" db:"notes"`
	CreatedBy  *uuid.UUID `json:"createdBy" db:"created_by"`
	UpdatedBy  *uuid.UUID `json:"updatedBy" db:"updated_by"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

var Columns = []string{
	"id", "business_id", "name", "email", "phone", "company", "address",
	"status", "notes", "created_by", "updated_by", "created_at", "updated_at",
}

type CreateClientRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Address *string `json:"address"`
	Status  string  `json:"status" validate:"omitempty,oneof=lead active inactive"`
	Notes   *string `json:"notes"`
}

// Record returns the columns set by the request
func (r CreateClientRequest) Record() tenant.Record {
	rec := tenant.Record{"name": r.Name}
	if r.Status != "" {
		rec["status"] = r.Status
	}
	setOptional(rec, "email", r.Email)
	setOptional(rec, "phone", r.Phone)
	setOptional(rec, "company", r.Company)
	setOptional(rec, "address", r.Address)
	setOptional(rec, "notes", r.Notes)
	return rec
}

func setOptional(rec tenant.Record, column string, v *string) {
	if v != nil {
		rec[column] = *v
	}
}

// UpdateFields maps the JSON names accepted by PATCH to their columns
var UpdateFields = map[string]string{
	"name":    "name",
	"email":   "email",
	"phone":   "phone",
	"company": "company",
	"address": "address",
	"status":  "status",
	"notes":   "notes",
}

var UpdateRules = map[string]validate.Rule{
	"name":    {Kind: validate.String, Tag: "required,max=200"},
	"email":   {Kind: validate.String, Tag: "omitempty,email", Nullable: true},
	"phone":   {Kind: validate.String, Nullable: true},
	"company": {Kind: validate.String, Nullable: true},
	"address": {Kind: validate.String, Nullable: true},
	"status":  {Kind: validate.String, Tag: "oneof=lead active inactive"},
	"notes":   {Kind: validate.String, Nullable: true},
}

// ListClientsQuery holds the client specific list filters
type ListClientsQuery struct {
	Status string `schema:"status"`
}
