package models

import (
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/validate"
)

const Table = "equipment"

const (
	StatusAvailable   = "available"
	StatusInUse       = "in_use"
	StatusMaintenance = "maintenance"
	StatusRetired     = "retired"
)

type Equipment struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	BusinessID          uuid.UUID  `json:"businessId" db:"business_id"`
	Name                string     `json:"name" db:"name"`
	Type                *string    `json:"type" db:"type"`
	SerialNumber        *string    `json:"serialNumber" db:"serial_number"`
	Status              string     `json:"status" db:"status"`
	AssignedCrewID      *uuid.UUID `json:"assignedCrewId" db:"assigned_crew_id"`
	PurchaseDate        *time.Time `json:"purchaseDate" db:"purchase_date"`
	LastMaintenanceDate *time.Time `json:"lastMaintenanceDate" db:"last_maintenance_date"`
	Notes               *string    `json:"notes" db:"notes"`
	CreatedBy           *uuid.UUID `json:"createdBy" db:"created_by"`
	UpdatedBy           *uuid.UUID `json:"updatedBy" db:"updated_by"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" db:"updated_at"`
}

var Columns = []string{
	"id", "business_id", "name", "type", "serial_number", "status", "assigned_crew_id",
	"purchase_date", "last_maintenance_date", "notes",
	"created_by", "updated_by", "created_at", "updated_at",
}

type CreateEquipmentRequest struct {
	Name                string  `json:"name" validate:"required,max=200"`
	Type                *string `json:"type"`
	SerialNumber        *string `json:"serialNumber"`
	Status              string  `json:"status" validate:"omitempty,oneof=available in_use maintenance retired"`
	AssignedCrewID      *string `json:"assignedCrewId" validate:"omitempty,uuid"`
	PurchaseDate        *string `json:"purchaseDate" validate:"omitempty,datetime=2006-01-02"`
	LastMaintenanceDate *string `json:"lastMaintenanceDate" validate:"omitempty,datetime=2006-01-02"`
	Notes               *string `json:"notes"`
}

func (r CreateEquipmentRequest) Record() tenant.Record {
	rec := tenant.Record{"name": r.Name}
	if r.Status != "" {
		rec["status"] = r.Status
	}
	optional := map[string]*string{
		"type":                  r.Type,
		"serial_number":         r.SerialNumber,
		"assigned_crew_id":      r.AssignedCrewID,
		"purchase_date":         r.PurchaseDate,
		"last_maintenance_date": r.LastMaintenanceDate,
		"notes":                 r.Notes,
	}
	for column, v := range optional {
		if v != nil {
			rec[column] = *v
		}
	}
	return rec
}

var UpdateFields = map[string]string{
	"name":                "name",
	"type":                "type",
	"serialNumber":        "serial_number",
	"status":              "status",
	"assignedCrewId":      "assigned_crew_id",
	"purchaseDate":        "purchase_date",
	"lastMaintenanceDate": "last_maintenance_date",
	"notes":               "notes",
}

var UpdateRules = map[string]validate.Rule{
	"name":                  {Kind: validate.String, Tag: "required,max=200"},
	"type":                  {Kind: validate.String, Nullable: true},
	"serial_number":         {Kind: validate.String, Nullable: true},
	"status":                {Kind: validate.String, Tag: "oneof=available in_use maintenance retired"},
	"assigned_crew_id":      {Kind: validate.String, Tag: "uuid", Nullable: true},
	"purchase_date":         {Kind: validate.String, Tag: "datetime=2006-01-02", Nullable: true},
	"last_maintenance_date": {Kind: validate.String, Tag: "datetime=2006-01-02", Nullable: true},
	"notes":                 {Kind: validate.String, Nullable: true},
}

// ListEquipmentQuery filters the equipment list. AssignedCrewID "null"
// lists unassigned equipment.
type ListEquipmentQuery struct {
	Status         string `schema:"status"`
	Type           string `schema:"type"`
	AssignedCrewID string `schema:"assigned_crew_id"`
}
