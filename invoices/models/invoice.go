package models

import (
	"math"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/shared/validate"
)

const (
	Table     = "invoices"
	ItemTable = "invoice_items"
)

const (
	StatusDraft = "draft"
	StatusSent  = "sent"
	StatusPaid  = "paid"
	StatusVoid  = "void"
)

type Invoice struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	BusinessID    uuid.UUID  `json:"businessId" db:"business_id"`
	ClientID      *uuid.UUID `json:"clientId" db:"client_id"`
	ProjectID     *uuid.UUID `json:"projectId" db:"project_id"`
	InvoiceNumber string     `json:"invoiceNumber" db:"invoice_number"`
	Status        string     `json:"status" db:"status"`
	IssueDate     time.Time  `json:"issueDate" db:"issue_date"`
	DueDate       *time.Time `json:"dueDate" db:"due_date"`
	Subtotal      float64    `json:"subtotal" db:"subtotal"`
	TaxRate       float64    `json:"taxRate" db:"tax_rate"`
	TaxAmount     float64    `json:"taxAmount" db:"tax_amount"`
	Total         float64    `json:"total" db:"total"`
	Notes         *string    `json:"notes" db:"notes"`
	SentAt        *time.Time `json:"sentAt" db:"sent_at"`
	PaidAt        *time.Time `json:"paidAt" db:"paid_at"`
	CreatedBy     *uuid.UUID `json:"createdBy" db:"created_by"`
	UpdatedBy     *uuid.UUID `json:"updatedBy" db:"updated_by"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`

	Items []Item `json:"items,omitempty" db:"-"`
}

var Columns = []string{
	"id", "business_id", "client_id", "project_id", "invoice_number", "status",
	"issue_date", "due_date", "subtotal", "tax_rate", "tax_amount", "total", "notes",
	"sent_at", "paid_at", "created_by", "updated_by", "created_at", "updated_at",
}

// Item is one line of an invoice
type Item struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	BusinessID  uuid.UUID  `json:"businessId" db:"business_id"`
	InvoiceID   uuid.UUID  `json:"invoiceId" db:"invoice_id"`
	Description string     `json:"description" db:"description"`
	Quantity    float64    `json:"quantity" db:"quantity"`
	UnitPrice   float64    `json:"unitPrice" db:"unit_price"`
	Amount      float64    `json:"amount" db:"amount"`
	Position    int        `json:"position" db:"position"`
	CreatedBy   *uuid.UUID `json:"createdBy" db:"created_by"`
	UpdatedBy   *uuid.UUID `json:"updatedBy" db:"updated_by"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

var ItemColumns = []string{
	"id", "business_id", "invoice_id", "description", "quantity", "unit_price", "amount",
	"position", "created_by", "updated_by", "created_at", "updated_at",
}

type ItemInput struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
}

// Amount is quantity times unit price rounded to cents
func (i ItemInput) Amount() float64 {
	return RoundCents(i.Quantity * i.UnitPrice)
}

type CreateInvoiceRequest struct {
	ClientID  *string     `json:"clientId" validate:"omitempty,uuid"`
	ProjectID *string     `json:"projectId" validate:"omitempty,uuid"`
	IssueDate *string     `json:"issueDate" validate:"omitempty,datetime=2006-01-02"`
	DueDate   *string     `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	TaxRate   *float64    `json:"taxRate" validate:"omitempty,gte=0,lte=100"`
	Notes     *string     `json:"notes"`
	Items     []ItemInput `json:"items" validate:"required,min=1,dive"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent paid void"`
}

// Totals are the computed money columns of an invoice
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// ComputeTotals sums the item amounts and applies taxRate, a percentage
func ComputeTotals(items []ItemInput, taxRate float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Amount()
	}
	subtotal = RoundCents(subtotal)
	tax := RoundCents(subtotal * taxRate / 100)
	return Totals{Subtotal: subtotal, TaxAmount: tax, Total: RoundCents(subtotal + tax)}
}

// Apply writes the totals into rec
func (t Totals) Apply(rec tenant.Record) {
	rec["subtotal"] = t.Subtotal
	rec["tax_amount"] = t.TaxAmount
	rec["total"] = t.Total
}

func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Inputs converts stored items back to inputs for recomputation
func Inputs(items []Item) []ItemInput {
	inputs := make([]ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, ItemInput{Description: item.Description, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return inputs
}

// transitions lists the statuses reachable from each status
var transitions = map[string][]string{
	StatusDraft: {StatusSent, StatusVoid},
	StatusSent:  {StatusPaid, StatusVoid},
	StatusPaid:  {StatusVoid},
}

// CanTransition reports whether an invoice may move from one status to another
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateFields maps the JSON names accepted by PATCH. Items are handled
// separately since they live in their own table.
var UpdateFields = map[string]string{
	"clientId":  "client_id",
	"projectId": "project_id",
	"issueDate": "issue_date",
	"dueDate":   "due_date",
	"taxRate":   "tax_rate",
	"notes":     "notes",
	"items":     "items",
}

var UpdateRules = map[string]validate.Rule{
	"client_id":  {Kind: validate.String, Tag: "uuid", Nullable: true},
	"project_id": {Kind: validate.String, Tag: "uuid", Nullable: true},
	"issue_date": {Kind: validate.String, Tag: "datetime=2006-01-02"},
	"due_date":   {Kind: validate.String, Tag: "datetime=2006-01-02", Nullable: true},
	"tax_rate":   {Kind: validate.Number, Tag: "gte=0,lte=100"},
	"notes":      {Kind: validate.String, Nullable: true},
}

type ListInvoicesQuery struct {
	Status    string `schema:"status"`
	ClientID  string `schema:"client_id"`
	ProjectID string `schema:"project_id"`
}
