package models

import (
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/shared/validate"
)

const Table = "business_settings"

// Settings is the organization profile and invoicing defaults of a business
type Settings struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	BusinessID        uuid.UUID  `json:"businessId" db:"business_id"`
	CompanyName       string     `json:"companyName" db:"company_name"`
	CompanyEmail      string     `json:"companyEmail" db:"company_email"`
	CompanyPhone      string     `json:"companyPhone" db:"company_phone"`
	CompanyAddress    string     `json:"companyAddress" db:"company_address"`
	Currency          string     `json:"currency" db:"currency"`
	Timezone          string     `json:"timezone" db:"timezone"`
	DefaultTaxRate    float64    `json:"defaultTaxRate" db:"default_tax_rate"`
	PaymentTermsDays  int        `json:"paymentTermsDays" db:"payment_terms_days"`
	InvoicePrefix     string     `json:"invoicePrefix" db:"invoice_prefix"`
	NextInvoiceNumber int        `json:"nextInvoiceNumber" db:"next_invoice_number"`
	CreatedBy         *uuid.UUID `json:"createdBy" db:"created_by"`
	UpdatedBy         *uuid.UUID `json:"updatedBy" db:"updated_by"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`
}

var Columns = []string{
	"id", "business_id", "company_name", "company_email", "company_phone", "company_address",
	"currency", "timezone", "default_tax_rate", "payment_terms_days", "invoice_prefix",
	"next_invoice_number", "created_by", "updated_by", "created_at", "updated_at",
}

// Defaults mirrors the column defaults of business_settings
func Defaults(businessID uuid.UUID) Settings {
	return Settings{
		BusinessID:        businessID,
		Currency:          "USD",
		Timezone:          "UTC",
		PaymentTermsDays:  30,
		InvoicePrefix:     "INV-",
		NextInvoiceNumber: 1,
	}
}

// Numbering is what an invoice needs from the settings when it is created
type Numbering struct {
	Prefix           string  `db:"invoice_prefix"`
	Number           int     `db:"number"`
	DefaultTaxRate   float64 `db:"default_tax_rate"`
	PaymentTermsDays int     `db:"payment_terms_days"`
}

// InvoiceNumber renders the number as prefix plus a zero padded sequence
func (n Numbering) InvoiceNumber() string {
	return fmt.Sprintf("%s%04d", n.Prefix, n.Number)
}

var UpdateFields = map[string]string{
	"companyName":       "company_name",
	"companyEmail":      "company_email",
	"companyPhone":      "company_phone",
	"companyAddress":    "company_address",
	"currency":          "currency",
	"timezone":          "timezone",
	"defaultTaxRate":    "default_tax_rate",
	"paymentTermsDays":  "payment_terms_days",
	"invoicePrefix":     "invoice_prefix",
	"nextInvoiceNumber": "next_invoice_number",
}

var UpdateRules = map[string]validate.Rule{
	"company_name":        {Kind: validate.String, Tag: "max=200"},
	"company_email":       {Kind: validate.String, Tag: "omitempty,email"},
	"company_phone":       {Kind: validate.String},
	"company_address":     {Kind: validate.String},
	"currency":            {Kind: validate.String, Tag: "iso4217"},
	"timezone":            {Kind: validate.String, Tag: "timezone"},
	"default_tax_rate":    {Kind: validate.Number, Tag: "gte=0,lte=100"},
	"payment_terms_days":  {Kind: validate.Number, Tag: "gte=0,lte=365"},
	"invoice_prefix":      {Kind: validate.String, Tag: "max=20"},
	"next_invoice_number": {Kind: validate.Number, Tag: "gte=1"},
}
