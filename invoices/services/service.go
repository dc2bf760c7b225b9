package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/invoices/models"
	"github.com/fieldcrew/api/invoices/repository"
	settingsmodels "github.com/fieldcrew/api/settings/models"
	"github.com/fieldcrew/api/shared/crud"
	sharederrors "github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/validate"
)

var listSpec = listing.Spec{
	Sortable:    []string{"invoice_number", "status", "issue_date", "due_date", "total", "created_at"},
	Search:      []string{"invoice_number"},
	DefaultSort: &tenant.Order{Column: "issue_date", Descending: true},
}

var references = []crud.Reference{
	{Column: "client_id", Table: "clients"},
	{Column: "project_id", Table: "projects"},
}

// Numberer hands out invoice numbers and invoicing defaults
type Numberer interface {
	ReserveInvoiceNumber(ctx context.Context, businessID uuid.UUID) (settingsmodels.Numbering, error)
}

// Service defines invoice operations.
type Service interface {
	List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListInvoicesQuery) (*listing.ListResponse[models.Invoice], error)
	Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Invoice, error)
	Create(ctx context.Context, user types.UserContext, req models.CreateInvoiceRequest) (*models.Invoice, error)
	Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Invoice, error)
	SetStatus(ctx context.Context, user types.UserContext, id uuid.UUID, status string) (*models.Invoice, error)
	Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error
}

type service struct {
	repo     repository.Repository
	numberer Numberer
	now      func() time.Time
}

func NewService(repo repository.Repository, numberer Numberer) Service {
	return &service{repo: repo, numberer: numberer, now: time.Now}
}

func (s *service) List(ctx context.Context, user types.UserContext, q listing.Query, f models.ListInvoicesQuery) (*listing.ListResponse[models.Invoice], error) {
	if f.Status != "" {
		if err := validate.Struct(models.StatusRequest{Status: f.Status}); err != nil {
			return nil, err
		}
	}
	conds := listing.Equals("status", f.Status)
	for _, pair := range [][2]string{{"client_id", f.ClientID}, {"project_id", f.ProjectID}} {
		ref, err := listing.Reference(pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		conds = append(conds, ref...)
	}
	opts, err := q.Options(ctx, listSpec, conds...)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, user.BusinessID, opts)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	resp := listing.Response(rows, q, total)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.Get(ctx, id, user.BusinessID)
	if err != nil {
		return nil, err
	}
	invoice.Items, err = s.repo.ListItems(ctx, id, user.BusinessID)
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Create numbers the invoice, writes it and its items in one transaction
func (s *service) Create(ctx context.Context, user types.UserContext, req models.CreateInvoiceRequest) (*models.Invoice, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	issue := s.now().UTC()
	if req.IssueDate != nil {
		parsed, err := time.Parse(validate.DateLayout, *req.IssueDate)
		if err != nil {
			return nil, sharederrors.Validation("issueDate must be a date (YYYY-MM-DD)")
		}
		issue = parsed
	}

	var invoice models.Invoice
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		numbering, err := s.numberer.ReserveInvoiceNumber(ctx, user.BusinessID)
		if err != nil {
			return fmt.Errorf("reserve invoice number: %w", err)
		}

		taxRate := numbering.DefaultTaxRate
		if req.TaxRate != nil {
			taxRate = *req.TaxRate
		}

		rec := tenant.Record{
			"invoice_number": numbering.InvoiceNumber(),
			"status":         models.StatusDraft,
			"issue_date":     issue.Format(validate.DateLayout),
			"tax_rate":       taxRate,
		}
		if req.DueDate != nil {
			rec["due_date"] = *req.DueDate
		} else {
			rec["due_date"] = issue.AddDate(0, 0, numbering.PaymentTermsDays).Format(validate.DateLayout)
		}
		if req.ClientID != nil {
			rec["client_id"] = *req.ClientID
		}
		if req.ProjectID != nil {
			rec["project_id"] = *req.ProjectID
		}
		if req.Notes != nil {
			rec["notes"] = *req.Notes
		}
		models.ComputeTotals(req.Items, taxRate).Apply(rec)
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, rec, references...); err != nil {
			return err
		}

		invoice, err = s.repo.Create(ctx, rec, user.BusinessID, &user.UserID)
		if err != nil {
			return err
		}
		invoice.Items, err = s.repo.ReplaceItems(ctx, invoice.ID, user.BusinessID, &user.UserID, req.Items)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Update edits a draft invoice. Items in the patch replace the stored items
// and the totals are recomputed whenever items or the tax rate change.
func (s *service) Update(ctx context.Context, user types.UserContext, id uuid.UUID, patch tenant.Record) (*models.Invoice, error) {
	var items []models.ItemInput
	rawItems, hasItems := patch["items"]
	delete(patch, "items")
	if hasItems {
		var err error
		if items, err = decodeItems(rawItems); err != nil {
			return nil, err
		}
	}
	if err := validate.Record(patch, models.UpdateRules); err != nil {
		return nil, err
	}

	var invoice models.Invoice
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.Get(ctx, id, user.BusinessID)
		if err != nil {
			return err
		}
		if current.Status != models.StatusDraft {
			return sharederrors.Validation("only draft invoices can be edited, invoice is %s", current.Status)
		}
		if err := crud.CheckReferences(ctx, s.repo, user.BusinessID, patch, references...); err != nil {
			return err
		}

		taxRate := current.TaxRate
		if v, ok := patch["tax_rate"].(float64); ok {
			taxRate = v
		}

		var stored []models.Item
		switch {
		case hasItems:
			if stored, err = s.repo.ReplaceItems(ctx, id, user.BusinessID, &user.UserID, items); err != nil {
				return err
			}
			models.ComputeTotals(items, taxRate).Apply(patch)
		case patch["tax_rate"] != nil:
			if stored, err = s.repo.ListItems(ctx, id, user.BusinessID); err != nil {
				return err
			}
			models.ComputeTotals(models.Inputs(stored), taxRate).Apply(patch)
		}

		if len(patch) > 0 {
			patch["updated_at"] = s.now().UTC()
		}
		invoice, err = s.repo.Update(ctx, id, patch, user.BusinessID, &user.UserID)
		if err != nil {
			return err
		}
		if stored == nil {
			stored, err = s.repo.ListItems(ctx, id, user.BusinessID)
		}
		invoice.Items = stored
		return err
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// SetStatus moves the invoice along draft, sent, paid or voids it
func (s *service) SetStatus(ctx context.Context, user types.UserContext, id uuid.UUID, status string) (*models.Invoice, error) {
	if err := validate.Struct(models.StatusRequest{Status: status}); err != nil {
		return nil, err
	}

	var invoice models.Invoice
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.Get(ctx, id, user.BusinessID)
		if err != nil {
			return err
		}
		if !models.CanTransition(current.Status, status) {
			return sharederrors.Validation("invoice cannot move from %s to %s", current.Status, status)
		}

		now := s.now().UTC()
		patch := tenant.Record{"status": status, "updated_at": now}
		switch status {
		case models.StatusSent:
			patch["sent_at"] = now
		case models.StatusPaid:
			patch["paid_at"] = now
		}
		invoice, err = s.repo.Update(ctx, id, patch, user.BusinessID, &user.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Delete removes the items and then the invoice
func (s *service) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	return s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteItems(ctx, id, user.BusinessID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id, user.BusinessID)
	})
}

func decodeItems(raw interface{}) ([]models.ItemInput, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, sharederrors.Validation("items must be a list")
	}
	var items []models.ItemInput
	if err := json.Unmarshal(encoded, &items); err != nil {
		return nil, sharederrors.Validation("items must be a list of line items")
	}
	if len(items) == 0 {
		return nil, sharederrors.Validation("an invoice needs at least one item")
	}
	for i, item := range items {
		if err := validate.Struct(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return items, nil
}
