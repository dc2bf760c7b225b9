package repository

import (
	"context"
	"fmt"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/invoices/models"
	"github.com/fieldcrew/api/shared/crud"
)

// Repository persists invoices and their line items
type Repository interface {
	crud.Repository[models.Invoice]

	ListItems(ctx context.Context, invoiceID, businessID uuid.UUID) ([]models.Item, error)
	// ReplaceItems deletes the invoice's items and inserts items in order
	ReplaceItems(ctx context.Context, invoiceID, businessID uuid.UUID, actorID *uuid.UUID, items []models.ItemInput) ([]models.Item, error)
	DeleteItems(ctx context.Context, invoiceID, businessID uuid.UUID) error
}

type postgresRepository struct {
	crud.Repository[models.Invoice]
	items *tenant.Table[models.Item]
}

func NewRepository(store *tenant.Store) Repository {
	return &postgresRepository{
		Repository: crud.NewRepository(tenant.NewTable[models.Invoice](store, models.Table, models.Columns...)),
		items:      tenant.NewTable[models.Item](store, models.ItemTable, models.ItemColumns...),
	}
}

func byInvoice(invoiceID uuid.UUID) tenant.Filter {
	return tenant.Filter{}.And(tenant.Eq("invoice_id", invoiceID.String()))
}

func (r *postgresRepository) ListItems(ctx context.Context, invoiceID, businessID uuid.UUID) ([]models.Item, error) {
	items, err := r.items.Find(ctx, businessID, tenant.FetchOptions{
		Filter:  byInvoice(invoiceID),
		OrderBy: &tenant.Order{Column: "position"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items of invoice %s: %w", invoiceID, err)
	}
	return items, nil
}

func (r *postgresRepository) DeleteItems(ctx context.Context, invoiceID, businessID uuid.UUID) error {
	if _, err := r.items.DeleteWhere(ctx, businessID, byInvoice(invoiceID)); err != nil {
		return fmt.Errorf("failed to delete items of invoice %s: %w", invoiceID, err)
	}
	return nil
}

func (r *postgresRepository) ReplaceItems(ctx context.Context, invoiceID, businessID uuid.UUID, actorID *uuid.UUID, inputs []models.ItemInput) ([]models.Item, error) {
	if err := r.DeleteItems(ctx, invoiceID, businessID); err != nil {
		return nil, err
	}
	items := make([]models.Item, 0, len(inputs))
	for i, input := range inputs {
		item, err := r.items.Insert(ctx, tenant.Record{
			"invoice_id":  invoiceID.String(),
			"description": input.Description,
			"quantity":    input.Quantity,
			"unit_price":  input.UnitPrice,
			"amount":      input.Amount(),
			"position":    i,
		}, businessID, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to add item %d to invoice %s: %w", i, invoiceID, err)
		}
		items = append(items, item)
	}
	return items, nil
}
