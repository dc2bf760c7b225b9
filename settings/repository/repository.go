package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/settings/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository persists the single settings row of each business
type Repository interface {
	// Find returns tenant.ErrNotFound when the business has no settings yet
	Find(ctx context.Context, businessID uuid.UUID) (models.Settings, error)
	// Upsert creates the row or updates the given columns
	Upsert(ctx context.Context, businessID uuid.UUID, actorID *uuid.UUID, rec tenant.Record) (models.Settings, error)
	// ReserveInvoiceNumber hands out the next invoice number. Run it inside a
	// transaction so the row lock is held until the invoice is written.
	ReserveInvoiceNumber(ctx context.Context, businessID uuid.UUID) (models.Numbering, error)
}

type postgresRepository struct {
	store *tenant.Store
	newID tenant.IDGenerator
}

func NewRepository(store *tenant.Store) Repository {
	return &postgresRepository{store: store, newID: uuid.NewV4}
}

func (r *postgresRepository) Find(ctx context.Context, businessID uuid.UUID) (models.Settings, error) {
	rows, err := tenant.FetchByBusiness[models.Settings](ctx, r.store, models.Table, businessID, models.Columns, tenant.FetchOptions{Limit: 1})
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if len(rows) == 0 {
		return models.Settings{}, tenant.ErrNotFound
	}
	return rows[0], nil
}

// ensureBusiness creates the business row the settings hang off
func (r *postgresRepository) ensureBusiness(ctx context.Context, exec sqlx.ExecerContext, businessID uuid.UUID, name string) error {
	query, args, err := psql.Insert("businesses").
		Columns("id", "name").
		Values(businessID.String(), name).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to register business: %w", err)
	}
	return nil
}

func (r *postgresRepository) Upsert(ctx context.Context, businessID uuid.UUID, actorID *uuid.UUID, rec tenant.Record) (models.Settings, error) {
	var result models.Settings
	if businessID == uuid.Nil {
		return result, tenant.ErrMissingBusiness
	}
	exec, err := r.store.Executor(ctx)
	if err != nil {
		return result, err
	}

	name, _ := rec["company_name"].(string)
	if err := r.ensureBusiness(ctx, exec, businessID, name); err != nil {
		return result, err
	}

	id, err := r.newID()
	if err != nil {
		return result, fmt.Errorf("failed to generate id: %w", err)
	}
	values := map[string]interface{}{
		"id":          id.String(),
		"business_id": businessID.String(),
	}
	columns := make([]string, 0, len(rec))
	for column, value := range rec {
		values[column] = value
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+2)
	for _, column := range columns {
		sets = append(sets, column+" = EXCLUDED."+column)
	}
	if actorID != nil && *actorID != uuid.Nil {
		values["created_by"] = actorID.String()
		values["updated_by"] = actorID.String()
		sets = append(sets, "updated_by = EXCLUDED.updated_by")
	}
	sets = append(sets, "updated_at = NOW()")

	query, args, err := psql.Insert(models.Table).
		SetMap(values).
		Suffix("ON CONFLICT (business_id) DO UPDATE SET " + strings.Join(sets, ", ") +
			" RETURNING " + strings.Join(models.Columns, ", ")).
		ToSql()
	if err != nil {
		return result, err
	}
	if err := exec.QueryRowxContext(ctx, query, args...).StructScan(&result); err != nil {
		return result, fmt.Errorf("failed to save settings: %w", err)
	}
	return result, nil
}

func (r *postgresRepository) ReserveInvoiceNumber(ctx context.Context, businessID uuid.UUID) (models.Numbering, error) {
	var n models.Numbering
	if businessID == uuid.Nil {
		return n, tenant.ErrMissingBusiness
	}
	exec, err := r.store.Executor(ctx)
	if err != nil {
		return n, err
	}

	query, args, err := psql.Update(models.Table).
		Set("next_invoice_number", sq.Expr("next_invoice_number + 1")).
		Where(sq.Eq{"business_id": businessID.String()}).
		Suffix("RETURNING invoice_prefix, next_invoice_number - 1 AS number, default_tax_rate, payment_terms_days").
		ToSql()
	if err != nil {
		return n, err
	}

	err = exec.QueryRowxContext(ctx, query, args...).StructScan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		// first invoice of the business: create the settings row with defaults
		if _, err := r.Upsert(ctx, businessID, nil, tenant.Record{}); err != nil {
			return n, err
		}
		err = exec.QueryRowxContext(ctx, query, args...).StructScan(&n)
	}
	if err != nil {
		return n, fmt.Errorf("failed to reserve invoice number: %w", err)
	}
	return n, nil
}
