package services

import (
	"context"
	"errors"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/invoices/models"
	settingsmodels "github.com/fieldcrew/api/settings/models"
	sharederrors "github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
)

var (
	businessID = uuid.Must(uuid.FromString("3b1f0e2a-9c8d-4e7f-a6b5-c4d3e2f1a0b9"))
	userID     = uuid.Must(uuid.FromString("7e6d5c4b-3a29-4180-9f8e-7d6c5b4a3928"))
	invoiceID  = uuid.Must(uuid.FromString("1d2c3b4a-5e6f-4a7b-8c9d-0e1f2a3b4c5d"))
	caller     = types.UserContext{UserID: userID, BusinessID: businessID, Role: types.RoleManager}
	fixedNow   = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
)

type stubNumberer struct {
	numbering settingsmodels.Numbering
	err       error
	calls     int
}

func (s *stubNumberer) ReserveInvoiceNumber(ctx context.Context, id uuid.UUID) (settingsmodels.Numbering, error) {
	s.calls++
	return s.numbering, s.err
}

func newTestService() (*service, *MockRepository, *stubNumberer) {
	repo := &MockRepository{}
	numberer := &stubNumberer{numbering: settingsmodels.Numbering{
		Prefix: "INV-", Number: 42, DefaultTaxRate: 8.25, PaymentTermsDays: 30,
	}}
	return &service{repo: repo, numberer: numberer, now: func() time.Time { return fixedNow }}, repo, numberer
}

var labor = []models.ItemInput{
	{Description: "Labor", Quantity: 2.5, UnitPrice: 10},
	{Description: "Drywall", Quantity: 3, UnitPrice: 12.4},
}

func TestComputeTotals(t *testing.T) {
	totals := models.ComputeTotals(labor, 8.25)
	assert.Equal(t, 62.2, totals.Subtotal)
	assert.Equal(t, 5.13, totals.TaxAmount)
	assert.Equal(t, 67.33, totals.Total)
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("client filter", func(t *testing.T) {
		svc, repo, _ := newTestService()
		clientID := uuid.Must(uuid.NewV4())
		repo.On("List", ctx, businessID, mock.MatchedBy(func(o tenant.FetchOptions) bool {
			return assert.ObjectsAreEqual([]tenant.Condition{
				tenant.Eq("status", "sent"),
				tenant.Eq("client_id", clientID.String()),
			}, o.Filter.Where)
		})).Return([]models.Invoice{{ID: invoiceID}}, int64(1), nil)

		resp, err := svc.List(ctx, caller, listing.Query{}, models.ListInvoicesQuery{Status: "sent", ClientID: clientID.String()})
		require.NoError(t, err)
		assert.Len(t, resp.Data, 1)
		repo.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, repo, _ := newTestService()
		_, err := svc.List(ctx, caller, listing.Query{}, models.ListInvoicesQuery{Status: "overdue"})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
		assert.Len(t, repo.Calls, 0)
	})

	t.Run("bad project id", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.List(ctx, caller, listing.Query{}, models.ListInvoicesQuery{ProjectID: "nope"})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	repo.On("Get", ctx, invoiceID, businessID).Return(models.Invoice{ID: invoiceID}, nil)
	repo.On("ListItems", ctx, invoiceID, businessID).Return([]models.Item{{Description: "Labor"}}, nil)

	invoice, err := svc.Get(ctx, caller, invoiceID)
	require.NoError(t, err)
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, "Labor", invoice.Items[0].Description)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("numbers and totals the invoice", func(t *testing.T) {
		svc, repo, numberer := newTestService()
		expected := tenant.Record{
			"invoice_number": "INV-0042",
			"status":         models.StatusDraft,
			"issue_date":     "2025-04-02",
			"due_date":       "2025-05-02",
			"tax_rate":       8.25,
			"subtotal":       62.2,
			"tax_amount":     5.13,
			"total":          67.33,
		}
		repo.On("Create", ctx, expected, businessID, &caller.UserID).
			Return(models.Invoice{ID: invoiceID, InvoiceNumber: "INV-0042"}, nil)
		repo.On("ReplaceItems", ctx, invoiceID, businessID, &caller.UserID, labor).
			Return([]models.Item{{Description: "Labor"}, {Description: "Drywall"}}, nil)

		invoice, err := svc.Create(ctx, caller, models.CreateInvoiceRequest{Items: labor})
		require.NoError(t, err)
		assert.Equal(t, "INV-0042", invoice.InvoiceNumber)
		assert.Len(t, invoice.Items, 2)
		assert.Equal(t, 1, numberer.calls)
		repo.AssertExpectations(t)
	})

	t.Run("explicit dates and tax rate", func(t *testing.T) {
		svc, repo, _ := newTestService()
		issue, due, rate := "2025-01-10", "2025-01-20", 0.0
		repo.On("Create", ctx, mock.MatchedBy(func(rec tenant.Record) bool {
			return rec["issue_date"] == issue && rec["due_date"] == due && rec["tax_rate"] == rate && rec["total"] == 62.2
		}), businessID, &caller.UserID).Return(models.Invoice{ID: invoiceID}, nil)
		repo.On("ReplaceItems", ctx, invoiceID, businessID, &caller.UserID, labor).Return([]models.Item{}, nil)

		_, err := svc.Create(ctx, caller, models.CreateInvoiceRequest{IssueDate: &issue, DueDate: &due, TaxRate: &rate, Items: labor})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("requires items", func(t *testing.T) {
		svc, repo, numberer := newTestService()
		_, err := svc.Create(ctx, caller, models.CreateInvoiceRequest{})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
		assert.Zero(t, numberer.calls)
		assert.Len(t, repo.Calls, 0)
	})

	t.Run("invalid issue date", func(t *testing.T) {
		svc, repo, numberer := newTestService()
		issue := "2025-02-30"
		_, err := svc.Create(ctx, caller, models.CreateInvoiceRequest{IssueDate: &issue, Items: labor})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
		assert.Zero(t, numberer.calls)
		assert.Len(t, repo.Calls, 0)
	})

	t.Run("client of another business", func(t *testing.T) {
		svc, repo, _ := newTestService()
		clientID := uuid.Must(uuid.NewV4())
		repo.On("Exists", ctx, "clients", clientID, businessID).Return(tenant.ErrNotFound)

		client := clientID.String()
		_, err := svc.Create(ctx, caller, models.CreateInvoiceRequest{ClientID: &client, Items: labor})
		require.True(t, errors.Is(err, sharederrors.ErrValidation))
		assert.Contains(t, err.Error(), "client_id")
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "ReplaceItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("numbering failure aborts", func(t *testing.T) {
		svc, repo, numberer := newTestService()
		numberer.err = tenant.ErrStoreUninitialized

		_, err := svc.Create(ctx, caller, models.CreateInvoiceRequest{Items: labor})
		assert.True(t, errors.Is(err, tenant.ErrStoreUninitialized))
		assert.Len(t, repo.Calls, 0)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("replacing items recomputes totals", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.On("Get", ctx, invoiceID, businessID).Return(models.Invoice{ID: invoiceID, Status: models.StatusDraft, TaxRate: 10}, nil)
		items := []models.ItemInput{{Description: "Paint", Quantity: 4, UnitPrice: 25}}
		repo.On("ReplaceItems", ctx, invoiceID, businessID, &caller.UserID, items).
			Return([]models.Item{{Description: "Paint", Amount: 100}}, nil)
		repo.On("Update", ctx, invoiceID, tenant.Record{
			"subtotal": 100.0, "tax_amount": 10.0, "total": 110.0, "updated_at": fixedNow,
		}, businessID, &caller.UserID).Return(models.Invoice{ID: invoiceID, Total: 110}, nil)

		patch := tenant.Record{"items": []interface{}{
			map[string]interface{}{"description": "Paint", "quantity": 4.0, "unitPrice": 25.0},
		}}
		invoice, err := svc.Update(ctx, caller, invoiceID, patch)
		require.NoError(t, err)
		assert.Equal(t, 110.0, invoice.Total)
		assert.Len(t, invoice.Items, 1)
		repo.AssertExpectations(t)
	})

	t.Run("tax rate change uses stored items", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.On("Get", ctx, invoiceID, businessID).Return(models.Invoice{ID: invoiceID, Status: models.StatusDraft}, nil)
		repo.On("ListItems", ctx, invoiceID, businessID).
			Return([]models.Item{{Description: "Paint", Quantity: 1, UnitPrice: 200}}, nil)
		repo.On("Update", ctx, invoiceID, tenant.Record{
			"tax_rate": 5.0, "subtotal": 200.0, "tax_amount": 10.0, "total": 210.0, "updated_at": fixedNow,
		}, businessID, &caller.UserID).Return(models.Invoice{ID: invoiceID}, nil)

		_, err := svc.Update(ctx, caller, invoiceID, tenant.Record{"tax_rate": 5.0})
		require.NoError(t, err)
		repo.AssertNumberOfCalls(t, "ListItems", 1)
	})

	t.Run("sent invoices are locked", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.On("Get", ctx, invoiceID, businessID).Return(models.Invoice{ID: invoiceID, Status: models.StatusSent}, nil)

		_, err := svc.Update(ctx, caller, invoiceID, tenant.Record{"notes": "late"})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed items", func(t *testing.T) {
		svc, repo, _ := newTestService()
		_, err := svc.Update(ctx, caller, invoiceID, tenant.Record{"items": "paint"})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))

		_, err = svc.Update(ctx, caller, invoiceID, tenant.Record{"items": []interface{}{}})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))

		_, err = svc.Update(ctx, caller, invoiceID, tenant.Record{"items": []interface{}{
			map[string]interface{}{"description": "", "quantity": 1.0},
		}})
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
		assert.Len(t, repo.Calls, 0)
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.On("Get", ctx, invoiceID, businessID).Return(nil, tenant.ErrNotFound)

		_, err := svc.Update(ctx, caller, invoiceID, tenant.Record{"notes": "x"})
		assert.True(t, errors.Is(err, tenant.ErrNotFound))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("sending stamps sent_at", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.On("Get", ctx, invoiceID, businessID).Return(models.Invoice{ID: invoiceID, Status: models.StatusDraft}, nil)
		repo.On("Update", ctx, invoiceID, tenant.Record{
			"status": models.StatusSent, "sent_at": fixedNow, "updated_at": fixedNow,
		}, businessID, &caller.UserID).Return(models.Invoice{ID: invoiceID, Status: models.StatusSent}, nil)

		invoice, err := svc.SetStatus(ctx, caller, invoiceID, models.StatusSent)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSent, invoice.Status)
	})

	t.Run("draft cannot be paid", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.On("Get", ctx, invoiceID, businessID).Return(models.Invoice{ID: invoiceID, Status: models.StatusDraft}, nil)

		_, err := svc.SetStatus(ctx, caller, invoiceID, models.StatusPaid)
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
	})

	t.Run("void is terminal", func(t *testing.T) {
		assert.False(t, models.CanTransition(models.StatusVoid, models.StatusDraft))
		assert.True(t, models.CanTransition(models.StatusPaid, models.StatusVoid))
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, repo, _ := newTestService()
		_, err := svc.SetStatus(ctx, caller, invoiceID, "archived")
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
		assert.Len(t, repo.Calls, 0)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("items then invoice", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.On("DeleteItems", ctx, invoiceID, businessID).Return(nil)
		repo.On("Delete", ctx, invoiceID, businessID).Return(nil)

		require.NoError(t, svc.Delete(ctx, caller, invoiceID))
		repo.AssertExpectations(t)
	})

	t.Run("stops when items fail", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.On("DeleteItems", ctx, invoiceID, businessID).Return(tenant.ErrStoreUninitialized)

		err := svc.Delete(ctx, caller, invoiceID)
		assert.True(t, errors.Is(err, tenant.ErrStoreUninitialized))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateForeignProject(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	projectID := uuid.Must(uuid.NewV4())
	repo.On("Get", ctx, invoiceID, businessID).Return(models.Invoice{ID: invoiceID, Status: models.StatusDraft}, nil)
	repo.On("Exists", ctx, "projects", projectID, businessID).Return(tenant.ErrNotFound)

	_, err := svc.Update(ctx, caller, invoiceID, tenant.Record{"project_id": projectID.String()})
	require.True(t, errors.Is(err, sharederrors.ErrValidation))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
