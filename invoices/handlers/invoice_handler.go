package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/invoices/models"
	"github.com/fieldcrew/api/invoices/services"
	"github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/request"
)

type InvoiceHandler struct {
	service services.Service
}

func NewInvoiceHandler(service services.Service) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// List returns one page of invoices without their items.
// Endpoint: GET /invoices?page=&limit=&sort=&order=&search=&status=&client_id=&project_id=&filter=
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	q, err := listing.Parse(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var f models.ListInvoicesQuery
	if err := listing.Decode(&f, listing.Values(c)); err != nil {
		return errors.HandleServiceError(c, err)
	}

	resp, err := h.service.List(c.UserContext(), user, q, f)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Get returns an invoice with its items.
// Endpoint: GET /invoices/:id
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	id, err := request.ID(c, "id")
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	invoice, err := h.service.Get(c.UserContext(), user, id)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(invoice)
}

// Create issues a draft invoice numbered from the organization settings.
// Endpoint: POST /invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var req models.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "Invalid request body")
	}

	invoice, err := h.service.Create(c.UserContext(), user, req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(invoice)
}

// Update edits a draft invoice. An items array replaces every line item.
// Endpoint: PATCH /invoices/:id
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	id, err := request.ID(c, "id")
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	patch, err := request.Patch(c, models.UpdateFields)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	invoice, err := h.service.Update(c.UserContext(), user, id, patch)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(invoice)
}

// Delete removes an invoice and its items.
// Endpoint: DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	id, err := request.ID(c, "id")
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	if err := h.service.Delete(c.UserContext(), user, id); err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Status moves an invoice to another status.
// Endpoint: POST /invoices/:id/status
func (h *InvoiceHandler) Status(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	id, err := request.ID(c, "id")
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var req models.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "Invalid request body")
	}

	invoice, err := h.service.SetStatus(c.UserContext(), user, id, req.Status)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(invoice)
}
