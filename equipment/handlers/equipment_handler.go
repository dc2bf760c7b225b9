package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/equipment/models"
	"github.com/fieldcrew/api/equipment/services"
	"github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/request"
)

type EquipmentHandler struct {
	service services.Service
}

func NewEquipmentHandler(service services.Service) *EquipmentHandler {
	return &EquipmentHandler{service: service}
}

// List returns one page of equipment.
// Endpoint: GET /equipment?page=&limit=&sort=&order=&search=&status=&type=&assigned_crew_id=&filter=
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	q, err := listing.Parse(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var f models.ListEquipmentQuery
	if err := listing.Decode(&f, listing.Values(c)); err != nil {
		return errors.HandleServiceError(c, err)
	}

	resp, err := h.service.List(c.UserContext(), user, q, f)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Get returns a single piece of equipment.
// Endpoint: GET /equipment/:id
func (h *EquipmentHandler) Get(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	id, err := request.ID(c, "id")
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	item, err := h.service.Get(c.UserContext(), user, id)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(item)
}

// Create registers equipment to the caller's business.
// Endpoint: POST /equipment
func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var req models.CreateEquipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "Invalid request body")
	}

	item, err := h.service.Create(c.UserContext(), user, req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(item)
}

// Update applies a partial update.
// Endpoint: PATCH /equipment/:id
func (h *EquipmentHandler) Update(c *fiber.Ctx) error {
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

	item, err := h.service.Update(c.UserContext(), user, id, patch)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(item)
}

// Delete removes equipment.
// Endpoint: DELETE /equipment/:id
func (h *EquipmentHandler) Delete(c *fiber.Ctx) error {
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
