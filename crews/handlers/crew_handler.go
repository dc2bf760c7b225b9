package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/crews/models"
	"github.com/fieldcrew/api/crews/services"
	"github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/request"
)

type CrewHandler struct {
	service services.Service
}

func NewCrewHandler(service services.Service) *CrewHandler {
	return &CrewHandler{service: service}
}

// List returns one page of crews.
// Endpoint: GET /crews?page=&limit=&sort=&order=&search=&status=&specialty=&lead_id=&filter=
func (h *CrewHandler) List(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	q, err := listing.Parse(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var f models.ListCrewsQuery
	if err := listing.Decode(&f, listing.Values(c)); err != nil {
		return errors.HandleServiceError(c, err)
	}

	resp, err := h.service.List(c.UserContext(), user, q, f)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Get returns a single crew.
// Endpoint: GET /crews/:id
func (h *CrewHandler) Get(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	id, err := request.ID(c, "id")
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	crew, err := h.service.Get(c.UserContext(), user, id)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(crew)
}

// Create adds a crew to the caller's business.
// Endpoint: POST /crews
func (h *CrewHandler) Create(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var req models.CreateCrewRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "Invalid request body")
	}

	crew, err := h.service.Create(c.UserContext(), user, req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(crew)
}

// Update applies a partial update.
// Endpoint: PATCH /crews/:id
func (h *CrewHandler) Update(c *fiber.Ctx) error {
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

	crew, err := h.service.Update(c.UserContext(), user, id, patch)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(crew)
}

// Delete removes a crew.
// Endpoint: DELETE /crews/:id
func (h *CrewHandler) Delete(c *fiber.Ctx) error {
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
