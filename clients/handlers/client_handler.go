package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/clients/models"
	"github.com/fieldcrew/api/clients/services"
	"github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/request"
)

type ClientHandler struct {
	service services.Service
}

func NewClientHandler(service services.Service) *ClientHandler {
	return &ClientHandler{service: service}
}

// List returns one page of clients.
// Endpoint: GET /clients?page=&limit=&sort=&order=&search=&status=&filter=
func (h *ClientHandler) List(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	q, err := listing.Parse(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var f models.ListClientsQuery
	if err := listing.Decode(&f, listing.Values(c)); err != nil {
		return errors.HandleServiceError(c, err)
	}

	resp, err := h.service.List(c.UserContext(), user, q, f)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Get returns a single client.
// Endpoint: GET /clients/:id
func (h *ClientHandler) Get(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	id, err := request.ID(c, "id")
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	client, err := h.service.Get(c.UserContext(), user, id)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(client)
}

// Create adds a client to the caller's business.
// Endpoint: POST /clients
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var req models.CreateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "Invalid request body")
	}

	client, err := h.service.Create(c.UserContext(), user, req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(client)
}

// Update applies a partial update.
// Endpoint: PATCH /clients/:id
func (h *ClientHandler) Update(c *fiber.Ctx) error {
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

	client, err := h.service.Update(c.UserContext(), user, id, patch)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(client)
}

// Delete removes a client.
// Endpoint: DELETE /clients/:id
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
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
