package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/projects/models"
	"github.com/fieldcrew/api/projects/services"
	"github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/listing"
	"github.com/fieldcrew/api/shared/request"
)

type ProjectHandler struct {
	service services.Service
}

func NewProjectHandler(service services.Service) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// List returns one page of projects.
// Endpoint: GET /projects?page=&limit=&sort=&order=&search=&status=&client_id=&crew_id=&filter=
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	q, err := listing.Parse(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var f models.ListProjectsQuery
	if err := listing.Decode(&f, listing.Values(c)); err != nil {
		return errors.HandleServiceError(c, err)
	}

	resp, err := h.service.List(c.UserContext(), user, q, f)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Get returns a single project.
// Endpoint: GET /projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	id, err := request.ID(c, "id")
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	project, err := h.service.Get(c.UserContext(), user, id)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(project)
}

// Create creates a project to the caller's business.
// Endpoint: POST /projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	var req models.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "Invalid request body")
	}

	project, err := h.service.Create(c.UserContext(), user, req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(project)
}

// Update applies a partial update.
// Endpoint: PATCH /projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
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

	project, err := h.service.Update(c.UserContext(), user, id, patch)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(project)
}

// Delete removes a project.
// Endpoint: DELETE /projects/:id
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
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
