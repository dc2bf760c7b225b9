package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/settings/models"
	"github.com/fieldcrew/api/settings/services"
	"github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/request"
)

type SettingsHandler struct {
	service services.Service
}

func NewSettingsHandler(service services.Service) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Get returns the organization settings, defaults when none were saved.
// Endpoint: GET /settings
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	settings, err := h.service.Get(c.UserContext(), user)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(settings)
}

// Put creates or updates the organization settings.
// Endpoint: PUT /settings
func (h *SettingsHandler) Put(c *fiber.Ctx) error {
	user, err := request.User(c)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	patch, err := request.Patch(c, models.UpdateFields)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	settings, err := h.service.Update(c.UserContext(), user, patch)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusOK).JSON(settings)
}
