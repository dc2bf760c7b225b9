package settings

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/settings/handlers"
)

type Handlers struct {
	SettingsHandler *handlers.SettingsHandler
}

// RegisterRoutes wires organization settings endpoints behind the given middleware chain.
func RegisterRoutes(router fiber.Router, handlers *Handlers, middleware ...fiber.Handler) {
	group := router.Group("/settings", middleware...)

	group.Get("/", handlers.SettingsHandler.Get)
	group.Put("/", handlers.SettingsHandler.Put)
}
