package equipment

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/equipment/handlers"
)

type Handlers struct {
	EquipmentHandler *handlers.EquipmentHandler
}

// RegisterRoutes wires equipment endpoints behind the given middleware chain.
func RegisterRoutes(router fiber.Router, handlers *Handlers, middleware ...fiber.Handler) {
	group := router.Group("/equipment", middleware...)

	group.Get("/", handlers.EquipmentHandler.List)
	group.Get("/:id", handlers.EquipmentHandler.Get)
	group.Post("/", handlers.EquipmentHandler.Create)
	group.Patch("/:id", handlers.EquipmentHandler.Update)
	group.Delete("/:id", handlers.EquipmentHandler.Delete)
}
