package crews

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/crews/handlers"
)

type Handlers struct {
	CrewHandler *handlers.CrewHandler
}

// RegisterRoutes wires crew endpoints behind the given middleware chain.
func RegisterRoutes(router fiber.Router, handlers *Handlers, middleware ...fiber.Handler) {
	group := router.Group("/crews", middleware...)

	group.Get("/", handlers.CrewHandler.List)
	group.Get("/:id", handlers.CrewHandler.Get)
	group.Post("/", handlers.CrewHandler.Create)
	group.Patch("/:id", handlers.CrewHandler.Update)
	group.Delete("/:id", handlers.CrewHandler.Delete)
}
