package projects

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/projects/handlers"
)

type Handlers struct {
	ProjectHandler *handlers.ProjectHandler
}

// RegisterRoutes wires project endpoints behind the given middleware chain.
func RegisterRoutes(router fiber.Router, handlers *Handlers, middleware ...fiber.Handler) {
	group := router.Group("/projects", middleware...)

	group.Get("/", handlers.ProjectHandler.List)
	group.Get("/:id", handlers.ProjectHandler.Get)
	group.Post("/", handlers.ProjectHandler.Create)
	group.Patch("/:id", handlers.ProjectHandler.Update)
	group.Delete("/:id", handlers.ProjectHandler.Delete)
}
