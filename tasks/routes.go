package tasks

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/tasks/handlers"
)

type Handlers struct {
	TaskHandler *handlers.TaskHandler
}

// RegisterRoutes wires task endpoints behind the given middleware chain.
func RegisterRoutes(router fiber.Router, handlers *Handlers, middleware ...fiber.Handler) {
	group := router.Group("/tasks", middleware...)

	group.Get("/", handlers.TaskHandler.List)
	group.Get("/:id", handlers.TaskHandler.Get)
	group.Post("/", handlers.TaskHandler.Create)
	group.Patch("/:id", handlers.TaskHandler.Update)
	group.Delete("/:id", handlers.TaskHandler.Delete)
}
