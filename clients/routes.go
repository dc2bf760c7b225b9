package clients

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/clients/handlers"
)

type Handlers struct {
	ClientHandler *handlers.ClientHandler
}

// RegisterRoutes wires client endpoints behind the given middleware chain.
func RegisterRoutes(router fiber.Router, handlers *Handlers, middleware ...fiber.Handler) {
	group := router.Group("/clients", middleware...)

	group.Get("/", handlers.ClientHandler.List)
	group.Get("/:id", handlers.ClientHandler.Get)
	group.Post("/", handlers.ClientHandler.Create)
	group.Patch("/:id", handlers.ClientHandler.Update)
	group.Delete("/:id", handlers.ClientHandler.Delete)
}
