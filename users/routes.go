package users

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/users/handlers"
)

type Handlers struct {
	MemberHandler *handlers.MemberHandler
}

// RegisterRoutes wires team member endpoints behind the given middleware chain.
func RegisterRoutes(router fiber.Router, handlers *Handlers, middleware ...fiber.Handler) {
	group := router.Group("/users", middleware...)

	group.Get("/", handlers.MemberHandler.List)
	group.Get("/:id", handlers.MemberHandler.Get)
	group.Post("/", handlers.MemberHandler.Create)
	group.Patch("/:id", handlers.MemberHandler.Update)
	group.Delete("/:id", handlers.MemberHandler.Delete)
}
