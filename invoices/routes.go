package invoices

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/invoices/handlers"
)

type Handlers struct {
	InvoiceHandler *handlers.InvoiceHandler
}

// RegisterRoutes wires invoice endpoints behind the given middleware chain.
func RegisterRoutes(router fiber.Router, handlers *Handlers, middleware ...fiber.Handler) {
	group := router.Group("/invoices", middleware...)

	group.Get("/", handlers.InvoiceHandler.List)
	group.Get("/:id", handlers.InvoiceHandler.Get)
	group.Post("/", handlers.InvoiceHandler.Create)
	group.Patch("/:id", handlers.InvoiceHandler.Update)
	group.Delete("/:id", handlers.InvoiceHandler.Delete)
	group.Post("/:id/status", handlers.InvoiceHandler.Status)
}
