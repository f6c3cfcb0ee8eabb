package invoice

import (
	"go-eventops/internal/common/api"
	"go-eventops/internal/config"
	"go-eventops/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type InvoiceApi struct {
	controller *InvoiceController
	config     *config.Config
}

func NewInvoiceApi(controller *InvoiceController, config *config.Config) api.Route {
	return &InvoiceApi{
		controller: controller,
		config:     config,
	}
}

func (h *InvoiceApi) Setup(app *fiber.App) {
	group := app.Group("/api/invoices", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Create)
	group.Get("/", h.controller.List)
	group.Get("/:id", h.controller.Get)
	group.Post("/:id/reminders/send", h.controller.SendReminder)
	group.Get("/:id/reminders", h.controller.ListReminders)

	sequences := app.Group("/api/reminder-sequences", middleware.AuthMiddleware(h.config.SkipAuth))
	sequences.Post("/", h.controller.CreateSequence)
	sequences.Get("/", h.controller.ListSequences)
}
