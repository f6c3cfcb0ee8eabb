package notification

import (
	"go-eventops/internal/common/api"
	"go-eventops/internal/config"
	"go-eventops/internal/middleware"
	"go-eventops/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	config     *config.Config
}

func NewNotificationApi(controller *NotificationController, config *config.Config) api.Route {
	return &NotificationApi{
		controller: controller,
		config:     config,
	}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	group := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.List)
	group.Get("/unread-count", h.controller.GetUnreadCount)
	group.Put("/:id/read", h.controller.MarkAsRead)
	group.Post("/mark-all-read", h.controller.MarkAllAsRead)

	// Live stream; the upgrade handler stashes the user id for the ws handler
	group.Use("/stream", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
			c.Locals("userID", claims.UserID)
		}
		return c.Next()
	})
	group.Get("/stream", websocket.New(h.controller.HandleStream))
}
