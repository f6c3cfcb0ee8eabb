package audit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{
		service: service,
	}
}

func (c *AuditController) List(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	filters := map[string]interface{}{
		"entity_type": ctx.Query("entity_type"),
		"entity_id":   ctx.Query("entity_id"),
		"action":      ctx.Query("action"),
	}

	logs, err := c.service.ListLogs(ctx.Context(), filters, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  logs,
		"page":  page,
		"limit": limit,
	})
}

func (c *AuditController) Export(ctx *fiber.Ctx) error {
	filters := map[string]interface{}{
		"entity_type": ctx.Query("entity_type"),
		"entity_id":   ctx.Query("entity_id"),
	}

	data, filename, err := c.service.ExportLogs(ctx.Context(), filters)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", "attachment; filename="+filename)
	return ctx.Send(data)
}
