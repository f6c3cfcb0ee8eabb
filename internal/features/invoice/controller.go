package invoice

import (
	"errors"

	"go-eventops/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvoiceController struct {
	service ReminderService
}

func NewInvoiceController(service ReminderService) *InvoiceController {
	return &InvoiceController{
		service: service,
	}
}

func (c *InvoiceController) Create(ctx *fiber.Ctx) error {
	var invoice Invoice
	if err := ctx.BodyParser(&invoice); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		if ownerID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
			invoice.OwnerID = ownerID
		}
		if orgID, err := primitive.ObjectIDFromHex(claims.OrganizationID); err == nil {
			invoice.OrganizationID = orgID
		}
	}

	if err := c.service.CreateInvoice(ctx.Context(), &invoice); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(invoice)
}

func (c *InvoiceController) Get(ctx *fiber.Ctx) error {
	invoice, err := c.service.GetInvoice(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return reminderErrorResponse(ctx, err)
	}
	return ctx.JSON(invoice)
}

func (c *InvoiceController) List(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	orgID, err := primitive.ObjectIDFromHex(claims.OrganizationID)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid organization"})
	}

	invoices, err := c.service.ListInvoices(ctx.Context(), orgID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"data": invoices})
}

func (c *InvoiceController) SendReminder(ctx *fiber.Ctx) error {
	result, err := c.service.SendReminder(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return reminderErrorResponse(ctx, err)
	}
	return ctx.JSON(result)
}

func (c *InvoiceController) ListReminders(ctx *fiber.Ctx) error {
	entries, err := c.service.ListReminders(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return reminderErrorResponse(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": entries})
}

func (c *InvoiceController) CreateSequence(ctx *fiber.Ctx) error {
	var sequence ReminderSequence
	if err := ctx.BodyParser(&sequence); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		if orgID, err := primitive.ObjectIDFromHex(claims.OrganizationID); err == nil {
			sequence.OrganizationID = orgID
		}
	}

	if err := c.service.CreateSequence(ctx.Context(), &sequence); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(sequence)
}

func (c *InvoiceController) ListSequences(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	orgID, err := primitive.ObjectIDFromHex(claims.OrganizationID)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid organization"})
	}

	sequences, err := c.service.ListSequences(ctx.Context(), orgID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"data": sequences})
}

func reminderErrorResponse(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrReminderConflict):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrStillDraft),
		errors.Is(err, ErrNotYetOverdue), errors.Is(err, ErrNoRecipient),
		errors.Is(err, ErrNoStepDue):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
