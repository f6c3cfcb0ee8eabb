package document

import (
	"errors"

	"go-eventops/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DocumentController struct {
	service SubmissionService
}

func NewDocumentController(service SubmissionService) *DocumentController {
	return &DocumentController{
		service: service,
	}
}

func (c *DocumentController) Create(ctx *fiber.Ctx) error {
	var doc Document
	if err := ctx.BodyParser(&doc); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		if ownerID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
			doc.OwnerID = ownerID
		}
		if orgID, err := primitive.ObjectIDFromHex(claims.OrganizationID); err == nil {
			doc.OrganizationID = orgID
		}
	}

	if err := c.service.CreateDocument(ctx.Context(), &doc); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(doc)
}

func (c *DocumentController) Get(ctx *fiber.Ctx) error {
	doc, err := c.service.GetDocument(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if doc == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	}
	return ctx.JSON(doc)
}

func (c *DocumentController) List(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	orgID, err := primitive.ObjectIDFromHex(claims.OrganizationID)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid organization"})
	}

	filter := map[string]interface{}{
		"type":   ctx.Query("type"),
		"status": ctx.Query("status"),
	}

	documents, err := c.service.ListDocuments(ctx.Context(), orgID, filter)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"data": documents})
}

func (c *DocumentController) Submit(ctx *fiber.Ctx) error {
	result, err := c.service.Submit(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return submitErrorResponse(ctx, err)
	}
	return ctx.JSON(result)
}

func submitErrorResponse(ctx *fiber.Ctx, err error) error {
	var stateErr *InvalidStateError
	switch {
	case errors.Is(err, ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &stateErr):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrEmptySubmission), errors.Is(err, ErrMissingReceipt):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
