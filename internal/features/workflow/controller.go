package workflow

import (
	"go-eventops/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkflowController struct {
	service WorkflowService
}

func NewWorkflowController(service WorkflowService) *WorkflowController {
	return &WorkflowController{
		service: service,
	}
}

func currentOrgID(ctx *fiber.Ctx) (primitive.ObjectID, error) {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return primitive.NilObjectID, fiber.ErrUnauthorized
	}
	return primitive.ObjectIDFromHex(claims.OrganizationID)
}

func (c *WorkflowController) Create(ctx *fiber.Ctx) error {
	var workflow WorkflowConfig
	if err := ctx.BodyParser(&workflow); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	orgID, err := currentOrgID(ctx)
	if err == nil && !orgID.IsZero() {
		workflow.OrganizationID = orgID
	}

	if err := c.service.CreateWorkflow(ctx.Context(), &workflow); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(workflow)
}

func (c *WorkflowController) Get(ctx *fiber.Ctx) error {
	workflow, err := c.service.GetWorkflow(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if workflow == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Workflow not found"})
	}
	return ctx.JSON(workflow)
}

func (c *WorkflowController) List(ctx *fiber.Ctx) error {
	orgID, err := currentOrgID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid organization"})
	}

	workflows, err := c.service.ListWorkflows(ctx.Context(), orgID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"data": workflows})
}

func (c *WorkflowController) Update(ctx *fiber.Ctx) error {
	var workflow WorkflowConfig
	if err := ctx.BodyParser(&workflow); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.UpdateWorkflow(ctx.Context(), ctx.Params("id"), &workflow); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}

func (c *WorkflowController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.DeleteWorkflow(ctx.Context(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}

func (c *WorkflowController) ListRequests(ctx *fiber.Ctx) error {
	entityType := ctx.Query("entity_type")
	entityID, err := primitive.ObjectIDFromHex(ctx.Query("entity_id"))
	if entityType == "" || err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entity_type and entity_id are required"})
	}

	requests, err := c.service.ListRequests(ctx.Context(), entityType, entityID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"data": requests})
}
