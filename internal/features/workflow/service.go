package workflow

import (
	"context"
	"errors"
	"time"

	common_models "go-eventops/internal/common/models"
	"go-eventops/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkflowService interface {
	CreateWorkflow(ctx context.Context, workflow *WorkflowConfig) error
	GetWorkflow(ctx context.Context, id string) (*WorkflowConfig, error)
	ListWorkflows(ctx context.Context, organizationID primitive.ObjectID) ([]WorkflowConfig, error)
	UpdateWorkflow(ctx context.Context, id string, workflow *WorkflowConfig) error
	DeleteWorkflow(ctx context.Context, id string) error

	// ResolveActive returns the workflow consulted for a submission, or nil
	// when the organization has not configured one for the entity type.
	ResolveActive(ctx context.Context, organizationID primitive.ObjectID, entityType string) (*WorkflowConfig, error)

	CreateRequest(ctx context.Context, wf *WorkflowConfig, entityType string, entityID, requestedBy primitive.ObjectID) (*ApprovalRequest, error)
	ListRequests(ctx context.Context, entityType string, entityID primitive.ObjectID) ([]ApprovalRequest, error)
}

type WorkflowServiceImpl struct {
	Repo         WorkflowRepository
	RequestRepo  ApprovalRequestRepository
	AuditService audit.AuditService
}

func NewWorkflowService(
	repo WorkflowRepository,
	requestRepo ApprovalRequestRepository,
	auditService audit.AuditService,
) WorkflowService {
	return &WorkflowServiceImpl{
		Repo:         repo,
		RequestRepo:  requestRepo,
		AuditService: auditService,
	}
}

func validateWorkflow(workflow *WorkflowConfig) error {
	if workflow.EntityType == "" {
		return errors.New("entity_type is required")
	}

	switch workflow.ApprovalType {
	case ApprovalTypeManagerHierarchy:
		// no config payload needed
	case ApprovalTypeRoleBased:
		if workflow.Config.ApproverRoleID == nil {
			return errors.New("role_based workflow requires config.approver_role_id")
		}
	case ApprovalTypeSingleApprover:
		if workflow.Config.ApproverID == nil {
			return errors.New("single_approver workflow requires config.approver_id")
		}
	default:
		return errors.New("unknown approval_type")
	}
	return nil
}

func (s *WorkflowServiceImpl) CreateWorkflow(ctx context.Context, workflow *WorkflowConfig) error {
	if err := validateWorkflow(workflow); err != nil {
		return err
	}

	if workflow.ID.IsZero() {
		workflow.ID = primitive.NewObjectID()
	}
	workflow.CreatedAt = time.Now()
	workflow.UpdatedAt = time.Now()

	if err := s.Repo.Create(ctx, workflow); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionWorkflow, "workflow_configs", workflow.ID.Hex(), nil, map[string]interface{}{
		"entity_type":   workflow.EntityType,
		"approval_type": workflow.ApprovalType,
		"active":        workflow.Active,
	})
	return nil
}

func (s *WorkflowServiceImpl) GetWorkflow(ctx context.Context, id string) (*WorkflowConfig, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid workflow id")
	}
	return s.Repo.GetByID(ctx, oid)
}

func (s *WorkflowServiceImpl) ListWorkflows(ctx context.Context, organizationID primitive.ObjectID) ([]WorkflowConfig, error) {
	return s.Repo.List(ctx, organizationID)
}

func (s *WorkflowServiceImpl) UpdateWorkflow(ctx context.Context, id string, workflow *WorkflowConfig) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid workflow id")
	}
	if err := validateWorkflow(workflow); err != nil {
		return err
	}

	old, _ := s.Repo.GetByID(ctx, oid)

	if err := s.Repo.Update(ctx, oid, workflow); err != nil {
		return err
	}

	oldValues := map[string]interface{}{}
	if old != nil {
		oldValues["approval_type"] = old.ApprovalType
		oldValues["active"] = old.Active
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionWorkflow, "workflow_configs", id, oldValues, map[string]interface{}{
		"approval_type": workflow.ApprovalType,
		"active":        workflow.Active,
	})
	return nil
}

func (s *WorkflowServiceImpl) DeleteWorkflow(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid workflow id")
	}
	if err := s.Repo.Delete(ctx, oid); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionWorkflow, "workflow_configs", id, nil, nil)
	return nil
}

func (s *WorkflowServiceImpl) ResolveActive(ctx context.Context, organizationID primitive.ObjectID, entityType string) (*WorkflowConfig, error) {
	return s.Repo.FindActive(ctx, organizationID, entityType)
}

func (s *WorkflowServiceImpl) CreateRequest(ctx context.Context, wf *WorkflowConfig, entityType string, entityID, requestedBy primitive.ObjectID) (*ApprovalRequest, error) {
	totalSteps := len(wf.Config.Steps)
	if totalSteps == 0 {
		totalSteps = 1
	}

	request := &ApprovalRequest{
		ID:             primitive.NewObjectID(),
		OrganizationID: wf.OrganizationID,
		WorkflowID:     wf.ID,
		EntityType:     entityType,
		EntityID:       entityID,
		Status:         ApprovalStatusPending,
		RequestedBy:    requestedBy,
		RequestedAt:    time.Now(),
		CurrentStep:    1,
		TotalSteps:     totalSteps,
	}

	if err := s.RequestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *WorkflowServiceImpl) ListRequests(ctx context.Context, entityType string, entityID primitive.ObjectID) ([]ApprovalRequest, error) {
	return s.RequestRepo.ListByEntity(ctx, entityType, entityID)
}
