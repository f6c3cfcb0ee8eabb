package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "go-eventops/internal/common/models"
	"go-eventops/internal/features/audit"
	"go-eventops/internal/features/notification"
	"go-eventops/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// WorkflowResolver and ApproverResolver are the slices of the workflow
// feature the submission path needs.
type WorkflowResolver interface {
	ResolveActive(ctx context.Context, organizationID primitive.ObjectID, entityType string) (*workflow.WorkflowConfig, error)
	CreateRequest(ctx context.Context, wf *workflow.WorkflowConfig, entityType string, entityID, requestedBy primitive.ObjectID) (*workflow.ApprovalRequest, error)
}

type ApproverResolver interface {
	ResolveApprovers(ctx context.Context, wf *workflow.WorkflowConfig, ownerID primitive.ObjectID) []primitive.ObjectID
}

type NotificationFanout interface {
	NotifyAll(ctx context.Context, organizationID primitive.ObjectID, userIDs []primitive.ObjectID, title, message string, notifType notification.NotificationType, link string)
}

// SubmitResult is what a successful submission returns. ApprovalRequest is
// nil when the document was submitted unrouted.
type SubmitResult struct {
	Document        *Document                 `json:"document"`
	ApprovalRequest *workflow.ApprovalRequest `json:"approval_request,omitempty"`
}

type SubmissionService interface {
	CreateDocument(ctx context.Context, document *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, organizationID primitive.ObjectID, filter map[string]interface{}) ([]Document, error)

	// Submit moves a draft document into the approval pipeline. The status
	// transition is the only step whose failure aborts; workflow routing,
	// notifications and audit run best-effort afterwards.
	Submit(ctx context.Context, id string) (*SubmitResult, error)
}

type SubmissionServiceImpl struct {
	Repo          DocumentRepository
	Workflows     WorkflowResolver
	Resolver      ApproverResolver
	Notifications NotificationFanout
	AuditService  audit.AuditService
	Logger        *zap.Logger
}

func NewSubmissionService(
	repo DocumentRepository,
	workflows workflow.WorkflowService,
	resolver *workflow.ApproverResolver,
	notifications notification.NotificationService,
	auditService audit.AuditService,
	logger *zap.Logger,
) SubmissionService {
	return &SubmissionServiceImpl{
		Repo:          repo,
		Workflows:     workflows,
		Resolver:      resolver,
		Notifications: notifications,
		AuditService:  auditService,
		Logger:        logger,
	}
}

func (s *SubmissionServiceImpl) CreateDocument(ctx context.Context, document *Document) error {
	if document.Type != DocumentTypeTimesheet && document.Type != DocumentTypeExpense && document.Type != DocumentTypeRequisition {
		return errors.New("unknown document type")
	}
	document.Status = DocumentStatusDraft
	return s.Repo.Create(ctx, document)
}

func (s *SubmissionServiceImpl) GetDocument(ctx context.Context, id string) (*Document, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid document id")
	}
	return s.Repo.GetByID(ctx, oid)
}

func (s *SubmissionServiceImpl) ListDocuments(ctx context.Context, organizationID primitive.ObjectID, filter map[string]interface{}) ([]Document, error) {
	return s.Repo.List(ctx, organizationID, filter)
}

// validateSubmittable checks the submission preconditions in order: state
// first, then the type-specific rule.
func validateSubmittable(doc *Document) error {
	if doc.Status != DocumentStatusDraft {
		return &InvalidStateError{Type: doc.Type, Status: doc.Status}
	}

	switch doc.Type {
	case DocumentTypeTimesheet:
		if len(doc.Entries) == 0 {
			return ErrEmptySubmission
		}
	case DocumentTypeExpense:
		if doc.Reimbursable && doc.ReceiptRef == "" {
			return ErrMissingReceipt
		}
	}
	return nil
}

func (s *SubmissionServiceImpl) Submit(ctx context.Context, id string) (*SubmitResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	doc, err := s.Repo.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	if err := validateSubmittable(doc); err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.Repo.MarkSubmitted(ctx, oid, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race: someone else transitioned the document first.
		// Re-read so the error reports the status that beat us.
		current, readErr := s.Repo.GetByID(ctx, oid)
		status := DocumentStatusSubmitted
		if readErr == nil && current != nil {
			status = current.Status
		}
		return nil, &InvalidStateError{Type: doc.Type, Status: status}
	}

	doc.Status = DocumentStatusSubmitted
	doc.SubmittedAt = &now

	// The document of record is committed. Everything below is best-effort:
	// failures are logged and the caller still gets a success response.
	request := s.routeForApproval(ctx, doc)
	doc.RoutingStatus = RoutingStatusUnrouted
	if request != nil {
		doc.RoutingStatus = RoutingStatusRouted
	}

	if err := s.Repo.SetRoutingStatus(ctx, oid, doc.RoutingStatus); err != nil {
		s.Logger.Warn("Failed to record routing status",
			zap.String("document_id", id),
			zap.Error(err))
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionSubmit, string(doc.Type), id,
		map[string]interface{}{"status": DocumentStatusDraft},
		map[string]interface{}{"status": DocumentStatusSubmitted, "routing_status": doc.RoutingStatus},
	)

	return &SubmitResult{Document: doc, ApprovalRequest: request}, nil
}

// routeForApproval resolves the workflow and approvers, creates the approval
// request and fans out notifications. It returns nil when the submission
// ends up unrouted: no active workflow, no resolvable approvers, or a ledger
// write failure.
func (s *SubmissionServiceImpl) routeForApproval(ctx context.Context, doc *Document) *workflow.ApprovalRequest {
	wf, err := s.Workflows.ResolveActive(ctx, doc.OrganizationID, string(doc.Type))
	if err != nil {
		s.Logger.Warn("Workflow resolution failed",
			zap.String("document_id", doc.ID.Hex()),
			zap.Error(err))
		return nil
	}
	if wf == nil {
		s.Logger.Info("No active workflow configured, document submitted unrouted",
			zap.String("document_id", doc.ID.Hex()),
			zap.String("entity_type", string(doc.Type)))
		return nil
	}

	approvers := s.Resolver.ResolveApprovers(ctx, wf, doc.OwnerID)
	if len(approvers) == 0 {
		s.Logger.Info("No approvers resolved, document submitted unrouted",
			zap.String("document_id", doc.ID.Hex()),
			zap.String("workflow_id", wf.ID.Hex()))
		return nil
	}

	request, err := s.Workflows.CreateRequest(ctx, wf, string(doc.Type), doc.ID, doc.OwnerID)
	if err != nil {
		s.Logger.Error("Failed to create approval request",
			zap.String("document_id", doc.ID.Hex()),
			zap.Error(err))
		return nil
	}

	title := fmt.Sprintf("Approval needed: %s", doc.Title)
	message := fmt.Sprintf("A %s is waiting for your review", doc.Type)
	link := "/documents/" + doc.ID.Hex()
	s.Notifications.NotifyAll(ctx, doc.OrganizationID, approvers, title, message, notification.NotificationTypeApproval, link)

	return request
}
