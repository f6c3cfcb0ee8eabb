package document

import (
	"context"
	"errors"
	"testing"
	"time"

	common_models "go-eventops/internal/common/models"
	"go-eventops/internal/features/notification"
	"go-eventops/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeDocRepo struct {
	doc           *Document
	getErr        error
	markOK        bool
	markErr       error
	markCalls     int
	routingStatus RoutingStatus
	routingCalls  int
}

func (f *fakeDocRepo) Create(ctx context.Context, document *Document) error { return nil }

func (f *fakeDocRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.doc, nil
}

func (f *fakeDocRepo) List(ctx context.Context, organizationID primitive.ObjectID, filter map[string]interface{}) ([]Document, error) {
	return nil, nil
}

func (f *fakeDocRepo) MarkSubmitted(ctx context.Context, id primitive.ObjectID, submittedAt time.Time) (bool, error) {
	f.markCalls++
	return f.markOK, f.markErr
}

func (f *fakeDocRepo) SetRoutingStatus(ctx context.Context, id primitive.ObjectID, routing RoutingStatus) error {
	f.routingCalls++
	f.routingStatus = routing
	return nil
}

type fakeWorkflows struct {
	wf           *workflow.WorkflowConfig
	resolveErr   error
	request      *workflow.ApprovalRequest
	createErr    error
	createCalls  int
	resolveCalls int
}

func (f *fakeWorkflows) ResolveActive(ctx context.Context, organizationID primitive.ObjectID, entityType string) (*workflow.WorkflowConfig, error) {
	f.resolveCalls++
	return f.wf, f.resolveErr
}

func (f *fakeWorkflows) CreateRequest(ctx context.Context, wf *workflow.WorkflowConfig, entityType string, entityID, requestedBy primitive.ObjectID) (*workflow.ApprovalRequest, error) {
	f.createCalls++
	return f.request, f.createErr
}

type fakeApprovers struct {
	ids []primitive.ObjectID
}

func (f *fakeApprovers) ResolveApprovers(ctx context.Context, wf *workflow.WorkflowConfig, ownerID primitive.ObjectID) []primitive.ObjectID {
	return f.ids
}

type fakeFanout struct {
	calls      int
	recipients []primitive.ObjectID
}

func (f *fakeFanout) NotifyAll(ctx context.Context, organizationID primitive.ObjectID, userIDs []primitive.ObjectID, title, message string, notifType notification.NotificationType, link string) {
	f.calls++
	f.recipients = userIDs
}

type fakeAudit struct {
	actions []common_models.AuditAction
	err     error
}

func (f *fakeAudit) LogChange(ctx context.Context, action common_models.AuditAction, entityType string, entityID string, oldValues, newValues map[string]interface{}) error {
	f.actions = append(f.actions, action)
	return f.err
}

func (f *fakeAudit) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func (f *fakeAudit) ExportLogs(ctx context.Context, filters map[string]interface{}) ([]byte, string, error) {
	return nil, "", nil
}

func newTestService(repo *fakeDocRepo, workflows *fakeWorkflows, approvers *fakeApprovers, fanout *fakeFanout, auditSvc *fakeAudit) *SubmissionServiceImpl {
	return &SubmissionServiceImpl{
		Repo:          repo,
		Workflows:     workflows,
		Resolver:      approvers,
		Notifications: fanout,
		AuditService:  auditSvc,
		Logger:        zap.NewNop(),
	}
}

func draftTimesheet() *Document {
	return &Document{
		ID:             primitive.NewObjectID(),
		OrganizationID: primitive.NewObjectID(),
		OwnerID:        primitive.NewObjectID(),
		Type:           DocumentTypeTimesheet,
		Status:         DocumentStatusDraft,
		Title:          "Week 12",
		Entries:        []TimesheetEntry{{Date: time.Now(), Hours: 8}},
	}
}

func TestSubmitRejectsEmptyTimesheet(t *testing.T) {
	doc := draftTimesheet()
	doc.Entries = nil
	repo := &fakeDocRepo{doc: doc, markOK: true}
	svc := newTestService(repo, &fakeWorkflows{}, &fakeApprovers{}, &fakeFanout{}, &fakeAudit{})

	_, err := svc.Submit(context.Background(), doc.ID.Hex())
	if !errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("err = %v, want ErrEmptySubmission", err)
	}
	if repo.markCalls != 0 {
		t.Error("status write happened for a rejected submission")
	}
}

func TestSubmitRejectsReimbursableExpenseWithoutReceipt(t *testing.T) {
	doc := draftTimesheet()
	doc.Type = DocumentTypeExpense
	doc.Entries = nil
	doc.Reimbursable = true
	repo := &fakeDocRepo{doc: doc, markOK: true}
	svc := newTestService(repo, &fakeWorkflows{}, &fakeApprovers{}, &fakeFanout{}, &fakeAudit{})

	_, err := svc.Submit(context.Background(), doc.ID.Hex())
	if !errors.Is(err, ErrMissingReceipt) {
		t.Fatalf("err = %v, want ErrMissingReceipt", err)
	}
}

func TestSubmitAllowsNonReimbursableExpenseWithoutReceipt(t *testing.T) {
	doc := draftTimesheet()
	doc.Type = DocumentTypeExpense
	doc.Entries = nil
	doc.Amount = 42.50
	repo := &fakeDocRepo{doc: doc, markOK: true}
	svc := newTestService(repo, &fakeWorkflows{}, &fakeApprovers{}, &fakeFanout{}, &fakeAudit{})

	result, err := svc.Submit(context.Background(), doc.ID.Hex())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Document.Status != DocumentStatusSubmitted {
		t.Errorf("status = %s, want submitted", result.Document.Status)
	}
}

func TestSubmitStateGuardWinsOverTypeRule(t *testing.T) {
	// An already-submitted timesheet with no entries must report the state
	// problem, not the empty-entries one.
	doc := draftTimesheet()
	doc.Status = DocumentStatusSubmitted
	doc.Entries = nil
	repo := &fakeDocRepo{doc: doc}
	svc := newTestService(repo, &fakeWorkflows{}, &fakeApprovers{}, &fakeFanout{}, &fakeAudit{})

	_, err := svc.Submit(context.Background(), doc.ID.Hex())
	var stateErr *InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("err = %v, want InvalidStateError", err)
	}
	if stateErr.Status != DocumentStatusSubmitted {
		t.Errorf("reported status = %s, want submitted", stateErr.Status)
	}
}

func TestSubmitNotFound(t *testing.T) {
	repo := &fakeDocRepo{doc: nil}
	svc := newTestService(repo, &fakeWorkflows{}, &fakeApprovers{}, &fakeFanout{}, &fakeAudit{})

	if _, err := svc.Submit(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Submit(context.Background(), "not-an-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed id: err = %v, want ErrNotFound", err)
	}
}

func TestSubmitLosesConditionalWrite(t *testing.T) {
	// The document reads as draft but the conditional write reports no
	// match, as happens when a concurrent submit landed in between.
	doc := draftTimesheet()
	repo := &fakeDocRepo{doc: doc, markOK: false}
	workflows := &fakeWorkflows{}
	fanout := &fakeFanout{}
	svc := newTestService(repo, workflows, &fakeApprovers{}, fanout, &fakeAudit{})

	_, err := svc.Submit(context.Background(), doc.ID.Hex())
	var stateErr *InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("err = %v, want InvalidStateError", err)
	}
	if workflows.resolveCalls != 0 {
		t.Error("routing ran for a submission that lost the race")
	}
	if fanout.calls != 0 {
		t.Error("notifications went out for a submission that lost the race")
	}
}

func TestSubmitRoutesThroughActiveWorkflow(t *testing.T) {
	doc := draftTimesheet()
	approverID := primitive.NewObjectID()
	wf := &workflow.WorkflowConfig{ID: primitive.NewObjectID(), ApprovalType: workflow.ApprovalTypeSingleApprover}
	request := &workflow.ApprovalRequest{ID: primitive.NewObjectID(), WorkflowID: wf.ID}

	repo := &fakeDocRepo{doc: doc, markOK: true}
	workflows := &fakeWorkflows{wf: wf, request: request}
	fanout := &fakeFanout{}
	auditSvc := &fakeAudit{}
	svc := newTestService(repo, workflows, &fakeApprovers{ids: []primitive.ObjectID{approverID}}, fanout, auditSvc)

	result, err := svc.Submit(context.Background(), doc.ID.Hex())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.ApprovalRequest == nil {
		t.Fatal("expected an approval request")
	}
	if result.Document.RoutingStatus != RoutingStatusRouted {
		t.Errorf("routing status = %s, want routed", result.Document.RoutingStatus)
	}
	if fanout.calls != 1 || len(fanout.recipients) != 1 || fanout.recipients[0] != approverID {
		t.Errorf("fanout calls = %d, recipients = %v", fanout.calls, fanout.recipients)
	}
	if len(auditSvc.actions) != 1 || auditSvc.actions[0] != common_models.AuditActionSubmit {
		t.Errorf("audit actions = %v, want one SUBMIT", auditSvc.actions)
	}
}

func TestSubmitWithoutWorkflowIsUnrouted(t *testing.T) {
	doc := draftTimesheet()
	repo := &fakeDocRepo{doc: doc, markOK: true}
	workflows := &fakeWorkflows{wf: nil}
	fanout := &fakeFanout{}
	svc := newTestService(repo, workflows, &fakeApprovers{}, fanout, &fakeAudit{})

	result, err := svc.Submit(context.Background(), doc.ID.Hex())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.ApprovalRequest != nil {
		t.Error("no workflow configured, yet a request was returned")
	}
	if result.Document.RoutingStatus != RoutingStatusUnrouted {
		t.Errorf("routing status = %s, want unrouted", result.Document.RoutingStatus)
	}
	if workflows.createCalls != 0 {
		t.Error("CreateRequest called with no workflow")
	}
	if fanout.calls != 0 {
		t.Error("notifications sent with no workflow")
	}
}

func TestSubmitWithNoApproversSkipsRequest(t *testing.T) {
	doc := draftTimesheet()
	wf := &workflow.WorkflowConfig{ID: primitive.NewObjectID(), ApprovalType: workflow.ApprovalTypeManagerHierarchy}
	repo := &fakeDocRepo{doc: doc, markOK: true}
	workflows := &fakeWorkflows{wf: wf}
	fanout := &fakeFanout{}
	svc := newTestService(repo, workflows, &fakeApprovers{ids: nil}, fanout, &fakeAudit{})

	result, err := svc.Submit(context.Background(), doc.ID.Hex())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Document.RoutingStatus != RoutingStatusUnrouted {
		t.Errorf("routing status = %s, want unrouted", result.Document.RoutingStatus)
	}
	if workflows.createCalls != 0 {
		t.Error("CreateRequest called with an empty approver set")
	}
}

func TestSubmitSurvivesRequestLedgerFailure(t *testing.T) {
	doc := draftTimesheet()
	wf := &workflow.WorkflowConfig{ID: primitive.NewObjectID(), ApprovalType: workflow.ApprovalTypeSingleApprover}
	repo := &fakeDocRepo{doc: doc, markOK: true}
	workflows := &fakeWorkflows{wf: wf, createErr: errors.New("ledger down")}
	fanout := &fakeFanout{}
	svc := newTestService(repo, workflows, &fakeApprovers{ids: []primitive.ObjectID{primitive.NewObjectID()}}, fanout, &fakeAudit{})

	result, err := svc.Submit(context.Background(), doc.ID.Hex())
	if err != nil {
		t.Fatalf("Submit() error = %v, the submission itself must not fail", err)
	}
	if result.Document.Status != DocumentStatusSubmitted {
		t.Errorf("status = %s, want submitted", result.Document.Status)
	}
	if result.Document.RoutingStatus != RoutingStatusUnrouted {
		t.Errorf("routing status = %s, want unrouted after ledger failure", result.Document.RoutingStatus)
	}
	if fanout.calls != 0 {
		t.Error("approvers notified about a request that was never recorded")
	}
}

func TestSubmitSurvivesAuditFailure(t *testing.T) {
	doc := draftTimesheet()
	repo := &fakeDocRepo{doc: doc, markOK: true}
	svc := newTestService(repo, &fakeWorkflows{}, &fakeApprovers{}, &fakeFanout{}, &fakeAudit{err: errors.New("audit down")})

	if _, err := svc.Submit(context.Background(), doc.ID.Hex()); err != nil {
		t.Fatalf("Submit() error = %v, audit failures must not surface", err)
	}
}
