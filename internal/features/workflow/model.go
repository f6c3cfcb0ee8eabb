package workflow

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApprovalType selects how approvers are resolved for a submission. There are
// exactly three variants; dispatch happens in ResolveApprovers, not through an
// interface hierarchy.
type ApprovalType string

const (
	ApprovalTypeManagerHierarchy ApprovalType = "manager_hierarchy"
	ApprovalTypeRoleBased        ApprovalType = "role_based"
	ApprovalTypeSingleApprover   ApprovalType = "single_approver"
)

// WorkflowSettings is the per-variant payload. Only the fields matching the
// workflow's ApprovalType are consulted.
type WorkflowSettings struct {
	ApproverRoleID *primitive.ObjectID `bson:"approver_role_id,omitempty" json:"approver_role_id,omitempty"`
	ApproverID     *primitive.ObjectID `bson:"approver_id,omitempty" json:"approver_id,omitempty"`
	Steps          []WorkflowStep      `bson:"steps,omitempty" json:"steps,omitempty"`
}

type WorkflowStep struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Order int    `bson:"order" json:"order"`
}

// WorkflowConfig scopes an approver-resolution strategy to one organization
// and entity type. At most one active config per pair is consulted.
type WorkflowConfig struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	EntityType     string             `bson:"entity_type" json:"entity_type"`
	Name           string             `bson:"name" json:"name"`
	Active         bool               `bson:"active" json:"active"`
	ApprovalType   ApprovalType       `bson:"approval_type" json:"approval_type"`
	Config         WorkflowSettings   `bson:"config" json:"config"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

type ApprovalRequestStatus string

const (
	ApprovalStatusPending  ApprovalRequestStatus = "pending"
	ApprovalStatusApproved ApprovalRequestStatus = "approved"
	ApprovalStatusRejected ApprovalRequestStatus = "rejected"
)

// ApprovalRequest tracks one in-flight review. It is created once per
// successful routed submission and transitioned later by the decision flow.
type ApprovalRequest struct {
	ID             primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID    `bson:"organization_id" json:"organization_id"`
	WorkflowID     primitive.ObjectID    `bson:"workflow_id" json:"workflow_id"`
	EntityType     string                `bson:"entity_type" json:"entity_type"`
	EntityID       primitive.ObjectID    `bson:"entity_id" json:"entity_id"`
	Status         ApprovalRequestStatus `bson:"status" json:"status"`
	RequestedBy    primitive.ObjectID    `bson:"requested_by" json:"requested_by"`
	RequestedAt    time.Time             `bson:"requested_at" json:"requested_at"`
	CurrentStep    int                   `bson:"current_step" json:"current_step"`
	TotalSteps     int                   `bson:"total_steps" json:"total_steps"`
}
