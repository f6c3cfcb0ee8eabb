package workflow

import (
	"context"

	"go-eventops/internal/features/org"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberDirectory and DepartmentDirectory are the slices of the org
// repositories the resolver needs.
type MemberDirectory interface {
	FindActiveByUser(ctx context.Context, organizationID, userID primitive.ObjectID) (*org.OrganizationMember, error)
	ListActiveUserIDsByRole(ctx context.Context, organizationID, roleID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type DepartmentDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*org.Department, error)
}

// ApproverResolver computes the set of users who must review a submission.
type ApproverResolver struct {
	Members     MemberDirectory
	Departments DepartmentDirectory
}

func NewApproverResolver(members org.MembershipRepository, departments org.DepartmentRepository) *ApproverResolver {
	return &ApproverResolver{
		Members:     members,
		Departments: departments,
	}
}

// ResolveApprovers dispatches on the workflow's approval type. It never
// fails: any missing link (no membership, no department, no manager, absent
// config field) yields an empty set, which callers treat as "no one to
// notify".
func (r *ApproverResolver) ResolveApprovers(ctx context.Context, wf *WorkflowConfig, ownerID primitive.ObjectID) []primitive.ObjectID {
	switch wf.ApprovalType {
	case ApprovalTypeManagerHierarchy:
		return r.resolveManager(ctx, wf.OrganizationID, ownerID)
	case ApprovalTypeRoleBased:
		return r.resolveByRole(ctx, wf)
	case ApprovalTypeSingleApprover:
		if wf.Config.ApproverID == nil {
			return nil
		}
		return []primitive.ObjectID{*wf.Config.ApproverID}
	default:
		return nil
	}
}

// resolveManager finds the owner's department manager. The chain is a single
// hop: the manager's own manager is never consulted.
func (r *ApproverResolver) resolveManager(ctx context.Context, organizationID, ownerID primitive.ObjectID) []primitive.ObjectID {
	member, err := r.Members.FindActiveByUser(ctx, organizationID, ownerID)
	if err != nil || member == nil || member.DepartmentID == nil {
		return nil
	}

	department, err := r.Departments.GetByID(ctx, *member.DepartmentID)
	if err != nil || department == nil || department.ManagerID == nil {
		return nil
	}

	return []primitive.ObjectID{*department.ManagerID}
}

func (r *ApproverResolver) resolveByRole(ctx context.Context, wf *WorkflowConfig) []primitive.ObjectID {
	if wf.Config.ApproverRoleID == nil {
		return nil
	}

	ids, err := r.Members.ListActiveUserIDsByRole(ctx, wf.OrganizationID, *wf.Config.ApproverRoleID)
	if err != nil {
		return nil
	}
	return ids
}
