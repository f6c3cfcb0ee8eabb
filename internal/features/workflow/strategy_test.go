package workflow

import (
	"context"
	"errors"
	"testing"

	"go-eventops/internal/features/org"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMembers struct {
	member  *org.OrganizationMember
	roleIDs []primitive.ObjectID
	err     error
}

func (f *fakeMembers) FindActiveByUser(ctx context.Context, organizationID, userID primitive.ObjectID) (*org.OrganizationMember, error) {
	return f.member, f.err
}

func (f *fakeMembers) ListActiveUserIDsByRole(ctx context.Context, organizationID, roleID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.roleIDs, f.err
}

type fakeDepartments struct {
	department *org.Department
	err        error
}

func (f *fakeDepartments) GetByID(ctx context.Context, id primitive.ObjectID) (*org.Department, error) {
	return f.department, f.err
}

func TestResolveApproversManagerHierarchy(t *testing.T) {
	orgID := primitive.NewObjectID()
	ownerID := primitive.NewObjectID()
	deptID := primitive.NewObjectID()
	managerID := primitive.NewObjectID()

	tests := []struct {
		name        string
		members     *fakeMembers
		departments *fakeDepartments
		want        []primitive.ObjectID
	}{
		{
			name:        "manager found",
			members:     &fakeMembers{member: &org.OrganizationMember{UserID: ownerID, DepartmentID: &deptID}},
			departments: &fakeDepartments{department: &org.Department{ID: deptID, ManagerID: &managerID}},
			want:        []primitive.ObjectID{managerID},
		},
		{
			name:        "owner has no membership",
			members:     &fakeMembers{},
			departments: &fakeDepartments{},
			want:        nil,
		},
		{
			name:        "membership without department",
			members:     &fakeMembers{member: &org.OrganizationMember{UserID: ownerID}},
			departments: &fakeDepartments{},
			want:        nil,
		},
		{
			name:        "department without manager",
			members:     &fakeMembers{member: &org.OrganizationMember{UserID: ownerID, DepartmentID: &deptID}},
			departments: &fakeDepartments{department: &org.Department{ID: deptID}},
			want:        nil,
		},
		{
			name:        "lookup error yields empty set",
			members:     &fakeMembers{err: errors.New("down")},
			departments: &fakeDepartments{},
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ApproverResolver{Members: tt.members, Departments: tt.departments}
			wf := &WorkflowConfig{OrganizationID: orgID, ApprovalType: ApprovalTypeManagerHierarchy}

			got := r.ResolveApprovers(context.Background(), wf, ownerID)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d approvers, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("approver[%d] = %s, want %s", i, got[i].Hex(), tt.want[i].Hex())
				}
			}
		})
	}
}

func TestResolveApproversRoleBased(t *testing.T) {
	roleID := primitive.NewObjectID()
	holders := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}

	r := &ApproverResolver{
		Members:     &fakeMembers{roleIDs: holders},
		Departments: &fakeDepartments{},
	}
	wf := &WorkflowConfig{
		OrganizationID: primitive.NewObjectID(),
		ApprovalType:   ApprovalTypeRoleBased,
		Config:         WorkflowSettings{ApproverRoleID: &roleID},
	}

	got := r.ResolveApprovers(context.Background(), wf, primitive.NewObjectID())
	if len(got) != 2 {
		t.Fatalf("got %d approvers, want 2", len(got))
	}

	// No role configured means no one to ask.
	wf.Config.ApproverRoleID = nil
	if got := r.ResolveApprovers(context.Background(), wf, primitive.NewObjectID()); len(got) != 0 {
		t.Errorf("missing role id: got %d approvers, want 0", len(got))
	}
}

func TestResolveApproversSingleApprover(t *testing.T) {
	approverID := primitive.NewObjectID()
	r := &ApproverResolver{Members: &fakeMembers{}, Departments: &fakeDepartments{}}

	wf := &WorkflowConfig{
		ApprovalType: ApprovalTypeSingleApprover,
		Config:       WorkflowSettings{ApproverID: &approverID},
	}
	got := r.ResolveApprovers(context.Background(), wf, primitive.NewObjectID())
	if len(got) != 1 || got[0] != approverID {
		t.Fatalf("got %v, want [%s]", got, approverID.Hex())
	}

	wf.Config.ApproverID = nil
	if got := r.ResolveApprovers(context.Background(), wf, primitive.NewObjectID()); len(got) != 0 {
		t.Errorf("missing approver id: got %d approvers, want 0", len(got))
	}
}

func TestResolveApproversUnknownType(t *testing.T) {
	r := &ApproverResolver{Members: &fakeMembers{}, Departments: &fakeDepartments{}}
	wf := &WorkflowConfig{ApprovalType: ApprovalType("consensus")}

	if got := r.ResolveApprovers(context.Background(), wf, primitive.NewObjectID()); got != nil {
		t.Errorf("unknown approval type: got %v, want nil", got)
	}
}
