package document

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DocumentType string

const (
	DocumentTypeTimesheet   DocumentType = "timesheet"
	DocumentTypeExpense     DocumentType = "expense"
	DocumentTypeRequisition DocumentType = "requisition"
)

type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusSubmitted DocumentStatus = "submitted"
	DocumentStatusApproved  DocumentStatus = "approved"
	DocumentStatusRejected  DocumentStatus = "rejected"
	DocumentStatusOrdered   DocumentStatus = "ordered"
)

// RoutingStatus records whether a submission actually entered an approval
// pipeline. "unrouted" means the document was submitted while the
// organization had no matching workflow or no resolvable approvers, so no
// reviewer was ever notified.
type RoutingStatus string

const (
	RoutingStatusRouted   RoutingStatus = "routed"
	RoutingStatusUnrouted RoutingStatus = "unrouted"
)

type TimesheetEntry struct {
	Date  time.Time `bson:"date" json:"date"`
	Hours float64   `bson:"hours" json:"hours"`
	Notes string    `bson:"notes,omitempty" json:"notes,omitempty"`
}

type LineItem struct {
	Description string  `bson:"description" json:"description"`
	Quantity    float64 `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unit_price" json:"unit_price"`
}

// Document is a submittable business record: a timesheet, an expense report
// or a purchase requisition. Only the fields matching its type carry data.
type Document struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	OwnerID        primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Type           DocumentType       `bson:"type" json:"type"`
	Status         DocumentStatus     `bson:"status" json:"status"`
	RoutingStatus  RoutingStatus      `bson:"routing_status,omitempty" json:"routing_status,omitempty"`
	Title          string             `bson:"title" json:"title"`

	// timesheet
	Entries []TimesheetEntry `bson:"entries,omitempty" json:"entries,omitempty"`

	// expense
	Amount       float64 `bson:"amount,omitempty" json:"amount,omitempty"`
	Reimbursable bool    `bson:"reimbursable,omitempty" json:"reimbursable,omitempty"`
	ReceiptRef   string  `bson:"receipt_ref,omitempty" json:"receipt_ref,omitempty"`

	// requisition
	LineItems []LineItem `bson:"line_items,omitempty" json:"line_items,omitempty"`

	SubmittedAt *time.Time `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}
