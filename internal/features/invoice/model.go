package invoice

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
)

type EscalationLevel string

const (
	EscalationStandard EscalationLevel = "standard"
	EscalationUrgent   EscalationLevel = "urgent"
	EscalationFinal    EscalationLevel = "final"
)

type Invoice struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID  `bson:"organization_id" json:"organization_id"`
	OwnerID        primitive.ObjectID  `bson:"owner_id" json:"owner_id"`
	Number         string              `bson:"number" json:"number"`
	Status         InvoiceStatus       `bson:"status" json:"status"`
	Amount         float64             `bson:"amount" json:"amount"`
	DueDate        time.Time           `bson:"due_date" json:"due_date"`
	ContactID      *primitive.ObjectID `bson:"contact_id,omitempty" json:"contact_id,omitempty"`
	CompanyID      *primitive.ObjectID `bson:"company_id,omitempty" json:"company_id,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}

// ReminderStep is one rung of a reminder sequence. DaysAfterDue gates when
// the step becomes eligible; steps fire in StepNumber order.
type ReminderStep struct {
	ID              primitive.ObjectID `bson:"id" json:"id"`
	StepNumber      int                `bson:"step_number" json:"step_number"`
	DaysAfterDue    int                `bson:"days_after_due" json:"days_after_due"`
	SubjectTemplate string             `bson:"subject_template" json:"subject_template"`
	BodyTemplate    string             `bson:"body_template" json:"body_template"`
	EscalationLevel EscalationLevel    `bson:"escalation_level" json:"escalation_level"`
}

type ReminderSequence struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Name           string             `bson:"name" json:"name"`
	Active         bool               `bson:"active" json:"active"`
	IsDefault      bool               `bson:"is_default" json:"is_default"`
	Steps          []ReminderStep     `bson:"steps" json:"steps"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// ReminderLog is the durable record that a reminder went out. For configured
// steps its (invoice_id, step_id) pair is unique, which is what makes the
// sequencer idempotent. StepID is unset on the zero-config fallback path.
type ReminderLog struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrganizationID  primitive.ObjectID  `bson:"organization_id" json:"organization_id"`
	InvoiceID       primitive.ObjectID  `bson:"invoice_id" json:"invoice_id"`
	StepID          *primitive.ObjectID `bson:"step_id,omitempty" json:"step_id,omitempty"`
	StepNumber      int                 `bson:"step_number,omitempty" json:"step_number,omitempty"`
	EscalationLevel EscalationLevel     `bson:"escalation_level" json:"escalation_level"`
	Subject         string              `bson:"subject" json:"subject"`
	Recipient       string              `bson:"recipient" json:"recipient"`
	DaysOverdue     int                 `bson:"days_overdue" json:"days_overdue"`
	SentAt          time.Time           `bson:"sent_at" json:"sent_at"`
}
