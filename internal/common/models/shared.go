package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	OrgIDKey ContextKey = "org_id"
)

type AuditAction string

const (
	AuditActionCreate   AuditAction = "CREATE"
	AuditActionUpdate   AuditAction = "UPDATE"
	AuditActionDelete   AuditAction = "DELETE"
	AuditActionLogin    AuditAction = "LOGIN"
	AuditActionSubmit   AuditAction = "SUBMIT"
	AuditActionApproval AuditAction = "APPROVAL"
	AuditActionReminder AuditAction = "REMINDER"
	AuditActionWorkflow AuditAction = "WORKFLOW"
	AuditActionExport   AuditAction = "EXPORT"
	AuditActionCron     AuditAction = "CRON"
)

// AuditLog is the append-only record of a state change. Old/new values are
// snapshots of the fields the mutation touched, not the full entity.
type AuditLog struct {
	ID             primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID     `bson:"organization_id,omitempty" json:"organization_id,omitempty"`
	Action         AuditAction            `bson:"action" json:"action"`
	EntityType     string                 `bson:"entity_type" json:"entity_type"`
	EntityID       string                 `bson:"entity_id" json:"entity_id"`
	ActorID        string                 `bson:"actor_id" json:"actor_id"`
	ActorName      string                 `bson:"-" json:"actor_name,omitempty"`
	OldValues      map[string]interface{} `bson:"old_values,omitempty" json:"old_values,omitempty"`
	NewValues      map[string]interface{} `bson:"new_values,omitempty" json:"new_values,omitempty"`
	Timestamp      time.Time              `bson:"timestamp" json:"timestamp"`
}

// Log is a row written by the async zap sink.
type Log struct {
	Message   string    `bson:"message"`
	Caller    string    `bson:"caller,omitempty"`
	LogLevel  int       `bson:"log_level"`
	CreatedAt time.Time `bson:"created_at"`
}
