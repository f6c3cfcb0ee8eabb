package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeInfo     NotificationType = "info"
	NotificationTypeApproval NotificationType = "approval"
	NotificationTypeReminder NotificationType = "reminder"
	NotificationTypeWarning  NotificationType = "warning"
	NotificationTypeError    NotificationType = "error"
)

type Notification struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title          string             `bson:"title" json:"title"`
	Message        string             `bson:"message" json:"message"`
	Type           NotificationType   `bson:"type" json:"type"`
	Link           string             `bson:"link,omitempty" json:"link,omitempty"`
	IsRead         bool               `bson:"is_read" json:"is_read"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	ReadAt         *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
}
