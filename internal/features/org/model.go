package org

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Organization struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Slug      string             `bson:"slug" json:"slug"`
	OwnerID   primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type Department struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID  `bson:"organization_id" json:"organization_id"`
	Name           string              `bson:"name" json:"name"`
	ManagerID      *primitive.ObjectID `bson:"manager_id,omitempty" json:"manager_id,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}

// OrganizationMember links a user to an organization, optionally to a
// department and a role.
type OrganizationMember struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID  `bson:"organization_id" json:"organization_id"`
	UserID         primitive.ObjectID  `bson:"user_id" json:"user_id"`
	DepartmentID   *primitive.ObjectID `bson:"department_id,omitempty" json:"department_id,omitempty"`
	RoleID         *primitive.ObjectID `bson:"role_id,omitempty" json:"role_id,omitempty"`
	Active         bool                `bson:"active" json:"active"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}
