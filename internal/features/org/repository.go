package org

import (
	"context"

	"go-eventops/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type OrganizationRepository interface {
	Create(ctx context.Context, organization *Organization) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Organization, error)
}

type OrganizationRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewOrganizationRepository(mongodb *database.MongodbDB) OrganizationRepository {
	return &OrganizationRepositoryImpl{
		Collection: mongodb.DB.Collection("organizations"),
	}
}

func (r *OrganizationRepositoryImpl) Create(ctx context.Context, organization *Organization) error {
	_, err := r.Collection.InsertOne(ctx, organization)
	return err
}

func (r *OrganizationRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Organization, error) {
	var organization Organization
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&organization)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &organization, nil
}

type DepartmentRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*Department, error)
	Create(ctx context.Context, department *Department) error
}

type DepartmentRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDepartmentRepository(mongodb *database.MongodbDB) DepartmentRepository {
	return &DepartmentRepositoryImpl{
		Collection: mongodb.DB.Collection("departments"),
	}
}

func (r *DepartmentRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Department, error) {
	var department Department
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&department)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &department, nil
}

func (r *DepartmentRepositoryImpl) Create(ctx context.Context, department *Department) error {
	_, err := r.Collection.InsertOne(ctx, department)
	return err
}

type MembershipRepository interface {
	Create(ctx context.Context, member *OrganizationMember) error
	FindActiveByUser(ctx context.Context, organizationID, userID primitive.ObjectID) (*OrganizationMember, error)
	FindFirstActiveByUser(ctx context.Context, userID primitive.ObjectID) (*OrganizationMember, error)
	ListActiveUserIDsByRole(ctx context.Context, organizationID, roleID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type MembershipRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMembershipRepository(mongodb *database.MongodbDB) MembershipRepository {
	return &MembershipRepositoryImpl{
		Collection: mongodb.DB.Collection("organization_members"),
	}
}

func (r *MembershipRepositoryImpl) Create(ctx context.Context, member *OrganizationMember) error {
	_, err := r.Collection.InsertOne(ctx, member)
	return err
}

func (r *MembershipRepositoryImpl) FindActiveByUser(ctx context.Context, organizationID, userID primitive.ObjectID) (*OrganizationMember, error) {
	var member OrganizationMember
	err := r.Collection.FindOne(ctx, bson.M{
		"organization_id": organizationID,
		"user_id":         userID,
		"active":          true,
	}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *MembershipRepositoryImpl) FindFirstActiveByUser(ctx context.Context, userID primitive.ObjectID) (*OrganizationMember, error) {
	var member OrganizationMember
	err := r.Collection.FindOne(ctx, bson.M{
		"user_id": userID,
		"active":  true,
	}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *MembershipRepositoryImpl) ListActiveUserIDsByRole(ctx context.Context, organizationID, roleID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{
		"organization_id": organizationID,
		"role_id":         roleID,
		"active":          true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []OrganizationMember
	if err = cursor.All(ctx, &members); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}
