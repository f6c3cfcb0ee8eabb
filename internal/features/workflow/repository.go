package workflow

import (
	"context"
	"time"

	"go-eventops/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WorkflowRepository interface {
	Create(ctx context.Context, workflow *WorkflowConfig) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*WorkflowConfig, error)
	List(ctx context.Context, organizationID primitive.ObjectID) ([]WorkflowConfig, error)
	Update(ctx context.Context, id primitive.ObjectID, workflow *WorkflowConfig) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// FindActive returns the active config for (organization, entity type),
	// or nil when none is configured. When several qualify the most recently
	// created one wins.
	FindActive(ctx context.Context, organizationID primitive.ObjectID, entityType string) (*WorkflowConfig, error)
}

type WorkflowRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewWorkflowRepository(mongodb *database.MongodbDB) WorkflowRepository {
	return &WorkflowRepositoryImpl{
		Collection: mongodb.DB.Collection("workflow_configs"),
	}
}

func (r *WorkflowRepositoryImpl) Create(ctx context.Context, workflow *WorkflowConfig) error {
	_, err := r.Collection.InsertOne(ctx, workflow)
	return err
}

func (r *WorkflowRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*WorkflowConfig, error) {
	var workflow WorkflowConfig
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workflow)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &workflow, nil
}

func (r *WorkflowRepositoryImpl) List(ctx context.Context, organizationID primitive.ObjectID) ([]WorkflowConfig, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"organization_id": organizationID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var workflows []WorkflowConfig
	if err = cursor.All(ctx, &workflows); err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *WorkflowRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, workflow *WorkflowConfig) error {
	update := bson.M{
		"$set": bson.M{
			"name":          workflow.Name,
			"active":        workflow.Active,
			"approval_type": workflow.ApprovalType,
			"config":        workflow.Config,
			"updated_at":    time.Now(),
		},
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *WorkflowRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *WorkflowRepositoryImpl) FindActive(ctx context.Context, organizationID primitive.ObjectID, entityType string) (*WorkflowConfig, error) {
	opts := options.FindOne().SetSort(bson.M{"created_at": -1})

	var workflow WorkflowConfig
	err := r.Collection.FindOne(ctx, bson.M{
		"organization_id": organizationID,
		"entity_type":     entityType,
		"active":          true,
	}, opts).Decode(&workflow)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &workflow, nil
}

type ApprovalRequestRepository interface {
	Create(ctx context.Context, request *ApprovalRequest) error
	ListByEntity(ctx context.Context, entityType string, entityID primitive.ObjectID) ([]ApprovalRequest, error)
}

type ApprovalRequestRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewApprovalRequestRepository(mongodb *database.MongodbDB) ApprovalRequestRepository {
	return &ApprovalRequestRepositoryImpl{
		Collection: mongodb.DB.Collection("approval_requests"),
	}
}

func (r *ApprovalRequestRepositoryImpl) Create(ctx context.Context, request *ApprovalRequest) error {
	_, err := r.Collection.InsertOne(ctx, request)
	return err
}

func (r *ApprovalRequestRepositoryImpl) ListByEntity(ctx context.Context, entityType string, entityID primitive.ObjectID) ([]ApprovalRequest, error) {
	opts := options.Find().SetSort(bson.M{"requested_at": -1})
	cursor, err := r.Collection.Find(ctx, bson.M{
		"entity_type": entityType,
		"entity_id":   entityID,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var requests []ApprovalRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
