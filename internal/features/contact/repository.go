package contact

import (
	"context"

	"go-eventops/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Contact, error)
}

type ContactRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewContactRepository(mongodb *database.MongodbDB) ContactRepository {
	return &ContactRepositoryImpl{
		Collection: mongodb.DB.Collection("contacts"),
	}
}

func (r *ContactRepositoryImpl) Create(ctx context.Context, contact *Contact) error {
	_, err := r.Collection.InsertOne(ctx, contact)
	return err
}

func (r *ContactRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Contact, error) {
	var contact Contact
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&contact)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Company, error)
}

type CompanyRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewCompanyRepository(mongodb *database.MongodbDB) CompanyRepository {
	return &CompanyRepositoryImpl{
		Collection: mongodb.DB.Collection("companies"),
	}
}

func (r *CompanyRepositoryImpl) Create(ctx context.Context, company *Company) error {
	_, err := r.Collection.InsertOne(ctx, company)
	return err
}

func (r *CompanyRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Company, error) {
	var company Company
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&company)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}
