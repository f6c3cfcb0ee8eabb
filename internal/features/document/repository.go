package document

import (
	"context"
	"time"

	"go-eventops/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *Document) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Document, error)
	List(ctx context.Context, organizationID primitive.ObjectID, filter map[string]interface{}) ([]Document, error)

	// MarkSubmitted performs the draft -> submitted transition as a single
	// conditional write. It reports false when the document was not in draft,
	// which is how a concurrent double-submit loses.
	MarkSubmitted(ctx context.Context, id primitive.ObjectID, submittedAt time.Time) (bool, error)

	SetRoutingStatus(ctx context.Context, id primitive.ObjectID, routing RoutingStatus) error
}

type DocumentRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDocumentRepository(mongodb *database.MongodbDB) DocumentRepository {
	return &DocumentRepositoryImpl{
		Collection: mongodb.DB.Collection("documents"),
	}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, document *Document) error {
	if document.ID.IsZero() {
		document.ID = primitive.NewObjectID()
	}
	document.CreatedAt = time.Now()
	document.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, document)
	return err
}

func (r *DocumentRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Document, error) {
	var document Document
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&document)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &document, nil
}

func (r *DocumentRepositoryImpl) List(ctx context.Context, organizationID primitive.ObjectID, filter map[string]interface{}) ([]Document, error) {
	query := bson.M{"organization_id": organizationID}
	for k, v := range filter {
		if str, ok := v.(string); ok && str == "" {
			continue
		}
		query[k] = v
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var documents []Document
	if err = cursor.All(ctx, &documents); err != nil {
		return nil, err
	}
	return documents, nil
}

func (r *DocumentRepositoryImpl) MarkSubmitted(ctx context.Context, id primitive.ObjectID, submittedAt time.Time) (bool, error) {
	result, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": DocumentStatusDraft},
		bson.M{"$set": bson.M{
			"status":       DocumentStatusSubmitted,
			"submitted_at": submittedAt,
			"updated_at":   submittedAt,
		}},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (r *DocumentRepositoryImpl) SetRoutingStatus(ctx context.Context, id primitive.ObjectID, routing RoutingStatus) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"routing_status": routing}},
	)
	return err
}
