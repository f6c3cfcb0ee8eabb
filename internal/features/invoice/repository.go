package invoice

import (
	"context"
	"time"

	"go-eventops/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Invoice, error)
	List(ctx context.Context, organizationID primitive.ObjectID) ([]Invoice, error)
	ListOverdueUnpaid(ctx context.Context, asOf time.Time) ([]Invoice, error)
}

type InvoiceRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewInvoiceRepository(mongodb *database.MongodbDB) InvoiceRepository {
	return &InvoiceRepositoryImpl{
		Collection: mongodb.DB.Collection("invoices"),
	}
}

func (r *InvoiceRepositoryImpl) Create(ctx context.Context, invoice *Invoice) error {
	if invoice.ID.IsZero() {
		invoice.ID = primitive.NewObjectID()
	}
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, invoice)
	return err
}

func (r *InvoiceRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Invoice, error) {
	var invoice Invoice
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&invoice)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepositoryImpl) List(ctx context.Context, organizationID primitive.ObjectID) ([]Invoice, error) {
	opts := options.Find().SetSort(bson.M{"due_date": 1})
	cursor, err := r.Collection.Find(ctx, bson.M{"organization_id": organizationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var invoices []Invoice
	if err = cursor.All(ctx, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *InvoiceRepositoryImpl) ListOverdueUnpaid(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{
		"status":   InvoiceStatusSent,
		"due_date": bson.M{"$lt": asOf},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var invoices []Invoice
	if err = cursor.All(ctx, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

type ReminderSequenceRepository interface {
	Create(ctx context.Context, sequence *ReminderSequence) error
	List(ctx context.Context, organizationID primitive.ObjectID) ([]ReminderSequence, error)

	// FindForOrganization returns the active sequence, preferring the one
	// flagged default when several are active. Nil when none is configured.
	FindForOrganization(ctx context.Context, organizationID primitive.ObjectID) (*ReminderSequence, error)
}

type ReminderSequenceRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewReminderSequenceRepository(mongodb *database.MongodbDB) ReminderSequenceRepository {
	return &ReminderSequenceRepositoryImpl{
		Collection: mongodb.DB.Collection("reminder_sequences"),
	}
}

func (r *ReminderSequenceRepositoryImpl) Create(ctx context.Context, sequence *ReminderSequence) error {
	if sequence.ID.IsZero() {
		sequence.ID = primitive.NewObjectID()
	}
	sequence.CreatedAt = time.Now()
	sequence.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, sequence)
	return err
}

func (r *ReminderSequenceRepositoryImpl) List(ctx context.Context, organizationID primitive.ObjectID) ([]ReminderSequence, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"organization_id": organizationID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var sequences []ReminderSequence
	if err = cursor.All(ctx, &sequences); err != nil {
		return nil, err
	}
	return sequences, nil
}

func (r *ReminderSequenceRepositoryImpl) FindForOrganization(ctx context.Context, organizationID primitive.ObjectID) (*ReminderSequence, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "is_default", Value: -1}, {Key: "created_at", Value: -1}})

	var sequence ReminderSequence
	err := r.Collection.FindOne(ctx, bson.M{
		"organization_id": organizationID,
		"active":          true,
	}, opts).Decode(&sequence)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &sequence, nil
}

type ReminderLogRepository interface {
	// Create inserts the log entry. The unique (invoice_id, step_id) index
	// makes this insert the serialization point for concurrent sends.
	Create(ctx context.Context, entry *ReminderLog) error
	ListByInvoice(ctx context.Context, invoiceID primitive.ObjectID) ([]ReminderLog, error)
	SentStepIDs(ctx context.Context, invoiceID primitive.ObjectID) (map[string]bool, error)
	EnsureIndexes(ctx context.Context) error
}

type ReminderLogRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewReminderLogRepository(mongodb *database.MongodbDB) ReminderLogRepository {
	return &ReminderLogRepositoryImpl{
		Collection: mongodb.DB.Collection("reminder_logs"),
	}
}

func (r *ReminderLogRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "invoice_id", Value: 1}, {Key: "step_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"step_id": bson.M{"$exists": true}}),
	})
	return err
}

func (r *ReminderLogRepositoryImpl) Create(ctx context.Context, entry *ReminderLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, entry)
	return err
}

func (r *ReminderLogRepositoryImpl) ListByInvoice(ctx context.Context, invoiceID primitive.ObjectID) ([]ReminderLog, error) {
	opts := options.Find().SetSort(bson.M{"sent_at": -1})
	cursor, err := r.Collection.Find(ctx, bson.M{"invoice_id": invoiceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var entries []ReminderLog
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ReminderLogRepositoryImpl) SentStepIDs(ctx context.Context, invoiceID primitive.ObjectID) (map[string]bool, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{
		"invoice_id": invoiceID,
		"step_id":    bson.M{"$exists": true},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []ReminderLog
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}

	sent := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.StepID != nil {
			sent[e.StepID.Hex()] = true
		}
	}
	return sent, nil
}
